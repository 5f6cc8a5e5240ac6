package spatial

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Engine is the spatial SQL flavour of the target database.
type Engine int

const (
	// MySQL needs an explicit axis-order argument so WKT is read as long/lat.
	MySQL Engine = iota
	// MariaDB always reads WKT as x/y and rejects the axis-order argument.
	MariaDB
)

const axisOrderLongLat = "axis-order=long-lat"

const engineSettingKey = "spatial:engine"

func (e Engine) String() string {
	switch e {
	case MySQL:
		return "mysql"
	case MariaDB:
		return "mariadb"
	default:
		return fmt.Sprintf("Engine(%d)", int(e))
	}
}

// AxisOrder returns the ST_GeomFromText option for e, or "" when the engine
// takes none.
func (e Engine) AxisOrder() string {
	if e == MariaDB {
		return ""
	}
	return axisOrderLongLat
}

// ParseEngine maps a configuration value to an Engine. The empty string
// selects MySQL.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mysql":
		return MySQL, nil
	case "mariadb", "maria":
		return MariaDB, nil
	}
	return MySQL, fmt.Errorf("unknown spatial engine %q", s)
}

// EngineProvider is implemented by dialectors that know their engine.
type EngineProvider interface {
	SpatialEngine() Engine
}

// WithEngine overrides the engine for one session.
func WithEngine(db *gorm.DB, engine Engine) *gorm.DB {
	return db.Set(engineSettingKey, engine)
}

// EngineOf resolves the engine for db: a WithEngine setting first, then the
// dialector, then MySQL.
func EngineOf(db *gorm.DB) Engine {
	if db == nil {
		return MySQL
	}
	if db.Statement != nil {
		if v, ok := db.Get(engineSettingKey); ok {
			if e, ok := v.(Engine); ok {
				return e
			}
		}
	}
	if db.Config != nil {
		if p, ok := db.Dialector.(EngineProvider); ok {
			return p.SpatialEngine()
		}
	}
	return MySQL
}

// QuoteIdentifier backtick-quotes a column or alias. Dotted names are quoted
// per part and embedded backticks are doubled.
func QuoteIdentifier(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("empty identifier")
	}
	parts := strings.Split(name, ".")
	var sb strings.Builder
	for i, part := range parts {
		if part == "" {
			return "", fmt.Errorf("invalid identifier %q", name)
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		writeQuoted(&sb, part)
	}
	return sb.String(), nil
}

type byteWriter interface {
	WriteByte(c byte) error
	WriteString(s string) (int, error)
}

func writeQuoted(w byteWriter, part string) {
	w.WriteByte('`')
	w.WriteString(strings.ReplaceAll(part, "`", "``"))
	w.WriteByte('`')
}

var spatialColumnTypes = map[string]bool{
	"GEOMETRY":           true,
	"POINT":              true,
	"LINESTRING":         true,
	"POLYGON":            true,
	"MULTIPOINT":         true,
	"MULTILINESTRING":    true,
	"MULTIPOLYGON":       true,
	"GEOMETRYCOLLECTION": true,
	"GEOMCOLLECTION":     true,
}

// IsSpatialColumnType reports whether typ names a spatial SQL column type.
func IsSpatialColumnType(typ string) bool {
	return spatialColumnTypes[strings.ToUpper(strings.TrimSpace(typ))]
}
