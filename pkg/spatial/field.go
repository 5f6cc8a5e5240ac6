package spatial

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/kasuganosora/geospatial/pkg/geom"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Field is a nullable geometry attribute of a model. T selects the variant
// the column holds; geom.Geometry accepts any variant.
//
//	type Place struct {
//		ID       uint
//		Location spatial.Field[*geom.Point] `gorm:"srid:4326"`
//	}
type Field[T geom.Geometry] struct {
	Geometry T
	Valid    bool // Valid is true if Geometry is not NULL
}

// NewField wraps g. A nil g yields a NULL field.
func NewField[T geom.Geometry](g T) Field[T] {
	return Field[T]{Geometry: g, Valid: !geom.IsNil(g)}
}

// Scan implements sql.Scanner. Binary input is decoded as standard WKB and
// then as MySQL's internal format; text input is GeoJSON when it starts with
// '{' and WKT otherwise.
func (f *Field[T]) Scan(value interface{}) error {
	var zero T
	if value == nil {
		f.Geometry, f.Valid = zero, false
		return nil
	}

	var (
		g   geom.Geometry
		err error
	)
	switch v := value.(type) {
	case []byte:
		g, err = decodeBytes(v)
	case string:
		g, err = decodeText(v)
	default:
		return geom.NewError(geom.ErrCodeTypeMismatch,
			fmt.Sprintf("cannot scan %T into Field[%s]", value, geom.KindOf[T]()), nil)
	}
	if err != nil {
		return err
	}

	typed, err := geom.As[T](g)
	if err != nil {
		return err
	}
	f.Geometry, f.Valid = typed, true
	return nil
}

// Value implements driver.Valuer with standard WKB.
func (f Field[T]) Value() (driver.Value, error) {
	if !f.Valid || geom.IsNil(f.Geometry) {
		return nil, nil
	}
	return f.Geometry.WKB(), nil
}

// GormValue renders the ST_GeomFromText call for the session's engine.
func (f Field[T]) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	if !f.Valid || geom.IsNil(f.Geometry) {
		return clause.Expr{SQL: "NULL"}
	}
	expr, err := NewExpression(f.Geometry, EngineOf(db))
	if err != nil {
		db.AddError(err)
		return clause.Expr{SQL: "NULL"}
	}
	return expr.Clause()
}

// GormDataType returns the column type for T.
func (Field[T]) GormDataType() string {
	if k := geom.KindOf[T](); k != 0 {
		return k.Keyword()
	}
	return "GEOMETRY"
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Valid || geom.IsNil(f.Geometry) {
		return []byte("null"), nil
	}
	return []byte(f.Geometry.JSON()), nil
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		var zero T
		f.Geometry, f.Valid = zero, false
		return nil
	}
	typed, err := geom.Expect[T](geom.FromJSON(string(data), 0))
	if err != nil {
		return err
	}
	f.Geometry, f.Valid = typed, true
	return nil
}

func decodeText(s string) (geom.Geometry, error) {
	if len(s) > 0 && s[0] == '{' {
		return geom.FromJSON(s, 0)
	}
	return geom.FromWKT(s, 0)
}

// decodeBytes tries standard WKB first since the driver may hand back what
// Value wrote. A failing pair of decoders reports the error of the format the
// leading byte points at: WKB starts with a byte order of 0 or 1.
func decodeBytes(b []byte) (geom.Geometry, error) {
	if len(b) == 0 {
		return nil, geom.NewError(geom.ErrCodeMalformedWKB, "empty geometry value", nil)
	}
	if isPrintable(b) {
		return decodeText(string(b))
	}
	g, wkbErr := geom.FromWKB(b)
	if wkbErr == nil {
		return g, nil
	}
	g, mysqlErr := geom.FromMySQL(b)
	if mysqlErr == nil {
		return g, nil
	}
	if b[0] <= 1 {
		return nil, wkbErr
	}
	return nil, mysqlErr
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if (c < 0x20 && c != '\t' && c != '\n' && c != '\r') || c > 0x7e {
			return false
		}
	}
	return true
}
