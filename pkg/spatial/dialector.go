package spatial

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/kasuganosora/geospatial/pkg/logging"
	"gorm.io/gorm"
	"gorm.io/gorm/callbacks"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/migrator"
	"gorm.io/gorm/schema"
)

// DefaultDriverName is the database/sql driver registered by go-sql-driver/mysql.
const DefaultDriverName = "mysql"

// Config configures the Dialector.
type Config struct {
	DriverName string
	DSN        string
	Conn       gorm.ConnPool // used instead of opening DSN when set
	Engine     Engine
	Logger     logging.Logger // also receives gorm's statement traces when set
}

// Dialector is a gorm dialector for the MySQL family that knows which spatial
// engine it talks to.
type Dialector struct {
	*Config
}

// Open creates a Dialector for a MySQL DSN.
func Open(dsn string) gorm.Dialector {
	return &Dialector{Config: &Config{DSN: dsn}}
}

// New creates a Dialector from config.
func New(config Config) gorm.Dialector {
	return &Dialector{Config: &config}
}

// Name returns the dialect name
func (d *Dialector) Name() string {
	return "mysql"
}

// SpatialEngine implements EngineProvider.
func (d *Dialector) SpatialEngine() Engine {
	return d.Engine
}

// Initialize registers the default callbacks and opens the connection pool.
// Without a DSN or Conn the dialector only renders SQL.
func (d *Dialector) Initialize(db *gorm.DB) error {
	if d.Logger == nil {
		d.Logger = logging.NewNoOpLogger()
	} else {
		db.Logger = logging.NewGormLogger(d.Logger)
	}
	callbacks.RegisterDefaultCallbacks(db, &callbacks.Config{})

	if d.Conn != nil {
		db.ConnPool = d.Conn
		return nil
	}
	if d.DSN == "" {
		d.Logger.Debug("spatial dialector initialized without a connection (engine=%s)", d.Engine)
		return nil
	}

	cfg, err := mysqldriver.ParseDSN(d.DSN)
	if err != nil {
		return fmt.Errorf("spatial: invalid DSN: %w", err)
	}
	if d.DriverName == "" {
		d.DriverName = DefaultDriverName
	}
	pool, err := sql.Open(d.DriverName, cfg.FormatDSN())
	if err != nil {
		return fmt.Errorf("spatial: open %s: %w", d.DriverName, err)
	}
	db.ConnPool = pool
	d.Logger.Info("spatial dialector connected to %s/%s (engine=%s)", cfg.Addr, cfg.DBName, d.Engine)
	return nil
}

// Migrator uses gorm's generic migrator with this dialector's types.
func (d *Dialector) Migrator(db *gorm.DB) gorm.Migrator {
	return migrator.Migrator{Config: migrator.Config{
		DB:        db,
		Dialector: d,
	}}
}

// DataTypeOf determines the column type of a schema field. Spatial fields
// take their type from Field.GormDataType and an optional srid tag.
func (d *Dialector) DataTypeOf(field *schema.Field) string {
	if IsSpatialColumnType(string(field.DataType)) {
		typ := strings.ToUpper(string(field.DataType))
		if srid, ok := field.TagSettings["SRID"]; ok && d.Engine == MySQL {
			if _, err := strconv.Atoi(srid); err == nil {
				typ += " SRID " + srid
			}
		}
		return typ
	}

	switch field.DataType {
	case schema.Bool:
		return "BOOLEAN"
	case schema.Int, schema.Uint:
		var typ string
		switch {
		case field.Size <= 8:
			typ = "TINYINT"
		case field.Size <= 16:
			typ = "SMALLINT"
		case field.Size <= 32:
			typ = "INT"
		default:
			typ = "BIGINT"
		}
		if field.DataType == schema.Uint {
			typ += " UNSIGNED"
		}
		if field.AutoIncrement {
			typ += " AUTO_INCREMENT"
		}
		return typ
	case schema.Float:
		if field.Size <= 32 {
			return "FLOAT"
		}
		return "DOUBLE"
	case schema.String:
		if field.Size > 0 && field.Size < 65536 {
			return fmt.Sprintf("VARCHAR(%d)", field.Size)
		}
		if field.PrimaryKey || field.HasDefaultValue || field.Unique {
			return "VARCHAR(191)"
		}
		return "LONGTEXT"
	case schema.Time:
		return "DATETIME(3)"
	case schema.Bytes:
		return "LONGBLOB"
	default:
		return string(field.DataType)
	}
}

// DefaultValueOf provides the default value of a schema field
func (d *Dialector) DefaultValueOf(field *schema.Field) clause.Expression {
	return clause.Expr{SQL: "DEFAULT"}
}

// BindVarTo writes the placeholder for a bind variable
func (d *Dialector) BindVarTo(writer clause.Writer, stmt *gorm.Statement, v interface{}) {
	writer.WriteByte('?')
}

// QuoteTo backtick-quotes identifiers, per part for dotted names.
func (d *Dialector) QuoteTo(writer clause.Writer, str string) {
	for i, part := range strings.Split(str, ".") {
		if i > 0 {
			writer.WriteByte('.')
		}
		if part == "*" {
			writer.WriteString(part)
			continue
		}
		writeQuoted(writer, part)
	}
}

// Explain inlines vars into sql for logging and ToSQL.
func (d *Dialector) Explain(sql string, vars ...interface{}) string {
	return logger.ExplainSQL(sql, nil, `'`, vars...)
}
