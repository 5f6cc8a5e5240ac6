package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/kasuganosora/geospatial/pkg/spatial"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: GEOSPATIAL_DATABASE_HOST sets
// database.host.
const EnvPrefix = "GEOSPATIAL"

// OutputFormats lists the accepted values of spatial.output_format.
var OutputFormats = []string{"wkt", "wkb-hex", "geojson", "featurecollection", "sql"}

// Config is the application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Spatial  SpatialConfig  `mapstructure:"spatial"`
}

// DatabaseConfig describes the MySQL or MariaDB server.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Engine   string `mapstructure:"engine"` // mysql or mariadb
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// SpatialConfig holds codec defaults.
type SpatialConfig struct {
	DefaultSRID  int    `mapstructure:"default_srid"`
	OutputFormat string `mapstructure:"output_format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:   "localhost",
			Port:   3306,
			User:   "root",
			DBName: "geospatial",
			Engine: "mysql",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Spatial: SpatialConfig{
			DefaultSRID:  0,
			OutputFormat: "wkt",
		},
	}
}

// DSN formats the go-sql-driver/mysql connection string.
func (d DatabaseConfig) DSN() string {
	cfg := mysqldriver.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	cfg.DBName = d.DBName
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// SpatialEngine parses Engine.
func (d DatabaseConfig) SpatialEngine() (spatial.Engine, error) {
	return spatial.ParseEngine(d.Engine)
}

// Load reads defaults, then the config file, then GEOSPATIAL_* environment
// variables. With an empty path, geospatial.{yaml,json} is looked up in the
// working directory and ./config and is optional.
func Load(path string) (*Config, error) {
	v := NewViper()
	if err := ReadInConfig(v, path); err != nil {
		return nil, err
	}
	return FromViper(v)
}

// ReadInConfig loads path into v, or searches for an optional
// geospatial.{yaml,json} when path is empty.
func ReadInConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("geospatial")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// NewViper returns a viper instance carrying the defaults and the
// environment binding, for callers that bind their own flags.
func NewViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()

	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.dbname", d.Database.DBName)
	v.SetDefault("database.engine", d.Database.Engine)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("spatial.default_srid", d.Spatial.DefaultSRID)
	v.SetDefault("spatial.output_format", d.Spatial.OutputFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if _, err := c.Database.SpatialEngine(); err != nil {
		errs = append(errs, fmt.Sprintf("database.engine: %v", err))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}
	if c.Spatial.DefaultSRID < 0 || int64(c.Spatial.DefaultSRID) > 4294967295 {
		errs = append(errs, fmt.Sprintf("spatial.default_srid out of range: %d", c.Spatial.DefaultSRID))
	}
	if !isOutputFormat(c.Spatial.OutputFormat) {
		errs = append(errs, fmt.Sprintf("spatial.output_format must be one of %s, got %q",
			strings.Join(OutputFormats, ", "), c.Spatial.OutputFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func isOutputFormat(format string) bool {
	for _, f := range OutputFormats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}
