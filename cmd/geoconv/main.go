package main

import (
	"os"

	"github.com/kasuganosora/geospatial/pkg/config"
	"github.com/kasuganosora/geospatial/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	viper      *viper.Viper
	cfg        *config.Config
	logger     logging.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{viper: config.NewViper()}

	root := &cobra.Command{
		Use:   "geoconv",
		Short: "convert geometries between WKT, WKB, GeoJSON and SQL",
		Long: `
  Reads one geometry as WKT, hex-encoded WKB or GeoJSON and writes it in
  another representation, including the ST_GeomFromText fragment a MySQL
  or MariaDB server accepts.
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: geospatial.{yaml,json} in . or ./config)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: json or text")
	flags.String("engine", "", "spatial engine for sql output: mysql or mariadb")
	flags.Int("srid", 0, "SRID applied to WKT and GeoJSON input")
	// unchanged flags fall through to env, file and defaults
	_ = a.viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.viper.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = a.viper.BindPFlag("database.engine", flags.Lookup("engine"))
	_ = a.viper.BindPFlag("spatial.default_srid", flags.Lookup("srid"))

	root.AddCommand(newConvertCmd(a), newInfoCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if err := config.ReadInConfig(a.viper, a.configPath); err != nil {
		return err
	}
	cfg, err := config.FromViper(a.viper)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.NewSlogLogger(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, cmd.ErrOrStderr())
	a.logger.Debug("config loaded: engine=%s srid=%d output=%s",
		cfg.Database.Engine, cfg.Spatial.DefaultSRID, cfg.Spatial.OutputFormat)
	return nil
}
