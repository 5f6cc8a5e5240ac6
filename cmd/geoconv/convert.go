package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kasuganosora/geospatial/pkg/geom"
	"github.com/kasuganosora/geospatial/pkg/spatial"
	"github.com/kasuganosora/geospatial/pkg/workerpool"
	"github.com/spf13/cobra"
)

// input formats accepted by --from
const (
	formatAuto    = "auto"
	formatWKT     = "wkt"
	formatWKBHex  = "wkb-hex"
	formatGeoJSON = "geojson"
)

// maxBatchLine bounds one line of --batch input.
const maxBatchLine = 16 << 20

var sqlChecker = spatial.NewSQLChecker()

func newConvertCmd(a *app) *cobra.Command {
	var (
		from, to string
		batch    bool
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "convert [geometry]",
		Short: "convert one geometry to another representation",
		Long: `
  Reads a geometry from the argument, or from stdin when none is given, and
  writes it as wkt, wkb-hex, geojson, featurecollection or sql. WKT and
  GeoJSON input take the SRID from --srid; hex WKB carries its own.

  With --batch, stdin holds one geometry per line and the lines are
  converted in parallel; output keeps the input order.
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				to = a.cfg.Spatial.OutputFormat
			}
			engine, err := a.cfg.Database.SpatialEngine()
			if err != nil {
				return err
			}
			if batch {
				if len(args) > 0 {
					return fmt.Errorf("--batch reads stdin only")
				}
				return a.convertBatch(cmd, from, to, engine, workers)
			}

			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			g, err := parseGeometry(text, from, a.cfg.Spatial.DefaultSRID)
			if err != nil {
				return err
			}
			out, err := formatGeometry(g, to, engine)
			if err != nil {
				return err
			}
			a.logger.Debug("converted %s srid=%d to %s", g.Kind(), g.SRID(), to)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", formatAuto, "input format: auto, wkt, wkb-hex or geojson")
	cmd.Flags().StringVar(&to, "to", "", "output format (default: spatial.output_format)")
	cmd.Flags().BoolVar(&batch, "batch", false, "convert one geometry per stdin line")
	cmd.Flags().IntVar(&workers, "workers", 0, "batch workers (default: one per CPU)")
	return cmd
}

type batchLine struct {
	number int
	text   string
}

func (a *app) convertBatch(cmd *cobra.Command, from, to string, engine spatial.Engine, workers int) error {
	var lines []batchLine
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), maxBatchLine)
	for n := 1; scanner.Scan(); n++ {
		if text := strings.TrimSpace(scanner.Text()); text != "" {
			lines = append(lines, batchLine{number: n, text: text})
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	poolConfig := workerpool.DefaultConfig()
	if workers > 0 {
		poolConfig.Size = workers
	}
	srid := a.cfg.Spatial.DefaultSRID
	out, stats, err := workerpool.Map(cmd.Context(), poolConfig, lines,
		func(ctx context.Context, l batchLine) (string, error) {
			g, err := parseGeometry(l.text, from, srid)
			if err != nil {
				return "", err
			}
			return formatGeometry(g, to, engine)
		})
	if err != nil {
		var taskErr *workerpool.TaskError
		if errors.As(err, &taskErr) {
			return fmt.Errorf("line %d: %w", lines[taskErr.Index].number, taskErr.Err)
		}
		return err
	}

	w := bufio.NewWriter(cmd.OutOrStdout())
	for _, line := range out {
		fmt.Fprintln(w, line)
	}
	a.logger.Info("converted %d geometries to %s with %d workers", stats.Completed, to, stats.Workers)
	return w.Flush()
}

func newInfoCmd(a *app) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "info [geometry]",
		Short: "describe one geometry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			g, err := parseGeometry(text, from, a.cfg.Spatial.DefaultSRID)
			if err != nil {
				return err
			}
			writeInfo(cmd.OutOrStdout(), g)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", formatAuto, "input format: auto, wkt, wkb-hex or geojson")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return strings.TrimSpace(args[0]), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no geometry given")
	}
	return text, nil
}

// detectFormat guesses the input format: a leading '{' is GeoJSON and a
// string made only of hex digits is WKB.
func detectFormat(text string) string {
	if strings.HasPrefix(text, "{") {
		return formatGeoJSON
	}
	if len(text) > 0 && len(text)%2 == 0 && isHex(text) {
		return formatWKBHex
	}
	return formatWKT
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func parseGeometry(text, format string, srid int) (geom.Geometry, error) {
	format = strings.ToLower(format)
	if format == "" || format == formatAuto {
		format = detectFormat(text)
	}
	switch format {
	case formatWKT:
		return geom.FromWKT(text, srid)
	case formatWKBHex:
		return geom.FromWKBHex(text)
	case formatGeoJSON:
		return geom.FromJSON(text, srid)
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

func formatGeometry(g geom.Geometry, format string, engine spatial.Engine) (string, error) {
	switch strings.ToLower(format) {
	case "wkt":
		return g.WKT(), nil
	case "wkb-hex":
		return geom.ToWKBHex(g), nil
	case "geojson":
		return g.JSON(), nil
	case "featurecollection":
		return g.FeatureCollectionJSON(), nil
	case "sql":
		expr, err := spatial.NewExpression(g, engine)
		if err != nil {
			return "", err
		}
		sql := expr.SQL()
		if err := sqlChecker.CheckExpression(sql); err != nil {
			return "", err
		}
		return sql, nil
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

func writeInfo(w io.Writer, g geom.Geometry) {
	fmt.Fprintf(w, "kind:     %s\n", g.Kind())
	fmt.Fprintf(w, "srid:     %d\n", g.SRID())
	fmt.Fprintf(w, "points:   %d\n", g.NumPoints())
	fmt.Fprintf(w, "empty:    %t\n", g.IsEmpty())
	if !g.IsEmpty() {
		bb := g.Envelope()
		fmt.Fprintf(w, "envelope: %g %g, %g %g\n", bb.MinX, bb.MinY, bb.MaxX, bb.MaxY)
	}
}
