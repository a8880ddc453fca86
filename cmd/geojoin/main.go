// Command geojoin joins JSON subject files against a reference table of
// region coordinates and builds reference tables with Mapbox.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load(".env.local")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "geojoin",
		Short: "Attach region coordinates to JSON records",
		Long: `
geojoin matches records to a reference table of regions by a location field
(case and surrounding whitespace are ignored) and emits each matched record
with a "coords" [lat, lon] field. Records whose location is not in the table
are reported on stderr and left out.
`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	root.AddCommand(newJoinCmd())
	root.AddCommand(newReferenceCmd())
	return root
}

// referenceFieldFlags names the fields of a reference table row.
type referenceFieldFlags struct {
	name, lat, lon string
}

func (f *referenceFieldFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name-field", "State.Name", "reference row field holding the region name")
	cmd.Flags().StringVar(&f.lat, "lat-field", "latitude", "reference row field holding the latitude")
	cmd.Flags().StringVar(&f.lon, "lon-field", "longitude", "reference row field holding the longitude")
}

// writeOutput writes v as indented JSON to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	data = append(data, '\n')
	if path == "" || path == "-" {
		_, err = w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
