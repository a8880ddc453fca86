package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/supply-map-service/internal/adapter/mapbox"
	"github.com/couchcryptid/supply-map-service/internal/domain"
)

// newGeocoder builds the geocoder behind "reference build". Tests swap it out.
var newGeocoder = func(token string, timeout time.Duration, logger *slog.Logger) domain.Geocoder {
	return mapbox.NewClient(token, timeout, nil, logger)
}

func newReferenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Reference table tools",
	}
	cmd.AddCommand(newReferenceBuildCmd())
	return cmd
}

func newReferenceBuildCmd() *cobra.Command {
	var (
		names     string
		country   string
		token     string
		timeout   time.Duration
		cacheSize int
		out       string
		fields    referenceFieldFlags
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Geocode a list of region names into a reference table",
		Long: `
Reads one region name per line and looks each up with the Mapbox geocoding
API. Names Mapbox cannot resolve are logged and left out. Blank lines and
repeated names are skipped.

$ printf 'Gujarat\nKerala\n' | geojoin reference build --country IN > data/in.json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				return errors.New("a Mapbox token is required (--token or MAPBOX_TOKEN)")
			}

			var in io.Reader = cmd.InOrStdin()
			if names != "" && names != "-" {
				f, err := os.Open(names)
				if err != nil {
					return fmt.Errorf("open names: %w", err)
				}
				defer f.Close()
				in = f
			}
			list, err := readNames(in)
			if err != nil {
				return err
			}

			geocoder := mapbox.NewCachedGeocoder(newGeocoder(token, timeout, slog.Default()), cacheSize, nil)
			rows, missed := buildReference(cmd.Context(), geocoder, list, country, fields)
			if missed > 0 {
				slog.Warn("some names could not be geocoded", "missed", missed, "total", len(list))
			}
			return writeOutput(cmd.OutOrStdout(), out, rows)
		},
	}

	cmd.Flags().StringVarP(&names, "names", "n", "", "file with one region name per line (default stdin)")
	cmd.Flags().StringVarP(&country, "country", "c", "IN", "ISO 3166 alpha-2 country to restrict lookups to, empty for any")
	cmd.Flags().StringVar(&token, "token", os.Getenv("MAPBOX_TOKEN"), "Mapbox access token")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "per-request timeout")
	cmd.Flags().IntVar(&cacheSize, "cache-size", 1000, "geocode cache entries")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	fields.register(cmd)

	return cmd
}

// readNames returns the trimmed, non-blank lines of r, dropping names that
// normalize to one already seen.
func readNames(r io.Reader) ([]string, error) {
	var names []string
	seen := map[string]struct{}{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		key := domain.NormalizeKey(name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read names: %w", err)
	}
	return names, nil
}

// buildReference geocodes each name into a reference row laid out by
// fields. Coordinates are written as strings with four decimals, the layout
// the dashboards' in.json uses. It returns the rows and the number of names
// that produced no result.
func buildReference(ctx context.Context, geocoder domain.Geocoder, names []string, country string, fields referenceFieldFlags) ([]map[string]string, int) {
	rows := make([]map[string]string, 0, len(names))
	missed := 0
	for _, name := range names {
		res, err := geocoder.ForwardGeocode(ctx, name, country)
		if err != nil || res.FormattedAddress == "" {
			slog.Warn("no geocoding result", "name", name, "error", err)
			missed++
			continue
		}
		slog.Debug("geocoded", "name", name, "place", res.FormattedAddress, "confidence", res.Confidence)
		rows = append(rows, map[string]string{
			fields.name: name,
			fields.lat:  strconv.FormatFloat(res.Lat, 'f', 4, 64),
			fields.lon:  strconv.FormatFloat(res.Lon, 'f', 4, 64),
		})
	}
	return rows, missed
}
