package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/supply-map-service/internal/adapter/source"
	"github.com/couchcryptid/supply-map-service/internal/domain"
)

func newJoinCmd() *cobra.Command {
	var (
		reference     string
		subjects      string
		locationField string
		wrapKey       string
		out           string
		strict        bool
		fields        referenceFieldFlags
	)

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join a subject file against a reference table",
		Long: `
Reads a JSON array of subject records (or an object wrapping one) and prints
the matched records with coordinates. Both inputs may be file paths or
http(s) URLs. An input that cannot be fetched or parsed is logged and
treated as empty, so the output is [] rather than an error; pass --strict
to fail instead.

$ geojoin join --subjects data/supplier-api-response.json --location-field state
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			// Like the dashboards, an input that cannot be loaded is treated
			// as empty unless --strict is set.
			lenient := func(what string, err error) error {
				if strict {
					return fmt.Errorf("%s: %w", what, err)
				}
				slog.Warn(what+" failed, treating it as empty", "error", err)
				return nil
			}

			var regions []domain.ReferenceRegion
			refData, err := source.NewLoader(reference).Fetch(ctx)
			if err == nil {
				var skipped int
				regions, skipped, err = domain.ParseReferenceTable(refData, domain.ReferenceFields{
					Name: fields.name,
					Lat:  fields.lat,
					Lon:  fields.lon,
				})
				if skipped > 0 {
					slog.Warn("skipped reference rows", "count", skipped)
				}
			}
			if err != nil {
				if lerr := lenient("load reference table", err); lerr != nil {
					return lerr
				}
			}

			var records []domain.SubjectRecord
			subjData, err := source.NewLoader(subjects).Fetch(ctx)
			if err == nil {
				records, err = domain.ParseSubjects(subjData, locationField, wrapKey)
			}
			if err != nil {
				if lerr := lenient("load subjects", err); lerr != nil {
					return lerr
				}
			}

			res := domain.NewRegionIndex(regions).Join(records, slog.Default())
			slog.Debug("join complete", "regions", len(regions), "matched", len(res.Records), "unmatched", len(res.Unmatched))

			return writeOutput(cmd.OutOrStdout(), out, res.Records)
		},
	}

	cmd.Flags().StringVarP(&reference, "reference", "r", "data/in.json", "reference table file or URL")
	cmd.Flags().StringVarP(&subjects, "subjects", "s", "", "subject records file or URL")
	cmd.Flags().StringVarP(&locationField, "location-field", "l", "state", "subject field holding the region name")
	cmd.Flags().StringVar(&wrapKey, "wrap-key", "", "key of the records array when the input is an object")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when an input cannot be loaded instead of treating it as empty")
	fields.register(cmd)
	_ = cmd.MarkFlagRequired("subjects")

	return cmd
}
