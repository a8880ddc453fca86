package domain

import (
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrUnmatchedLocation is returned when a single record's location has no
// entry in the reference table.
var ErrUnmatchedLocation = errors.New("no reference region for location")

// NormalizeKey canonicalizes a location or region name for lookup:
// NFC composition, surrounding whitespace trimmed, lowercased.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// RegionIndex maps normalized region names to coordinates. It is immutable
// after construction and safe for concurrent reads.
type RegionIndex struct {
	coords  map[string]Geo
	regions []ReferenceRegion
}

// NewRegionIndex builds an index from reference rows. When two rows share a
// normalized name the later row wins. Rows with a blank name are ignored.
func NewRegionIndex(regions []ReferenceRegion) *RegionIndex {
	ix := &RegionIndex{
		coords:  make(map[string]Geo, len(regions)),
		regions: make([]ReferenceRegion, 0, len(regions)),
	}
	for _, r := range regions {
		key := NormalizeKey(r.Name)
		if key == "" {
			continue
		}
		ix.coords[key] = r.Geo
		ix.regions = append(ix.regions, r)
	}
	return ix
}

// Len returns the number of distinct normalized names.
func (ix *RegionIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.coords)
}

// Regions returns the rows the index was built from, in load order.
func (ix *RegionIndex) Regions() []ReferenceRegion {
	if ix == nil {
		return []ReferenceRegion{}
	}
	out := make([]ReferenceRegion, len(ix.regions))
	copy(out, ix.regions)
	return out
}

// Lookup returns the coordinates for a location, normalizing it first.
func (ix *RegionIndex) Lookup(location string) (Geo, bool) {
	if ix == nil {
		return Geo{}, false
	}
	g, ok := ix.coords[NormalizeKey(location)]
	return g, ok
}

// JoinResult holds the matched records in input order and the raw
// location keys that had no match.
type JoinResult struct {
	Records   []JoinedRecord
	Unmatched []string
}

// Join attaches coordinates to every subject whose location is in the index.
// Unmatched subjects are logged at warn level and left out of Records.
func (ix *RegionIndex) Join(subjects []SubjectRecord, logger *slog.Logger) JoinResult {
	if logger == nil {
		logger = slog.Default()
	}
	res := JoinResult{Records: make([]JoinedRecord, 0, len(subjects))}
	for _, s := range subjects {
		g, ok := ix.Lookup(s.LocationKey)
		if !ok {
			logger.Warn("no coordinates found for location", "location", s.LocationKey)
			res.Unmatched = append(res.Unmatched, s.LocationKey)
			continue
		}
		res.Records = append(res.Records, JoinedRecord{SubjectRecord: s, Geo: g})
	}
	return res
}

// JoinOne joins a single subject, returning ErrUnmatchedLocation on a miss.
func (ix *RegionIndex) JoinOne(subject SubjectRecord) (JoinedRecord, error) {
	g, ok := ix.Lookup(subject.LocationKey)
	if !ok {
		return JoinedRecord{}, ErrUnmatchedLocation
	}
	return JoinedRecord{SubjectRecord: subject, Geo: g}, nil
}

// Join matches subjects against a reference table. It never fails: empty
// inputs produce an empty result.
func Join(subjects []SubjectRecord, reference []ReferenceRegion, logger *slog.Logger) []JoinedRecord {
	return NewRegionIndex(reference).Join(subjects, logger).Records
}
