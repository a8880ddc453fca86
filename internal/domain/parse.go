package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrMissingField is returned when a required field is absent or blank.
var ErrMissingField = errors.New("missing required field")

// ReferenceFields names the JSON fields of a reference table row.
type ReferenceFields struct {
	Name string
	Lat  string
	Lon  string
}

// DefaultReferenceFields matches the layout of the dashboards' in.json.
var DefaultReferenceFields = ReferenceFields{
	Name: "State.Name",
	Lat:  "latitude",
	Lon:  "longitude",
}

// ParseReferenceTable decodes a JSON array of region rows. Rows with a blank
// name, unparseable coordinates, or coordinates off the globe are skipped;
// the number skipped is returned alongside the regions.
func ParseReferenceTable(data []byte, fields ReferenceFields) ([]ReferenceRegion, int, error) {
	rows, err := decodeRows(data)
	if err != nil {
		return nil, 0, fmt.Errorf("parse reference table: %w", err)
	}

	regions := make([]ReferenceRegion, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		name, _ := row[fields.Name].(string)
		lat, latOK := parseCoordinate(row[fields.Lat])
		lon, lonOK := parseCoordinate(row[fields.Lon])
		if strings.TrimSpace(name) == "" || !latOK || !lonOK || !validLatLon(lat, lon) {
			skipped++
			continue
		}
		regions = append(regions, ReferenceRegion{Name: name, Geo: Geo{Lat: lat, Lon: lon}})
	}
	return regions, skipped, nil
}

// ParseSubjects decodes subject records from either a JSON array or an
// object wrapping one. With an empty wrapKey the wrapped array is found by
// looking for array-valued fields; when several exist the lexicographically
// first key is used.
func ParseSubjects(data []byte, locationField, wrapKey string) ([]SubjectRecord, error) {
	rows, err := decodeRows(data)
	if err != nil {
		rows, err = decodeWrapped(data, wrapKey)
		if err != nil {
			return nil, fmt.Errorf("parse subjects: %w", err)
		}
	}

	out := make([]SubjectRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, newSubject(row, locationField))
	}
	return out, nil
}

// ParseSubject decodes a single subject record object.
func ParseSubject(data []byte, locationField string) (SubjectRecord, error) {
	var row map[string]any
	if err := decodeJSON(data, &row); err != nil {
		return SubjectRecord{}, fmt.Errorf("parse subject: %w", err)
	}
	if row == nil {
		return SubjectRecord{}, fmt.Errorf("parse subject: %w: %s", ErrMissingField, locationField)
	}
	return newSubject(row, locationField), nil
}

// NewSubject wraps already-decoded fields as a subject record.
func NewSubject(fields map[string]any, locationField string) SubjectRecord {
	return newSubject(fields, locationField)
}

func newSubject(row map[string]any, locationField string) SubjectRecord {
	key, _ := row[locationField].(string)
	return SubjectRecord{LocationKey: key, Fields: row}
}

func decodeRows(data []byte) ([]map[string]any, error) {
	var rows []map[string]any
	if err := decodeJSON(data, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

func decodeWrapped(data []byte, wrapKey string) ([]map[string]any, error) {
	var obj map[string]json.RawMessage
	if err := decodeJSON(data, &obj); err != nil {
		return nil, err
	}

	if wrapKey != "" {
		raw, ok := obj[wrapKey]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, wrapKey)
		}
		return decodeRows(raw)
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		raw := bytes.TrimSpace(obj[k])
		if len(raw) == 0 || raw[0] != '[' {
			continue
		}
		if rows, err := decodeRows(raw); err == nil {
			return rows, nil
		}
	}
	return nil, errors.New("no array of records found in object")
}

// decodeJSON keeps numbers as json.Number so large ids and coordinates
// survive untouched.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// parseCoordinate accepts finite numbers only. strconv parses "NaN" and
// "Inf", which must not reach a map marker.
func parseCoordinate(v any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch x := v.(type) {
	case json.Number:
		f, err = x.Float64()
	case float64:
		f = x
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func validLatLon(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Float returns a numeric field as float64. Numeric strings are accepted;
// NaN and infinities are not.
func Float(v any) (float64, bool) {
	return parseCoordinate(v)
}
