package domain

import (
	"context"
	"encoding/json"
	"maps"
	"time"
)

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ReferenceRegion is one row of the reference table.
type ReferenceRegion struct {
	Name string `json:"name"`
	Geo  Geo    `json:"geo"`
}

// SubjectRecord is an externally supplied record with a free-text location.
// Fields holds the record exactly as decoded, including the location field.
type SubjectRecord struct {
	LocationKey string
	Fields      map[string]any
}

// Field returns the named field, or nil when absent.
func (r SubjectRecord) Field(name string) any {
	if r.Fields == nil {
		return nil
	}
	return r.Fields[name]
}

// StringField returns the named field when it holds a string.
func (r SubjectRecord) StringField(name string) string {
	s, _ := r.Field(name).(string)
	return s
}

// JoinedRecord is a subject with the coordinates of its matched region.
type JoinedRecord struct {
	SubjectRecord
	Geo Geo
}

// Coords returns the coordinates in [lat, lon] order, the order map
// clients use for marker positions.
func (r JoinedRecord) Coords() [2]float64 {
	return [2]float64{r.Geo.Lat, r.Geo.Lon}
}

// MarshalJSON flattens the subject's fields and adds "coords".
func (r JoinedRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+1)
	maps.Copy(out, r.Fields)
	out["coords"] = r.Coords()
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON. The location key is not
// recoverable from the flattened form and is left empty.
func (r *JoinedRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["coords"].([]any); ok && len(raw) == 2 {
		lat, _ := raw[0].(float64)
		lon, _ := raw[1].(float64)
		r.Geo = Geo{Lat: lat, Lon: lon}
	}
	delete(fields, "coords")
	r.Fields = fields
	return nil
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
