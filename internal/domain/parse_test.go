package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReferenceTable(t *testing.T) {
	t.Run("string and numeric coordinates", func(t *testing.T) {
		data := []byte(`[
			{"State.Name": "Gujarat", "latitude": "22.2587", "longitude": "71.1924"},
			{"State.Name": "Kerala", "latitude": 10.8505, "longitude": 76.2711}
		]`)

		regions, skipped, err := ParseReferenceTable(data, DefaultReferenceFields)
		require.NoError(t, err)

		assert.Equal(t, 0, skipped)
		require.Len(t, regions, 2)
		assert.Equal(t, ReferenceRegion{Name: "Gujarat", Geo: Geo{Lat: 22.2587, Lon: 71.1924}}, regions[0])
		assert.Equal(t, ReferenceRegion{Name: "Kerala", Geo: Geo{Lat: 10.8505, Lon: 76.2711}}, regions[1])
	})

	t.Run("skips unusable rows", func(t *testing.T) {
		data := []byte(`[
			{"State.Name": "", "latitude": "1", "longitude": "2"},
			{"State.Name": "Goa", "latitude": "north", "longitude": "74.12"},
			{"State.Name": "Sikkim", "latitude": "27.53"},
			{"latitude": "1", "longitude": "2"},
			{"State.Name": "Punjab", "latitude": " 31.14 ", "longitude": "75.34"},
			{"State.Name": "Assam", "latitude": "NaN", "longitude": "92.93"},
			{"State.Name": "Bihar", "latitude": "25.09", "longitude": "+Inf"},
			{"State.Name": "Odisha", "latitude": "1e400", "longitude": "85.09"},
			{"State.Name": "Tripura", "latitude": 123.4, "longitude": "91.98"},
			{"State.Name": "Manipur", "latitude": "24.66", "longitude": "-193.9"}
		]`)

		regions, skipped, err := ParseReferenceTable(data, DefaultReferenceFields)
		require.NoError(t, err)

		assert.Equal(t, 9, skipped)
		require.Len(t, regions, 1)
		assert.Equal(t, "Punjab", regions[0].Name)
		assert.Equal(t, 31.14, regions[0].Geo.Lat)
	})

	t.Run("custom field names", func(t *testing.T) {
		data := []byte(`[{"city": "Pune", "lat": 18.52, "lng": 73.85}]`)

		regions, _, err := ParseReferenceTable(data, ReferenceFields{Name: "city", Lat: "lat", Lon: "lng"})
		require.NoError(t, err)
		require.Len(t, regions, 1)
		assert.Equal(t, Geo{Lat: 18.52, Lon: 73.85}, regions[0].Geo)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, _, err := ParseReferenceTable([]byte(`{not json`), DefaultReferenceFields)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse reference table")
	})

	t.Run("null payload is empty", func(t *testing.T) {
		regions, _, err := ParseReferenceTable([]byte(`null`), DefaultReferenceFields)
		require.NoError(t, err)
		assert.Empty(t, regions)
	})
}

func TestParseSubjects(t *testing.T) {
	t.Run("plain array", func(t *testing.T) {
		data := []byte(`[{"address": "Maharashtra", "location_id": 1}, {"address": "Goa"}]`)

		subjects, err := ParseSubjects(data, "address", "")
		require.NoError(t, err)
		require.Len(t, subjects, 2)
		assert.Equal(t, "Maharashtra", subjects[0].LocationKey)
		assert.Equal(t, json.Number("1"), subjects[0].Field("location_id"))
	})

	t.Run("explicit wrap key", func(t *testing.T) {
		data := []byte(`{"generatedAt": "2025-07-12T10:00:00Z", "supplier_risk_report": [{"state": "Gujarat"}]}`)

		subjects, err := ParseSubjects(data, "state", "supplier_risk_report")
		require.NoError(t, err)
		require.Len(t, subjects, 1)
		assert.Equal(t, "Gujarat", subjects[0].LocationKey)
	})

	t.Run("missing wrap key", func(t *testing.T) {
		_, err := ParseSubjects([]byte(`{"other": []}`), "state", "supplier_risk_report")
		require.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("detected wrap key", func(t *testing.T) {
		data := []byte(`{"total": 2, "meta": null, "locations": [{"address": "Bihar"}, {"address": "Assam"}]}`)

		subjects, err := ParseSubjects(data, "address", "")
		require.NoError(t, err)
		require.Len(t, subjects, 2)
		assert.Equal(t, "Assam", subjects[1].LocationKey)
	})

	t.Run("several arrays picks first key", func(t *testing.T) {
		data := []byte(`{"zeta": [{"state": "Z"}], "alpha": [{"state": "A"}]}`)

		subjects, err := ParseSubjects(data, "state", "")
		require.NoError(t, err)
		require.Len(t, subjects, 1)
		assert.Equal(t, "A", subjects[0].LocationKey)
	})

	t.Run("object without array", func(t *testing.T) {
		_, err := ParseSubjects([]byte(`{"total": 0}`), "state", "")
		require.Error(t, err)
	})

	t.Run("non-string location", func(t *testing.T) {
		subjects, err := ParseSubjects([]byte(`[{"state": 42}]`), "state", "")
		require.NoError(t, err)
		require.Len(t, subjects, 1)
		assert.Empty(t, subjects[0].LocationKey)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseSubjects([]byte(`[{"state":`), "state", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse subjects")
	})
}

func TestParseSubject(t *testing.T) {
	s, err := ParseSubject([]byte(`{"state": "Assam", "supplier_name": "Tea Co"}`), "state")
	require.NoError(t, err)
	assert.Equal(t, "Assam", s.LocationKey)
	assert.Equal(t, "Tea Co", s.StringField("supplier_name"))

	_, err = ParseSubject([]byte(`null`), "state")
	require.ErrorIs(t, err, ErrMissingField)

	_, err = ParseSubject([]byte(`not-json{{{`), "state")
	require.Error(t, err)
}

func TestFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"json number", json.Number("-0.35"), -0.35, true},
		{"float", 0.5, 0.5, true},
		{"numeric string", "0.25", 0.25, true},
		{"text", "high", 0, false},
		{"nan string", "NaN", 0, false},
		{"infinite string", "-Inf", 0, false},
		{"overflow", json.Number("1e400"), 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Float(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
