package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// SupplierInput is the form a user fills in to add a supplier.
type SupplierInput struct {
	SupplierName string `json:"supplier_name"`
	State        string `json:"state"`
	City         string `json:"city"`
	Category     string `json:"category"`
}

// Validate checks that the fields needed to place and analyze a supplier
// are present.
func (in SupplierInput) Validate() error {
	if strings.TrimSpace(in.SupplierName) == "" {
		return fmt.Errorf("%w: supplier_name", ErrMissingField)
	}
	if strings.TrimSpace(in.State) == "" {
		return fmt.Errorf("%w: state", ErrMissingField)
	}
	return nil
}

// RiskAnalysisRequest is the payload sent to the risk analysis backend.
// Latitude and longitude are null when the state is not in the reference
// table.
type RiskAnalysisRequest struct {
	SupplierName string   `json:"supplier_name"`
	State        string   `json:"state"`
	City         string   `json:"city"`
	CategoryName string   `json:"category_name"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// NewRiskAnalysisRequest builds the backend payload, attaching coordinates
// when the lookup succeeded.
func NewRiskAnalysisRequest(in SupplierInput, geo Geo, found bool) RiskAnalysisRequest {
	req := RiskAnalysisRequest{
		SupplierName: in.SupplierName,
		State:        in.State,
		City:         in.City,
		CategoryName: in.Category,
	}
	if found {
		lat, lon := geo.Lat, geo.Lon
		req.Latitude = &lat
		req.Longitude = &lon
	}
	return req
}

// riskResultFields are copied from a risk analysis response onto the
// stored supplier so markers pick up the risk color.
var riskResultFields = []string{"risk_level", "issue", "reason"}

// NewSupplierSubject turns a validated input plus the risk backend's
// response into a subject record. locationField names the field the
// supplier source is joined on; the record is keyed on that field's value,
// falling back to state when the form has no such field.
func NewSupplierSubject(id string, in SupplierInput, analysis map[string]any, locationField string) SubjectRecord {
	fields := map[string]any{
		"id":            id,
		"supplier_name": in.SupplierName,
		"state":         in.State,
		"city":          in.City,
		"category":      in.Category,
	}
	for _, k := range riskResultFields {
		if v, ok := analysis[k]; ok {
			fields[k] = v
		}
	}
	key, ok := fields[locationField].(string)
	if !ok {
		key = in.State
	}
	return SubjectRecord{LocationKey: key, Fields: fields}
}

// SubjectID produces a deterministic ID from a record's identifying fields
// so records from a static source keep the same ID across fetches.
func SubjectID(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:8])
}

// SupplierID derives the ID of a supplier record from its name, state and
// city, or returns its explicit "id" field when it has one.
func SupplierID(r SubjectRecord) string {
	if id := r.StringField("id"); id != "" {
		return id
	}
	name := r.StringField("supplier_name")
	if name == "" {
		name = r.StringField("supplier")
	}
	return SubjectID(name, r.StringField("state"), r.StringField("city"))
}

// SupplierIDs returns the ID of each record, in order. Records without an
// explicit "id" that derive the same ID are told apart by occurrence: the
// first keeps the derived ID and the nth repeat hashes n in as well, so IDs
// are unique and stable while the source order is.
func SupplierIDs(records []SubjectRecord) []string {
	ids := make([]string, len(records))
	seen := make(map[string]int, len(records))
	for i, r := range records {
		id := SupplierID(r)
		if r.StringField("id") == "" {
			n := seen[id]
			seen[id]++
			if n > 0 {
				id = SubjectID(id, strconv.Itoa(n))
			}
		}
		ids[i] = id
	}
	return ids
}
