// Package store keeps the suppliers added or removed through the API.
// Nothing is persisted; a restart restores the source data as fetched.
package store

import (
	"errors"
	"maps"
	"sync"

	"github.com/couchcryptid/supply-map-service/internal/domain"
	"github.com/google/uuid"
)

// ErrSupplierNotFound is returned when removing an unknown supplier ID.
var ErrSupplierNotFound = errors.New("supplier not found")

// Suppliers overlays user changes onto the supplier source: records added
// through the API and IDs hidden by removal.
type Suppliers struct {
	mu     sync.RWMutex
	added  []domain.SubjectRecord
	hidden map[string]struct{}
	newID  func() string
}

// NewSuppliers returns an empty store that assigns random UUIDs.
func NewSuppliers() *Suppliers {
	return &Suppliers{
		hidden: make(map[string]struct{}),
		newID:  uuid.NewString,
	}
}

// NextID reserves an ID for a supplier about to be added.
func (s *Suppliers) NextID() string {
	return s.newID()
}

// Add stores a supplier record. The record must carry an "id" field; one is
// assigned when it does not. The stored ID is returned.
func (s *Suppliers) Add(r domain.SubjectRecord) string {
	fields := make(map[string]any, len(r.Fields)+1)
	maps.Copy(fields, r.Fields)
	id, _ := fields["id"].(string)
	if id == "" {
		id = s.newID()
		fields["id"] = id
	}
	r.Fields = fields

	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, r)
	return id
}

// Remove deletes an added supplier, or hides a source supplier by ID.
// known reports whether id names a supplier in the current source data.
func (s *Suppliers) Remove(id string, known bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.added {
		if domain.SupplierID(r) == id {
			s.added = append(s.added[:i:i], s.added[i+1:]...)
			return nil
		}
	}
	if !known {
		return ErrSupplierNotFound
	}
	if _, ok := s.hidden[id]; ok {
		return ErrSupplierNotFound
	}
	s.hidden[id] = struct{}{}
	return nil
}

// Visible returns the source records not hidden, each tagged with its ID,
// followed by the added records in insertion order.
func (s *Suppliers) Visible(source []domain.SubjectRecord) []domain.SubjectRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SubjectRecord, 0, len(source)+len(s.added))
	ids := domain.SupplierIDs(source)
	for i, r := range source {
		id := ids[i]
		if _, ok := s.hidden[id]; ok {
			continue
		}
		out = append(out, withID(r, id))
	}
	return append(out, s.added...)
}

// Len returns the number of added suppliers.
func (s *Suppliers) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.added)
}

func withID(r domain.SubjectRecord, id string) domain.SubjectRecord {
	if existing, _ := r.Fields["id"].(string); existing == id {
		return r
	}
	fields := make(map[string]any, len(r.Fields)+1)
	maps.Copy(fields, r.Fields)
	fields["id"] = id
	r.Fields = fields
	return r
}
