package models

import (
	"encoding/json"
	"fmt"
)

// StoreSchemaVersion tags the canonical plaintext layout.
const StoreSchemaVersion = 1

// VaultStore is the in-memory decrypted credential set: a mapping from
// service name to record with insertion order preserved. Mutations are
// all-or-nothing; validation happens before any state changes. The store
// does no I/O.
type VaultStore struct {
	records map[string]CredentialRecord
	order   []string
}

// NewVaultStore returns an empty store.
func NewVaultStore() *VaultStore {
	return &VaultStore{
		records: make(map[string]CredentialRecord),
		order:   nil,
	}
}

// Add inserts a record. Adding a service that already exists fails with
// ErrDuplicateService unless overwrite is set, in which case the record
// replaces the existing one but keeps its original creation time and
// insertion position.
func (s *VaultStore) Add(rec CredentialRecord, overwrite bool) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	existing, exists := s.records[rec.Service]
	if exists && !overwrite {
		return fmt.Errorf("%w: %q", ErrDuplicateService, rec.Service)
	}

	if exists {
		rec.CreatedAt = existing.CreatedAt
		s.records[rec.Service] = rec
		return nil
	}

	s.records[rec.Service] = rec
	s.order = append(s.order, rec.Service)
	return nil
}

// Get returns a copy of the record for service, or ErrServiceNotFound.
func (s *VaultStore) Get(service string) (CredentialRecord, error) {
	rec, ok := s.records[service]
	if !ok {
		return CredentialRecord{}, fmt.Errorf("%w: %q", ErrServiceNotFound, service)
	}
	return rec, nil
}

// List returns service names in insertion order. The slice is a copy.
func (s *VaultStore) List() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Records returns copies of all records in insertion order.
func (s *VaultStore) Records() []CredentialRecord {
	out := make([]CredentialRecord, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.records[name])
	}
	return out
}

// Delete removes the record for service, or fails with ErrServiceNotFound.
// No tombstone is kept.
func (s *VaultStore) Delete(service string) error {
	if _, ok := s.records[service]; !ok {
		return fmt.Errorf("%w: %q", ErrServiceNotFound, service)
	}

	delete(s.records, service)
	for i, name := range s.order {
		if name == service {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear empties the store.
func (s *VaultStore) Clear() {
	s.records = make(map[string]CredentialRecord)
	s.order = nil
}

// Len returns the number of records.
func (s *VaultStore) Len() int {
	return len(s.order)
}

// storeDocument is the canonical serialized form: an ordered record list
// under a schema version tag. Decode order reconstructs insertion order.
type storeDocument struct {
	SchemaVersion int                `json:"schema_version"`
	Records       []CredentialRecord `json:"records"`
}

// MarshalJSON encodes the store as the canonical document.
func (s *VaultStore) MarshalJSON() ([]byte, error) {
	doc := storeDocument{
		SchemaVersion: StoreSchemaVersion,
		Records:       s.Records(),
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes the canonical document, rejecting unknown schema
// versions, invalid records, and duplicate services.
func (s *VaultStore) UnmarshalJSON(data []byte) error {
	var doc storeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if doc.SchemaVersion != StoreSchemaVersion {
		return fmt.Errorf("%w: unknown schema version %d", ErrInvalidFormat, doc.SchemaVersion)
	}

	fresh := NewVaultStore()
	for _, rec := range doc.Records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("%w: record %q: %v", ErrInvalidFormat, rec.Service, err)
		}
		if err := fresh.Add(rec, false); err != nil {
			return fmt.Errorf("%w: duplicate service %q", ErrInvalidFormat, rec.Service)
		}
	}

	*s = *fresh
	return nil
}
