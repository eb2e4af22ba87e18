// Package store holds the published batch result for the serving layer.
package store

import (
	"errors"
	"strings"
	"sync"

	"github.com/cvelens/cvelens/model"
)

// ErrAlreadyPublished is returned when a second result set is published.
var ErrAlreadyPublished = errors.New("result set already published")

// Store carries the immutable result set of one batch run. It starts
// empty and serves the set published by the fetch pipeline; lookups by
// identifier are case insensitive.
type Store struct {
	mu   sync.RWMutex
	set  *model.ResultSet
	byID map[string]*model.Record
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Publish installs the result set. The set must not be mutated by the
// caller afterwards. Publishing twice is an error since the served data
// is fixed for the lifetime of the process.
func (s *Store) Publish(set *model.ResultSet) error {
	if set == nil {
		return errors.New("nil result set")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set != nil {
		return ErrAlreadyPublished
	}

	byID := make(map[string]*model.Record, len(set.Records))
	for i := range set.Records {
		byID[strings.ToUpper(set.Records[i].Metadata.ID)] = &set.Records[i]
	}
	s.set = set
	s.byID = byID
	return nil
}

// Ready reports whether a result set has been published.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set != nil
}

// Records returns the resolved records in input order.
func (s *Store) Records() []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.set == nil {
		return []model.Record{}
	}
	return s.set.Records
}

// BySeverity returns the resolved records ordered most severe first.
func (s *Store) BySeverity() []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.set == nil {
		return []model.Record{}
	}
	return s.set.BySeverity()
}

// Record looks up one record by identifier.
func (s *Store) Record(id string) (*model.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[strings.ToUpper(id)]
	return rec, ok
}

// Skipped returns the identifiers that produced no record.
func (s *Store) Skipped() []model.SkippedIdentifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.set == nil {
		return []model.SkippedIdentifier{}
	}
	return s.set.Skipped
}
