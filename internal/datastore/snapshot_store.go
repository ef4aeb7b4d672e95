package datastore

import (
	"context"
	"sync"

	"github.com/aleister1102/pagemonitor/internal/models"
)

// SnapshotStore maps target ids to their last recorded snapshot. A poll
// cycle loads everything once, works on a local copy and commits with a
// single PutAll.
type SnapshotStore interface {
	// Get returns the record for targetID; the bool is false when none exists.
	Get(ctx context.Context, targetID string) (models.SnapshotRecord, bool, error)
	Put(ctx context.Context, targetID string, record models.SnapshotRecord) error
	LoadAll(ctx context.Context) (map[string]models.SnapshotRecord, error)
	// PutAll upserts every record atomically. Records not in the map are kept.
	PutAll(ctx context.Context, records map[string]models.SnapshotRecord) error
	Close() error
}

// MemorySnapshotStore is a SnapshotStore kept in process memory.
type MemorySnapshotStore struct {
	mu      sync.RWMutex
	records map[string]models.SnapshotRecord
}

// NewMemorySnapshotStore creates an empty in-memory store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{records: make(map[string]models.SnapshotRecord)}
}

func (s *MemorySnapshotStore) Get(_ context.Context, targetID string) (models.SnapshotRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[targetID]
	return cloneRecord(record), ok, nil
}

func (s *MemorySnapshotStore) Put(_ context.Context, targetID string, record models.SnapshotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[targetID] = cloneRecord(record)
	return nil
}

func (s *MemorySnapshotStore) LoadAll(_ context.Context) (map[string]models.SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.SnapshotRecord, len(s.records))
	for id, record := range s.records {
		out[id] = cloneRecord(record)
	}
	return out, nil
}

func (s *MemorySnapshotStore) PutAll(_ context.Context, records map[string]models.SnapshotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, record := range records {
		s.records[id] = cloneRecord(record)
	}
	return nil
}

func (s *MemorySnapshotStore) Close() error {
	return nil
}

// Len returns the number of stored records.
func (s *MemorySnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneRecord(record models.SnapshotRecord) models.SnapshotRecord {
	if record.Detail != nil {
		record.Detail = append([]string(nil), record.Detail...)
	}
	return record
}
