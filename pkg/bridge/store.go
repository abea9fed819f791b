package bridge

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned by stores when no record exists for an id
var ErrNotFound = errors.New("bridge record not found")

// Store is the persistence abstraction for bridge records. Update applies
// fn to the stored record atomically: if fn returns an error the record is
// left untouched and the error is returned.
type Store interface {
	Create(ctx context.Context, record *BridgeRecord) error
	Get(ctx context.Context, id string) (*BridgeRecord, error)
	Update(ctx context.Context, id string, fn func(*BridgeRecord) error) (*BridgeRecord, error)
	List(ctx context.Context) ([]*BridgeRecord, error)
}

// MemStore is a process-lifetime Store backed by a mutex-guarded map.
// It is the default when no database is configured.
type MemStore struct {
	mu      sync.Mutex
	records map[string]*BridgeRecord
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]*BridgeRecord)}
}

func (s *MemStore) Create(_ context.Context, record *BridgeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return errors.New("bridge record already exists: " + record.ID)
	}
	s.records[record.ID] = record.Clone()
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (*BridgeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemStore) Update(_ context.Context, id string, fn func(*BridgeRecord) error) (*BridgeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := rec.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.records[id] = next
	return next.Clone(), nil
}

func (s *MemStore) List(_ context.Context) ([]*BridgeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*BridgeRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
