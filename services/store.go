package services

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// Store is the accumulated result of every import of one kind, keyed by
// canonical truck number. It persists across sessions and only changes
// through reconciliation or an explicit clear.
type Store struct {
	Kind      string             `json:"kind"`
	Entries   map[string]Payload `json:"entries"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func NewStore(kind string) *Store {
	return &Store{Kind: kind, Entries: make(map[string]Payload)}
}

func (s *Store) Get(number string) (Payload, bool) {
	p, ok := s.Entries[number]
	return p, ok
}

func (s *Store) Set(number string, p Payload) {
	if s.Entries == nil {
		s.Entries = make(map[string]Payload)
	}
	s.Entries[number] = p
}

func (s *Store) Len() int { return len(s.Entries) }

// Numbers returns the stored truck numbers sorted.
func (s *Store) Numbers() []string {
	return slices.Sorted(maps.Keys(s.Entries))
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	out := &Store{Kind: s.Kind, UpdatedAt: s.UpdatedAt, Entries: make(map[string]Payload, len(s.Entries))}
	for k, p := range s.Entries {
		out.Entries[k] = p.clone()
	}
	return out
}

// StoreRepository loads and saves the accumulated store of a kind.
type StoreRepository interface {
	Load(ctx context.Context, kind ImportKind) (*Store, error)
	Save(ctx context.Context, store *Store) error
	Clear(ctx context.Context, kind string) error
}

// MemoryStoreRepository keeps stores in process memory. Used by tests and the
// CLI dry run.
type MemoryStoreRepository struct {
	mu     sync.Mutex
	stores map[string]*Store
}

func NewMemoryStoreRepository() *MemoryStoreRepository {
	return &MemoryStoreRepository{stores: make(map[string]*Store)}
}

func (m *MemoryStoreRepository) Load(_ context.Context, kind ImportKind) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores[kind.Name]; ok {
		return s.Clone(), nil
	}
	return NewStore(kind.Name), nil
}

func (m *MemoryStoreRepository) Save(_ context.Context, store *Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[store.Kind] = store.Clone()
	return nil
}

func (m *MemoryStoreRepository) Clear(_ context.Context, kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, kind)
	return nil
}
