// Package store persists game snapshots between requests. The engine
// never touches a store directly; the owning collaborator saves a
// snapshot after each applied action and restores it on the next one.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/parlorhq/parlor/internal/engine"
)

// ErrNotFound is returned when a room has no stored snapshot.
var ErrNotFound = errors.New("snapshot not found")

// Record is one stored snapshot keyed by room code.
type Record struct {
	RoomCode string      `json:"room_code"`
	GameType engine.Kind `json:"game_type"`
	Snapshot []byte      `json:"snapshot"`
	SavedAt  time.Time   `json:"saved_at"`
}

// SnapshotStore persists one snapshot per room. Save overwrites any
// previous snapshot for the room.
type SnapshotStore interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, roomCode string) (Record, error)
	Delete(ctx context.Context, roomCode string) error
}

// MemoryStore is the in-process SnapshotStore used in tests and
// single-node deployments.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Snapshot = append([]byte(nil), rec.Snapshot...)
	s.records[rec.RoomCode] = rec
	return nil
}

func (s *MemoryStore) Load(_ context.Context, roomCode string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[roomCode]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Snapshot = append([]byte(nil), rec.Snapshot...)
	return rec, nil
}

func (s *MemoryStore) Delete(_ context.Context, roomCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, roomCode)
	return nil
}
