package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorhq/parlor/internal/engine"
)

func TestMemoryStoreSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	rec := Record{
		RoomCode: "room1",
		GameType: engine.KindSnap,
		Snapshot: []byte(`{"state":"playing"}`),
		SavedAt:  time.Now(),
	}
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Load(ctx, "room1")
	require.NoError(t, err)
	assert.Equal(t, rec.GameType, got.GameType)
	assert.Equal(t, rec.Snapshot, got.Snapshot)

	require.NoError(t, s.Delete(ctx, "room1"))
	_, err = s.Load(ctx, "room1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreLoadMissingRoom(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := Record{RoomCode: "room1", GameType: engine.KindSnap, Snapshot: []byte("v1")}
	second := Record{RoomCode: "room1", GameType: engine.KindScat, Snapshot: []byte("v2")}
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	got, err := s.Load(ctx, "room1")
	require.NoError(t, err)
	assert.Equal(t, engine.KindScat, got.GameType)
	assert.Equal(t, []byte("v2"), got.Snapshot)
}

func TestMemoryStoreCopiesSnapshotBytes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	buf := []byte("original")
	require.NoError(t, s.Save(ctx, Record{RoomCode: "room1", Snapshot: buf}))
	buf[0] = 'X'

	got, err := s.Load(ctx, "room1")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got.Snapshot, "the store must not alias caller buffers")
}

func TestMemoryStoreRoundTripsEngineSnapshot(t *testing.T) {
	ctx := context.Background()
	v, err := engine.New(engine.KindGoFish, "room1", engine.DefaultRules())
	require.NoError(t, err)
	roster := []engine.Seat{
		{ID: "p1", Name: "Player p1", IsHost: true},
		{ID: "p2", Name: "Player p2"},
	}
	for _, seat := range roster {
		_, err := v.Base().AddPlayer(seat.ID, seat.Name, seat.IsHost)
		require.NoError(t, err)
	}
	require.NoError(t, v.Start())

	data, err := v.Snapshot()
	require.NoError(t, err)

	s := NewMemoryStore()
	require.NoError(t, s.Save(ctx, Record{
		RoomCode: "room1",
		GameType: v.Kind(),
		Snapshot: data,
		SavedAt:  time.Now(),
	}))

	rec, err := s.Load(ctx, "room1")
	require.NoError(t, err)
	restored, err := engine.Restore(rec.Snapshot, roster, engine.DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, engine.KindGoFish, restored.Kind())
	assert.Equal(t, v.Base().ID, restored.Base().ID)
}
