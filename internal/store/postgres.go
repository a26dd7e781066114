package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parlorhq/parlor/internal/engine"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS game_snapshots (
	room_code TEXT PRIMARY KEY,
	game_type TEXT NOT NULL,
	snapshot  JSONB NOT NULL,
	saved_at  TIMESTAMPTZ NOT NULL
);`

// PostgresStore keeps one snapshot row per room in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a Postgres-backed snapshot store, verifies
// the connection, and ensures the snapshot table exists.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, snapshotSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure snapshot table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO game_snapshots (room_code, game_type, snapshot, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (room_code) DO UPDATE
		SET game_type = EXCLUDED.game_type,
		    snapshot  = EXCLUDED.snapshot,
		    saved_at  = EXCLUDED.saved_at`,
		rec.RoomCode, string(rec.GameType), rec.Snapshot, rec.SavedAt)
	if err != nil {
		return fmt.Errorf("store snapshot for %s: %w", rec.RoomCode, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, roomCode string) (Record, error) {
	rec := Record{RoomCode: roomCode}
	var gameType string
	err := s.pool.QueryRow(ctx, `
		SELECT game_type, snapshot, saved_at
		FROM game_snapshots
		WHERE room_code = $1`, roomCode).
		Scan(&gameType, &rec.Snapshot, &rec.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load snapshot for %s: %w", roomCode, err)
	}
	rec.GameType = engine.Kind(gameType)
	return rec, nil
}

func (s *PostgresStore) Delete(ctx context.Context, roomCode string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM game_snapshots WHERE room_code = $1`, roomCode); err != nil {
		return fmt.Errorf("delete snapshot for %s: %w", roomCode, err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
