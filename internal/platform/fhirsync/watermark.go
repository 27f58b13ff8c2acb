package fhirsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WatermarkStore remembers, per profile and kind, the newest timestamp
// already downloaded. Get returns nil when nothing was downloaded yet.
type WatermarkStore interface {
	Get(ctx context.Context, profile string, kind Kind) (*time.Time, error)
	Set(ctx context.Context, profile string, kind Kind, at time.Time) error
}

type watermarkKey struct {
	profile string
	kind    Kind
}

// MemoryWatermarkStore keeps watermarks for the lifetime of the process.
type MemoryWatermarkStore struct {
	mu    sync.RWMutex
	marks map[watermarkKey]time.Time
}

func NewMemoryWatermarkStore() *MemoryWatermarkStore {
	return &MemoryWatermarkStore{marks: make(map[watermarkKey]time.Time)}
}

func (s *MemoryWatermarkStore) Get(_ context.Context, profile string, kind Kind) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.marks[watermarkKey{profile, kind}]
	if !ok {
		return nil, nil
	}
	return &at, nil
}

// Set never moves a watermark backwards.
func (s *MemoryWatermarkStore) Set(_ context.Context, profile string, kind Kind, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := watermarkKey{profile, kind}
	if cur, ok := s.marks[key]; ok && !at.After(cur) {
		return nil
	}
	s.marks[key] = at
	return nil
}

type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// WatermarkStorePG stores watermarks in the sync_watermark table.
type WatermarkStorePG struct {
	db queryable
}

func NewWatermarkStorePG(pool *pgxpool.Pool) *WatermarkStorePG {
	return &WatermarkStorePG{db: pool}
}

func (s *WatermarkStorePG) Get(ctx context.Context, profile string, kind Kind) (*time.Time, error) {
	var at time.Time
	err := s.db.QueryRow(ctx,
		`SELECT synced_until FROM sync_watermark WHERE profile = $1 AND kind = $2`,
		profile, string(kind)).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get watermark %s/%s: %w", profile, kind, err)
	}
	return &at, nil
}

func (s *WatermarkStorePG) Set(ctx context.Context, profile string, kind Kind, at time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO sync_watermark (profile, kind, synced_until, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (profile, kind) DO UPDATE
		SET synced_until = GREATEST(sync_watermark.synced_until, EXCLUDED.synced_until),
			updated_at = NOW()`,
		profile, string(kind), at)
	if err != nil {
		return fmt.Errorf("set watermark %s/%s: %w", profile, kind, err)
	}
	return nil
}
