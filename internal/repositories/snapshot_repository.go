package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"delivery-backend/internal/cache"
	"delivery-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotStore round-trips the whole workspace: load on start, save on every mutation
type SnapshotStore interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snap *models.Snapshot) error
}

const workspaceRowID = 1

// SnapshotRepository keeps the workspace as one JSONB document in Postgres
type SnapshotRepository struct {
	DB *pgxpool.Pool
}

// NewSnapshotRepository creates the Postgres snapshot store
//
// Parameters:
//   - db: PostgreSQL connection pool; the workspace_snapshots table must exist
//
// Returns:
//   - *SnapshotRepository: store keeping the workspace in row 1
func NewSnapshotRepository(db *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{DB: db}
}

func (r *SnapshotRepository) Load(ctx context.Context) (*models.Snapshot, error) {
	query := `
		SELECT document
		FROM workspace_snapshots
		WHERE id = $1
	`

	var doc []byte
	err := r.DB.QueryRow(ctx, query, workspaceRowID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return decodeSnapshot(doc)
}

func (r *SnapshotRepository) Save(ctx context.Context, snap *models.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	query := `
		INSERT INTO workspace_snapshots (id, document, version, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE
		SET document = EXCLUDED.document, version = EXCLUDED.version, updated_at = NOW()
	`
	if _, err := r.DB.Exec(ctx, query, workspaceRowID, doc, snap.Version); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Reset drops the stored document
func (r *SnapshotRepository) Reset(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM workspace_snapshots WHERE id = $1`, workspaceRowID)
	return err
}

func decodeSnapshot(doc []byte) (*models.Snapshot, error) {
	snap := models.NewSnapshot()
	if err := json.Unmarshal(doc, snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version == "" {
		snap.Version = models.SnapshotVersion
	}
	return snap, nil
}

// MemorySnapshotStore keeps the encoded document in process memory. Used when
// no database is configured and in tests.
type MemorySnapshotStore struct {
	mu  sync.Mutex
	doc []byte

	// FailSave makes Save return this error when set
	FailSave error
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

func (m *MemorySnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return models.NewSnapshot(), nil
	}
	return decodeSnapshot(m.doc)
}

func (m *MemorySnapshotStore) Save(ctx context.Context, snap *models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	m.doc = doc
	return nil
}

// CachedSnapshotStore reads through the Redis snapshot key before the backing store
type CachedSnapshotStore struct {
	next SnapshotStore
	ttl  time.Duration
}

// NewCachedSnapshotStore wraps next with the Redis snapshot key. Without a
// Redis client every call goes straight to next.
func NewCachedSnapshotStore(next SnapshotStore, ttl time.Duration) *CachedSnapshotStore {
	return &CachedSnapshotStore{next: next, ttl: ttl}
}

func (c *CachedSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	if data, ok := cache.GetCached(ctx, cache.SnapshotKey); ok {
		if snap, err := decodeSnapshot(data); err == nil {
			return snap, nil
		}
		cache.InvalidateKeys(ctx, cache.SnapshotKey)
	}

	snap, err := c.next.Load(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(snap); err == nil {
		cache.SetCached(ctx, cache.SnapshotKey, data, c.ttl)
	}
	return snap, nil
}

func (c *CachedSnapshotStore) Save(ctx context.Context, snap *models.Snapshot) error {
	if err := c.next.Save(ctx, snap); err != nil {
		cache.InvalidateKeys(ctx, cache.SnapshotKey)
		return err
	}
	if data, err := json.Marshal(snap); err == nil {
		cache.SetCached(ctx, cache.SnapshotKey, data, c.ttl)
	}
	cache.InvalidateKeys(ctx, cache.RouteTagsKey)
	return nil
}
