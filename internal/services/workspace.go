package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"delivery-backend/internal/metrics"
	"delivery-backend/internal/models"
	"delivery-backend/internal/repositories"
	"delivery-backend/internal/timeutil"
)

// Workspace holds the single writable snapshot. Update runs one operation at a
// time and only publishes its result after the store accepted it.
type Workspace struct {
	mu      sync.RWMutex
	store   repositories.SnapshotStore
	snap    *models.Snapshot
	planner *RoutePlanner
}

// OpenWorkspace loads the stored snapshot
func OpenWorkspace(ctx context.Context, store repositories.SnapshotStore, planner *RoutePlanner) (*Workspace, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	log.Printf("[Workspace] Loaded %d products, %d clients, %d orders",
		len(snap.Products), len(snap.Clients), len(snap.Orders))
	return &Workspace{store: store, snap: snap, planner: planner}, nil
}

// View returns the current snapshot. Callers must treat it as read-only.
func (w *Workspace) View() *models.Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snap
}

// Update applies fn to the current snapshot and persists the result. When fn
// or the save fails the workspace is left exactly as it was.
func (w *Workspace) Update(ctx context.Context, fn func(*models.Snapshot) (*models.Snapshot, error)) (*models.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, err := fn(w.snap)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = timeutil.Now()

	start := time.Now()
	if err := w.store.Save(ctx, next); err != nil {
		log.Printf("[Workspace] save failed, change discarded: %v", err)
		return nil, fmt.Errorf("persist workspace: %w", err)
	}
	metrics.SnapshotSaveDuration.Observe(time.Since(start).Seconds())

	w.snap = next
	return next, nil
}

// Planner returns the route planner bound to this workspace
func (w *Workspace) Planner() *RoutePlanner {
	return w.planner
}
