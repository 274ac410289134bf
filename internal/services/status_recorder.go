package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"catalog-sync-service/internal/events"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
)

// ErrSyncAlreadyRunning is returned when a sync trigger races an active run
// for the same entity.
var ErrSyncAlreadyRunning = errors.New("a sync is already running for this entity")

// StatusRecorder persists sync progress to the per-entity status row and
// publishes each transition for the admin dashboard.
type StatusRecorder struct {
	repo      repository.SyncStatusRepositoryInterface
	publisher *events.Publisher
}

// NewStatusRecorder creates a status recorder.
func NewStatusRecorder(repo repository.SyncStatusRepositoryInterface, publisher *events.Publisher) *StatusRecorder {
	return &StatusRecorder{repo: repo, publisher: publisher}
}

// Start flips the entity's row to running. Returns ErrSyncAlreadyRunning when
// another run holds the row, which doubles as the mutual-exclusion lease for
// concurrent triggers.
func (r *StatusRecorder) Start(ctx context.Context, entity models.SyncEntity) error {
	current, err := r.repo.Get(ctx, entity)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if current != nil && current.Status == models.SyncStateRunning {
		return ErrSyncAlreadyRunning
	}

	now := time.Now()
	status := &models.SyncStatus{
		Entity:    entity,
		Status:    models.SyncStateRunning,
		StartedAt: &now,
	}
	if current != nil {
		status.LastSyncAt = current.LastSyncAt
	}
	if err := r.repo.Upsert(ctx, status); err != nil {
		return err
	}
	r.publisher.PublishStatus(ctx, status)
	return nil
}

// Progress updates the counters mid-run. Percent is recomputed on every call.
func (r *StatusRecorder) Progress(ctx context.Context, entity models.SyncEntity, processed, total int, message string) error {
	status := &models.SyncStatus{
		Entity:    entity,
		Status:    models.SyncStateRunning,
		Total:     total,
		Processed: processed,
		Percent:   models.ComputePercent(processed, total),
		Message:   message,
	}
	if current, err := r.repo.Get(ctx, entity); err == nil {
		status.StartedAt = current.StartedAt
		status.LastSyncAt = current.LastSyncAt
	}
	if err := r.repo.Upsert(ctx, status); err != nil {
		return err
	}
	r.publisher.PublishStatus(ctx, status)
	return nil
}

// Succeed marks the run as finished successfully and stamps the sync time.
func (r *StatusRecorder) Succeed(ctx context.Context, entity models.SyncEntity, processed, total int, message string) error {
	return r.finish(ctx, entity, models.SyncStateSuccess, processed, total, message)
}

// Fail marks the run as failed with the raw error message. Progress already
// written stays in place so an operator can see where the run stopped.
func (r *StatusRecorder) Fail(ctx context.Context, entity models.SyncEntity, message string) error {
	processed, total := 0, 0
	if current, err := r.repo.Get(ctx, entity); err == nil {
		processed, total = current.Processed, current.Total
	}
	return r.finish(ctx, entity, models.SyncStateError, processed, total, message)
}

func (r *StatusRecorder) finish(ctx context.Context, entity models.SyncEntity, state models.SyncState, processed, total int, message string) error {
	now := time.Now()
	status := &models.SyncStatus{
		Entity:     entity,
		Status:     state,
		Total:      total,
		Processed:  processed,
		Percent:    models.ComputePercent(processed, total),
		Message:    message,
		FinishedAt: &now,
	}
	if current, err := r.repo.Get(ctx, entity); err == nil {
		status.StartedAt = current.StartedAt
		status.LastSyncAt = current.LastSyncAt
	}
	if state == models.SyncStateSuccess {
		status.LastSyncAt = &now
	}
	if err := r.repo.Upsert(ctx, status); err != nil {
		return err
	}
	r.publisher.PublishStatus(ctx, status)
	return nil
}

// List returns the status rows for all entities.
func (r *StatusRecorder) List(ctx context.Context) ([]models.SyncStatus, error) {
	return r.repo.List(ctx)
}
