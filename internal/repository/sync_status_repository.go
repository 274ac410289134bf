package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"catalog-sync-service/internal/models"
)

// SyncStatusRepositoryInterface abstracts sync status storage
type SyncStatusRepositoryInterface interface {
	Get(ctx context.Context, entity models.SyncEntity) (*models.SyncStatus, error)
	Upsert(ctx context.Context, status *models.SyncStatus) error
	List(ctx context.Context) ([]models.SyncStatus, error)
}

// SyncStatusRepository handles database operations for sync status rows
type SyncStatusRepository struct {
	db *gorm.DB
}

var _ SyncStatusRepositoryInterface = (*SyncStatusRepository)(nil)

// NewSyncStatusRepository creates a new sync status repository
func NewSyncStatusRepository(db *gorm.DB) *SyncStatusRepository {
	return &SyncStatusRepository{db: db}
}

// Get retrieves the status row for an entity. Returns gorm.ErrRecordNotFound
// when the entity has never been synced.
func (r *SyncStatusRepository) Get(ctx context.Context, entity models.SyncEntity) (*models.SyncStatus, error) {
	var status models.SyncStatus
	err := r.db.WithContext(ctx).
		First(&status, "entity = ?", entity).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Upsert writes the status row keyed by entity name. There is never a second
// row per entity.
func (r *SyncStatusRepository) Upsert(ctx context.Context, status *models.SyncStatus) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "entity"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "total", "processed", "percent", "message",
				"started_at", "finished_at", "last_sync_at", "updated_at",
			}),
		}).
		Create(status).Error
}

// List returns the status rows for all entities.
func (r *SyncStatusRepository) List(ctx context.Context) ([]models.SyncStatus, error) {
	var rows []models.SyncStatus
	err := r.db.WithContext(ctx).Order("entity ASC").Find(&rows).Error
	return rows, err
}
