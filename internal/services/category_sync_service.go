package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"catalog-sync-service/internal/clients/moysklad"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
)

// ERPClient is the slice of the MoySklad API the sync pipeline consumes.
type ERPClient interface {
	ListProductFolders(ctx context.Context, pageSize int) ([]moysklad.ProductFolder, error)
	ListProducts(ctx context.Context, pageSize int) ([]moysklad.Product, error)
	StockAll(ctx context.Context) (map[string]float64, error)
}

// SyncConfig groups the tunables shared by the sync services.
type SyncConfig struct {
	CategoryPageSize int
	ProductPageSize  int
	UpsertChunkSize  int
	DeleteChunkSize  int
	PriceTiers       []string
}

// DefaultSyncConfig returns the page and chunk sizes used in production.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		CategoryPageSize: 100,
		ProductPageSize:  50,
		UpsertChunkSize:  100,
		DeleteChunkSize:  500,
		PriceTiers:       moysklad.DefaultPriceTiers,
	}
}

func (c SyncConfig) upsertChunk() int {
	if c.UpsertChunkSize <= 0 {
		return 100
	}
	return c.UpsertChunkSize
}

func (c SyncConfig) deleteChunk() int {
	if c.DeleteChunkSize <= 0 {
		return 500
	}
	return c.DeleteChunkSize
}

// CategorySyncService mirrors the remote category tree into local storage:
// upsert present folders in two passes, recompute the materialized paths,
// delete folders that vanished remotely.
type CategorySyncService struct {
	erp      ERPClient
	repo     repository.CategoryRepositoryInterface
	recorder *StatusRecorder
	config   SyncConfig
	logger   *logrus.Entry
}

// NewCategorySyncService creates a category sync service.
func NewCategorySyncService(
	erp ERPClient,
	repo repository.CategoryRepositoryInterface,
	recorder *StatusRecorder,
	config SyncConfig,
	logger *logrus.Logger,
) *CategorySyncService {
	return &CategorySyncService{
		erp:      erp,
		repo:     repo,
		recorder: recorder,
		config:   config,
		logger:   logger.WithField("component", "category-sync"),
	}
}

// Sync runs one full category reconciliation pass. Running it twice against
// an unchanged remote is a no-op on the second run.
func (s *CategorySyncService) Sync(ctx context.Context) (*models.SyncSummary, error) {
	if err := s.recorder.Start(ctx, models.SyncEntityCategories); err != nil {
		return nil, err
	}

	summary, err := s.run(ctx)
	if err != nil {
		if failErr := s.recorder.Fail(ctx, models.SyncEntityCategories, err.Error()); failErr != nil {
			s.logger.WithError(failErr).Error("Failed to record sync error")
		}
		return nil, err
	}

	if err := s.recorder.Succeed(ctx, models.SyncEntityCategories, summary.Synced, summary.Synced,
		fmt.Sprintf("synced %d categories, deleted %d", summary.Synced, summary.Deleted)); err != nil {
		s.logger.WithError(err).Error("Failed to record sync success")
	}
	return summary, nil
}

func (s *CategorySyncService) run(ctx context.Context) (*models.SyncSummary, error) {
	folders, err := s.erp.ListProductFolders(ctx, s.config.CategoryPageSize)
	if err != nil {
		return nil, fmt.Errorf("fetching product folders: %w", err)
	}
	s.logger.WithField("count", len(folders)).Info("Fetched remote categories")

	total := len(folders)
	if err := s.recorder.Progress(ctx, models.SyncEntityCategories, 0, total, "fetched remote categories"); err != nil {
		s.logger.WithError(err).Warn("Failed to record progress")
	}

	categories, parentByExternal := mapFolders(folders)

	// Pass 1: every row exists before any parent link is written.
	processed := 0
	for start := 0; start < len(categories); start += s.config.upsertChunk() {
		end := start + s.config.upsertChunk()
		if end > len(categories) {
			end = len(categories)
		}
		if err := s.repo.UpsertParentless(ctx, categories[start:end]); err != nil {
			return nil, fmt.Errorf("upserting categories: %w", err)
		}
		processed = end
		if err := s.recorder.Progress(ctx, models.SyncEntityCategories, processed, total, "upserting categories"); err != nil {
			s.logger.WithError(err).Warn("Failed to record progress")
		}
	}

	// Pass 2: resolve parent links through the now-complete external-ID map.
	idMap, err := s.repo.ExternalIDMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading category ID map: %w", err)
	}
	for i := range categories {
		if categories[i].ExternalID == nil {
			continue
		}
		parentExt := parentByExternal[*categories[i].ExternalID]
		if parentExt == "" {
			continue
		}
		if parentID, ok := idMap[parentExt]; ok {
			id := parentID
			categories[i].ParentID = &id
		}
	}
	if err := s.repo.LinkParents(ctx, categories); err != nil {
		return nil, fmt.Errorf("linking category parents: %w", err)
	}

	if err := s.repo.RecomputeTree(ctx); err != nil {
		return nil, fmt.Errorf("recomputing category tree: %w", err)
	}

	// Delete everything local the remote no longer knows about.
	remote := make(map[string]struct{}, len(folders))
	for _, f := range folders {
		if id := f.ExternalID(); id != "" {
			remote[id] = struct{}{}
		}
	}
	var orphans []string
	for externalID := range idMap {
		if _, ok := remote[externalID]; !ok {
			orphans = append(orphans, externalID)
		}
	}

	var deleted int64
	for start := 0; start < len(orphans); start += s.config.deleteChunk() {
		end := start + s.config.deleteChunk()
		if end > len(orphans) {
			end = len(orphans)
		}
		n, err := s.repo.DeleteByExternalIDs(ctx, orphans[start:end])
		deleted += n
		if err != nil {
			return nil, fmt.Errorf("deleting %d orphaned categories (deleted %d before failure): %w",
				len(orphans), deleted, err)
		}
	}

	return &models.SyncSummary{OK: true, Synced: total, Deleted: int(deleted)}, nil
}

// mapFolders converts remote folders to local rows and returns the parent
// external-ID relation keyed by child external ID.
func mapFolders(folders []moysklad.ProductFolder) ([]models.Category, map[string]string) {
	categories := make([]models.Category, 0, len(folders))
	parents := make(map[string]string, len(folders))

	for _, f := range folders {
		externalID := f.ExternalID()
		if externalID == "" {
			continue
		}
		id := externalID
		categories = append(categories, models.Category{
			ExternalID:  &id,
			NameRu:      f.Name,
			Description: f.Description,
			IsActive:    !f.Archived,
		})
		if parent := f.ParentExternalID(); parent != "" {
			parents[externalID] = parent
		}
	}
	return categories, parents
}
