package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"catalog-sync-service/internal/clients/moysklad"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
)

// ProductSyncService mirrors the remote product list into local storage.
// Only products with positive stock are kept. Zero-stock, archived and
// vanished products are all removed through one deletion predicate.
type ProductSyncService struct {
	erp          ERPClient
	products     repository.ProductRepositoryInterface
	categories   repository.CategoryRepositoryInterface
	recorder     *StatusRecorder
	config       SyncConfig
	logger       *logrus.Entry
	invalidators []func(context.Context)
}

// NewProductSyncService creates a product sync service.
func NewProductSyncService(
	erp ERPClient,
	products repository.ProductRepositoryInterface,
	categories repository.CategoryRepositoryInterface,
	recorder *StatusRecorder,
	config SyncConfig,
	logger *logrus.Logger,
) *ProductSyncService {
	return &ProductSyncService{
		erp:        erp,
		products:   products,
		categories: categories,
		recorder:   recorder,
		config:     config,
		logger:     logger.WithField("component", "product-sync"),
	}
}

// OnCatalogChanged registers a callback invoked after a successful sync,
// used to drop stale listing caches.
func (s *ProductSyncService) OnCatalogChanged(fn func(context.Context)) {
	s.invalidators = append(s.invalidators, fn)
}

// Sync runs one full product reconciliation pass.
func (s *ProductSyncService) Sync(ctx context.Context) (*models.SyncSummary, error) {
	if err := s.recorder.Start(ctx, models.SyncEntityProducts); err != nil {
		return nil, err
	}

	summary, err := s.run(ctx)
	if err != nil {
		if failErr := s.recorder.Fail(ctx, models.SyncEntityProducts, err.Error()); failErr != nil {
			s.logger.WithError(failErr).Error("Failed to record sync error")
		}
		return nil, err
	}

	msg := fmt.Sprintf("synced %d products, removed %d zero-stock, %d orphaned",
		summary.Synced, summary.RemovedZeroStock, summary.RemovedOrphaned)
	if err := s.recorder.Succeed(ctx, models.SyncEntityProducts, summary.Synced, summary.Synced, msg); err != nil {
		s.logger.WithError(err).Error("Failed to record sync success")
	}

	for _, fn := range s.invalidators {
		fn(ctx)
	}
	return summary, nil
}

func (s *ProductSyncService) run(ctx context.Context) (*models.SyncSummary, error) {
	remote, err := s.erp.ListProducts(ctx, s.config.ProductPageSize)
	if err != nil {
		return nil, fmt.Errorf("fetching products: %w", err)
	}
	stock, err := s.erp.StockAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching stock report: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"products": len(remote),
		"stock":    len(stock),
	}).Info("Fetched remote products and stock")

	categoryMap, err := s.categories.ExternalIDMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading category ID map: %w", err)
	}

	// Partition by stock: a product with no stock entry counts as out of
	// stock. Kept rows are upserted, everything else falls through to the
	// deletion predicate below.
	remoteSet := make(map[string]struct{}, len(remote))
	keep := make([]models.Product, 0, len(remote))
	keepSet := make(map[string]struct{}, len(remote))

	for _, rp := range remote {
		externalID := rp.ExternalID()
		if externalID == "" {
			continue
		}
		remoteSet[externalID] = struct{}{}

		qty := int(stock[externalID])
		if qty <= 0 || rp.Archived {
			continue
		}

		row := models.Product{
			ExternalID:       externalID,
			NameRu:           rp.Name,
			DescriptionRu:    rp.Description,
			Price:            moysklad.ResolvePrice(rp, s.config.PriceTiers),
			Stock:            qty,
			Brand:            rp.Brand(),
			SKU:              rp.SKU(),
			PendingImageURLs: rp.ImageURLs(),
		}
		if folderID := rp.FolderExternalID(); folderID != "" {
			if categoryID, ok := categoryMap[folderID]; ok {
				id := categoryID
				row.CategoryID = &id
			}
		}
		keep = append(keep, row)
		keepSet[externalID] = struct{}{}
	}

	total := len(keep)
	if err := s.recorder.Progress(ctx, models.SyncEntityProducts, 0, total, "upserting products"); err != nil {
		s.logger.WithError(err).Warn("Failed to record progress")
	}

	processed := 0
	for start := 0; start < len(keep); start += s.config.upsertChunk() {
		end := start + s.config.upsertChunk()
		if end > len(keep) {
			end = len(keep)
		}
		if err := s.products.UpsertBatch(ctx, keep[start:end]); err != nil {
			return nil, fmt.Errorf("upserting products: %w", err)
		}
		processed = end
		if err := s.recorder.Progress(ctx, models.SyncEntityProducts, processed, total, "upserting products"); err != nil {
			s.logger.WithError(err).Warn("Failed to record progress")
		}
	}

	if err := s.attachImages(ctx, keep); err != nil {
		return nil, err
	}

	removedZero, removedOrphaned, err := s.deleteAbsent(ctx, remoteSet, keepSet)
	if err != nil {
		return nil, err
	}

	return &models.SyncSummary{
		OK:               true,
		Synced:           total,
		RemovedZeroStock: removedZero,
		RemovedOrphaned:  removedOrphaned,
	}, nil
}

// attachImages inserts image rows for freshly kept products that own none
// yet. The upsert does not return internal IDs, so the rows are re-fetched
// first.
func (s *ProductSyncService) attachImages(ctx context.Context, keep []models.Product) error {
	withImages := make(map[string][]string, len(keep))
	externalIDs := make([]string, 0, len(keep))
	for _, p := range keep {
		externalIDs = append(externalIDs, p.ExternalID)
		if len(p.PendingImageURLs) > 0 {
			withImages[p.ExternalID] = p.PendingImageURLs
		}
	}
	if len(withImages) == 0 {
		return nil
	}

	stored, err := s.products.GetByExternalIDs(ctx, externalIDs)
	if err != nil {
		return fmt.Errorf("re-fetching upserted products: %w", err)
	}

	for _, p := range stored {
		urls, ok := withImages[p.ExternalID]
		if !ok {
			continue
		}
		has, err := s.products.HasImages(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("checking images for %s: %w", p.ExternalID, err)
		}
		if has {
			continue
		}

		images := make([]models.ProductImage, 0, len(urls))
		for i, url := range urls {
			images = append(images, models.ProductImage{
				ProductID: p.ID,
				URL:       url,
				IsPrimary: i == 0,
				SortOrder: i,
			})
		}
		if err := s.products.InsertImages(ctx, images); err != nil {
			return fmt.Errorf("inserting images for %s: %w", p.ExternalID, err)
		}
	}
	return nil
}

// deleteAbsent removes every local product not in the keep set. Zero-stock
// and orphaned rows share the same predicate; the counts are reported
// separately. Chunks are best-effort: a failed chunk is logged and skipped
// so an unrelated chunk still frees its rows.
func (s *ProductSyncService) deleteAbsent(ctx context.Context, remoteSet, keepSet map[string]struct{}) (int, int, error) {
	localIDs, err := s.products.ListExternalIDs(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("listing local products: %w", err)
	}

	var zeroStock, orphaned []string
	for _, id := range localIDs {
		if _, kept := keepSet[id]; kept {
			continue
		}
		if _, present := remoteSet[id]; present {
			zeroStock = append(zeroStock, id)
		} else {
			orphaned = append(orphaned, id)
		}
	}

	removedZero := s.deleteChunked(ctx, zeroStock, "zero-stock")
	removedOrphaned := s.deleteChunked(ctx, orphaned, "orphaned")
	return removedZero, removedOrphaned, nil
}

func (s *ProductSyncService) deleteChunked(ctx context.Context, externalIDs []string, reason string) int {
	var removed int64
	for start := 0; start < len(externalIDs); start += s.config.deleteChunk() {
		end := start + s.config.deleteChunk()
		if end > len(externalIDs) {
			end = len(externalIDs)
		}
		chunk := externalIDs[start:end]

		n, err := s.products.DeleteByExternalIDs(ctx, chunk)
		removed += n
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"reason":    reason,
				"chunkSize": len(chunk),
			}).Error("Failed to delete product chunk")
		}
	}
	return int(removed)
}

// DeleteByExternalID removes a single product, used by the ERP delete
// webhook.
func (s *ProductSyncService) DeleteByExternalID(ctx context.Context, externalID string) (int64, error) {
	n, err := s.products.DeleteByExternalIDs(ctx, []string{externalID})
	if err != nil {
		return 0, err
	}
	for _, fn := range s.invalidators {
		fn(ctx)
	}
	return n, nil
}
