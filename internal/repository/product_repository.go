package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"catalog-sync-service/internal/models"
)

// ProductRepositoryInterface abstracts product storage for services
type ProductRepositoryInterface interface {
	UpsertBatch(ctx context.Context, products []models.Product) error
	GetByExternalIDs(ctx context.Context, externalIDs []string) ([]models.Product, error)
	ListExternalIDs(ctx context.Context) ([]string, error)
	DeleteByExternalIDs(ctx context.Context, externalIDs []string) (int64, error)
	HasImages(ctx context.Context, productID uuid.UUID) (bool, error)
	InsertImages(ctx context.Context, images []models.ProductImage) error
}

// CatalogReaderInterface abstracts the storefront read path
type CatalogReaderInterface interface {
	List(ctx context.Context, opts ProductListOptions) ([]models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ProductListOptions contains storefront listing filters
type ProductListOptions struct {
	CategoryID *uuid.UUID
	New        bool
	Popular    bool
	Discount   bool
	Limit      int
}

// ProductRepository handles database operations for products and their images
type ProductRepository struct {
	db *gorm.DB
}

var _ ProductRepositoryInterface = (*ProductRepository)(nil)
var _ CatalogReaderInterface = (*ProductRepository)(nil)

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// UpsertBatch writes product rows keyed by external ID. Admin-managed fields
// (is_new, is_popular, old_price, English texts) are left alone on conflict
// so a sync never clobbers manual edits.
func (r *ProductRepository) UpsertBatch(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name_ru", "description_ru", "price", "category_id",
				"stock", "brand", "sku", "updated_at",
			}),
		}).
		Create(&products).Error
}

// GetByExternalIDs re-fetches just-upserted rows to recover internal IDs,
// since the bulk upsert does not return them.
func (r *ProductRepository) GetByExternalIDs(ctx context.Context, externalIDs []string) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("external_id IN ?", externalIDs).
		Find(&rows).Error
	return rows, err
}

// ListExternalIDs returns every locally stored product external ID, used for
// orphan detection against the latest remote fetch.
func (r *ProductRepository) ListExternalIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Pluck("external_id", &ids).Error
	return ids, err
}

// DeleteByExternalIDs removes one batch of products, child image rows first.
// Callers chunk the ID list; no cascading delete is assumed on the schema.
func (r *ProductRepository) DeleteByExternalIDs(ctx context.Context, externalIDs []string) (int64, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}

	var productIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("external_id IN ?", externalIDs).
		Pluck("id", &productIDs).Error
	if err != nil {
		return 0, err
	}
	if len(productIDs) == 0 {
		return 0, nil
	}

	err = r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Delete(&models.ProductImage{}).Error
	if err != nil {
		return 0, err
	}

	res := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Delete(&models.Product{})
	return res.RowsAffected, res.Error
}

// HasImages reports whether the product already owns image rows.
func (r *ProductRepository) HasImages(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductImage{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count > 0, err
}

// InsertImages writes image rows in one batch.
func (r *ProductRepository) InsertImages(ctx context.Context, images []models.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&images).Error
}

// List returns storefront products matching the given filters. Category
// filtering covers the whole subtree via the materialized path.
func (r *ProductRepository) List(ctx context.Context, opts ProductListOptions) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Preload("Images")

	if opts.CategoryID != nil {
		var parent models.Category
		if err := r.db.WithContext(ctx).First(&parent, "id = ?", *opts.CategoryID).Error; err != nil {
			return nil, err
		}
		var categoryIDs []uuid.UUID
		err := r.db.WithContext(ctx).
			Model(&models.Category{}).
			Where("path = ? OR path LIKE ?", parent.Path, parent.Path+"/%").
			Pluck("id", &categoryIDs).Error
		if err != nil {
			return nil, err
		}
		query = query.Where("category_id IN ?", categoryIDs)
	}
	if opts.New {
		query = query.Where("is_new = ?", true)
	}
	if opts.Popular {
		query = query.Where("is_popular = ?", true)
	}
	if opts.Discount {
		query = query.Where("old_price IS NOT NULL AND old_price > price")
	}

	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var rows []models.Product
	err := query.Order("updated_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// GetByID returns a single product with its images.
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Images").
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}
