package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"catalog-sync-service/internal/models"
)

// CategoryRepositoryInterface abstracts category storage for services
type CategoryRepositoryInterface interface {
	UpsertParentless(ctx context.Context, categories []models.Category) error
	LinkParents(ctx context.Context, categories []models.Category) error
	RecomputeTree(ctx context.Context) error
	ExternalIDMap(ctx context.Context) (map[string]uuid.UUID, error)
	DeleteByExternalIDs(ctx context.Context, externalIDs []string) (int64, error)
	ListActive(ctx context.Context) ([]models.Category, error)
}

// CategoryRepository handles database operations for categories
type CategoryRepository struct {
	db *gorm.DB
}

var _ CategoryRepositoryInterface = (*CategoryRepository)(nil)

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// UpsertParentless writes category rows keyed by external ID with the parent
// reference forced to null. This is the first pass of the two-phase upsert:
// after it every remote folder exists locally, so parent links written in the
// second pass can never point at a missing row.
func (r *CategoryRepository) UpsertParentless(ctx context.Context, categories []models.Category) error {
	if len(categories) == 0 {
		return nil
	}

	rows := make([]models.Category, len(categories))
	copy(rows, categories)
	for i := range rows {
		rows[i].ParentID = nil
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name_ru", "description", "is_active", "updated_at"}),
		}).
		Create(&rows).Error
}

// LinkParents writes the true parent references, assuming every parent row
// already exists from the parentless pass.
func (r *CategoryRepository) LinkParents(ctx context.Context, categories []models.Category) error {
	for _, cat := range categories {
		if cat.ExternalID == nil {
			continue
		}
		err := r.db.WithContext(ctx).
			Model(&models.Category{}).
			Where("external_id = ?", *cat.ExternalID).
			Update("parent_id", cat.ParentID).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// RecomputeTree rewrites the materialized path and level of every category
// from the parent graph. Runs after each sync because reparenting a single
// row invalidates the cached paths of its whole subtree.
func (r *CategoryRepository) RecomputeTree(ctx context.Context) error {
	var all []models.Category
	if err := r.db.WithContext(ctx).Find(&all).Error; err != nil {
		return err
	}

	resolved := ResolveTreePaths(all)

	for _, cat := range resolved {
		orig := findByID(all, cat.ID)
		if orig != nil && orig.Path == cat.Path && orig.Level == cat.Level {
			continue
		}
		err := r.db.WithContext(ctx).
			Model(&models.Category{}).
			Where("id = ?", cat.ID).
			Updates(map[string]interface{}{"path": cat.Path, "level": cat.Level}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// ExternalIDMap returns a lookup from external ID to internal ID for every
// category that carries an external ID.
func (r *CategoryRepository) ExternalIDMap(ctx context.Context) (map[string]uuid.UUID, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Select("id", "external_id").
		Where("external_id IS NOT NULL").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	m := make(map[string]uuid.UUID, len(rows))
	for _, row := range rows {
		if row.ExternalID != nil {
			m[*row.ExternalID] = row.ID
		}
	}
	return m, nil
}

// DeleteByExternalIDs removes one batch of categories. Callers chunk the ID
// list to respect query-size limits. Returns the number of rows deleted.
func (r *CategoryRepository) DeleteByExternalIDs(ctx context.Context, externalIDs []string) (int64, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("external_id IN ?", externalIDs).
		Delete(&models.Category{})
	return res.RowsAffected, res.Error
}

// ListActive returns all active categories ordered by path, which yields
// parents before children.
func (r *CategoryRepository) ListActive(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("path ASC").
		Find(&rows).Error
	return rows, err
}

// ResolveTreePaths computes the materialized path and level for every
// category from its parent pointer. Input order does not matter. An orphaned
// parent reference falls back to root placement; a cycle is cut off at the
// row count so the walk always terminates.
func ResolveTreePaths(categories []models.Category) []models.Category {
	byID := make(map[uuid.UUID]*models.Category, len(categories))
	rows := make([]models.Category, len(categories))
	copy(rows, categories)
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	for i := range rows {
		path, level := walkToRoot(&rows[i], byID, len(rows))
		rows[i].Path = path
		rows[i].Level = level
	}
	return rows
}

func walkToRoot(cat *models.Category, byID map[uuid.UUID]*models.Category, maxDepth int) (string, int) {
	segments := []string{cat.ID.String()}
	level := 0

	cur := cat
	for depth := 0; depth < maxDepth; depth++ {
		if cur.ParentID == nil {
			break
		}
		parent, ok := byID[*cur.ParentID]
		if !ok {
			break
		}
		segments = append([]string{parent.ID.String()}, segments...)
		level++
		cur = parent
	}
	return strings.Join(segments, "/"), level
}

func findByID(rows []models.Category, id uuid.UUID) *models.Category {
	for i := range rows {
		if rows[i].ID == id {
			return &rows[i]
		}
	}
	return nil
}
