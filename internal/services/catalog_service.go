package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
)

const (
	listingCachePrefix = "catalog:products:"
	treeCacheKey       = "catalog:categories:tree"
	cacheTTL           = 60 * time.Second
)

// CatalogService serves the storefront read path: product listings, single
// products and the category tree. Listings are cached in Redis with a short
// TTL and dropped after a successful sync; the service degrades to direct
// database reads when Redis is unavailable.
type CatalogService struct {
	products   repository.CatalogReaderInterface
	categories repository.CategoryRepositoryInterface
	cache      *redis.Client
	logger     *logrus.Entry
}

// NewCatalogService creates a catalog read service. The cache client may be
// nil.
func NewCatalogService(
	products repository.CatalogReaderInterface,
	categories repository.CategoryRepositoryInterface,
	cache *redis.Client,
	logger *logrus.Logger,
) *CatalogService {
	return &CatalogService{
		products:   products,
		categories: categories,
		cache:      cache,
		logger:     logger.WithField("component", "catalog"),
	}
}

// ListProducts returns storefront products for the given filters.
func (s *CatalogService) ListProducts(ctx context.Context, opts repository.ProductListOptions) ([]models.Product, error) {
	key := listingCacheKey(opts)
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	rows, err := s.products.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, key, rows)
	return rows, nil
}

// GetProduct returns a single product with its images.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.products.GetByID(ctx, id)
}

// CategoryTree returns the active categories assembled into a nested tree.
func (s *CatalogService) CategoryTree(ctx context.Context) ([]models.Category, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, treeCacheKey).Bytes(); err == nil {
			var tree []models.Category
			if json.Unmarshal(raw, &tree) == nil {
				return tree, nil
			}
		}
	}

	rows, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	tree := BuildCategoryTree(rows)

	if s.cache != nil {
		if raw, err := json.Marshal(tree); err == nil {
			if err := s.cache.Set(ctx, treeCacheKey, raw, cacheTTL).Err(); err != nil {
				s.logger.WithError(err).Warn("Failed to cache category tree")
			}
		}
	}
	return tree, nil
}

// InvalidateCache drops all cached listings and the category tree. Called
// after every successful sync.
func (s *CatalogService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}

	iter := s.cache.Scan(ctx, 0, listingCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.WithError(err).Warn("Failed to drop cached listing")
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to scan listing cache")
	}
	if err := s.cache.Del(ctx, treeCacheKey).Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to drop cached tree")
	}
}

func (s *CatalogService) fromCache(ctx context.Context, key string) ([]models.Product, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var rows []models.Product
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (s *CatalogService) toCache(ctx context.Context, key string, rows []models.Product) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to cache listing")
	}
}

func listingCacheKey(opts repository.ProductListOptions) string {
	category := "all"
	if opts.CategoryID != nil {
		category = opts.CategoryID.String()
	}
	return fmt.Sprintf("%s%s:%t:%t:%t:%d",
		listingCachePrefix, category, opts.New, opts.Popular, opts.Discount, opts.Limit)
}

// BuildCategoryTree nests category rows under their parents. Rows whose
// parent is missing (hidden or inactive) surface as roots.
func BuildCategoryTree(rows []models.Category) []models.Category {
	nodes := make(map[uuid.UUID]*models.Category, len(rows))
	childrenOf := make(map[uuid.UUID][]*models.Category)
	var roots []*models.Category

	for i := range rows {
		row := rows[i]
		row.Children = nil
		nodes[row.ID] = &row
	}

	for i := range rows {
		node := nodes[rows[i].ID]
		if node.ParentID != nil {
			if _, ok := nodes[*node.ParentID]; ok {
				childrenOf[*node.ParentID] = append(childrenOf[*node.ParentID], node)
				continue
			}
		}
		roots = append(roots, node)
	}

	var materialize func(node *models.Category) models.Category
	materialize = func(node *models.Category) models.Category {
		out := *node
		for _, child := range childrenOf[node.ID] {
			out.Children = append(out.Children, materialize(child))
		}
		return out
	}

	tree := make([]models.Category, 0, len(roots))
	for _, root := range roots {
		tree = append(tree, materialize(root))
	}
	return tree
}
