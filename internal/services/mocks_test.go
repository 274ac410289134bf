package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"catalog-sync-service/internal/clients/moysklad"
	"catalog-sync-service/internal/models"
	"catalog-sync-service/internal/repository"
)

// MockERPClient is a mock implementation of ERPClient
type MockERPClient struct {
	mock.Mock
}

var _ ERPClient = (*MockERPClient)(nil)

func (m *MockERPClient) ListProductFolders(ctx context.Context, pageSize int) ([]moysklad.ProductFolder, error) {
	args := m.Called(ctx, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]moysklad.ProductFolder), args.Error(1)
}

func (m *MockERPClient) ListProducts(ctx context.Context, pageSize int) ([]moysklad.Product, error) {
	args := m.Called(ctx, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]moysklad.Product), args.Error(1)
}

func (m *MockERPClient) StockAll(ctx context.Context) (map[string]float64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

// MockCategoryRepository is a mock implementation of CategoryRepositoryInterface
type MockCategoryRepository struct {
	mock.Mock
}

var _ repository.CategoryRepositoryInterface = (*MockCategoryRepository)(nil)

func (m *MockCategoryRepository) UpsertParentless(ctx context.Context, categories []models.Category) error {
	args := m.Called(ctx, categories)
	return args.Error(0)
}

func (m *MockCategoryRepository) LinkParents(ctx context.Context, categories []models.Category) error {
	args := m.Called(ctx, categories)
	return args.Error(0)
}

func (m *MockCategoryRepository) RecomputeTree(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCategoryRepository) ExternalIDMap(ctx context.Context) (map[string]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]uuid.UUID), args.Error(1)
}

func (m *MockCategoryRepository) DeleteByExternalIDs(ctx context.Context, externalIDs []string) (int64, error) {
	args := m.Called(ctx, externalIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCategoryRepository) ListActive(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

// MockProductRepository is a mock implementation of ProductRepositoryInterface
type MockProductRepository struct {
	mock.Mock
}

var _ repository.ProductRepositoryInterface = (*MockProductRepository)(nil)

func (m *MockProductRepository) UpsertBatch(ctx context.Context, products []models.Product) error {
	args := m.Called(ctx, products)
	return args.Error(0)
}

func (m *MockProductRepository) GetByExternalIDs(ctx context.Context, externalIDs []string) ([]models.Product, error) {
	args := m.Called(ctx, externalIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) ListExternalIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductRepository) DeleteByExternalIDs(ctx context.Context, externalIDs []string) (int64, error) {
	args := m.Called(ctx, externalIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) HasImages(ctx context.Context, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) InsertImages(ctx context.Context, images []models.ProductImage) error {
	args := m.Called(ctx, images)
	return args.Error(0)
}

// MockSyncStatusRepository is a mock implementation of SyncStatusRepositoryInterface
type MockSyncStatusRepository struct {
	mock.Mock
}

var _ repository.SyncStatusRepositoryInterface = (*MockSyncStatusRepository)(nil)

func (m *MockSyncStatusRepository) Get(ctx context.Context, entity models.SyncEntity) (*models.SyncStatus, error) {
	args := m.Called(ctx, entity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncStatus), args.Error(1)
}

func (m *MockSyncStatusRepository) Upsert(ctx context.Context, status *models.SyncStatus) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}

func (m *MockSyncStatusRepository) List(ctx context.Context) ([]models.SyncStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SyncStatus), args.Error(1)
}

// MockCatalogReader is a mock implementation of CatalogReaderInterface
type MockCatalogReader struct {
	mock.Mock
}

var _ repository.CatalogReaderInterface = (*MockCatalogReader)(nil)

func (m *MockCatalogReader) List(ctx context.Context, opts repository.ProductListOptions) ([]models.Product, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockCatalogReader) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}
