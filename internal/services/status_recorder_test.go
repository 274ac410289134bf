package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"catalog-sync-service/internal/models"
)

// capturingStatusRepo records every upserted status so transitions can be
// asserted in order.
func capturingStatusRepo(current *models.SyncStatus, captured *[]models.SyncStatus) *MockSyncStatusRepository {
	repo := new(MockSyncStatusRepository)
	if current != nil {
		repo.On("Get", mock.Anything, mock.Anything).Return(current, nil)
	} else {
		repo.On("Get", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)
	}
	repo.On("Upsert", mock.Anything, mock.AnythingOfType("*models.SyncStatus")).
		Run(func(args mock.Arguments) {
			*captured = append(*captured, *args.Get(1).(*models.SyncStatus))
		}).
		Return(nil)
	return repo
}

func TestStatusRecorder_StartRejectsRunningEntity(t *testing.T) {
	ctx := context.Background()
	running := &models.SyncStatus{Entity: models.SyncEntityProducts, Status: models.SyncStateRunning}

	repo := new(MockSyncStatusRepository)
	repo.On("Get", ctx, models.SyncEntityProducts).Return(running, nil)

	recorder := NewStatusRecorder(repo, nil)
	err := recorder.Start(ctx, models.SyncEntityProducts)

	assert.ErrorIs(t, err, ErrSyncAlreadyRunning)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestStatusRecorder_StartAfterFinishedRun(t *testing.T) {
	ctx := context.Background()
	lastSync := time.Now().Add(-time.Hour)
	previous := &models.SyncStatus{
		Entity:     models.SyncEntityProducts,
		Status:     models.SyncStateSuccess,
		LastSyncAt: &lastSync,
	}

	var captured []models.SyncStatus
	repo := capturingStatusRepo(previous, &captured)

	recorder := NewStatusRecorder(repo, nil)
	err := recorder.Start(ctx, models.SyncEntityProducts)

	assert.NoError(t, err)
	assert.Len(t, captured, 1)
	assert.Equal(t, models.SyncStateRunning, captured[0].Status)
	assert.NotNil(t, captured[0].StartedAt)
	// The previous successful sync time survives the new run starting
	assert.Equal(t, &lastSync, captured[0].LastSyncAt)
}

func TestStatusRecorder_ProgressComputesPercent(t *testing.T) {
	ctx := context.Background()
	var captured []models.SyncStatus
	repo := capturingStatusRepo(&models.SyncStatus{Status: models.SyncStateRunning}, &captured)

	recorder := NewStatusRecorder(repo, nil)

	assert.NoError(t, recorder.Progress(ctx, models.SyncEntityCategories, 0, 8, "start"))
	assert.NoError(t, recorder.Progress(ctx, models.SyncEntityCategories, 3, 8, "mid"))
	assert.NoError(t, recorder.Progress(ctx, models.SyncEntityCategories, 8, 8, "done"))

	assert.Equal(t, []int{0, 37, 100}, []int{captured[0].Percent, captured[1].Percent, captured[2].Percent})
	for _, status := range captured {
		assert.Equal(t, models.SyncStateRunning, status.Status)
	}
}

func TestStatusRecorder_FailKeepsProgress(t *testing.T) {
	ctx := context.Background()
	current := &models.SyncStatus{
		Entity:    models.SyncEntityProducts,
		Status:    models.SyncStateRunning,
		Processed: 30,
		Total:     100,
	}
	var captured []models.SyncStatus
	repo := capturingStatusRepo(current, &captured)

	recorder := NewStatusRecorder(repo, nil)
	err := recorder.Fail(ctx, models.SyncEntityProducts, "upstream returned 503")

	assert.NoError(t, err)
	assert.Len(t, captured, 1)
	failed := captured[0]
	assert.Equal(t, models.SyncStateError, failed.Status)
	assert.Equal(t, 30, failed.Processed)
	assert.Equal(t, 100, failed.Total)
	assert.Equal(t, "upstream returned 503", failed.Message)
	assert.NotNil(t, failed.FinishedAt)
	assert.Nil(t, failed.LastSyncAt)
}

func TestStatusRecorder_SucceedStampsLastSync(t *testing.T) {
	ctx := context.Background()
	var captured []models.SyncStatus
	repo := capturingStatusRepo(&models.SyncStatus{Status: models.SyncStateRunning}, &captured)

	recorder := NewStatusRecorder(repo, nil)
	err := recorder.Succeed(ctx, models.SyncEntityProducts, 42, 42, "synced 42 products")

	assert.NoError(t, err)
	assert.Len(t, captured, 1)
	done := captured[0]
	assert.Equal(t, models.SyncStateSuccess, done.Status)
	assert.Equal(t, 100, done.Percent)
	assert.NotNil(t, done.FinishedAt)
	assert.NotNil(t, done.LastSyncAt)
}

func TestComputePercent(t *testing.T) {
	assert.Equal(t, 0, models.ComputePercent(0, 0))
	assert.Equal(t, 0, models.ComputePercent(5, 0))
	assert.Equal(t, 50, models.ComputePercent(1, 2))
	assert.Equal(t, 33, models.ComputePercent(1, 3))
	assert.Equal(t, 100, models.ComputePercent(3, 3))
}
