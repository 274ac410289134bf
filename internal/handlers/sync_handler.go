package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-sync-service/internal/clients/moysklad"
	"catalog-sync-service/internal/services"
)

// SyncHandler handles the sync trigger and status endpoints
type SyncHandler struct {
	categorySync *services.CategorySyncService
	productSync  *services.ProductSyncService
	recorder     *services.StatusRecorder
	catalog      *CatalogHandler
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(
	categorySync *services.CategorySyncService,
	productSync *services.ProductSyncService,
	recorder *services.StatusRecorder,
	catalog *CatalogHandler,
) *SyncHandler {
	return &SyncHandler{
		categorySync: categorySync,
		productSync:  productSync,
		recorder:     recorder,
		catalog:      catalog,
	}
}

// SyncCategories runs a full category sync pass
func (h *SyncHandler) SyncCategories(c *gin.Context) {
	summary, err := h.categorySync.Sync(c.Request.Context())
	if err != nil {
		respondSyncError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// SyncProducts runs a full product sync pass. With read_only=true the same
// endpoint serves already-synced rows instead, so the storefront and the
// sync trigger share one path.
func (h *SyncHandler) SyncProducts(c *gin.Context) {
	if c.Query("read_only") == "true" {
		h.catalog.ListProducts(c)
		return
	}

	summary, err := h.productSync.Sync(c.Request.Context())
	if err != nil {
		respondSyncError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetStatus returns the per-entity sync status rows
func (h *SyncHandler) GetStatus(c *gin.Context) {
	statuses, err := h.recorder.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": statuses})
}

func respondSyncError(c *gin.Context, err error) {
	var apiErr *moysklad.APIError
	switch {
	case errors.Is(err, services.ErrSyncAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":          err.Error(),
			"upstreamStatus": apiErr.StatusCode,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
