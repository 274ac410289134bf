package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"catalog-sync-service/internal/clients/moysklad"
	"catalog-sync-service/internal/services"
)

// WebhookHandler handles inbound MoySklad webhooks
type WebhookHandler struct {
	productSync *services.ProductSyncService
	logger      *logrus.Entry
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(productSync *services.ProductSyncService, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		productSync: productSync,
		logger:      logger.WithField("component", "webhook"),
	}
}

type webhookPayload struct {
	Events []struct {
		Meta   moysklad.Meta `json:"meta"`
		Action string        `json:"action"`
	} `json:"events"`
}

// HandleMoySklad processes a MoySklad event batch. Only product DELETE
// events are acted on; everything else is acknowledged and skipped.
func (h *WebhookHandler) HandleMoySklad(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	deleted := 0
	for _, event := range payload.Events {
		if event.Action != "DELETE" || event.Meta.Type != "product" {
			continue
		}
		externalID := moysklad.ExtractUUID(event.Meta.Href)
		if externalID == "" {
			h.logger.WithField("href", event.Meta.Href).Warn("Webhook event without entity ID")
			continue
		}

		n, err := h.productSync.DeleteByExternalID(c.Request.Context(), externalID)
		if err != nil {
			h.logger.WithError(err).WithField("externalId", externalID).Error("Failed to delete product from webhook")
			continue
		}
		deleted += int(n)
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "deleted": deleted})
}
