package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"catalog-sync-service/internal/models"
)

// StatusChannel is the Redis pub/sub channel the admin dashboard subscribes
// to for live sync progress.
const StatusChannel = "catalog.sync.status"

// StatusEvent is the payload published on every sync status transition.
type StatusEvent struct {
	Entity    models.SyncEntity `json:"entity"`
	Status    models.SyncState  `json:"status"`
	Total     int               `json:"total"`
	Processed int               `json:"processed"`
	Percent   int               `json:"percent"`
	Message   string            `json:"message,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Publisher pushes sync status events over Redis pub/sub. A nil Publisher is
// safe to call; status events are best-effort and never fail a sync.
type Publisher struct {
	client *redis.Client
	logger *logrus.Entry
}

// NewPublisher creates a status event publisher.
func NewPublisher(client *redis.Client, logger *logrus.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger.WithField("component", "events.publisher"),
	}
}

// PublishStatus publishes a status event. Errors are logged, not returned.
func (p *Publisher) PublishStatus(ctx context.Context, status *models.SyncStatus) {
	if p == nil || p.client == nil {
		return
	}

	event := StatusEvent{
		Entity:    status.Entity,
		Status:    status.Status,
		Total:     status.Total,
		Processed: status.Processed,
		Percent:   status.Percent,
		Message:   status.Message,
		Timestamp: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to marshal status event")
		return
	}

	if err := p.client.Publish(ctx, StatusChannel, payload).Err(); err != nil {
		p.logger.WithError(err).Warn("Failed to publish status event")
	}
}
