// This file stores raw webhook deliveries for later inspection.
package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/remindhub/remindhub-api/internal/domain"
)

// RecordWebhookDelivery persists body together with the shape it matched.
// Bodies that are not valid JSON are stored as a JSON string so the column
// stays queryable.
func RecordWebhookDelivery(ctx context.Context, db *gorm.DB, shape string, events int, body []byte) (*domain.WebhookDelivery, error) {
	payload := datatypes.JSON(body)
	if !json.Valid(body) {
		quoted, err := json.Marshal(string(body))
		if err != nil {
			return nil, err
		}
		payload = datatypes.JSON(quoted)
	}
	d := &domain.WebhookDelivery{
		ID:         uuid.NewString(),
		Shape:      shape,
		EventCount: events,
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	}
	return d, db.WithContext(ctx).Create(d).Error
}

// ListWebhookDeliveries returns the most recent deliveries, newest first.
func ListWebhookDeliveries(ctx context.Context, db *gorm.DB, limit int) ([]domain.WebhookDelivery, error) {
	var out []domain.WebhookDelivery
	err := db.WithContext(ctx).
		Order("received_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
