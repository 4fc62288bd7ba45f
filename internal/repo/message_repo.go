// This file provides repository functions for the Message model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/remindhub/remindhub-api/internal/domain"
)

// CreateMessage appends a message to chatID. A zero at defaults to now.
// externalID is the provider's message id when known.
func CreateMessage(ctx context.Context, db *gorm.DB, chatID, text, sender string, at time.Time, externalID *string) (*domain.Message, error) {
	if at.IsZero() {
		at = time.Now()
	}
	m := &domain.Message{
		ID:         uuid.NewString(),
		ChatID:     chatID,
		Text:       text,
		Sender:     sender,
		ExternalID: externalID,
		CreatedAt:  at.UTC(),
	}
	return m, db.WithContext(ctx).Create(m).Error
}

// CountMessages returns the number of messages in chatID.
func CountMessages(ctx context.Context, db *gorm.DB, chatID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("chat_id = ?", chatID).
		Count(&total).Error
	return total, err
}

// ListMessagesPage returns a page of messages for chatID, oldest first.
func ListMessagesPage(ctx context.Context, db *gorm.DB, chatID string, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
