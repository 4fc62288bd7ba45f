// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Chat model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a chat is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Usage:
//
//	chat, err := repo.FindChatByPhone(ctx, db, "6281111")
//	if errors.Is(err, repo.ErrNotFound) {
//	    // first message from this contact
//	} else if err != nil {
//	    // handle DB failure
//	}
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/remindhub/remindhub-api/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ChatFilter narrows ListChatsPage and CountChats. Empty fields match all.
type ChatFilter struct {
	Status  string
	Channel string
}

func (f ChatFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Channel != "" {
		q = q.Where("channel = ?", f.Channel)
	}
	return q
}

// CreateChat inserts c, assigning a UUID when c.ID is empty. A second chat
// for the same contact_phone fails with a unique-constraint error (see
// IsDuplicate).
func CreateChat(ctx context.Context, db *gorm.DB, c *domain.Chat) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.LastTimestamp.IsZero() {
		c.LastTimestamp = now
	}
	return db.WithContext(ctx).Create(c).Error
}

// GetChat fetches a single chat by its ID, or ErrNotFound.
func GetChat(ctx context.Context, db *gorm.DB, id string) (*domain.Chat, error) {
	var c domain.Chat
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindChatByPhone fetches the chat for a digits-only phone number, or
// ErrNotFound.
func FindChatByPhone(ctx context.Context, db *gorm.DB, phone string) (*domain.Chat, error) {
	var c domain.Chat
	if err := db.WithContext(ctx).Where("contact_phone = ?", phone).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateChat applies a column->value patch to the chat with the given id.
// It returns ErrNotFound when no row matched.
func UpdateChat(ctx context.Context, db *gorm.DB, id string, patch map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", id).
		Updates(patch)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ResolveChatsByRoom marks every chat linked to roomID as resolved and
// returns how many rows changed. Zero is not an error.
func ResolveChatsByRoom(ctx context.Context, db *gorm.DB, roomID string, at time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("room_id = ?", roomID).
		Updates(map[string]any{
			"status":      domain.StatusResolved,
			"resolved_at": at,
		})
	return res.RowsAffected, res.Error
}

// CountChats returns the number of chats matching f.
func CountChats(ctx context.Context, db *gorm.DB, f ChatFilter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.Chat{})).Count(&total).Error
	return total, err
}

// ListChatsPage returns a page of chats matching f, most recently active
// first.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListChatsPage(ctx context.Context, db *gorm.DB, f ChatFilter, offset, limit int) ([]domain.Chat, error) {
	var out []domain.Chat
	err := f.apply(db.WithContext(ctx)).
		Order("last_timestamp desc, id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListChatsByRoomIDs returns the local chats linked to any of roomIDs.
func ListChatsByRoomIDs(ctx context.Context, db *gorm.DB, roomIDs []string) ([]domain.Chat, error) {
	var out []domain.Chat
	if len(roomIDs) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).Where("room_id IN ?", roomIDs).Find(&out).Error
	return out, err
}
