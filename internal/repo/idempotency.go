// This file persists replayable results of outbound sends.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/remindhub/remindhub-api/internal/domain"
)

// ErrDuplicate is returned when an idempotency record already exists.
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns the unexpired record for (actor, target, key), or
// ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, actor, target, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(target) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("actor = ? AND target = ? AND key = ? AND expires_at > ?", actor, target, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency stores the response produced for (actor, target, key).
// A concurrent writer for the same triple gets ErrDuplicate.
func CreateIdempotency(ctx context.Context, db *gorm.DB, actor, target, key, response string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		Actor:     actor,
		Target:    target,
		Key:       key,
		Response:  response,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpiredIdempotency deletes records whose TTL has passed.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}

// HasIdempotencyKey reports whether actor has an unexpired record for
// (target, key). A blank target never matches.
func HasIdempotencyKey(ctx context.Context, db *gorm.DB, actor, target, key string, now time.Time) (bool, error) {
	if strings.TrimSpace(target) == "" {
		return false, nil
	}
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Idempotency{}).
		Where("actor = ? AND target = ? AND key = ? AND expires_at > ?", actor, target, key, now).
		Count(&n).Error
	return n > 0, err
}
