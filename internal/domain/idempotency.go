package domain

import "time"

// Idempotency records an outbound send that already reached the provider,
// keyed by (actor, target, key). A retried request with the same
// Idempotency-Key replays the stored result instead of sending twice.
//
// Target is the local chat id or the provider room id, whichever the caller
// addressed.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Actor     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_actor_target_key,priority:1"`
	Target    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_actor_target_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_actor_target_key,priority:3"`
	Response  string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	ExpiresAt time.Time `gorm:"index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
