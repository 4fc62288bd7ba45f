// Package domain defines the persistence models for chats, messages, and
// settings, plus the view shapes returned by the provider proxy. These types
// are mapped with GORM and form the core data layer of the integration.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Sender values persisted on Message rows.
const (
	SenderAgent    = "agent"
	SenderCustomer = "customer"
)

// Lead statuses a Chat can be in. StatusResolved is set by the provider's
// room-resolved event; the rest are driven by agents.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusFollowUp  = "follow_up"
	StatusQualified = "qualified"
	StatusWon       = "won"
	StatusLost      = "lost"
	StatusResolved  = "resolved"
)

var leadStatuses = map[string]struct{}{
	StatusNew: {}, StatusContacted: {}, StatusFollowUp: {}, StatusQualified: {},
	StatusWon: {}, StatusLost: {}, StatusResolved: {},
}

// IsLeadStatus reports whether s is one of the known lead statuses.
func IsLeadStatus(s string) bool {
	_, ok := leadStatuses[s]
	return ok
}

// Chat is one conversation with a contact, keyed by the contact's
// digits-only phone number.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - RoomID: provider room identifier; nil until the provider reports it.
//   - ContactName / ContactPhone: phone is the natural key (unique).
//   - Channel: canonical channel name (see NormalizeChannel).
//   - Status: lead status, "new" on creation.
//   - Unread: 1 after a customer message, 0 after an agent reply.
//   - LastMessage / LastTimestamp: preview of the most recent message.
//   - AssignedPIC: free-text owner, nil when unassigned.
//   - ResolvedAt: stamped when the provider resolves the room.
//
// Deletes are hard deletes so messages cascade and the phone number is
// free for a new chat.
type Chat struct {
	ID            string     `json:"id"             gorm:"type:char(36);primaryKey"`
	RoomID        *string    `json:"room_id"        gorm:"type:varchar(128);index:idx_chats_room"`
	ContactName   string     `json:"contact_name"   gorm:"type:varchar(255);not null"`
	ContactPhone  string     `json:"contact_phone"  gorm:"type:varchar(32);not null;uniqueIndex:ux_chats_phone"`
	Channel       string     `json:"channel"        gorm:"type:varchar(32);not null;default:'whatsapp'"`
	Status        string     `json:"status"         gorm:"type:varchar(32);not null;default:'new'"`
	Unread        int        `json:"unread"         gorm:"not null;default:0"`
	LastMessage   string     `json:"last_message"   gorm:"type:text"`
	LastTimestamp time.Time  `json:"last_timestamp" gorm:"index:idx_chats_last"`
	AssignedPIC   *string    `json:"assigned_pic"   gorm:"type:varchar(255)"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// Message is a single inbound or outbound message in a chat. Rows are
// append-only.
type Message struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	ChatID     string    `json:"chat_id"     gorm:"type:char(36);not null;index:idx_chat_msgs,priority:1"`
	Text       string    `json:"text"        gorm:"type:text;not null"`
	Sender     string    `json:"sender"      gorm:"type:varchar(16);not null;check:sender IN ('agent','customer')"`
	ExternalID *string   `json:"external_id,omitempty" gorm:"type:varchar(128)"`
	CreatedAt  time.Time `json:"created_at"  gorm:"index:idx_chat_msgs,priority:2"`

	// Messages are cascade-deleted with their chat.
	Chat Chat `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Setting keys read by the provider integration.
const (
	SettingAccessToken          = "qontak_access_token"
	SettingRefreshToken         = "qontak_refresh_token"
	SettingChannelIntegrationID = "qontak_channel_integration_id"
)

// Setting is a single key/value row in the shared configuration store.
type Setting struct {
	Key       string    `json:"key"        gorm:"type:varchar(128);primaryKey"`
	Value     string    `json:"value"      gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Setting.
func (Setting) TableName() string { return "settings" }

// WebhookDelivery keeps the raw body of an inbound webhook call together with
// the shape it was classified as.
type WebhookDelivery struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Shape      string         `json:"shape"       gorm:"type:varchar(64);not null;index"`
	EventCount int            `json:"event_count" gorm:"not null"`
	Payload    datatypes.JSON `json:"payload"`
	ReceivedAt time.Time      `json:"received_at" gorm:"index"`
}

// TableName returns the database table name for WebhookDelivery.
func (WebhookDelivery) TableName() string { return "webhook_deliveries" }
