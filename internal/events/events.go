// Package events publishes chat activity notifications produced by webhook
// ingest and outbound sends. Delivery is best-effort: a failed publish is
// logged by the caller and never fails the operation that produced it.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event types. They double as AMQP routing keys.
const (
	TypeChatMessage  = "chat.message.v1"
	TypeChatResolved = "chat.resolved.v1"
)

// Producer identifies this service in envelope metadata.
const Producer = "remindhub-api"

// Meta is the envelope header shared by every event.
type Meta struct {
	ID            string    `json:"id"`
	CorrelationID *string   `json:"correlation_id,omitempty"`
	Producer      string    `json:"producer"`
	Time          time.Time `json:"time"`
	Type          string    `json:"type"`
}

// Envelope wraps an event payload.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// ChatMessage is the payload of TypeChatMessage.
type ChatMessage struct {
	ChatID       string    `json:"chat_id"`
	MessageID    string    `json:"message_id"`
	ContactPhone string    `json:"contact_phone"`
	ContactName  string    `json:"contact_name"`
	Channel      string    `json:"channel"`
	Sender       string    `json:"sender"`
	Text         string    `json:"text"`
	Unread       int       `json:"unread"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChatResolved is the payload of TypeChatResolved.
type ChatResolved struct {
	RoomID     string    `json:"room_id"`
	Chats      int64     `json:"chats"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// New builds an envelope with a fresh id. correlationID is usually the HTTP
// request id and may be empty.
func New(eventType, correlationID string, data any) Envelope {
	env := Envelope{
		Meta: Meta{
			ID:       uuid.NewString(),
			Producer: Producer,
			Time:     time.Now().UTC(),
			Type:     eventType,
		},
		Data: data,
	}
	if correlationID != "" {
		env.Meta.CorrelationID = &correlationID
	}
	return env
}

type correlationKey struct{}

// WithCorrelationID returns a copy of ctx carrying id for FromContext.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// FromContext builds an envelope whose correlation id is taken from ctx.
func FromContext(ctx context.Context, eventType string, data any) Envelope {
	id, _ := ctx.Value(correlationKey{}).(string)
	return New(eventType, id, data)
}

// Publisher delivers envelopes somewhere.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// Noop discards everything.
type Noop struct{}

func (Noop) Publish(context.Context, Envelope) error { return nil }
func (Noop) Close() error                            { return nil }

// Multi fans an envelope out to several publishers. Every publisher is
// tried; their errors are joined.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, env Envelope) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, env); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Publisher.
func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
