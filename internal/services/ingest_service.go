// Package services – IngestService
//
// IngestService persists canonical webhook events. Events of one delivery
// are applied sequentially so that later events for the same phone number
// observe the chat created by earlier ones; the unique index on
// contact_phone covers concurrent deliveries. A failing event is logged and
// skipped, never failing the whole delivery.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/remindhub/remindhub-api/internal/domain"
	"github.com/remindhub/remindhub-api/internal/events"
	"github.com/remindhub/remindhub-api/internal/observability"
	"github.com/remindhub/remindhub-api/internal/repo"
	"github.com/remindhub/remindhub-api/internal/utils"
	"github.com/remindhub/remindhub-api/internal/webhook"
)

// Ingest outcomes, used as the metrics label.
const (
	OutcomeStored   = "stored"
	OutcomeResolved = "resolved"
	OutcomeStatus   = "status"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// IngestService applies normalized webhook events to chats and messages.
type IngestService struct {
	DB     *gorm.DB
	Events events.Publisher

	// Audit stores every raw delivery in webhook_deliveries.
	Audit bool

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// DeliveryResult summarizes one webhook delivery.
type DeliveryResult struct {
	Shape     string
	Processed int
}

func (s *IngestService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// HandleDelivery normalizes body and processes the resulting events.
// Processed counts events attempted, not events stored.
func (s *IngestService) HandleDelivery(ctx context.Context, body []byte) (DeliveryResult, error) {
	ctx, span := otel.Tracer("services/IngestService").Start(ctx, "HandleDelivery",
		trace.WithAttributes(attribute.Int("webhook.body_bytes", len(body))),
	)
	defer span.End()

	shape, evs := webhook.Classify(body)
	span.SetAttributes(attribute.String("webhook.shape", shape), attribute.Int("webhook.events", len(evs)))
	observability.WebhookDeliveries.WithLabelValues(shape).Inc()

	if s.Audit {
		if _, err := repo.RecordWebhookDelivery(ctx, s.DB, shape, len(evs), body); err != nil {
			logger(ctx).Warn().Err(err).Str("shape", shape).Msg("webhook audit write failed")
		}
	}

	n, err := s.Process(ctx, evs)
	return DeliveryResult{Shape: shape, Processed: n}, err
}

// Process applies evs in order and returns how many were attempted. The
// only error is cancellation of ctx.
func (s *IngestService) Process(ctx context.Context, evs []webhook.Event) (int, error) {
	l := logger(ctx)
	for i, ev := range evs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		outcome, err := s.apply(ctx, ev)
		if err != nil {
			outcome = OutcomeFailed
			l.Error().Err(err).
				Int("index", i).
				Str("event_type", ev.EventType).
				Str("room_id", ev.RoomID).
				Msg("webhook event failed")
		}
		observability.WebhookEvents.WithLabelValues(outcome).Inc()
	}
	return len(evs), nil
}

func (s *IngestService) apply(ctx context.Context, ev webhook.Event) (string, error) {
	switch ev.EventType {
	case webhook.EventRoomResolved:
		return s.resolveRoom(ctx, ev)
	case webhook.EventMessageStatus:
		logger(ctx).Debug().
			Str("message_id", ev.MessageID).
			Str("status", ev.Status).
			Msg("webhook: message status received")
		return OutcomeStatus, nil
	}
	return s.storeMessage(ctx, ev)
}

func (s *IngestService) resolveRoom(ctx context.Context, ev webhook.Event) (string, error) {
	if ev.RoomID == "" {
		return OutcomeSkipped, nil
	}
	at := s.now()
	n, err := repo.ResolveChatsByRoom(ctx, s.DB, ev.RoomID, at)
	if err != nil {
		return "", err
	}
	if n > 0 {
		publish(ctx, s.Events, events.FromContext(ctx, events.TypeChatResolved,
			events.ChatResolved{RoomID: ev.RoomID, Chats: n, ResolvedAt: at}))
	}
	return OutcomeResolved, nil
}

// inbound is an event reduced to what gets stored.
type inbound struct {
	phone   string
	name    string
	text    string
	sender  string
	at      time.Time
	roomID  string
	channel string
	extID   *string
}

// prepare resolves defaults for a message event. ok is false when the
// event is not actionable.
func (s *IngestService) prepare(ev webhook.Event) (in inbound, ok bool) {
	text := ev.Message
	if strings.TrimSpace(text) == "" && ev.MediaURL != "" {
		mt := ev.MediaType
		if mt == "" {
			mt = "media"
		}
		text = "[" + mt + "] " + ev.MediaURL
	}
	phone := utils.DigitsOnly(ev.Phone)
	if phone == "" || strings.TrimSpace(text) == "" {
		return inbound{}, false
	}

	in = inbound{
		phone:   phone,
		name:    norm.NFC.String(strings.TrimSpace(ev.Name)),
		text:    text,
		sender:  domain.SenderCustomer,
		at:      parseTimestamp(ev.Timestamp, s.now()),
		roomID:  strings.TrimSpace(ev.RoomID),
		channel: domain.ChannelWhatsApp,
	}
	if in.name == "" {
		in.name = phone
	}
	if ev.Sender == domain.SenderAgent {
		in.sender = domain.SenderAgent
	}
	if ev.Channel != "" {
		in.channel = domain.NormalizeChannel(ev.Channel)
	}
	if ev.MessageID != "" {
		id := ev.MessageID
		in.extID = &id
	}
	return in, true
}

func (s *IngestService) storeMessage(ctx context.Context, ev webhook.Event) (string, error) {
	in, ok := s.prepare(ev)
	if !ok {
		return OutcomeSkipped, nil
	}
	if ev.Channel != "" && !domain.IsCanonicalChannel(ev.Channel) {
		logger(ctx).Debug().Str("code", ev.Channel).Str("channel", in.channel).Msg("channel code normalized")
	}

	var (
		chat *domain.Chat
		msg  *domain.Message
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if chat, err = upsertChat(ctx, tx, in); err != nil {
			return err
		}
		msg, err = repo.CreateMessage(ctx, tx, chat.ID, in.text, in.sender, in.at, in.extID)
		return err
	})
	if err != nil {
		return "", err
	}

	publish(ctx, s.Events, events.FromContext(ctx, events.TypeChatMessage, events.ChatMessage{
		ChatID:       chat.ID,
		MessageID:    msg.ID,
		ContactPhone: chat.ContactPhone,
		ContactName:  chat.ContactName,
		Channel:      chat.Channel,
		Sender:       msg.Sender,
		Text:         msg.Text,
		Unread:       chat.Unread,
		CreatedAt:    msg.CreatedAt,
	}))
	return OutcomeStored, nil
}

// upsertChat finds the chat for in.phone and updates it, or creates it. A
// concurrent create for the same phone is detected through the unique index
// and turned into an update of the row that won.
func upsertChat(ctx context.Context, tx *gorm.DB, in inbound) (*domain.Chat, error) {
	chat, err := repo.FindChatByPhone(ctx, tx, in.phone)
	if err == nil {
		return chat, updateChat(ctx, tx, chat, in)
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	chat = &domain.Chat{
		ContactName:   in.name,
		ContactPhone:  in.phone,
		Channel:       in.channel,
		Status:        domain.StatusNew,
		LastMessage:   in.text,
		LastTimestamp: in.at,
	}
	if in.sender == domain.SenderCustomer {
		chat.Unread = 1
	}
	if in.roomID != "" {
		rid := in.roomID
		chat.RoomID = &rid
	}

	// Savepoint so a duplicate insert leaves the outer transaction usable.
	err = tx.Transaction(func(sp *gorm.DB) error {
		return repo.CreateChat(ctx, sp, chat)
	})
	if err == nil {
		return chat, nil
	}
	if !repo.IsDuplicate(err) {
		return nil, err
	}

	chat, err = repo.FindChatByPhone(ctx, tx, in.phone)
	if err != nil {
		return nil, err
	}
	return chat, updateChat(ctx, tx, chat, in)
}

func updateChat(ctx context.Context, tx *gorm.DB, chat *domain.Chat, in inbound) error {
	patch := map[string]any{
		"last_message":   in.text,
		"last_timestamp": in.at,
	}
	if in.sender == domain.SenderCustomer {
		patch["unread"] = 1
		chat.Unread = 1
	}
	if in.name != in.phone && in.name != chat.ContactName {
		patch["contact_name"] = in.name
		chat.ContactName = in.name
	}
	if in.roomID != "" && (chat.RoomID == nil || *chat.RoomID != in.roomID) {
		rid := in.roomID
		patch["room_id"] = rid
		chat.RoomID = &rid
	}
	chat.LastMessage = in.text
	chat.LastTimestamp = in.at
	return repo.UpdateChat(ctx, tx, chat.ID, patch)
}

// parseTimestamp accepts RFC 3339 with or without fractional seconds and
// falls back to def.
func parseTimestamp(s string, def time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return def
}
