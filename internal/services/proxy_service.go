// Package services – ProxyService
//
// ProxyService translates inbox actions into provider API calls and maps the
// provider's loosely shaped responses into domain.Room / domain.RoomMessage.
// Every mapped field reads a fixed, ordered list of alternate keys and ends
// in a literal default, so the caller never sees a missing value.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/remindhub/remindhub-api/internal/domain"
	"github.com/remindhub/remindhub-api/internal/events"
	"github.com/remindhub/remindhub-api/internal/qontak"
	"github.com/remindhub/remindhub-api/internal/repo"
	"github.com/remindhub/remindhub-api/internal/utils"
	"github.com/remindhub/remindhub-api/internal/webhook"
)

// Literal defaults used by the response mappers.
const (
	DefaultContactName = "Unknown"
	DefaultLastMessage = "No message"
)

// Room list sources reported in RoomsMeta.Source.
const (
	SourcePrimary = "mekari"
	SourceLegacy  = "legacy"
)

// Room history page bounds.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// IdempotencyActorSend scopes idempotency records of outbound sends.
const IdempotencyActorSend = "qontak.send"

// QontakAPI is the subset of the provider client used by the proxy.
type QontakAPI interface {
	ListRooms(ctx context.Context, limit, offset int) ([]byte, error)
	ListRoomsLegacy(ctx context.Context, limit, offset int) ([]byte, error)
	RoomHistory(ctx context.Context, roomID string, limit int) ([]byte, error)
	SendText(ctx context.Context, roomID, text string) ([]byte, error)
	SendTemplate(ctx context.Context, token string, t qontak.DirectTemplate) ([]byte, error)
	Integrations(ctx context.Context, token string) ([]byte, error)
}

// CredentialSource supplies the bearer token and channel integration id.
type CredentialSource interface {
	AccessToken(ctx context.Context) (string, error)
	ChannelIntegrationID(ctx context.Context) (string, error)
}

// ProxyService implements the provider proxy operations.
type ProxyService struct {
	DB     *gorm.DB
	API    QontakAPI
	Creds  CredentialSource
	Events events.Publisher

	// IdempotencyTTL is how long a send result can be replayed.
	IdempotencyTTL time.Duration
}

// RoomsMeta describes a page of rooms.
type RoomsMeta struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Total  int    `json:"total"`
	Source string `json:"source"`
}

// RoomsPage is the result of ListRooms.
type RoomsPage struct {
	Data []domain.Room `json:"data"`
	Meta RoomsMeta     `json:"meta"`
}

// HistoryMeta describes a page of room history.
type HistoryMeta struct {
	RoomID string `json:"room_id"`
	Limit  int    `json:"limit"`
	Count  int    `json:"count"`
}

// HistoryPage is the result of History.
type HistoryPage struct {
	Data []domain.RoomMessage `json:"data"`
	Meta HistoryMeta          `json:"meta"`
}

func tracer() trace.Tracer { return otel.Tracer("services/ProxyService") }

// ListRooms fetches a page of rooms from the primary host and falls back to
// the legacy host on any failure. When both fail the legacy error is
// returned. Local lead status and PIC override the provider's values for
// rooms already linked to a chat.
func (s *ProxyService) ListRooms(ctx context.Context, page, limit int) (RoomsPage, error) {
	page, limit, offset := utils.PageOffset(page, limit, 20, 0)

	ctx, span := tracer().Start(ctx, "ListRooms", trace.WithAttributes(
		attribute.Int("page", page),
		attribute.Int("limit", limit),
	))
	defer span.End()

	source := SourcePrimary
	body, err := s.API.ListRooms(ctx, limit, offset)
	if err != nil {
		if errors.Is(err, qontak.ErrSignerNotConfigured) {
			return RoomsPage{}, err
		}
		logger(ctx).Warn().Err(err).Msg("qontak rooms: primary failed, trying legacy host")
		source = SourceLegacy
		body, err = s.API.ListRoomsLegacy(ctx, limit, offset)
		if err != nil {
			return RoomsPage{}, err
		}
	}
	span.SetAttributes(attribute.String("qontak.source", source))

	rooms := []domain.Room{}
	eachListed(body, func(obj []byte) {
		rooms = append(rooms, MapRoom(obj))
	}, []string{"data"}, []string{"data", "data"}, []string{"rooms"}, []string{"data", "rooms"})

	s.overlayLocal(ctx, rooms)

	total := len(rooms)
	if n, err := strconv.Atoi(utils.FirstStr(body,
		[]string{"meta", "total"},
		[]string{"data", "meta", "total"},
		[]string{"meta", "pagination", "total"},
		[]string{"total"},
	)); err == nil {
		total = n
	}
	return RoomsPage{
		Data: rooms,
		Meta: RoomsMeta{Page: page, Limit: limit, Offset: offset, Total: total, Source: source},
	}, nil
}

// overlayLocal copies status and PIC from linked local chats. Lookup
// failures leave the provider values in place.
func (s *ProxyService) overlayLocal(ctx context.Context, rooms []domain.Room) {
	if s.DB == nil || len(rooms) == 0 {
		return
	}
	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		if r.ID != "" {
			ids = append(ids, r.ID)
		}
	}
	chats, err := repo.ListChatsByRoomIDs(ctx, s.DB, ids)
	if err != nil {
		logger(ctx).Warn().Err(err).Msg("qontak rooms: local overlay skipped")
		return
	}
	byRoom := make(map[string]domain.Chat, len(chats))
	for _, c := range chats {
		if c.RoomID != nil {
			byRoom[*c.RoomID] = c
		}
	}
	for i := range rooms {
		if c, ok := byRoom[rooms[i].ID]; ok {
			rooms[i].Status = c.Status
			rooms[i].AssignedPIC = c.AssignedPIC
		}
	}
}

// eachListed calls fn for every object of the first array found among
// paths.
func eachListed(body []byte, fn func(obj []byte), paths ...[]string) {
	for _, p := range paths {
		if _, t := utils.Raw(body, p...); t == jsonparser.Array {
			utils.Each(body, fn, p...)
			return
		}
	}
}

// MapRoom converts one provider room object to a domain.Room.
func MapRoom(obj []byte) domain.Room {
	raw := utils.FirstStr(obj,
		[]string{"channel"},
		[]string{"channel_type"},
		[]string{"channel_integration", "target_channel"},
	)
	r := domain.Room{
		ID: utils.FirstStr(obj, []string{"id"}, []string{"room_id"}),
		ContactName: orDefault(utils.FirstStr(obj,
			[]string{"name"},
			[]string{"contact_name"},
			[]string{"account_name"},
			[]string{"contact", "name"},
		), DefaultContactName),
		ContactPhone: utils.FirstStr(obj,
			[]string{"account_uniq_id"},
			[]string{"contact_phone"},
			[]string{"phone"},
			[]string{"contact", "phone_number"},
		),
		Channel:    domain.NormalizeChannel(raw),
		RawChannel: raw,
		Status:     roomStatus(utils.Str(obj, "status")),
		LastMessage: orDefault(utils.FirstStr(obj,
			[]string{"last_message", "text"},
			[]string{"last_message_text"},
			[]string{"last_message", "body"},
			[]string{"last_message"},
		), DefaultLastMessage),
		LastTimestamp: utils.FirstStr(obj,
			[]string{"last_message", "created_at"},
			[]string{"last_message_at"},
			[]string{"last_activity_at"},
			[]string{"updated_at"},
		),
	}
	r.Unread, _ = strconv.Atoi(utils.FirstStr(obj, []string{"unread_count"}, []string{"unread"}))
	if pic := utils.FirstStr(obj, []string{"agent", "name"}, []string{"assigned_agent", "name"}); pic != "" {
		r.AssignedPIC = &pic
	}
	return r
}

// roomStatus maps the provider's room status onto a lead status.
func roomStatus(s string) string {
	if strings.EqualFold(s, domain.StatusResolved) {
		return domain.StatusResolved
	}
	return domain.StatusNew
}

// History fetches the newest limit messages of roomID and returns them
// oldest first. limit defaults to 50 and is capped at 100.
func (s *ProxyService) History(ctx context.Context, roomID string, limit int) (HistoryPage, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return HistoryPage{}, ErrRoomIDRequired
	}
	_, limit, _ = utils.PageOffset(1, limit, defaultHistoryLimit, maxHistoryLimit)

	ctx, span := tracer().Start(ctx, "History", trace.WithAttributes(
		attribute.String("room.id", roomID),
		attribute.Int("limit", limit),
	))
	defer span.End()

	body, err := s.API.RoomHistory(ctx, roomID, limit)
	if err != nil {
		return HistoryPage{}, err
	}

	msgs := []domain.RoomMessage{}
	eachListed(body, func(obj []byte) {
		msgs = append(msgs, MapRoomMessage(obj))
	}, []string{"data"}, []string{"data", "data"}, []string{"messages"}, []string{"data", "messages"})

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return HistoryPage{
		Data: msgs,
		Meta: HistoryMeta{RoomID: roomID, Limit: limit, Count: len(msgs)},
	}, nil
}

// MapRoomMessage converts one provider history entry to a domain.RoomMessage.
func MapRoomMessage(obj []byte) domain.RoomMessage {
	m := domain.RoomMessage{
		ID:        utils.FirstStr(obj, []string{"id"}, []string{"message_id"}),
		Text:      webhook.ExtractQontak(obj).Text,
		CreatedAt: utils.FirstStr(obj, []string{"created_at"}, []string{"timestamp"}),
		Status:    utils.Str(obj, "status"),
		IsAgent:   isAgentMessage(obj),
	}
	m.Sender = domain.SenderCustomer
	if m.IsAgent {
		m.Sender = domain.SenderAgent
	}
	return m
}

// isAgentMessage checks the four agent signals the provider uses across
// API versions.
func isAgentMessage(obj []byte) bool {
	if utils.Str(obj, "sender_type") == domain.SenderAgent {
		return true
	}
	switch strings.ToLower(utils.Str(obj, "direction")) {
	case "outbound", "outgoing", "out":
		return true
	}
	if utils.Str(obj, "sender", "type") == domain.SenderAgent {
		return true
	}
	v, t := utils.Raw(obj, "is_room_owner")
	return t == jsonparser.Boolean && string(v) == "false"
}

// SendInput is an outbound text message. ChatID wins over RoomID.
type SendInput struct {
	ChatID         string
	RoomID         string
	Text           string
	IdempotencyKey string
}

// SendResult is the provider's answer plus the local mirror, if any.
type SendResult struct {
	Data     json.RawMessage
	Message  *domain.Message
	Replayed bool
}

// Send posts a text into a provider room. With a ChatID the room is
// resolved from the chat, and the sent text is mirrored locally as an agent
// message that clears the unread counter.
func (s *ProxyService) Send(ctx context.Context, in SendInput) (SendResult, error) {
	// whitespace-only text is rejected; anything else goes out as typed
	if strings.TrimSpace(in.Text) == "" {
		return SendResult{}, ErrEmptyText
	}
	text := in.Text
	chatID := strings.TrimSpace(in.ChatID)
	roomID := strings.TrimSpace(in.RoomID)
	if chatID == "" && roomID == "" {
		return SendResult{}, ErrTargetRequired
	}

	ctx, span := tracer().Start(ctx, "Send", trace.WithAttributes(
		attribute.String("chat.id", chatID),
		attribute.String("room.id", roomID),
	))
	defer span.End()

	if chatID != "" {
		chat, err := repo.GetChat(ctx, s.DB, chatID)
		if errors.Is(err, repo.ErrNotFound) {
			return SendResult{}, ErrChatNotFound
		}
		if err != nil {
			return SendResult{}, err
		}
		if chat.RoomID == nil || strings.TrimSpace(*chat.RoomID) == "" {
			return SendResult{}, ErrChatNotLinked
		}
		roomID = *chat.RoomID
	}

	target := chatID
	if target == "" {
		target = roomID
	}
	if in.IdempotencyKey != "" && s.DB != nil {
		rec, err := repo.GetIdempotency(ctx, s.DB, IdempotencyActorSend, target, in.IdempotencyKey, time.Now().UTC())
		if err == nil {
			return SendResult{Data: json.RawMessage(rec.Response), Replayed: true}, nil
		}
	}

	body, err := s.API.SendText(ctx, roomID, text)
	if err != nil {
		return SendResult{}, err
	}
	res := SendResult{Data: rawJSON(body)}

	if chatID != "" {
		res.Message = s.mirror(ctx, chatID, text, body)
	}

	if in.IdempotencyKey != "" && s.DB != nil {
		ttl := s.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		if _, err := repo.CreateIdempotency(ctx, s.DB, IdempotencyActorSend, target, in.IdempotencyKey, string(res.Data), 200, ttl); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			logger(ctx).Warn().Err(err).Msg("idempotency record not stored")
		}
	}
	return res, nil
}

// mirror records a sent text on the local chat. The provider call already
// succeeded, so failures are only logged.
func (s *ProxyService) mirror(ctx context.Context, chatID, text string, body []byte) *domain.Message {
	var extID *string
	if id := utils.FirstStr(body, []string{"data", "id"}, []string{"id"}); id != "" {
		extID = &id
	}
	now := time.Now().UTC()

	var msg *domain.Message
	var chat *domain.Chat
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if msg, err = repo.CreateMessage(ctx, tx, chatID, text, domain.SenderAgent, now, extID); err != nil {
			return err
		}
		if err = repo.UpdateChat(ctx, tx, chatID, map[string]any{
			"unread":         0,
			"last_message":   text,
			"last_timestamp": now,
		}); err != nil {
			return err
		}
		chat, err = repo.GetChat(ctx, tx, chatID)
		return err
	})
	if err != nil {
		logger(ctx).Error().Err(err).Str("chat_id", chatID).Msg("sent message not mirrored locally")
		return nil
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
	return msg
}

// StartInput is a template message to a phone number.
type StartInput struct {
	PhoneNumber    string
	Name           string
	TemplateID     string
	TemplateParams []qontak.TemplateParam
	Language       string
}

// StartConversation sends a WhatsApp template to a number. No local chat is
// created; it appears once the provider's webhook reports the room.
func (s *ProxyService) StartConversation(ctx context.Context, in StartInput) (json.RawMessage, error) {
	phone := utils.InternationalizeID(in.PhoneNumber)
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	tpl := strings.TrimSpace(in.TemplateID)
	if tpl == "" {
		return nil, ErrTemplateRequired
	}

	ctx, span := tracer().Start(ctx, "StartConversation", trace.WithAttributes(
		attribute.String("template.id", tpl),
	))
	defer span.End()

	ci, err := s.Creds.ChannelIntegrationID(ctx)
	if err != nil {
		return nil, err
	}
	token, err := s.Creds.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = phone
	}
	body, err := s.API.SendTemplate(ctx, token, qontak.DirectTemplate{
		ToName:               name,
		ToNumber:             phone,
		TemplateID:           tpl,
		ChannelIntegrationID: ci,
		Language:             in.Language,
		Params:               in.TemplateParams,
	})
	if err != nil {
		return nil, err
	}
	return rawJSON(body), nil
}

// TokenVerdict is the structured answer of ValidateToken.
type TokenVerdict struct {
	Valid  bool            `json:"valid"`
	Status int             `json:"status,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ValidateToken checks token against the integrations endpoint. Provider
// and transport failures are reported in the verdict, never as an error.
// An empty token means the stored one.
func (s *ProxyService) ValidateToken(ctx context.Context, token string) (TokenVerdict, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		var err error
		if token, err = s.Creds.AccessToken(ctx); err != nil {
			return TokenVerdict{}, err
		}
	}

	ctx, span := tracer().Start(ctx, "ValidateToken")
	defer span.End()

	body, err := s.API.Integrations(ctx, token)
	if err != nil {
		if ae, ok := qontak.AsAPIError(err); ok {
			return TokenVerdict{Valid: false, Status: ae.StatusCode, Error: ae.Body}, nil
		}
		return TokenVerdict{Valid: false, Error: err.Error()}, nil
	}
	return TokenVerdict{Valid: true, Status: 200, Data: rawJSON(body)}, nil
}

// rawJSON returns b when it is valid JSON, else b as a JSON string.
func rawJSON(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(b) {
		return json.RawMessage(b)
	}
	q, _ := json.Marshal(string(b))
	return json.RawMessage(q)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
