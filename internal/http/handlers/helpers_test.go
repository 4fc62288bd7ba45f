package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/remindhub/remindhub-api/internal/domain"
	"github.com/remindhub/remindhub-api/internal/qontak"
	"github.com/remindhub/remindhub-api/internal/repo"
	"github.com/remindhub/remindhub-api/internal/services"
)

// ---------- test DB ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.Chat{}, &domain.Message{}, &domain.Setting{}, &domain.Idempotency{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedChat(t *testing.T, db *gorm.DB, phone, status string) *domain.Chat {
	t.Helper()
	c := &domain.Chat{ContactName: "Budi", ContactPhone: phone, Channel: domain.ChannelWhatsApp, Status: status}
	if err := repo.CreateChat(context.Background(), db, c); err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	return c
}

// ---------- fakes ----------

type fakeInbox struct {
	listPage  func(context.Context, repo.ChatFilter, int, int) ([]domain.Chat, int64, error)
	messages  func(context.Context, string, int, int) ([]domain.Message, int64, error)
	setStatus func(context.Context, string, string) (*domain.Chat, error)
	assignPIC func(context.Context, string, string) (*domain.Chat, error)
}

func (f fakeInbox) ListPage(ctx context.Context, fl repo.ChatFilter, p, ps int) ([]domain.Chat, int64, error) {
	if f.listPage != nil {
		return f.listPage(ctx, fl, p, ps)
	}
	return []domain.Chat{}, 0, nil
}

func (f fakeInbox) Messages(ctx context.Context, id string, p, ps int) ([]domain.Message, int64, error) {
	if f.messages != nil {
		return f.messages(ctx, id, p, ps)
	}
	return []domain.Message{}, 0, nil
}

func (f fakeInbox) SetStatus(ctx context.Context, id, s string) (*domain.Chat, error) {
	if f.setStatus != nil {
		return f.setStatus(ctx, id, s)
	}
	return &domain.Chat{ID: id, Status: s}, nil
}

func (f fakeInbox) AssignPIC(ctx context.Context, id, pic string) (*domain.Chat, error) {
	if f.assignPIC != nil {
		return f.assignPIC(ctx, id, pic)
	}
	return &domain.Chat{ID: id}, nil
}

type fakeProxy struct {
	listRooms func(context.Context, int, int) (services.RoomsPage, error)
	history   func(context.Context, string, int) (services.HistoryPage, error)
	send      func(context.Context, services.SendInput) (services.SendResult, error)
	start     func(context.Context, services.StartInput) (json.RawMessage, error)
	validate  func(context.Context, string) (services.TokenVerdict, error)
}

func (f fakeProxy) ListRooms(ctx context.Context, page, limit int) (services.RoomsPage, error) {
	if f.listRooms != nil {
		return f.listRooms(ctx, page, limit)
	}
	return services.RoomsPage{Data: []domain.Room{}}, nil
}

func (f fakeProxy) History(ctx context.Context, roomID string, limit int) (services.HistoryPage, error) {
	if f.history != nil {
		return f.history(ctx, roomID, limit)
	}
	return services.HistoryPage{Data: []domain.RoomMessage{}}, nil
}

func (f fakeProxy) Send(ctx context.Context, in services.SendInput) (services.SendResult, error) {
	if f.send != nil {
		return f.send(ctx, in)
	}
	return services.SendResult{Data: json.RawMessage(`{}`)}, nil
}

func (f fakeProxy) StartConversation(ctx context.Context, in services.StartInput) (json.RawMessage, error) {
	if f.start != nil {
		return f.start(ctx, in)
	}
	return json.RawMessage(`{}`), nil
}

func (f fakeProxy) ValidateToken(ctx context.Context, token string) (services.TokenVerdict, error) {
	if f.validate != nil {
		return f.validate(ctx, token)
	}
	return services.TokenVerdict{Valid: true}, nil
}

type fakeCreds struct {
	update  func(context.Context, services.Credentials) error
	refresh func(context.Context) (qontak.TokenPair, error)
}

func (f fakeCreds) Update(ctx context.Context, c services.Credentials) error {
	if f.update != nil {
		return f.update(ctx, c)
	}
	return nil
}

func (f fakeCreds) Refresh(ctx context.Context) (qontak.TokenPair, error) {
	if f.refresh != nil {
		return f.refresh(ctx)
	}
	return qontak.TokenPair{}, nil
}

type fakeIngest struct {
	handle func(context.Context, []byte) (services.DeliveryResult, error)
}

func (f fakeIngest) HandleDelivery(ctx context.Context, body []byte) (services.DeliveryResult, error) {
	if f.handle != nil {
		return f.handle(ctx, body)
	}
	return services.DeliveryResult{}, nil
}

// ---------- router + request helpers ----------

// newTestRouter mounts every handler on a bare gin engine; missing deps get
// zero-value fakes.
func newTestRouter(d Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if d.Inbox == nil {
		d.Inbox = fakeInbox{}
	}
	if d.Proxy == nil {
		d.Proxy = fakeProxy{}
	}
	if d.Credentials == nil {
		d.Credentials = fakeCreds{}
	}
	if d.Ingest == nil {
		d.Ingest = fakeIngest{}
	}
	h := New(d)

	r := gin.New()
	r.GET("/chats", h.ListChats)
	r.GET("/chats/:id/messages", h.ListChatMessages)
	r.PUT("/chats/:id/status", h.UpdateChatStatus)
	r.PUT("/chats/:id/pic", h.AssignChatPIC)

	r.POST("/qontak/rooms", h.ListRooms)
	r.POST("/qontak/rooms/history", h.RoomHistory)
	r.POST("/qontak/messages", h.SendMessage)
	r.POST("/qontak/conversations", h.StartConversation)
	r.POST("/qontak/token/validate", h.ValidateToken)
	r.POST("/qontak/token/refresh", h.RefreshToken)
	r.PUT("/qontak/credentials", h.UpdateCredentials)

	r.GET("/webhook", h.VerifyWebhook)
	r.POST("/webhook", h.ReceiveWebhook)
	r.GET("/ws", h.LiveFeed)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return er
}
