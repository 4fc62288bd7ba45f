package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/remindhub/remindhub-api/internal/config"
	"github.com/remindhub/remindhub-api/internal/http/middleware"
	"github.com/remindhub/remindhub-api/internal/qontak"
	"github.com/remindhub/remindhub-api/internal/repo"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:    "/api/v1",
		RateRPS:        100,
		RateBurst:      10,
		CORS:           config.CORSConfig{AllowedOrigins: nil},
		Security:       config.SecurityConfig{EnableHSTS: false},
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
		IdempotencyTTL: time.Hour,
		WebhookMaxBody: 1 << 20,
	}
}

func send(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestDB(t), testConfig(), Deps{})

	w := send(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}

	w = send(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	if w := send(r, http.MethodGet, "/nope", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if w := send(r, http.MethodPost, "/health", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}

	// no hub configured
	if w := send(r, http.MethodGet, "/ws", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /ws expected 404, got %d", w.Code)
	}
	// swagger disabled by default
	if w := send(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be off, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://inbox.example.com"}}
	RegisterRoutes(r, newTestDB(t), cfg, Deps{})

	w := send(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://inbox.example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://inbox.example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		w := send(r, http.MethodGet, path, "", nil)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, w.Code, w.Body.String())
		}
	}
}

// Webhook delivery → inbox listing → agent reply through the provider, with
// an idempotent retry.
func TestPipeline_WebhookInboxAndReplay(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var sends atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/qontak/chat/v1/messages/whatsapp" {
			sends.Add(1)
			if r.Header.Get("Authorization") == "" {
				t.Errorf("send not signed")
			}
			_, _ = w.Write([]byte(`{"data":{"id":"ext-1"}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer upstream.Close()

	api := qontak.New(qontak.Config{
		ClientID:      "cid",
		ClientSecret:  "secret",
		MekariBaseURL: upstream.URL,
		QontakBaseURL: upstream.URL,
		Timeout:       2 * time.Second,
	}, nil)

	db := newTestDB(t)
	r := gin.New()
	RegisterRoutes(r, db, testConfig(), Deps{API: api})

	payload := `{"room_id":"room-9","room":{"account_uniq_id":"6281234","name":"Budi","channel":"wa"},
		"sender_type":"customer","text":"Halo, paket saya sudah dikirim?","type":"text"}`
	w := send(r, http.MethodPost, "/webhook", payload, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"processed":1`) {
		t.Fatalf("webhook: %d %s", w.Code, w.Body.String())
	}

	w = send(r, http.MethodGet, "/api/v1/chats", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list chats: %d", w.Code)
	}
	var list struct {
		Chats []struct {
			ID     string `json:"id"`
			Unread int    `json:"unread"`
		} `json:"chats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list.Chats) != 1 || list.Chats[0].Unread != 1 {
		t.Fatalf("unexpected list: %s (%v)", w.Body.String(), err)
	}
	chatID := list.Chats[0].ID

	body := fmt.Sprintf(`{"chatId":%q,"text":"Sudah kak, resi menyusul ya"}`, chatID)
	hdr := map[string]string{middleware.HeaderIdempotencyKey: "reply-1"}

	w = send(r, http.MethodPost, "/api/v1/qontak/messages", body, hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("send: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "" {
		t.Fatalf("first send must not be a replay")
	}

	w = send(r, http.MethodPost, "/api/v1/qontak/messages", body, hdr)
	if w.Code != http.StatusOK || w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("retry: %d replayed=%q", w.Code, w.Header().Get("Idempotency-Replayed"))
	}
	if n := sends.Load(); n != 1 {
		t.Fatalf("provider called %d times, want 1", n)
	}

	chat, err := repo.GetChat(context.Background(), db, chatID)
	if err != nil {
		t.Fatalf("get chat: %v", err)
	}
	if chat.Unread != 0 || chat.LastMessage != "Sudah kak, resi menyusul ya" {
		t.Fatalf("reply not mirrored: %+v", chat)
	}
}

func TestRateLimit_WebhookExempt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	RegisterRoutes(r, newTestDB(t), cfg, Deps{})

	for i := 0; i < 5; i++ {
		if w := send(r, http.MethodPost, "/webhook", `{"unknown":true}`, nil); w.Code != http.StatusOK {
			t.Fatalf("webhook #%d = %d", i, w.Code)
		}
	}

	if w := send(r, http.MethodGet, "/api/v1/chats", "", nil); w.Code != http.StatusOK {
		t.Fatalf("first list = %d", w.Code)
	}
	w := send(r, http.MethodGet, "/api/v1/chats", "", nil)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 429 with Retry-After, got %d", w.Code)
	}

	// a different agent has its own bucket
	if w := send(r, http.MethodGet, "/api/v1/chats", "", map[string]string{middleware.HeaderAgentID: "dewi"}); w.Code != http.StatusOK {
		t.Fatalf("other agent = %d", w.Code)
	}
}

func TestIdempotencyKey_Validated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestDB(t), testConfig(), Deps{})

	w := send(r, http.MethodPost, "/api/v1/qontak/messages", `{"roomId":"r1","text":"hi"}`,
		map[string]string{middleware.HeaderIdempotencyKey: "bad key with spaces"})
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad_idempotency_key") {
		t.Fatalf("expected bad_idempotency_key, got %d %s", w.Code, w.Body.String())
	}
}

func TestSwaggerRoute_WhenEnabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	RegisterRoutes(r, newTestDB(t), cfg, Deps{})

	if w := send(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusOK {
		t.Fatalf("swagger index = %d", w.Code)
	}
}

func TestRateLimit_ReusedKeyOnOtherRoomIsLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var sends atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/qontak/chat/v1/messages/whatsapp" {
			sends.Add(1)
			_, _ = w.Write([]byte(`{"data":{"id":"ext-1"}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer upstream.Close()

	api := qontak.New(qontak.Config{
		ClientID:      "cid",
		ClientSecret:  "secret",
		MekariBaseURL: upstream.URL,
		QontakBaseURL: upstream.URL,
		Timeout:       2 * time.Second,
	}, nil)

	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r := gin.New()
	RegisterRoutes(r, newTestDB(t), cfg, Deps{API: api})

	hdr := map[string]string{middleware.HeaderIdempotencyKey: "k1"}

	if w := send(r, http.MethodPost, "/api/v1/qontak/messages", `{"roomId":"room-a","text":"halo"}`, hdr); w.Code != http.StatusOK {
		t.Fatalf("first send = %d %s", w.Code, w.Body.String())
	}
	// a true retry is a replay and skips the empty bucket
	w := send(r, http.MethodPost, "/api/v1/qontak/messages", `{"roomId":"room-a","text":"halo"}`, hdr)
	if w.Code != http.StatusOK || w.Header().Get(middleware.HeaderReplayed) != "true" {
		t.Fatalf("retry = %d replayed=%q", w.Code, w.Header().Get(middleware.HeaderReplayed))
	}

	for _, room := range []string{"room-b", "room-c", "room-d"} {
		body := fmt.Sprintf(`{"roomId":%q,"text":"halo"}`, room)
		w := send(r, http.MethodPost, "/api/v1/qontak/messages", body, hdr)
		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("reused key on %s = %d; want 429", room, w.Code)
		}
	}
	if n := sends.Load(); n != 1 {
		t.Fatalf("provider called %d times, want 1", n)
	}
}
