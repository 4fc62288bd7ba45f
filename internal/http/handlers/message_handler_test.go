package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/remindhub/remindhub-api/internal/domain"
	"github.com/remindhub/remindhub-api/internal/http/middleware"
	"github.com/remindhub/remindhub-api/internal/qontak"
	"github.com/remindhub/remindhub-api/internal/services"
)

func TestRoomHistory(t *testing.T) {
	r := newTestRouter(Deps{Proxy: fakeProxy{
		history: func(_ context.Context, roomID string, limit int) (services.HistoryPage, error) {
			if roomID == "" {
				return services.HistoryPage{}, services.ErrRoomIDRequired
			}
			return services.HistoryPage{
				Data: []domain.RoomMessage{{ID: "m1", Text: "halo", Sender: domain.SenderCustomer}},
				Meta: services.HistoryMeta{RoomID: roomID, Limit: limit, Count: 1},
			}, nil
		},
	}})

	w := do(t, r, http.MethodPost, "/qontak/rooms/history", `{"roomId":"room-1","limit":10}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got services.HistoryPage
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("json: %v", err)
	}
	if got.Meta.RoomID != "room-1" || got.Meta.Limit != 10 || len(got.Data) != 1 {
		t.Fatalf("unexpected page: %+v", got)
	}

	w = do(t, r, http.MethodPost, "/qontak/rooms/history", `{}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = do(t, r, http.MethodPost, "/qontak/rooms/history", `{"roomId":`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad JSON, got %d", w.Code)
	}
}

func TestSendMessage_PassesTextVerbatimAndKey(t *testing.T) {
	var seen services.SendInput
	gin.SetMode(gin.TestMode)
	h := New(Deps{Proxy: fakeProxy{
		send: func(_ context.Context, in services.SendInput) (services.SendResult, error) {
			seen = in
			return services.SendResult{
				Data:    json.RawMessage(`{"id":"ext-1"}`),
				Message: &domain.Message{ID: "m1", ChatID: in.ChatID, Text: in.Text, Sender: domain.SenderAgent},
			}, nil
		},
	}})
	r := gin.New()
	r.POST("/qontak/messages", middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil), h.SendMessage)

	w := do(t, r, http.MethodPost, "/qontak/messages",
		`{"chatId":"c1","text":"  halo\r\n\n\n\nkak  "}`,
		map[string]string{middleware.HeaderIdempotencyKey: "send-7f3a"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if seen.ChatID != "c1" || seen.Text != "  halo\r\n\n\n\nkak  " || seen.IdempotencyKey != "send-7f3a" {
		t.Fatalf("unexpected input: %+v", seen)
	}
	if w.Header().Get("Idempotency-Replayed") != "" {
		t.Fatalf("fresh send must not be marked replayed")
	}

	var got SendMessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !got.Success || got.Message == nil || got.Message.Text != "halo\n\nkak" || string(got.Data) != `{"id":"ext-1"}` {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestSendMessage_ReplayHeader(t *testing.T) {
	r := newTestRouter(Deps{Proxy: fakeProxy{
		send: func(context.Context, services.SendInput) (services.SendResult, error) {
			return services.SendResult{Data: json.RawMessage(`{"id":"ext-1"}`), Replayed: true}, nil
		},
	}})
	w := do(t, r, http.MethodPost, "/qontak/messages", `{"roomId":"r1","text":"hi"}`, nil)
	if w.Code != http.StatusOK || w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("expected replay header, got %d %v", w.Code, w.Header())
	}
}

func TestSendMessage_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"empty text", services.ErrEmptyText, http.StatusBadRequest, ErrCodeBadRequest},
		{"no target", services.ErrTargetRequired, http.StatusBadRequest, ErrCodeBadRequest},
		{"chat missing", services.ErrChatNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"not linked", services.ErrChatNotLinked, http.StatusBadRequest, ErrCodeChatNotLinked},
		{"upstream", &qontak.APIError{Op: qontak.OpSendMessage, Host: "api.mekari.com", StatusCode: 422, Body: `{"error":"bad"}`}, 422, ErrCodeUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(Deps{Proxy: fakeProxy{
				send: func(context.Context, services.SendInput) (services.SendResult, error) {
					return services.SendResult{}, tc.err
				},
			}})
			w := do(t, r, http.MethodPost, "/qontak/messages", `{"chatId":"c1","text":"hi"}`, nil)
			if w.Code != tc.status {
				t.Fatalf("status=%d want %d", w.Code, tc.status)
			}
			if er := decodeErr(t, w); er.Code != tc.code {
				t.Fatalf("code=%q want %q", er.Code, tc.code)
			}
		})
	}
}
