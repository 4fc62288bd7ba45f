package qontak

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type recorded struct {
	Method string
	URI    string
	Header http.Header
	Body   string
}

// newUpstream serves status/body for every request and records what it saw.
func newUpstream(t *testing.T, status int, body string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var seen []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = append(seen, recorded{Method: r.Method, URI: r.URL.RequestURI(), Header: r.Header.Clone(), Body: string(b)})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newTestClient(mekari, legacy string) *Client {
	c := New(Config{ClientID: "id", ClientSecret: "secret", MekariBaseURL: mekari, QontakBaseURL: legacy, Timeout: 2 * time.Second}, nil)
	c.Signer().Now = fixedClock
	return c
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{}, nil)
	if c.mekari != DefaultMekariBaseURL || c.legacy != DefaultQontakBaseURL || c.timeout != defaultTimeout {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.http.Timeout != defaultTimeout {
		t.Fatalf("http client timeout = %v", c.http.Timeout)
	}
}

func TestListRooms_SignedGET(t *testing.T) {
	srv, seen := newUpstream(t, 200, `{"data":[]}`)
	c := newTestClient(srv.URL+"/", "http://unused")

	body, err := c.ListRooms(context.Background(), 20, 40)
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if string(body) != `{"data":[]}` {
		t.Fatalf("body = %s", body)
	}
	r := (*seen)[0]
	if r.Method != http.MethodGet || r.URI != "/qontak/chat/v1/rooms?limit=20&offset=40" {
		t.Fatalf("unexpected request %s %s", r.Method, r.URI)
	}
	if !strings.HasPrefix(r.Header.Get("Authorization"), `hmac username="id"`) || r.Header.Get("Date") == "" {
		t.Fatalf("request not signed: %v", r.Header)
	}

	want, _ := c.Signer().Sign("GET", "/qontak/chat/v1/rooms?limit=20&offset=40")
	if r.Header.Get("Authorization") != want.Get("Authorization") {
		t.Fatalf("signature does not cover path and query")
	}
}

func TestListRoomsLegacy_UsesLegacyHostAndPath(t *testing.T) {
	srv, seen := newUpstream(t, 200, `{}`)
	c := newTestClient("http://unused", srv.URL)
	if _, err := c.ListRoomsLegacy(context.Background(), 10, 0); err != nil {
		t.Fatalf("ListRoomsLegacy: %v", err)
	}
	if got := (*seen)[0].URI; got != "/api/open/v1/rooms?limit=10&offset=0" {
		t.Fatalf("URI = %s", got)
	}
}

func TestRoomHistory_EscapesRoomID(t *testing.T) {
	srv, seen := newUpstream(t, 200, `{}`)
	c := newTestClient(srv.URL, "http://unused")
	if _, err := c.RoomHistory(context.Background(), "room/1", 50); err != nil {
		t.Fatalf("RoomHistory: %v", err)
	}
	if got := (*seen)[0].URI; got != "/qontak/chat/v1/rooms/room%2F1/histories?limit=50" {
		t.Fatalf("URI = %s", got)
	}
}

func TestSendText_Body(t *testing.T) {
	srv, seen := newUpstream(t, 201, `{"status":"success"}`)
	c := newTestClient(srv.URL, "http://unused")
	if _, err := c.SendText(context.Background(), "r1", "Halo"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	r := (*seen)[0]
	if r.Method != http.MethodPost || r.URI != "/qontak/chat/v1/messages/whatsapp" {
		t.Fatalf("unexpected request %s %s", r.Method, r.URI)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(r.Body), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got["room_id"] != "r1" || got["type"] != "text" || got["text"] != "Halo" {
		t.Fatalf("body = %v", got)
	}
}

func TestSendTemplate_BearerAndPhone(t *testing.T) {
	srv, seen := newUpstream(t, 200, `{"data":{"id":"b1"}}`)
	c := newTestClient("http://unused", srv.URL)
	_, err := c.SendTemplate(context.Background(), "tok", DirectTemplate{
		ToName: "Budi", ToNumber: "0812-345", TemplateID: "tpl", ChannelIntegrationID: "ci",
		Params: []TemplateParam{{Key: "1", Value: "name", ValueText: "Budi"}},
	})
	if err != nil {
		t.Fatalf("SendTemplate: %v", err)
	}
	r := (*seen)[0]
	if r.URI != "/api/open/v1/broadcasts/whatsapp/direct" || r.Header.Get("Authorization") != "Bearer tok" {
		t.Fatalf("unexpected request %s auth=%q", r.URI, r.Header.Get("Authorization"))
	}
	var got struct {
		ToName               string `json:"to_name"`
		ToNumber             string `json:"to_number"`
		MessageTemplateID    string `json:"message_template_id"`
		ChannelIntegrationID string `json:"channel_integration_id"`
		Language             struct{ Code string } `json:"language"`
		Parameters           struct {
			Body []TemplateParam `json:"body"`
		} `json:"parameters"`
	}
	if err := json.Unmarshal([]byte(r.Body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ToNumber != "62812345" || got.Language.Code != "id" || got.MessageTemplateID != "tpl" ||
		got.ChannelIntegrationID != "ci" || len(got.Parameters.Body) != 1 || got.Parameters.Body[0].ValueText != "Budi" {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestIntegrations_Bearer(t *testing.T) {
	srv, seen := newUpstream(t, 200, `{"data":[]}`)
	c := newTestClient("http://unused", srv.URL)
	if _, err := c.Integrations(context.Background(), "tok"); err != nil {
		t.Fatalf("Integrations: %v", err)
	}
	r := (*seen)[0]
	if r.URI != "/api/open/v1/integrations?target_channel=wa&limit=1" || r.Header.Get("Authorization") != "Bearer tok" {
		t.Fatalf("unexpected request %s", r.URI)
	}
}

func TestDo_Non2xxIsAPIErrorWithExcerpt(t *testing.T) {
	long := strings.Repeat("x", 5000)
	srv, _ := newUpstream(t, 401, long)
	c := newTestClient(srv.URL, "http://unused")
	_, err := c.ListRooms(context.Background(), 1, 0)
	ae, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if ae.StatusCode != 401 || ae.Op != OpListRooms || len(ae.Body) != maxExcerptBytes {
		t.Fatalf("unexpected APIError: status=%d op=%s len=%d", ae.StatusCode, ae.Op, len(ae.Body))
	}
}

func TestDo_SignerNotConfigured_NoRequestSent(t *testing.T) {
	srv, seen := newUpstream(t, 200, `{}`)
	c := New(Config{MekariBaseURL: srv.URL}, nil)
	if _, err := c.ListRooms(context.Background(), 1, 0); !errors.Is(err, ErrSignerNotConfigured) {
		t.Fatalf("err = %v; want ErrSignerNotConfigured", err)
	}
	if len(*seen) != 0 {
		t.Fatalf("request must not be sent without credentials")
	}
}

func TestDo_TimeoutBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	c := New(Config{ClientID: "id", ClientSecret: "k", MekariBaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)

	start := time.Now()
	_, err := c.ListRooms(context.Background(), 1, 0)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if _, ok := AsAPIError(err); ok {
		t.Fatalf("transport failure must not be an APIError")
	}
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("transport failure should match ErrTransport, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("call was not bounded by the timeout")
	}
}

func TestRefreshToken(t *testing.T) {
	srv, seen := newUpstream(t, 200, `{"access_token":"new-a","refresh_token":"new-r","expires_in":3600}`)
	c := newTestClient("http://unused", srv.URL)
	tp, err := c.RefreshToken(context.Background(), "old-r")
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if tp.AccessToken != "new-a" || tp.RefreshToken != "new-r" || tp.ExpiresIn != 3600 {
		t.Fatalf("unexpected pair: %+v", tp)
	}
	r := (*seen)[0]
	if r.URI != "/oauth/token" || !strings.Contains(r.Body, `"grant_type":"refresh_token"`) || !strings.Contains(r.Body, `"refresh_token":"old-r"`) {
		t.Fatalf("unexpected refresh request: %+v", r)
	}
}

func TestRefreshToken_MissingAccessToken(t *testing.T) {
	srv, _ := newUpstream(t, 200, `{"error":"nope"}`)
	c := newTestClient("http://unused", srv.URL)
	if _, err := c.RefreshToken(context.Background(), "r"); err == nil {
		t.Fatalf("expected error when no access_token is returned")
	}
}
