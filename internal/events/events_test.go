package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type recPub struct {
	got    []Envelope
	err    error
	closed bool
}

func (r *recPub) Publish(_ context.Context, env Envelope) error {
	r.got = append(r.got, env)
	return r.err
}

func (r *recPub) Close() error { r.closed = true; return r.err }

func TestNew_Envelope(t *testing.T) {
	env := New(TypeChatMessage, "req-1", ChatMessage{ChatID: "c1"})
	if env.Meta.ID == "" || env.Meta.Type != TypeChatMessage || env.Meta.Producer != Producer {
		t.Fatalf("unexpected meta: %+v", env.Meta)
	}
	if env.Meta.CorrelationID == nil || *env.Meta.CorrelationID != "req-1" {
		t.Fatalf("correlation id not set")
	}
	if New(TypeChatMessage, "", nil).Meta.CorrelationID != nil {
		t.Fatalf("empty correlation id must be omitted")
	}

	b, _ := json.Marshal(env)
	if !strings.Contains(string(b), `"type":"chat.message.v1"`) || !strings.Contains(string(b), `"chat_id":"c1"`) {
		t.Fatalf("unexpected json: %s", b)
	}
}

func TestFromContext_CorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "rid-7")
	env := FromContext(ctx, TypeChatResolved, nil)
	if env.Meta.CorrelationID == nil || *env.Meta.CorrelationID != "rid-7" {
		t.Fatalf("correlation id not taken from context")
	}
	if FromContext(context.Background(), TypeChatResolved, nil).Meta.CorrelationID != nil {
		t.Fatalf("no correlation id expected")
	}
}

func TestMulti_PublishesToAllAndJoinsErrors(t *testing.T) {
	a := &recPub{}
	b := &recPub{err: errors.New("down")}
	c := &recPub{}
	m := Multi{a, b, c}

	err := m.Publish(context.Background(), New(TypeChatResolved, "", nil))
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(a.got) != 1 || len(c.got) != 1 {
		t.Fatalf("a failing publisher must not stop the others")
	}
	_ = m.Close()
	if !a.closed || !b.closed || !c.closed {
		t.Fatalf("Close must reach every publisher")
	}
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	if err := p.Publish(context.Background(), Envelope{}); err != nil {
		t.Fatalf("noop publish: %v", err)
	}
}

func TestPublishing_Headers(t *testing.T) {
	env := New(TypeChatMessage, "corr", nil)
	msg := publishing(env, []byte(`{}`))
	if msg.DeliveryMode != amqp.Persistent || msg.ContentType != "application/json" {
		t.Fatalf("unexpected delivery settings: %+v", msg)
	}
	if msg.MessageId != env.Meta.ID || msg.CorrelationId != "corr" || msg.Type != TypeChatMessage || msg.AppId != Producer {
		t.Fatalf("unexpected headers: %+v", msg)
	}

	noCorr := New(TypeChatMessage, "", nil)
	if publishing(noCorr, nil).CorrelationId != noCorr.Meta.ID {
		t.Fatalf("correlation id should default to the event id")
	}
}

func TestAMQPPublisher_ClosedReturnsErr(t *testing.T) {
	p := &AMQPPublisher{exchange: "x"}
	if err := p.Publish(context.Background(), New(TypeChatMessage, "", nil)); !errors.Is(err, amqp.ErrClosed) {
		t.Fatalf("err = %v; want amqp.ErrClosed", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close of unconnected publisher: %v", err)
	}
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}
	if !originChecker(nil)(req("https://any")) {
		t.Fatalf("empty allow-list must accept any origin")
	}
	if !originChecker([]string{"*"})(req("https://any")) {
		t.Fatalf("* must accept any origin")
	}
	check := originChecker([]string{"https://app.remindhub.id"})
	if !check(req("https://app.remindhub.id")) || check(req("https://evil")) || !check(req("")) {
		t.Fatalf("allow-list not applied")
	}
}

func TestHub_BroadcastsToConnectedClients(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, zerolog.Nop())
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.Count() != 1 {
		t.Fatalf("client not registered")
	}

	if err := h.Publish(context.Background(), New(TypeChatMessage, "", ChatMessage{ChatID: "c9"})); err != nil {
		t.Fatalf("publish: %v", err)
	}

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Envelope
	if err := ws.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Meta.Type != TypeChatMessage {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	data, _ := got.Data.(map[string]any)
	if data["chat_id"] != "c9" {
		t.Fatalf("unexpected data: %#v", got.Data)
	}

	_ = ws.Close()
	deadline = time.Now().Add(2 * time.Second)
	for h.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.Count() != 0 {
		t.Fatalf("client not removed after disconnect")
	}
}
