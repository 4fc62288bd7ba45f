package services

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/remindhub/remindhub-api/internal/domain"
	"github.com/remindhub/remindhub-api/internal/events"
	"github.com/remindhub/remindhub-api/internal/qontak"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.Chat{}, &domain.Message{}, &domain.Setting{}, &domain.WebhookDelivery{}, &domain.Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// recorder is a Publisher that keeps every envelope.
type recorder struct {
	got []events.Envelope
}

func (r *recorder) Publish(_ context.Context, env events.Envelope) error {
	r.got = append(r.got, env)
	return nil
}

func (r *recorder) Close() error { return nil }

// fakeAPI implements QontakAPI with overridable funcs and call counters.
type fakeAPI struct {
	listRooms       func(limit, offset int) ([]byte, error)
	listRoomsLegacy func(limit, offset int) ([]byte, error)
	roomHistory     func(roomID string, limit int) ([]byte, error)
	sendText        func(roomID, text string) ([]byte, error)
	sendTemplate    func(token string, t qontak.DirectTemplate) ([]byte, error)
	integrations    func(token string) ([]byte, error)
	refresh         func(rt string) (qontak.TokenPair, error)

	calls map[string]int
}

func (f *fakeAPI) hit(op string) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[op]++
}

func (f *fakeAPI) ListRooms(_ context.Context, limit, offset int) ([]byte, error) {
	f.hit("rooms")
	return f.listRooms(limit, offset)
}

func (f *fakeAPI) ListRoomsLegacy(_ context.Context, limit, offset int) ([]byte, error) {
	f.hit("rooms_legacy")
	return f.listRoomsLegacy(limit, offset)
}

func (f *fakeAPI) RoomHistory(_ context.Context, roomID string, limit int) ([]byte, error) {
	f.hit("history")
	return f.roomHistory(roomID, limit)
}

func (f *fakeAPI) SendText(_ context.Context, roomID, text string) ([]byte, error) {
	f.hit("send")
	return f.sendText(roomID, text)
}

func (f *fakeAPI) SendTemplate(_ context.Context, token string, t qontak.DirectTemplate) ([]byte, error) {
	f.hit("template")
	return f.sendTemplate(token, t)
}

func (f *fakeAPI) Integrations(_ context.Context, token string) ([]byte, error) {
	f.hit("integrations")
	return f.integrations(token)
}

func (f *fakeAPI) RefreshToken(_ context.Context, rt string) (qontak.TokenPair, error) {
	f.hit("refresh")
	return f.refresh(rt)
}

// staticCreds implements CredentialSource.
type staticCreds struct {
	token, ci string
}

func (c staticCreds) AccessToken(context.Context) (string, error) {
	if c.token == "" {
		return "", ErrTokenMissing
	}
	return c.token, nil
}

func (c staticCreds) ChannelIntegrationID(context.Context) (string, error) {
	if c.ci == "" {
		return "", ErrChannelIntegrationMissing
	}
	return c.ci, nil
}

func strptr(s string) *string { return &s }
