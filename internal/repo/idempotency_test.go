package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/remindhub/remindhub-api/internal/domain"
)

func newIdemDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:idem_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestGetIdempotency_EmptyTarget_ReturnsNotFound(t *testing.T) {
	db := newIdemDB(t, &domain.Idempotency{})
	if _, err := GetIdempotency(context.Background(), db, "a", "  ", "k", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIdempotency_CreateGetExpireAndDuplicate(t *testing.T) {
	db := newIdemDB(t, &domain.Idempotency{})
	ctx := context.Background()

	rec, err := CreateIdempotency(ctx, db, "agent", "c1", "k1", `{"ok":true}`, 200, time.Hour)
	if err != nil || rec == nil {
		t.Fatalf("CreateIdempotency: rec=%v err=%v", rec, err)
	}

	got, err := GetIdempotency(ctx, db, "agent", "c1", "k1", time.Now().UTC())
	if err != nil || got.Response != `{"ok":true}` || got.Status != 200 {
		t.Fatalf("GetIdempotency = (%+v, %v)", got, err)
	}

	if _, err := GetIdempotency(ctx, db, "agent", "c1", "k1", time.Now().UTC().Add(2*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired record to be ErrNotFound, got %v", err)
	}

	if _, err := CreateIdempotency(ctx, db, "agent", "c1", "k1", "{}", 200, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestPurgeExpiredIdempotency(t *testing.T) {
	db := newIdemDB(t, &domain.Idempotency{})
	ctx := context.Background()
	if _, err := CreateIdempotency(ctx, db, "a", "t", "old", "{}", 200, time.Millisecond); err != nil {
		t.Fatalf("seed old: %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, "a", "t", "fresh", "{}", 200, time.Hour); err != nil {
		t.Fatalf("seed fresh: %v", err)
	}
	n, err := PurgeExpiredIdempotency(ctx, db, time.Now().UTC().Add(time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpiredIdempotency = (%d, %v); want 1", n, err)
	}
}

func TestCreateIdempotency_Error_NoTable(t *testing.T) {
	db := newIdemDB(t)
	if _, err := CreateIdempotency(context.Background(), db, "a", "t", "k", "{}", 200, time.Hour); err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected raw DB error, got %v", err)
	}
}

func TestHasIdempotencyKey(t *testing.T) {
	db := newIdemDB(t, &domain.Idempotency{})
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := CreateIdempotency(ctx, db, "qontak.send", "room-1", "k1", "{}", 200, time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ok, err := HasIdempotencyKey(ctx, db, "qontak.send", "room-1", "k1", now); err != nil || !ok {
		t.Fatalf("expected key to exist: ok=%v err=%v", ok, err)
	}
	if ok, _ := HasIdempotencyKey(ctx, db, "other", "room-1", "k1", now); ok {
		t.Fatalf("actor must scope the lookup")
	}
	if ok, _ := HasIdempotencyKey(ctx, db, "qontak.send", "room-2", "k1", now); ok {
		t.Fatalf("target must scope the lookup")
	}
	if ok, _ := HasIdempotencyKey(ctx, db, "qontak.send", " ", "k1", now); ok {
		t.Fatalf("blank target must not match")
	}
	if ok, _ := HasIdempotencyKey(ctx, db, "qontak.send", "room-1", "k1", now.Add(2*time.Hour)); ok {
		t.Fatalf("expired record must not count")
	}
}
