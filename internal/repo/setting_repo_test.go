package repo

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/remindhub/remindhub-api/internal/domain"
)

func TestSettings_GetMissingPutAndOverwrite(t *testing.T) {
	db := newChatRepoDB(t, &domain.Setting{})
	ctx := context.Background()

	v, err := GetSetting(ctx, db, domain.SettingAccessToken)
	if err != nil || v != "" {
		t.Fatalf("missing key = (%q, %v); want empty, nil", v, err)
	}

	if err := PutSetting(ctx, db, domain.SettingAccessToken, "tok-1"); err != nil {
		t.Fatalf("PutSetting: %v", err)
	}
	if err := PutSetting(ctx, db, domain.SettingAccessToken, "tok-2"); err != nil {
		t.Fatalf("PutSetting overwrite: %v", err)
	}
	v, err = GetSetting(ctx, db, domain.SettingAccessToken)
	if err != nil || v != "tok-2" {
		t.Fatalf("GetSetting = (%q, %v); want tok-2", v, err)
	}

	var n int64
	db.Model(&domain.Setting{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected a single settings row, got %d", n)
	}
}

func TestRecordWebhookDelivery_ValidAndInvalidJSON(t *testing.T) {
	db := newChatRepoDB(t, &domain.WebhookDelivery{})
	ctx := context.Background()

	if _, err := RecordWebhookDelivery(ctx, db, "direct", 1, []byte(`{"phone":"1","message":"x"}`)); err != nil {
		t.Fatalf("record valid: %v", err)
	}
	if _, err := RecordWebhookDelivery(ctx, db, "unrecognized", 0, []byte(`not json`)); err != nil {
		t.Fatalf("record invalid: %v", err)
	}

	got, err := ListWebhookDeliveries(ctx, db, 10)
	if err != nil || len(got) != 2 {
		t.Fatalf("ListWebhookDeliveries = (%d, %v)", len(got), err)
	}
	for _, d := range got {
		if !json.Valid(d.Payload) {
			t.Fatalf("payload for %s is not valid JSON: %s", d.Shape, d.Payload)
		}
	}
}
