package events

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/snowflake"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&LoyaltyEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestOutbox(t *testing.T, db *gorm.DB) *Outbox {
	t.Helper()
	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return NewOutbox(db, node)
}

func TestPublishStoresEvent(t *testing.T) {
	db := setupOutboxTestDB(t)
	outbox := newTestOutbox(t, db)

	err := outbox.Publish(context.Background(), Event{
		CustomerID: snowflake.ID(7),
		Type:       EventRewardEarned,
		Payload:    map[string]any{"reward_id": "1"},
		DedupeKey:  "reward.earned:1",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	var count int64
	if err := db.Model(&LoyaltyEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 event, got %d", count)
	}
}

func TestPublishDeduplicates(t *testing.T) {
	db := setupOutboxTestDB(t)
	outbox := newTestOutbox(t, db)

	event := Event{
		CustomerID: snowflake.ID(7),
		Type:       EventRewardEarned,
		DedupeKey:  "reward.earned:1",
	}
	if err := outbox.Publish(context.Background(), event); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := outbox.Publish(context.Background(), event); err != nil {
		t.Fatalf("second publish: %v", err)
	}

	var count int64
	if err := db.Model(&LoyaltyEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected dedupe to keep 1 event, got %d", count)
	}
}

func TestPublishRequiresDedupeKey(t *testing.T) {
	outbox := newTestOutbox(t, setupOutboxTestDB(t))

	err := outbox.Publish(context.Background(), Event{
		CustomerID: snowflake.ID(7),
		Type:       EventRewardEarned,
	})
	if err == nil {
		t.Fatalf("expected error for missing dedupe key")
	}
}
