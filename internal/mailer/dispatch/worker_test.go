package dispatch

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/brewtab/perka/internal/events"
	mailerdomain "github.com/brewtab/perka/internal/mailer/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeMailer struct {
	sent []mailerdomain.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, message mailerdomain.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, message)
	return "msg-1", nil
}

func setupDispatchTest(t *testing.T, mailer mailerdomain.Mailer) (*gorm.DB, *Worker, *events.Outbox) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&events.LoyaltyEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(5)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	worker := NewWorker(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Mailer: mailer,
	})
	return db, worker, events.NewOutbox(db, node)
}

func publishRewardEarned(t *testing.T, outbox *events.Outbox, email string) {
	t.Helper()

	payload := events.RewardEarnedPayload{
		RewardID:          "42",
		CustomerID:        "7",
		CustomerName:      "Dana",
		CustomerEmail:     email,
		ThresholdMultiple: 10,
		PointTotal:        11,
	}
	err := outbox.Publish(context.Background(), events.Event{
		CustomerID: snowflake.ID(7),
		Type:       events.EventRewardEarned,
		Payload:    payload.ToMap(),
		DedupeKey:  "reward.earned:42",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestProcessBatchSendsRewardEmail(t *testing.T) {
	mailer := &fakeMailer{}
	db, worker, outbox := setupDispatchTest(t, mailer)
	publishRewardEarned(t, outbox, "dana@example.com")

	processed, err := worker.processBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 processed event, got %d", processed)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(mailer.sent))
	}
	if mailer.sent[0].To != "dana@example.com" {
		t.Fatalf("unexpected recipient %q", mailer.sent[0].To)
	}

	var event events.LoyaltyEvent
	if err := db.First(&event).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	if !event.Published || event.PublishedAt == nil {
		t.Fatalf("expected event to be claimed, got published=%v", event.Published)
	}
	if event.LastError != nil {
		t.Fatalf("unexpected last_error %q", *event.LastError)
	}
}

func TestProcessBatchRecordsDeliveryFailure(t *testing.T) {
	mailer := &fakeMailer{err: &mailerdomain.DeliveryError{
		StatusCode: 502,
		Provider:   "relay",
		Err:        errors.New("upstream unavailable"),
	}}
	db, worker, outbox := setupDispatchTest(t, mailer)
	publishRewardEarned(t, outbox, "dana@example.com")

	if _, err := worker.processBatch(context.Background(), 10); err != nil {
		t.Fatalf("processBatch: %v", err)
	}

	var event events.LoyaltyEvent
	if err := db.First(&event).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	if !event.Published {
		t.Fatal("expected failed event to stay claimed")
	}
	if event.LastError == nil {
		t.Fatal("expected last_error to be recorded")
	}
}

func TestProcessBatchSkipsCustomersWithoutEmail(t *testing.T) {
	mailer := &fakeMailer{}
	db, worker, outbox := setupDispatchTest(t, mailer)
	publishRewardEarned(t, outbox, "")

	processed, err := worker.processBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected event to be claimed, got %d processed", processed)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no email, got %d", len(mailer.sent))
	}

	var event events.LoyaltyEvent
	if err := db.First(&event).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	if !event.Published {
		t.Fatal("expected no-recipient event to be claimed anyway")
	}
}

func TestProcessBatchIsIdempotentAcrossRuns(t *testing.T) {
	mailer := &fakeMailer{}
	_, worker, outbox := setupDispatchTest(t, mailer)
	publishRewardEarned(t, outbox, "dana@example.com")

	if _, err := worker.processBatch(context.Background(), 10); err != nil {
		t.Fatalf("first run: %v", err)
	}
	processed, err := worker.processBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected second run to claim nothing, got %d", processed)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected exactly 1 email, got %d", len(mailer.sent))
	}
}

func TestProcessBatchIgnoresOtherEventTypes(t *testing.T) {
	mailer := &fakeMailer{}
	_, worker, outbox := setupDispatchTest(t, mailer)

	err := outbox.Publish(context.Background(), events.Event{
		CustomerID: snowflake.ID(7),
		Type:       events.EventPointsAccrued,
		Payload:    map[string]any{"order_id": "o-1"},
		DedupeKey:  "points.accrued:o-1",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	processed, err := worker.processBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected no claimed events, got %d", processed)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no email, got %d", len(mailer.sent))
	}
}
