package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	auditrepository "github.com/brewtab/perka/internal/audit/repository"
	auditservice "github.com/brewtab/perka/internal/audit/service"
	"github.com/brewtab/perka/internal/clock"
	"github.com/brewtab/perka/internal/config"
	customerdomain "github.com/brewtab/perka/internal/customer/domain"
	customerservice "github.com/brewtab/perka/internal/customer/service"
	dashboardservice "github.com/brewtab/perka/internal/dashboard/service"
	"github.com/brewtab/perka/internal/events"
	"github.com/brewtab/perka/internal/loyalty"
	"github.com/brewtab/perka/internal/migration"
	notificationservice "github.com/brewtab/perka/internal/notification/service"
	rewardservice "github.com/brewtab/perka/internal/reward/service"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestServer(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := migration.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(12)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	log := zap.NewNop()
	cfg := config.Config{
		Environment: "test",
		HTTPAddr:    ":0",
		Loyalty: config.Loyalty{
			PointsPerPurchase:  1,
			PointsForFreeDrink: 10,
			RewardExpiryDays:   30,
		},
	}
	clk := clock.SystemClock{}

	customerSvc := customerservice.NewService(customerservice.ServiceParam{
		DB: db, Log: log, GenID: node,
	})
	rewardSvc := rewardservice.NewService(rewardservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk, Loyalty: cfg.Loyalty,
	})
	notificationSvc := notificationservice.NewService(notificationservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk,
	})
	auditSvc := auditservice.NewService(auditservice.ServiceParam{
		DB: db, Log: log, GenID: node, Repo: auditrepository.Provide(),
	})
	dashboardSvc := dashboardservice.NewService(dashboardservice.ServiceParam{
		DB: db, Log: log,
	})
	pipeline := loyalty.NewPipeline(loyalty.Params{
		DB:            db,
		Log:           log,
		Customers:     customerSvc,
		Rewards:       rewardSvc,
		Notifications: notificationSvc,
		Outbox:        events.NewOutbox(db, node),
		Loyalty:       cfg.Loyalty,
	})

	srv := NewServer(ServerParam{
		Cfg:             cfg,
		DB:              db,
		Log:             log,
		Pipeline:        pipeline,
		CustomerSvc:     customerSvc,
		RewardSvc:       rewardSvc,
		NotificationSvc: notificationSvc,
		DashboardSvc:    dashboardSvc,
		AuditSvc:        auditSvc,
	})
	return db, srv.Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func createTestCustomer(t *testing.T, router *gin.Engine) customerdomain.Customer {
	t.Helper()

	recorder := doJSON(t, router, http.MethodPost, "/v1/customers", map[string]any{
		"name":  "Dana Reyes",
		"phone": "555-0101",
		"email": "dana@example.com",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("create customer: status %d body %s", recorder.Code, recorder.Body.String())
	}
	var resp struct {
		Data customerdomain.Customer `json:"data"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode customer: %v", err)
	}
	return resp.Data
}

func TestCompleteOrderEndToEnd(t *testing.T) {
	db, router := setupTestServer(t)
	customer := createTestCustomer(t, router)

	if err := db.Model(&customerdomain.Customer{}).
		Where("id = ?", customer.ID).
		Update("loyalty_points", 9).Error; err != nil {
		t.Fatalf("seed points: %v", err)
	}

	recorder := doJSON(t, router, http.MethodPost, "/v1/orders/complete", map[string]any{
		"customer_id":  customer.ID.String(),
		"order_id":     "order-1",
		"points_delta": 1,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("status %d body %s", recorder.Code, recorder.Body.String())
	}

	var resp struct {
		Data loyalty.Result `json:"data"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Customer.LoyaltyPoints != 10 {
		t.Fatalf("expected 10 points, got %d", resp.Data.Customer.LoyaltyPoints)
	}
	if len(resp.Data.RewardsIssued) != 1 {
		t.Fatalf("expected 1 reward, got %d", len(resp.Data.RewardsIssued))
	}
}

func TestCompleteOrderUnknownCustomer(t *testing.T) {
	_, router := setupTestServer(t)

	recorder := doJSON(t, router, http.MethodPost, "/v1/orders/complete", map[string]any{
		"customer_id":  "123456789",
		"order_id":     "order-1",
		"points_delta": 1,
	})
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body %s", recorder.Code, recorder.Body.String())
	}
}

func TestRedeemRewardConflictIsDistinguishable(t *testing.T) {
	db, router := setupTestServer(t)
	customer := createTestCustomer(t, router)

	if err := db.Model(&customerdomain.Customer{}).
		Where("id = ?", customer.ID).
		Update("loyalty_points", 9).Error; err != nil {
		t.Fatalf("seed points: %v", err)
	}
	recorder := doJSON(t, router, http.MethodPost, "/v1/orders/complete", map[string]any{
		"customer_id":  customer.ID.String(),
		"order_id":     "order-1",
		"points_delta": 1,
	})
	var orderResp struct {
		Data loyalty.Result `json:"data"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &orderResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	rewardID := orderResp.Data.RewardsIssued[0].ID.String()

	first := doJSON(t, router, http.MethodPost, "/v1/rewards/"+rewardID+"/redeem", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first redeem: status %d body %s", first.Code, first.Body.String())
	}

	second := doJSON(t, router, http.MethodPost, "/v1/rewards/"+rewardID+"/redeem", nil)
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", second.Code)
	}
	var errResp struct {
		Error APIError `json:"error"`
	}
	if err := json.Unmarshal(second.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Error.Code != "reward_already_used" {
		t.Fatalf("expected reward_already_used, got %q", errResp.Error.Code)
	}
}

func TestRedeemPointsInsufficientBalance(t *testing.T) {
	_, router := setupTestServer(t)
	customer := createTestCustomer(t, router)

	recorder := doJSON(t, router, http.MethodPost,
		"/v1/customers/"+customer.ID.String()+"/redeem",
		map[string]any{"points": 5},
	)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body %s", recorder.Code, recorder.Body.String())
	}
}

func TestListEligibleCustomers(t *testing.T) {
	db, router := setupTestServer(t)
	customer := createTestCustomer(t, router)

	if err := db.Model(&customerdomain.Customer{}).
		Where("id = ?", customer.ID).
		Update("loyalty_points", 12).Error; err != nil {
		t.Fatalf("seed points: %v", err)
	}

	recorder := doJSON(t, router, http.MethodGet, "/v1/customers/eligible", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status %d body %s", recorder.Code, recorder.Body.String())
	}
	var resp struct {
		Data []customerdomain.Customer `json:"data"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("expected 1 eligible customer, got %d", len(resp.Data))
	}
}

func TestUnreadNotificationsAfterOrder(t *testing.T) {
	_, router := setupTestServer(t)
	customer := createTestCustomer(t, router)

	recorder := doJSON(t, router, http.MethodPost, "/v1/orders/complete", map[string]any{
		"customer_id":  customer.ID.String(),
		"order_id":     "order-1",
		"points_delta": 1,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("order: status %d", recorder.Code)
	}

	list := doJSON(t, router, http.MethodGet,
		"/v1/notifications/unread?customer_id="+customer.ID.String(), nil)
	if list.Code != http.StatusOK {
		t.Fatalf("list: status %d body %s", list.Code, list.Body.String())
	}
	var resp struct {
		Data []struct {
			ID     snowflake.ID `json:"id"`
			IsRead bool         `json:"is_read"`
		} `json:"data"`
	}
	if err := json.Unmarshal(list.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("expected 1 unread notification, got %d", len(resp.Data))
	}

	read := doJSON(t, router, http.MethodPost,
		"/v1/notifications/"+resp.Data[0].ID.String()+"/read", nil)
	if read.Code != http.StatusOK {
		t.Fatalf("mark read: status %d body %s", read.Code, read.Body.String())
	}

	again := doJSON(t, router, http.MethodGet,
		"/v1/notifications/unread?customer_id="+customer.ID.String(), nil)
	if err := json.Unmarshal(again.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 0 {
		t.Fatalf("expected no unread notifications, got %d", len(resp.Data))
	}
}

func TestDashboardSummaryEndpoint(t *testing.T) {
	_, router := setupTestServer(t)
	createTestCustomer(t, router)

	recorder := doJSON(t, router, http.MethodGet, "/v1/dashboard/summary", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status %d body %s", recorder.Code, recorder.Body.String())
	}
	var resp struct {
		Data dashboardservice.Summary `json:"data"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.TotalCustomers != 1 {
		t.Fatalf("expected 1 customer, got %d", resp.Data.TotalCustomers)
	}
}

func TestHealthz(t *testing.T) {
	_, router := setupTestServer(t)

	recorder := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status %d", recorder.Code)
	}
}

func TestIngestRateLimiter(t *testing.T) {
	limiter := newRateLimiter(2, time.Minute)

	if !limiter.Allow("terminal-1") || !limiter.Allow("terminal-1") {
		t.Fatal("expected first two calls to pass")
	}
	if limiter.Allow("terminal-1") {
		t.Fatal("expected third call to be limited")
	}
	if !limiter.Allow("terminal-2") {
		t.Fatal("expected a different key to pass")
	}
}
