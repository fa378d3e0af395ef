// Package server exposes the loyalty engine over HTTP: order ingest for the
// POS terminals and the query/command surface the back-office UI polls.
package server

import (
	"time"

	auditservice "github.com/brewtab/perka/internal/audit/service"
	"github.com/brewtab/perka/internal/config"
	customerdomain "github.com/brewtab/perka/internal/customer/domain"
	dashboardservice "github.com/brewtab/perka/internal/dashboard/service"
	"github.com/brewtab/perka/internal/loyalty"
	notificationdomain "github.com/brewtab/perka/internal/notification/domain"
	"github.com/brewtab/perka/internal/observability/logger"
	rewarddomain "github.com/brewtab/perka/internal/reward/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ingestRateLimit  = 60
	ingestRateWindow = time.Minute
)

type ServerParam struct {
	fx.In

	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	Pipeline        *loyalty.Pipeline
	CustomerSvc     customerdomain.Service
	RewardSvc       rewarddomain.Service
	NotificationSvc notificationdomain.Service
	DashboardSvc    dashboardservice.Service
	AuditSvc        auditservice.Service
}

type Server struct {
	cfg config.Config
	db  *gorm.DB
	log *zap.Logger

	pipeline        *loyalty.Pipeline
	customerSvc     customerdomain.Service
	rewardSvc       rewarddomain.Service
	notificationSvc notificationdomain.Service
	dashboardSvc    dashboardservice.Service
	auditSvc        auditservice.Service

	ingestLimiter *rateLimiter
}

func NewServer(p ServerParam) *Server {
	return &Server{
		cfg: p.Cfg,
		db:  p.DB,
		log: p.Log.Named("server"),

		pipeline:        p.Pipeline,
		customerSvc:     p.CustomerSvc,
		rewardSvc:       p.RewardSvc,
		notificationSvc: p.NotificationSvc,
		dashboardSvc:    p.DashboardSvc,
		auditSvc:        p.AuditSvc,

		ingestLimiter: newRateLimiter(ingestRateLimit, ingestRateWindow),
	}
}

// Router assembles the gin engine with middleware and every route.
func (s *Server) Router() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz"},
	}))

	engine.GET("/healthz", s.Healthz)

	v1 := engine.Group("/v1")
	{
		v1.POST("/orders/complete", s.CompleteOrder)

		v1.POST("/customers", s.CreateCustomer)
		v1.GET("/customers", s.ListCustomers)
		v1.GET("/customers/eligible", s.ListEligibleCustomers)
		v1.GET("/customers/:id", s.GetCustomerByID)
		v1.POST("/customers/:id/redeem", s.RedeemPoints)
		v1.DELETE("/customers/:id", s.ArchiveCustomer)

		v1.GET("/customers/:id/rewards", s.ListCustomerRewards)
		v1.POST("/rewards/:id/redeem", s.RedeemReward)

		v1.GET("/notifications/unread", s.ListUnreadNotifications)
		v1.POST("/notifications/:id/read", s.MarkNotificationRead)

		v1.GET("/dashboard/summary", s.DashboardSummary)
	}

	return engine
}
