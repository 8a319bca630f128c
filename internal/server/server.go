package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grannhjalp/grannhjalp/internal/config"
	helpofferdomain "github.com/grannhjalp/grannhjalp/internal/helpoffer/domain"
	"github.com/grannhjalp/grannhjalp/internal/identity"
	needdomain "github.com/grannhjalp/grannhjalp/internal/need/domain"
	notificationdomain "github.com/grannhjalp/grannhjalp/internal/notification/domain"
	obsmiddleware "github.com/grannhjalp/grannhjalp/internal/observability/logger"
	obsmetrics "github.com/grannhjalp/grannhjalp/internal/observability/metrics"
	profiledomain "github.com/grannhjalp/grannhjalp/internal/profile/domain"
	settlementdomain "github.com/grannhjalp/grannhjalp/internal/settlement/domain"
	webhookdomain "github.com/grannhjalp/grannhjalp/internal/webhook/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(log))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	verifier        *identity.Verifier
	profileSvc      profiledomain.Service
	needSvc         needdomain.Service
	offerSvc        helpofferdomain.Service
	offerRepo       helpofferdomain.Repository
	settlementSvc   settlementdomain.Service
	webhookSvc      webhookdomain.Service
	notificationSvc notificationdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Verifier        *identity.Verifier
	ProfileSvc      profiledomain.Service
	NeedSvc         needdomain.Service
	OfferSvc        helpofferdomain.Service
	OfferRepo       helpofferdomain.Repository
	SettlementSvc   settlementdomain.Service
	WebhookSvc      webhookdomain.Service
	NotificationSvc notificationdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		verifier:        p.Verifier,
		profileSvc:      p.ProfileSvc,
		needSvc:         p.NeedSvc,
		offerSvc:        p.OfferSvc,
		offerRepo:       p.OfferRepo,
		settlementSvc:   p.SettlementSvc,
		webhookSvc:      p.WebhookSvc,
		notificationSvc: p.NotificationSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Processor Webhooks --------
	api.POST("/webhooks/processor", s.HandleProcessorWebhook)

	// -------- Profile --------
	api.GET("/profile", s.AuthRequired(), s.GetProfile)
	api.PUT("/profile", s.AuthRequired(), s.UpsertProfile)
	api.POST("/profile/onboarding", s.AuthRequired(), s.StartOnboarding)

	// -------- Needs --------
	api.GET("/needs", s.AuthRequired(), s.ListNeeds)
	api.POST("/needs", s.AuthRequired(), s.CreateNeed)
	api.GET("/needs/:id", s.AuthRequired(), s.GetNeedByID)
	api.PUT("/needs/:id", s.AuthRequired(), s.UpdateNeed)
	api.POST("/needs/:id/cancel", s.AuthRequired(), s.CancelNeed)
	api.DELETE("/needs/:id", s.AuthRequired(), s.DeleteNeed)
	api.GET("/needs/:id/offers", s.AuthRequired(), s.ListOffersByNeed)

	// -------- Help Offers --------
	api.POST("/offers", s.AuthRequired(), s.CreateOffer)
	api.GET("/offers/:id", s.AuthRequired(), s.GetOfferByID)
	api.POST("/offers/:id/approve", s.AuthRequired(), s.ApproveOffer)
	api.POST("/offers/:id/withdraw", s.AuthRequired(), s.WithdrawOffer)
	api.GET("/offers/:id/contact", s.AuthRequired(), s.GetOfferContact)

	// -------- Payments --------
	api.POST("/payments/checkout", s.AuthRequired(), s.InitiatePayment)
	api.GET("/earnings", s.AuthRequired(), s.ListEarnings)

	// -------- Notifications --------
	api.GET("/notifications", s.AuthRequired(), s.ListNotifications)
	api.POST("/notifications/:id/read", s.AuthRequired(), s.MarkNotificationRead)
}
