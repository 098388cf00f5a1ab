package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	checkoutdomain "github.com/rentkit/payflow/internal/checkout/domain"
	"github.com/rentkit/payflow/internal/config"
	identitydomain "github.com/rentkit/payflow/internal/identity/domain"
	"github.com/rentkit/payflow/internal/reconcile"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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

type ServerParams struct {
	fx.In

	Engine        *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Gateway       checkoutdomain.Gateway
	CheckoutSvc   checkoutdomain.Service
	IdentitySvc   identitydomain.Service
	Notifications *reconcile.NotificationHandler
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	gateway       checkoutdomain.Gateway
	checkoutSvc   checkoutdomain.Service
	identitySvc   identitydomain.Service
	notifications *reconcile.NotificationHandler
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:        p.Engine,
		cfg:           p.Cfg,
		db:            p.DB,
		log:           p.Log.Named("server"),
		genID:         p.GenID,
		gateway:       p.Gateway,
		checkoutSvc:   p.CheckoutSvc,
		identitySvc:   p.IdentitySvc,
		notifications: p.Notifications,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api/v1")

	ap := api.Group("/amazon_pay")
	ap.POST("/checkout_sessions", s.createCheckoutSession)
	ap.GET("/checkout_sessions/:checkout_session_id", s.showCheckoutSession)
	ap.POST("/ipn", s.handleNotification)

	orders := api.Group("/orders/:order_id/amazon_pay")
	orders.POST("/prepare", s.prepareSession)
	orders.POST("/callback", s.completeCallback)
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func parseOrderID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(c.Param("order_id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return 0, false
	}
	return id, true
}
