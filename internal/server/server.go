package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	alertdomain "github.com/smallbiznis/pulse/internal/alert/domain"
	auditservice "github.com/smallbiznis/pulse/internal/audit/service"
	"github.com/smallbiznis/pulse/internal/auditcontext"
	"github.com/smallbiznis/pulse/internal/clock"
	"github.com/smallbiznis/pulse/internal/config"
	"github.com/smallbiznis/pulse/internal/events"
	healthdomain "github.com/smallbiznis/pulse/internal/health/domain"
	"github.com/smallbiznis/pulse/internal/observability/logger"
	"github.com/smallbiznis/pulse/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module assembles the HTTP surface and runs it on the fx lifecycle.
var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterAPIRoutes() }),
	fx.Invoke(RunHTTP),
)

// Server holds the handler dependencies. Handlers live in sibling files and
// hang off this struct.
type Server struct {
	engine    *gin.Engine
	log       *zap.Logger
	cfg       config.Config
	healthSvc healthdomain.Service
	alertRepo alertdomain.Repository
	auditSvc  *auditservice.Service
	outbox    *events.Outbox
	clock     clock.Clock
}

// Params collects server dependencies from the fx graph.
type Params struct {
	fx.In

	Engine    *gin.Engine
	Log       *zap.Logger
	Config    config.Config
	HealthSvc healthdomain.Service
	AlertRepo alertdomain.Repository
	AuditSvc  *auditservice.Service `optional:"true"`
	Outbox    *events.Outbox        `optional:"true"`
	Clock     clock.Clock
}

func NewServer(p Params) *Server {
	return &Server{
		engine:    p.Engine,
		log:       p.Log.Named("server"),
		cfg:       p.Config,
		healthSvc: p.HealthSvc,
		alertRepo: p.AlertRepo,
		auditSvc:  p.AuditSvc,
		outbox:    p.Outbox,
		clock:     p.Clock,
	}
}

func (s *Server) clockNow() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now().UTC()
}

// NewEngine builds the gin engine with logging and tracing middleware.
func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(tracing.Middleware())
	engine.Use(logger.Middleware(log.Named("http")))
	engine.Use(auditMetadata())
	return engine
}

// auditMetadata stores request identity on the context so the audit trail can
// record who triggered an action.
func auditMetadata() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx = auditcontext.WithIPAddress(ctx, c.ClientIP())
		ctx = auditcontext.WithUserAgent(ctx, c.Request.UserAgent())
		if requestID := c.GetHeader("X-Request-Id"); requestID != "" {
			ctx = auditcontext.WithRequestID(ctx, requestID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RegisterAPIRoutes wires every route the service exposes.
func (s *Server) RegisterAPIRoutes() {
	s.engine.GET("/healthz", s.Healthz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.POST("/customers/:id/health/score", s.ScoreCustomer)
		api.GET("/customers/:id/health", s.GetHealth)
		api.GET("/customers/:id/health/history", s.GetHealthHistory)
		api.POST("/health/score-runs", s.ScoreAll)
		api.GET("/alerts", s.ListAlerts)
		api.POST("/alerts/:id/resolve", s.ResolveAlert)
	}
}

// Healthz reports process liveness.
func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP binds the engine to an http.Server tied to the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server exited", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
