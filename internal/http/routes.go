package http

import (
	"context"

	"cups_webapp/internal/config"
	"cups_webapp/internal/http/handlers"
	"cups_webapp/internal/http/middleware"
	"cups_webapp/internal/repository"
	"cups_webapp/internal/session"
	"cups_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the long-lived services the routes are built on. DB may be nil.
type Deps struct {
	Sessions *session.Manager
	Hub      *ws.Hub
	DB       *pgxpool.Pool
	Version  string
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps) {
	var history handlers.HistoryStore
	healthDeps := map[string]handlers.Pinger{"database": nil, "redis": nil}
	if deps.DB != nil {
		history = repository.NewRoundHistoryRepository(deps.DB)
		healthDeps["database"] = handlers.PingFunc(func(ctx context.Context) error { return deps.DB.Ping(ctx) })
	}
	if middleware.RedisEnabled() {
		healthDeps["redis"] = handlers.PingFunc(middleware.PingRedis)
	}

	h := handlers.NewHandler(deps.Sessions, history, cfg.SessionTTL)
	h.AllowedOrigin = cfg.AllowedOrigin
	healthHandler := handlers.NewHealthHandler(deps.Version, deps.Sessions.Count, healthDeps)

	r.Use(middleware.RequestLog())

	// Health checks and metrics (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	registerAPIRoutes(v1, h, cfg)

	// Renderer channel
	r.GET("/ws", h.WS(deps.Hub))
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, cfg *config.Config) {
	// Launch: query string carries rgs_url, sessionID, language, currency, mode
	api.POST("/session", h.CreateSession)

	authed := api.Group("")
	authed.Use(middleware.JWT())
	{
		authed.DELETE("/session", h.CloseSession)
		authed.GET("/state", h.State)
		authed.GET("/history", h.GetHistory)

		roundRL := middleware.RoundRateLimit(cfg.RoundRateLimit, cfg.RoundRateWindow)
		authed.POST("/round", roundRL, h.StartRound)
		authed.POST("/round/pick", h.Pick)
		authed.POST("/autoplay/start", roundRL, h.StartAutoPlay)
		authed.POST("/autoplay/stop", h.StopAutoPlay)
	}
}
