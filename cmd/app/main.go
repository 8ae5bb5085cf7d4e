package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cups_webapp/internal/config"
	"cups_webapp/internal/db"
	httpServer "cups_webapp/internal/http"
	"cups_webapp/internal/http/middleware"
	"cups_webapp/internal/logger"
	"cups_webapp/internal/repository"
	"cups_webapp/internal/round"
	"cups_webapp/internal/service"
	"cups_webapp/internal/session"
	"cups_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect database", "error", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer middleware.CloseRedis()

	bets, err := round.NewBetTable(round.DefaultBetTable().Steps(), cfg.DefaultBet)
	if err != nil {
		logger.Fatal("invalid bet table", "error", err)
	}
	if !bets.Contains(cfg.DefaultBet) {
		logger.Warn("DEFAULT_BET is not a bet step, using the smallest step", "default_bet", cfg.DefaultBet.String())
	}

	hub := ws.NewHub()
	opts := []session.ManagerOption{}
	if pool != nil {
		opts = append(opts, session.WithRecorder(repository.NewRoundHistoryRepository(pool)))
	}
	sessions := session.NewManager(ctx, session.Config{
		StartingBalance: cfg.StartingBalance,
		Bets:            bets,
		Timings: round.Timings{
			WinDwell:    cfg.WinDwell,
			LossDwell:   cfg.LossDwell,
			MarkerDwell: cfg.MarkerDwell,
			PeekDwell:   cfg.PeekDwell,
		},
		CupMove:       cfg.CupMove,
		AutoPlayDelay: cfg.AutoPlayDelay,
		Shuffle:       cfg.ShuffleBeforePick,
		TTL:           cfg.SessionTTL,
		Clock:         round.SystemClock,
	}, hub, opts...)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for the game client served from another origin
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	httpServer.RegisterRoutes(r, cfg, httpServer.Deps{
		Sessions: sessions,
		Hub:      hub,
		DB:       pool,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.RunCleanup(gctx, time.Minute)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped with error", "error", err)
	}
	logger.Info("server exited")
}
