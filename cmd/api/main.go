package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outdial-platform/internal/audit"
	"outdial-platform/internal/auth"
	"outdial-platform/internal/campaign"
	"outdial-platform/internal/config"
	"outdial-platform/internal/dialer"
	"outdial-platform/internal/httpapi"
	"outdial-platform/internal/orchestrator"
	"outdial-platform/internal/reporting"
	"outdial-platform/pkg/logger"
	"outdial-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	store := campaign.NewPostgresStore(db)

	var guard orchestrator.Guard = orchestrator.NewInProcessGuard()
	if cfg.Orch.GuardMode == config.GuardModeRedis {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		// The lease must outlive the longest possible run.
		guard = orchestrator.NewRedisGuard(rdb, cfg.Orch.MaxWait+10*time.Minute)
	}

	dial := dialer.NewElevenLabsDialer(dialer.ElevenLabsConfig{
		BaseURL:       cfg.Provider.BaseURL,
		APIKey:        cfg.Provider.APIKey,
		AgentID:       cfg.Provider.AgentID,
		PhoneNumberID: cfg.Provider.PhoneNumberID,
		HTTPTimeout:   cfg.Provider.HTTPTimeout,
	})

	stats := reporting.NewService(store)
	runs := audit.NewService(audit.NewPostgresRepo(db))

	orch := orchestrator.New(store, dial, guard, stats, runs, orchestrator.Config{
		PollInterval: cfg.Orch.PollInterval,
		MaxWait:      cfg.Orch.MaxWait,
	}, log)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	handlers := httpapi.Handlers{
		Store:        store,
		Orchestrator: orch,
		Reporting:    stats,
		Runs:         runs,
	}
	registerRoutes(r, auth.RequireAccessToken(authManager), handlers, db)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "provider", dial.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	// In-flight orchestration runs keep polling after the HTTP server stops;
	// give them the remaining grace period to exit cleanly.
	done := make(chan struct{})
	go func() {
		orch.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn("shutdown grace period elapsed with runs still active")
	}
}
