package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"one-os/configs"
	"one-os/internal/cache"
	"one-os/internal/database"
	"one-os/internal/handlers"
	"one-os/internal/logger"
	"one-os/internal/observability"
	"one-os/internal/realtime"
	"one-os/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout    = 15 * time.Second
	blacklistPurgeTick = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := configs.LoadConfig()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		Endpoint:    cfg.OtelEndpoint,
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
		Environment: cfg.LogMode,
		Version:     Version,
	})

	db, err := database.New(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	cm := cache.NewCacheManager(ctx, cfg.RedisURL, log)
	defer cm.Close()

	var bus realtime.Bus = realtime.NewLocalBus()
	var redisBus *realtime.RedisBus
	if cm.IsAvailable() {
		redisBus, err = realtime.NewRedisBus(cm.Redis(), cfg.RealtimeChannel, log)
		if err != nil {
			return err
		}
		bus = redisBus
	}
	defer bus.Close()
	cm.InvalidateOn(bus)

	authService := services.NewAuthService(db.WriteDB, cfg.JWTSecret, cfg.JWTTTL)

	var wsHandler *handlers.WebSocketHandler
	if cfg.EnableWebSocket {
		wsHandler = handlers.NewWebSocketHandler(bus, cfg.CORSOrigins, log)
	}

	if cfg.LogMode != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Config: cfg,
		DB:     db,
		Cache:  cm,
		Bus:    bus,
		Auth:   authService,
		WS:     wsHandler,
		Log:    log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", "address", srv.Addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
		if err := shutdownOtel(shutdownCtx); err != nil {
			log.Warn("otel shutdown error", "error", err)
		}
		return nil
	})
	if wsHandler != nil {
		g.Go(func() error {
			wsHandler.Run(gctx)
			return nil
		})
	}
	if redisBus != nil {
		g.Go(func() error {
			if err := redisBus.StartForwarder(gctx); err != nil {
				log.Warn("realtime forwarder not started, events stay local", "error", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		purgeBlacklist(gctx, authService, log)
		return nil
	})

	err = g.Wait()
	log.Info("shutdown complete")
	return err
}

// purgeBlacklist drops revoked tokens that have expired on their own.
func purgeBlacklist(ctx context.Context, auth *services.AuthService, log *logger.Logger) {
	ticker := time.NewTicker(blacklistPurgeTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := auth.PurgeExpired(ctx)
			if err != nil {
				log.Warn("blacklist purge failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("purged expired blacklist entries", "count", n)
			}
		}
	}
}
