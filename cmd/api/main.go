package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"realtycore/internal/auth"
	"realtycore/internal/config"
	"realtycore/internal/httpserver"
	"realtycore/internal/logger"
	"realtycore/internal/metrics"
	"realtycore/internal/seed"
	"realtycore/internal/storage"
	"realtycore/internal/tracing"
)

func main() {
	cfg := config.Load()
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.OTLPEndpoint, "realtycore-api")
	if err != nil {
		lg.Fatalw("tracing init failed", "error", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	db, err := storage.OpenPostgres(ctx, cfg, lg)
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := storage.Migrate(db); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}

	m := metrics.New()
	st := storage.New(db, lg, m)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := seed.Admin(ctx, st, lg, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			lg.Fatalw("admin seed failed", "error", err)
		}
	}
	if cfg.DevUserID != 0 {
		lg.Warnw("dev user auth enabled; requests without a token run as this user", "user_id", cfg.DevUserID)
	}

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: httpserver.NewRouter(httpserver.Deps{
			Store:     st,
			Issuer:    auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiresIn),
			Metrics:   m,
			Logger:    lg,
			DevUserID: cfg.DevUserID,
		}),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		lg.Infow("listening", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatalw("http server failed", "error", err)
		}
	}()

	<-ctx.Done()
	lg.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Errorw("graceful shutdown failed", "error", err)
	}
}
