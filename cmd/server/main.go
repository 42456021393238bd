// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cardoctor/server/internal/api"
	"cardoctor/server/internal/config"
	"cardoctor/server/internal/logging"
	"cardoctor/server/internal/store"
	"cardoctor/server/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	level, _ := cfg.Level()
	logger := logging.New("cardoctor", level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logger.Warn("store close failed", "err", err)
		}
	}()
	logger.Info("store connected", "driver", cfg.Store, "database", cfg.Database)

	if !cfg.Hardened {
		logger.Warn("admin appointment routes are served without authorization; set HARDENED=true to require a token")
	}

	srv := api.New(api.Options{
		Store:             db,
		Tokens:            token.New([]byte(cfg.SecretKey), cfg.TokenTTL),
		Logger:            logger,
		ServiceProjection: cfg.ServiceProjection,
		Hardened:          cfg.Hardened,
		BodyLimit:         cfg.BodyLimit,
		CORSOrigins:       cfg.CORSOrigins,
	})

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: srv.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is running", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		// Requests left open on purpose (unknown appointment ids) keep
		// Shutdown waiting; Close cancels their contexts.
		logger.Warn("graceful shutdown incomplete, closing", "err", err)
		return httpServer.Close()
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	if cfg.Store == config.StoreMemory {
		return store.NewMemory(), nil
	}
	return store.Open(ctx, cfg.MongoConnectionURI(), cfg.Database)
}
