package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arcadehub/backend/internal/broker"
	"github.com/arcadehub/backend/internal/config"
	"github.com/arcadehub/backend/internal/httpapi"
	"github.com/arcadehub/backend/internal/scores"
	"github.com/arcadehub/backend/internal/session"
)

const shutdownGrace = 5 * time.Second

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store scores.Store
	if cfg.DatabaseURL != "" {
		db, err := scores.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("connect database", zap.Error(err))
		}
		store, err = scores.NewGormStore(db, cfg.LowerIsBetter)
		if err != nil {
			logger.Fatal("prepare score store", zap.Error(err))
		}
		logger.Info("scores backed by postgres")
	} else {
		store = scores.NewMemoryStore(cfg.LowerIsBetter)
		logger.Warn("DATABASE_URL not set, keeping scores in memory")
	}

	registry := session.NewRegistry()
	b := broker.New(ctx, registry, logger)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(b, store, cfg.StaticDir, logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		b.Inbox() <- broker.Shutdown{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}
