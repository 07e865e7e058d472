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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/AngelCh415/marketing-intel-go/internal/config"
	"github.com/AngelCh415/marketing-intel-go/internal/httpx"
	"github.com/AngelCh415/marketing-intel-go/internal/ingest"
	"github.com/AngelCh415/marketing-intel-go/internal/metrics"
	"github.com/AngelCh415/marketing-intel-go/internal/store"
	"github.com/AngelCh415/marketing-intel-go/internal/telemetry"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	tm := telemetry.NewMetrics(cfg.Metrics.Namespace, reg)

	cl := ingest.NewHTTPClient(cfg.Source.HTTPTimeout)
	st := store.NewMemoryStore()
	etl := ingest.NewETL(cl, st, logger, cfg, tm)
	mSvc := metrics.NewService(st, tm)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if _, err := etl.Run(ctx); err != nil {
		// the service still starts; POST /ingest/run retries the load
		logger.Warn("initial load", slog.String("err", err.Error()))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           httpx.NewRouter(logger, etl, mSvc, tm),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", slog.String("err", err.Error()))
		}
	}()

	logger.Info("starting server", slog.String("port", cfg.HTTP.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
