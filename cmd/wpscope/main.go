// Package main wires together the wpscope service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/probelabs/wpscope/internal/api"
	"github.com/probelabs/wpscope/internal/config"
	"github.com/probelabs/wpscope/internal/fetch"
	"github.com/probelabs/wpscope/internal/logging"
	"github.com/probelabs/wpscope/internal/telemetry"
	"github.com/probelabs/wpscope/internal/wp"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	telemetry.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := fetch.New(fetch.Config{
		UserAgent:    cfg.HTTP.UserAgent,
		Timeout:      cfg.ProbeTimeout(),
		MaxRetries:   cfg.HTTP.MaxRetries,
		BackoffBase:  cfg.BackoffInitial(),
		BackoffMax:   cfg.BackoffMax(),
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	}, logger.Named("fetch"))

	analyzer := wp.NewAnalyzer(client, wp.SystemClock{}, wp.Config{
		DeepScanConcurrency: cfg.Scanner.DeepScanConcurrency,
	}, logger.Named("analyzer"))

	apiServer := api.NewServer(analyzer, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
