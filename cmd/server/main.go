package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Zarux/ticqtactoe/internal/config"
	"github.com/Zarux/ticqtactoe/internal/logger"
	"github.com/Zarux/ticqtactoe/pkg/qlearn"
	"github.com/Zarux/ticqtactoe/services/ticqtactoe"
)

func main() {
	cfg := config.Load()
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	log := logger.New().With("cmd", "server")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	table := qlearn.New(qlearn.Config{Alpha: cfg.Alpha, Gamma: cfg.Gamma, Epsilon: cfg.Epsilon}, qlearn.NewRand(0))
	loaded, err := table.Load(cfg.BrainPath)
	switch {
	case err != nil:
		log.Warn("could not load q-table, playing untrained", "path", cfg.BrainPath, "err", err)
	case !loaded:
		log.Warn("no q-table found, playing untrained", "path", cfg.BrainPath)
	default:
		log.Info("loaded q-table", "path", cfg.BrainPath, "entries", table.Len())
	}

	svc := ticqtactoe.New(qlearn.NewBot(table))
	server := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: ticqtactoe.HTTPHandler(svc, table),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	log.Info("listening on", "addr", cfg.ServerAddr)
	var runErr error
	select {
	case <-sigCtx.Done():
		log.Info("shutdown signal received")
	case err, ok := <-serverErrCh:
		if ok {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn("graceful shutdown failed", "err", err)
	}

	if runErr != nil {
		log.Error("server failed", "err", runErr)
		os.Exit(1)
	}
}
