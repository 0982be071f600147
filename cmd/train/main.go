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

	"github.com/Zarux/ticqtactoe/internal/chart"
	"github.com/Zarux/ticqtactoe/internal/config"
	"github.com/Zarux/ticqtactoe/internal/logger"
	"github.com/Zarux/ticqtactoe/pkg/qlearn"
	"github.com/Zarux/ticqtactoe/pkg/tictactoe"
	"github.com/Zarux/ticqtactoe/pkg/trainer"
	"github.com/Zarux/ticqtactoe/services/training"
)

const evalGames = 1000

// one random stream per consumer of TRAIN_SEED
const (
	seedTable uint64 = iota
	seedTrainer
	seedEval
)

func main() {
	cfg := config.Load()
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	log := logger.New().With("cmd", "train")

	if err := run(cfg, log); err != nil {
		log.Error("training failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	regime, err := trainer.ParseRegime(cfg.Regime)
	if err != nil {
		return err
	}

	side, err := tictactoe.ParsePlayer(cfg.LearnerSide)
	if err != nil || side == tictactoe.Empty {
		return fmt.Errorf("TRAIN_LEARNER_SIDE must be X or O, got %q", cfg.LearnerSide)
	}

	table := qlearn.New(
		qlearn.Config{Alpha: cfg.Alpha, Gamma: cfg.Gamma, Epsilon: cfg.Epsilon},
		qlearn.NewRand(qlearn.DeriveSeed(cfg.Seed, seedTable)),
	)

	if cfg.Resume {
		loaded, err := table.Load(cfg.BrainPath)
		var loadErr *qlearn.LoadError
		switch {
		case errors.As(err, &loadErr):
			log.Warn("could not resume, starting from an empty table", "path", cfg.BrainPath, "err", err)
		case err != nil:
			return err
		case loaded:
			log.Info("resumed q-table", "path", cfg.BrainPath, "entries", table.Len())
		default:
			log.Info("no q-table to resume, starting fresh", "path", cfg.BrainPath)
		}
	}

	tcfg := trainer.DefaultConfig(regime)
	tcfg.Episodes = cfg.Episodes
	tcfg.Epsilon = cfg.Epsilon
	tcfg.LearnerSide = side
	tcfg.ReportEvery = cfg.ReportEvery

	t, err := trainer.New(table, tcfg, qlearn.NewRand(qlearn.DeriveSeed(cfg.Seed, seedTrainer)))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.NewContext(ctx, log)

	hub := training.NewHub()
	if cfg.TrainerAddr != "" {
		shutdown := serveStatus(ctx, log, cfg.TrainerAddr, hub)
		defer shutdown()
	}

	var progress []trainer.Progress
	t.OnProgress(func(p trainer.Progress) {
		progress = append(progress, p)
		hub.Publish(p)
	})

	hub.Start(t.Config())
	stats, runErr := t.Run(ctx)
	hub.Finish(runErr)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if err := table.Save(cfg.BrainPath); err != nil {
		return fmt.Errorf("save q-table: %w", err)
	}
	log.Info("saved q-table", "path", cfg.BrainPath, "entries", table.Len(), "episodes", stats.Episodes)

	if cfg.ChartPath != "" && len(progress) > 0 {
		title := fmt.Sprintf("%s training, %d episodes", regime, stats.Episodes)
		if err := chart.WriteFile(cfg.ChartPath, title, progress); err != nil {
			log.Warn("could not write training chart", "path", cfg.ChartPath, "err", err)
		} else {
			log.Info("wrote training chart", "path", cfg.ChartPath)
		}
	}

	if runErr != nil {
		return nil
	}

	evaluate(ctx, log, table, side, trainer.NewRandomBot(qlearn.NewRand(qlearn.DeriveSeed(cfg.Seed, seedEval))))
	return nil
}

// evaluate reports how the greedy policy fares against a random opponent.
func evaluate(ctx context.Context, log *logger.Logger, table *qlearn.Table, side tictactoe.Player, opponent *trainer.RandomBot) {
	rec, err := trainer.Evaluate(ctx, qlearn.NewBot(table), opponent, side, evalGames)
	if err != nil {
		log.Warn("evaluation stopped", "err", err)
		return
	}

	log.Info("evaluation against random play",
		"side", side.Mark(),
		"games", rec.Games(),
		"wins", rec.Wins,
		"losses", rec.Losses,
		"draws", rec.Draws,
		"loss_rate", rec.LossRate(),
	)
}

func serveStatus(ctx context.Context, log *logger.Logger, addr string, hub *training.Hub) func() {
	done := make(chan struct{})
	go hub.Run(done)

	server := &http.Server{
		Addr:    addr,
		Handler: training.HTTPHandler(hub),
	}

	go func() {
		log.Info("trainer status listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("trainer status server failed", "err", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("trainer status shutdown failed", "err", err)
		}
		close(done)
	}
}
