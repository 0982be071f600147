package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Zarux/ticqtactoe/internal/config"
	"github.com/Zarux/ticqtactoe/internal/logger"
	"github.com/Zarux/ticqtactoe/pkg/qlearn"
	"github.com/Zarux/ticqtactoe/pkg/trainer"
	"github.com/Zarux/ticqtactoe/services/game"
)

func main() {
	cfg := config.Load()
	_ = logger.SetLevel(cfg.LogLevel)

	// the alt screen owns the terminal; logs go to GAME_LOG if set
	logger.SetOutput(io.Discard)
	if cfg.GameLog != "" {
		f, err := os.OpenFile(cfg.GameLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetOutput(f)
	}
	log := logger.New().With("cmd", "game")

	table := qlearn.New(qlearn.DefaultConfig(), qlearn.NewRand(0))
	if _, err := table.Load(cfg.BrainPath); err != nil {
		log.Warn("could not load q-table, playing untrained", "path", cfg.BrainPath, "err", err)
	}

	gameService := game.New(qlearn.NewBot(table), trainer.NewRandomBot(qlearn.NewRand(0)))
	if err := gameService.Play(logger.NewContext(context.Background(), log)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
