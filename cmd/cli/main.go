package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/Zarux/ticqtactoe/internal/config"
	"github.com/Zarux/ticqtactoe/internal/logger"
	"github.com/Zarux/ticqtactoe/pkg/qlearn"
	"github.com/Zarux/ticqtactoe/pkg/tictactoe"
	"github.com/Zarux/ticqtactoe/services/cli"
)

func main() {
	botSide := flag.String("bot", "O", "side played by the bot (X or O), or none for two humans")
	flag.Parse()

	cfg := config.Load()
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	// the board owns stdout
	logger.SetOutput(os.Stderr)
	log := logger.New().With("cmd", "cli")

	side, err := parseBotSide(*botSide)
	if err != nil {
		log.Error("invalid -bot", "err", err)
		os.Exit(2)
	}

	var bot *qlearn.Bot
	if side != tictactoe.Empty {
		table := qlearn.New(qlearn.DefaultConfig(), qlearn.NewRand(0))
		if loaded, err := table.Load(cfg.BrainPath); err != nil {
			log.Warn("could not load q-table, playing untrained", "path", cfg.BrainPath, "err", err)
		} else if !loaded {
			log.Warn("no q-table found, playing untrained", "path", cfg.BrainPath)
		}
		bot = qlearn.NewBot(table)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var game *cli.Game
	if bot == nil {
		game = cli.New(os.Stdin, os.Stdout, nil, tictactoe.Empty, cli.ColorEnabled())
	} else {
		game = cli.New(os.Stdin, os.Stdout, bot, side, cli.ColorEnabled())
	}
	if _, err := game.Play(ctx); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return
		}
		log.Error("game failed", "err", err)
		os.Exit(1)
	}
}

// parseBotSide maps the -bot flag to the bot's side. Empty means no bot.
func parseBotSide(s string) (tictactoe.Player, error) {
	if strings.EqualFold(strings.TrimSpace(s), "none") {
		return tictactoe.Empty, nil
	}

	side, err := tictactoe.ParsePlayer(s)
	if err != nil {
		return tictactoe.Empty, fmt.Errorf("bot side must be X, O or none: %w", err)
	}

	return side, nil
}
