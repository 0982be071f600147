package ticqtactoe

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zarux/ticqtactoe/internal/logger"
	"github.com/Zarux/ticqtactoe/pkg/tictactoe"
)

var errInvalidSide = errors.New("aiSide must be X or O")

type botPlayer interface {
	GetNextMove(context.Context, *tictactoe.Board, tictactoe.Player) (int, error)
}

type Service struct {
	bot botPlayer
}

func New(bot botPlayer) *Service {
	return &Service{
		bot: bot,
	}
}

// NextMove picks the bot's reply for side on a transient board built from
// marks. A nil move with gameOver set means the board is already finished.
func (s *Service) NextMove(ctx context.Context, marks []string, side string) (move *int, gameOver bool, err error) {
	log := logger.FromContext(ctx)

	board, err := tictactoe.FromMarks(marks)
	if err != nil {
		return nil, false, err
	}

	player, err := tictactoe.ParsePlayer(side)
	if err != nil || player == tictactoe.Empty {
		return nil, false, errInvalidSide
	}

	if board.Terminal() {
		log.Debug("board already finished", "board", board.Key(), "winner", board.CheckWinner().Mark())
		return nil, true, nil
	}

	m, err := s.bot.GetNextMove(ctx, board, player)
	if err != nil {
		return nil, false, fmt.Errorf("next move: %w", err)
	}

	log.Info("bot move", "board", board.Key(), "side", player.Mark(), "move", m)
	return &m, false, nil
}
