package qlearn

import (
	"context"
	"fmt"
	"sync"

	"github.com/Zarux/ticqtactoe/pkg/tictactoe"
)

// Agent is a stateless policy view over a table for one side. Several agents
// may share the same table.
type Agent struct {
	Side    tictactoe.Player
	Table   *Table
	Epsilon float64
}

func (a Agent) Choose(b *tictactoe.Board) (int, error) {
	return a.Table.SelectAction(b.Key(), b.LegalMoves(), a.Epsilon)
}

type LastMoveStats struct {
	BestMove   int
	Value      float64
	Candidates int
	Tied       int
}

// Bot plays greedily from a table and satisfies the front-ends' bot interface.
type Bot struct {
	table *Table

	mu            sync.Mutex
	lastMoveStats *LastMoveStats
}

func NewBot(t *Table) *Bot {
	return &Bot{table: t}
}

func (b *Bot) Stats() *LastMoveStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastMoveStats
}

func (b *Bot) GetNextMove(ctx context.Context, board *tictactoe.Board, player tictactoe.Player) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	key := board.Key()
	moves := board.LegalMoves()
	move, err := b.table.SelectAction(key, moves, 0)
	if err != nil {
		return -1, fmt.Errorf("%s to move on %s: %w", player.Mark(), key, err)
	}

	value := b.table.Value(key, move)
	tied := 0
	for _, m := range moves {
		if b.table.Value(key, m) == value {
			tied++
		}
	}

	b.mu.Lock()
	b.lastMoveStats = &LastMoveStats{
		BestMove:   move,
		Value:      value,
		Candidates: len(moves),
		Tied:       tied,
	}
	b.mu.Unlock()

	return move, nil
}
