package trainer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/Zarux/ticqtactoe/pkg/tictactoe"
)

type botPlayer interface {
	GetNextMove(context.Context, *tictactoe.Board, tictactoe.Player) (int, error)
}

// RandomBot plays a uniformly random legal move.
type RandomBot struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomBot(rng *rand.Rand) *RandomBot {
	return &RandomBot{rng: rng}
}

func (r *RandomBot) pick(moves []int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return moves[r.rng.IntN(len(moves))]
}

func (r *RandomBot) GetNextMove(_ context.Context, b *tictactoe.Board, p tictactoe.Player) (int, error) {
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return -1, fmt.Errorf("%s to move on full board %s", p.Mark(), b.Key())
	}

	return r.pick(moves), nil
}

const center = 4

// CenterFirstBot takes the center whenever it is free and otherwise plays randomly.
type CenterFirstBot struct {
	*RandomBot
}

func NewCenterFirstBot(rng *rand.Rand) *CenterFirstBot {
	return &CenterFirstBot{RandomBot: NewRandomBot(rng)}
}

func (c *CenterFirstBot) GetNextMove(ctx context.Context, b *tictactoe.Board, p tictactoe.Player) (int, error) {
	if slices.Contains(b.LegalMoves(), center) {
		return center, nil
	}

	return c.RandomBot.GetNextMove(ctx, b, p)
}

// PlayMatch plays one game, x moving first, and returns the winner (Empty on a draw).
func PlayMatch(ctx context.Context, x, o botPlayer) (tictactoe.Player, error) {
	board := tictactoe.New()
	bots := map[tictactoe.Player]botPlayer{
		tictactoe.P1: x,
		tictactoe.P2: o,
	}

	player := tictactoe.P1
	for {
		move, err := bots[player].GetNextMove(ctx, board, player)
		if err != nil {
			return tictactoe.Empty, err
		}

		terminal, err := board.ApplyMove(move, player)
		if err != nil {
			return tictactoe.Empty, fmt.Errorf("%s played %d: %w", player.Mark(), move, err)
		}

		if terminal {
			return board.CheckWinner(), nil
		}

		player = player.Opponent()
	}
}

type Record struct {
	Wins   int
	Losses int
	Draws  int
}

func (r Record) Games() int {
	return r.Wins + r.Losses + r.Draws
}

func (r Record) LossRate() float64 {
	if r.Games() == 0 {
		return 0
	}
	return float64(r.Losses) / float64(r.Games())
}

// Evaluate plays games between learner (on side) and opponent and tallies
// the result from the learner's point of view.
func Evaluate(ctx context.Context, learner, opponent botPlayer, side tictactoe.Player, games int) (Record, error) {
	var rec Record
	for range games {
		if err := ctx.Err(); err != nil {
			return rec, err
		}

		x, o := learner, opponent
		if side == tictactoe.P2 {
			x, o = opponent, learner
		}

		winner, err := PlayMatch(ctx, x, o)
		if err != nil {
			return rec, err
		}

		switch winner {
		case tictactoe.Empty:
			rec.Draws++
		case side:
			rec.Wins++
		default:
			rec.Losses++
		}
	}

	return rec, nil
}
