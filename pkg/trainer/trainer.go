// Package trainer runs self-play episodes that fill a qlearn.Table.
//
// Two regimes are supported. In the fixed regime a single learner plays
// against a uniformly random opponent. In the joint regime both sides are
// learners sharing one table.
//
// The joint regime bootstraps a side's move against the position after the
// opponent's reply, so each mid-episode update spans two plies. This is a
// known approximation with weaker convergence than per-ply value iteration.
package trainer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Zarux/ticqtactoe/internal/logger"
	"github.com/Zarux/ticqtactoe/pkg/qlearn"
	"github.com/Zarux/ticqtactoe/pkg/tictactoe"
)

type Regime string

const (
	RegimeFixed Regime = "fixed"
	RegimeJoint Regime = "joint"
)

const (
	winReward  = 1.0
	lossReward = -1.0
	drawReward = 0.5
)

func ParseRegime(s string) (Regime, error) {
	switch r := Regime(s); r {
	case RegimeFixed, RegimeJoint:
		return r, nil
	}

	return "", fmt.Errorf("unknown training regime %q", s)
}

func DefaultEpisodes(r Regime) int {
	if r == RegimeJoint {
		return 20_000
	}

	return 10_000
}

type Config struct {
	Regime      Regime
	Episodes    int
	Epsilon     float64
	LearnerSide tictactoe.Player
	ReportEvery int
}

func DefaultConfig(r Regime) Config {
	return Config{
		Regime:      r,
		Episodes:    DefaultEpisodes(r),
		Epsilon:     qlearn.DefaultConfig().Epsilon,
		LearnerSide: tictactoe.P2,
		ReportEvery: 1000,
	}
}

type Stats struct {
	Episodes int
	XWins    int
	OWins    int
	Draws    int
}

func (s *Stats) add(winner tictactoe.Player) {
	s.Episodes++
	switch winner {
	case tictactoe.P1:
		s.XWins++
	case tictactoe.P2:
		s.OWins++
	default:
		s.Draws++
	}
}

// Progress summarises the episodes played since the previous report.
type Progress struct {
	Regime    Regime `json:"regime"`
	Episode   int    `json:"episode"`
	Episodes  int    `json:"episodes"`
	XWins     int    `json:"x_wins"`
	OWins     int    `json:"o_wins"`
	Draws     int    `json:"draws"`
	TableSize int    `json:"table_size"`
}

func (p Progress) rate(n int) float64 {
	total := p.XWins + p.OWins + p.Draws
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func (p Progress) XWinRate() float64 { return p.rate(p.XWins) }
func (p Progress) OWinRate() float64 { return p.rate(p.OWins) }
func (p Progress) DrawRate() float64 { return p.rate(p.Draws) }

type transition struct {
	state  tictactoe.Key
	action int
}

type Trainer struct {
	table    *qlearn.Table
	cfg      Config
	opponent *RandomBot

	onProgress func(Progress)
}

func New(table *qlearn.Table, cfg Config, rng *rand.Rand) (*Trainer, error) {
	if _, err := ParseRegime(string(cfg.Regime)); err != nil {
		return nil, err
	}

	if cfg.LearnerSide != tictactoe.P1 && cfg.LearnerSide != tictactoe.P2 {
		return nil, fmt.Errorf("learner side must be X or O")
	}

	if cfg.Episodes <= 0 {
		cfg.Episodes = DefaultEpisodes(cfg.Regime)
	}

	if cfg.ReportEvery <= 0 {
		cfg.ReportEvery = max(1, cfg.Episodes/10)
	}

	if rng == nil {
		rng = qlearn.NewRand(0)
	}

	return &Trainer{
		table:    table,
		cfg:      cfg,
		opponent: NewRandomBot(rng),
	}, nil
}

func (t *Trainer) Config() Config {
	return t.cfg
}

// OnProgress registers fn to be called after every report window.
func (t *Trainer) OnProgress(fn func(Progress)) {
	t.onProgress = fn
}

// Run plays the configured number of episodes. Cancelling ctx stops between
// episodes and returns the partial stats together with ctx.Err().
func (t *Trainer) Run(ctx context.Context) (Stats, error) {
	log := logger.FromContext(ctx).With("regime", t.cfg.Regime)
	log.Info("training started", "episodes", t.cfg.Episodes, "epsilon", t.cfg.Epsilon, "learner", t.cfg.LearnerSide.Mark())

	start := time.Now()
	var stats, window Stats
	for ep := range t.cfg.Episodes {
		if err := ctx.Err(); err != nil {
			log.Warn("training interrupted", "episode", ep, "err", err)
			return stats, err
		}

		winner := t.Episode()
		stats.add(winner)
		window.add(winner)

		if (ep+1)%t.cfg.ReportEvery != 0 && ep+1 != t.cfg.Episodes {
			continue
		}

		p := Progress{
			Regime:    t.cfg.Regime,
			Episode:   ep + 1,
			Episodes:  t.cfg.Episodes,
			XWins:     window.XWins,
			OWins:     window.OWins,
			Draws:     window.Draws,
			TableSize: t.table.Len(),
		}
		log.Debug("training progress",
			"episode", p.Episode,
			"x_win_rate", p.XWinRate(),
			"o_win_rate", p.OWinRate(),
			"draw_rate", p.DrawRate(),
			"entries", p.TableSize,
		)
		if t.onProgress != nil {
			t.onProgress(p)
		}
		window = Stats{}
	}

	log.Info("training finished",
		"episodes", stats.Episodes,
		"x_wins", stats.XWins,
		"o_wins", stats.OWins,
		"draws", stats.Draws,
		"entries", t.table.Len(),
		"took", time.Since(start).Round(time.Millisecond),
	)

	return stats, nil
}

// Episode plays a single training game and returns its winner.
func (t *Trainer) Episode() tictactoe.Player {
	if t.cfg.Regime == RegimeJoint {
		return t.jointEpisode()
	}

	return t.fixedEpisode()
}

func (t *Trainer) fixedEpisode() tictactoe.Player {
	board := tictactoe.New()
	learner := qlearn.Agent{Side: t.cfg.LearnerSide, Table: t.table, Epsilon: t.cfg.Epsilon}

	var pending *transition
	player := tictactoe.P1
	for {
		state := board.Key()

		var move int
		if player == learner.Side {
			move = mustChoose(learner, board)
			pending = &transition{state: state, action: move}
		} else {
			move = t.opponent.pick(board.LegalMoves())
		}

		if mustApply(board, move, player) {
			winner := board.CheckWinner()
			if pending != nil {
				t.table.Update(pending.state, pending.action, reward(winner, learner.Side), "", nil)
			}
			return winner
		}

		if player != learner.Side && pending != nil {
			t.table.Update(pending.state, pending.action, 0, board.Key(), board.LegalMoves())
			pending = nil
		}

		player = player.Opponent()
	}
}

func (t *Trainer) jointEpisode() tictactoe.Player {
	board := tictactoe.New()
	agents := map[tictactoe.Player]qlearn.Agent{
		tictactoe.P1: {Side: tictactoe.P1, Table: t.table, Epsilon: t.cfg.Epsilon},
		tictactoe.P2: {Side: tictactoe.P2, Table: t.table, Epsilon: t.cfg.Epsilon},
	}
	pending := map[tictactoe.Player]*transition{}

	player := tictactoe.P1
	for {
		state := board.Key()
		move := mustChoose(agents[player], board)
		opponent := player.Opponent()

		if mustApply(board, move, player) {
			winner := board.CheckWinner()
			t.table.Update(state, move, reward(winner, player), "", nil)
			if p := pending[opponent]; p != nil {
				t.table.Update(p.state, p.action, reward(winner, opponent), "", nil)
			}
			return winner
		}

		if p := pending[opponent]; p != nil {
			t.table.Update(p.state, p.action, 0, board.Key(), board.LegalMoves())
		}
		pending[player] = &transition{state: state, action: move}

		player = opponent
	}
}

func reward(winner, side tictactoe.Player) float64 {
	switch winner {
	case tictactoe.Empty:
		return drawReward
	case side:
		return winReward
	}

	return lossReward
}

func mustChoose(a qlearn.Agent, b *tictactoe.Board) int {
	move, err := a.Choose(b)
	if err != nil {
		panic(fmt.Sprintf("learner %s has no move on %s: %v", a.Side.Mark(), b.Key(), err))
	}

	return move
}

func mustApply(b *tictactoe.Board, move int, p tictactoe.Player) bool {
	terminal, err := b.ApplyMove(move, p)
	if err != nil {
		panic(fmt.Sprintf("TRAINING ILLEGAL MOVE: %v", err))
	}

	return terminal
}
