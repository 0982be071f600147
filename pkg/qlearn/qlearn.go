// Package qlearn holds the tabular action-value store used by the tic-tac-toe
// agent, together with the policy views that read from it.
package qlearn

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Zarux/ticqtactoe/pkg/tictactoe"
)

// ErrEmptyCandidates means SelectAction was called on a finished board.
var ErrEmptyCandidates = errors.New("no candidate actions")

type StateAction struct {
	State  tictactoe.Key
	Action int
}

type Config struct {
	Alpha   float64
	Gamma   float64
	Epsilon float64
}

func DefaultConfig() Config {
	return Config{
		Alpha:   0.5,
		Gamma:   0.9,
		Epsilon: 0.1,
	}
}

// Table maps (state, action) pairs to value estimates. Reads may run
// concurrently; writes are serialized.
type Table struct {
	mu     sync.RWMutex
	values map[StateAction]float64

	alpha float64
	gamma float64

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRand returns a seeded generator. A zero seed draws one from the clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// DeriveSeed gives each consumer of a run its own seed. A zero seed stays
// zero so every derived source is clock-seeded too.
func DeriveSeed(seed, stream uint64) uint64 {
	if seed == 0 {
		return 0
	}

	z := seed + stream*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	if z == 0 {
		z = 1
	}
	return z
}

func New(cfg Config, rng *rand.Rand) *Table {
	if rng == nil {
		rng = NewRand(0)
	}

	return &Table{
		values: make(map[StateAction]float64),
		alpha:  cfg.Alpha,
		gamma:  cfg.Gamma,
		rng:    rng,
	}
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

func (t *Table) Value(state tictactoe.Key, action int) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.values[StateAction{State: state, Action: action}]
}

func (t *Table) intN(n int) int {
	t.rngMu.Lock()
	defer t.rngMu.Unlock()
	return t.rng.IntN(n)
}

func (t *Table) float64() float64 {
	t.rngMu.Lock()
	defer t.rngMu.Unlock()
	return t.rng.Float64()
}

// SelectAction is epsilon-greedy over candidates. Ties at the maximum are
// broken uniformly at random.
func (t *Table) SelectAction(state tictactoe.Key, candidates []int, exploreRate float64) (int, error) {
	if len(candidates) == 0 {
		return -1, ErrEmptyCandidates
	}

	if exploreRate > 0 && t.float64() < exploreRate {
		return candidates[t.intN(len(candidates))], nil
	}

	best := t.bestActions(state, candidates)
	return best[t.intN(len(best))], nil
}

func (t *Table) bestActions(state tictactoe.Key, candidates []int) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var best []int
	bestVal := 0.0
	for i, a := range candidates {
		v := t.values[StateAction{State: state, Action: a}]
		switch {
		case i == 0 || v > bestVal:
			best = append(best[:0], a)
			bestVal = v
		case v == bestVal:
			best = append(best, a)
		}
	}

	return best
}

// maxValue is the best estimate over candidates; 0 when there are none.
func (t *Table) maxValue(state tictactoe.Key, candidates []int) float64 {
	if len(candidates) == 0 {
		return 0
	}

	best := t.values[StateAction{State: state, Action: candidates[0]}]
	for _, a := range candidates[1:] {
		if v := t.values[StateAction{State: state, Action: a}]; v > best {
			best = v
		}
	}

	return best
}

// Update applies the one-step Q-learning backup
//
//	Q(s,a) += alpha * (reward + gamma * max Q(next, a') - Q(s,a))
//
// and returns the new estimate.
func (t *Table) Update(state tictactoe.Key, action int, reward float64, next tictactoe.Key, nextCandidates []int) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	sa := StateAction{State: state, Action: action}
	old := t.values[sa]
	future := t.maxValue(next, nextCandidates)

	v := old + t.alpha*(reward+t.gamma*future-old)
	t.values[sa] = v
	return v
}
