package tictactoe

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrIllegalMove is returned when a move targets an occupied or nonexistent cell.
var ErrIllegalMove = errors.New("illegal move")

const (
	N     = 3
	Cells = N * N
)

type Player int8

const (
	Empty Player = 0
	P1    Player = 1
	P2    Player = -1
)

func (p Player) Mark() string {
	s := " "
	if p == P1 {
		s = "X"
	}

	if p == P2 {
		s = "O"
	}

	return s
}

func (p Player) Opponent() Player {
	return -p
}

func (p Player) keyRune() byte {
	switch p {
	case P1:
		return 'X'
	case P2:
		return 'O'
	}

	return '.'
}

// ParsePlayer maps a front-end symbol to a Player. Blank strings are Empty.
func ParsePlayer(s string) (Player, error) {
	switch strings.TrimSpace(s) {
	case "":
		return Empty, nil
	case "X", "x", "〇":
		return P1, nil
	case "O", "o", "×":
		return P2, nil
	}

	return Empty, fmt.Errorf("unknown symbol %q", s)
}

// Key is the canonical serialization of a board, one byte per cell.
type Key string

// the 8 fixed triples: rows, columns, diagonals
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

type Board struct {
	Cells    [Cells]Player
	LastMove int
	Turn     int
}

func New() *Board {
	b := &Board{}
	b.Reset()
	return b
}

// FromMarks builds a board from 9 front-end symbols.
func FromMarks(marks []string) (*Board, error) {
	if len(marks) != Cells {
		return nil, fmt.Errorf("board must have %d cells, got %d", Cells, len(marks))
	}

	b := New()
	for i, m := range marks {
		p, err := ParsePlayer(m)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}

		b.Cells[i] = p
		if p != Empty {
			b.Turn++
		}
	}

	return b, nil
}

func (b *Board) Reset() Key {
	b.Cells = [Cells]Player{}
	b.LastMove = -1
	b.Turn = 0
	return b.Key()
}

func (b *Board) Key() Key {
	var k [Cells]byte
	for i, p := range b.Cells {
		k[i] = p.keyRune()
	}

	return Key(k[:])
}

func (b *Board) AnyLegalMoves() bool {
	return slices.Contains(b.Cells[:], Empty)
}

func (b *Board) LegalMoves() []int {
	emptyCells := make([]int, 0, Cells)
	for m, p := range b.Cells {
		if p != Empty {
			continue
		}
		emptyCells = append(emptyCells, m)
	}

	return emptyCells
}

// ApplyMove marks idx for p and reports whether the game is over.
// The board is untouched when the move is rejected.
func (b *Board) ApplyMove(idx int, p Player) (bool, error) {
	if idx < 0 || idx >= Cells {
		return false, fmt.Errorf("%w: cell %d out of range", ErrIllegalMove, idx)
	}

	if p == Empty {
		return false, fmt.Errorf("%w: no side to play", ErrIllegalMove)
	}

	if b.Cells[idx] != Empty {
		return false, fmt.Errorf("%w: cell %d taken by %s", ErrIllegalMove, idx, b.Cells[idx].Mark())
	}

	b.Cells[idx] = p
	b.LastMove = idx
	b.Turn++

	return b.Terminal(), nil
}

func (b *Board) IsWin(p Player) bool {
	return b.WinningLine(p) != nil
}

func (b *Board) IsDraw() bool {
	return !b.AnyLegalMoves() && !b.IsWin(P1) && !b.IsWin(P2)
}

func (b *Board) CheckWinner() Player {
	if b.IsWin(P1) {
		return P1
	}

	if b.IsWin(P2) {
		return P2
	}

	return Empty
}

func (b *Board) Terminal() bool {
	return b.CheckWinner() != Empty || !b.AnyLegalMoves()
}

// WinningLine returns the first triple held by p, or nil.
func (b *Board) WinningLine(p Player) []int {
	if p == Empty {
		return nil
	}

	for _, l := range lines {
		if b.Cells[l[0]] == p && b.Cells[l[1]] == p && b.Cells[l[2]] == p {
			return l[:]
		}
	}

	return nil
}

func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// Relabel returns a copy with X and O swapped.
func (b *Board) Relabel() *Board {
	c := b.Clone()
	for i, p := range c.Cells {
		c.Cells[i] = -p
	}

	return c
}

func (b *Board) String() string {
	s := strings.Builder{}
	for y := range N {
		if y > 0 {
			s.WriteString("---+---+---\n")
		}

		for x := range N {
			if x > 0 {
				s.WriteString("|")
			}
			fmt.Fprintf(&s, " %s ", b.Cells[y*N+x].Mark())
		}
		s.WriteString("\n")
	}

	return s.String()
}
