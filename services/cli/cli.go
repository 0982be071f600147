// Package cli is a line-oriented front-end: the human types a cell number,
// the bot (if any) answers.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/muesli/termenv"

	"github.com/Zarux/ticqtactoe/pkg/tictactoe"
)

type botPlayer interface {
	GetNextMove(context.Context, *tictactoe.Board, tictactoe.Player) (int, error)
}

type Game struct {
	in      *bufio.Scanner
	out     io.Writer
	bot     botPlayer
	botSide tictactoe.Player
	au      aurora.Aurora
}

// ColorEnabled reports whether stdout can show ANSI colours.
func ColorEnabled() bool {
	return termenv.EnvColorProfile() != termenv.Ascii
}

// New creates a game. A nil bot gives a two-human game.
func New(in io.Reader, out io.Writer, bot botPlayer, botSide tictactoe.Player, color bool) *Game {
	return &Game{
		in:      bufio.NewScanner(in),
		out:     out,
		bot:     bot,
		botSide: botSide,
		au:      aurora.NewAurora(color),
	}
}

func (g *Game) mark(p tictactoe.Player) string {
	switch p {
	case tictactoe.P1:
		return g.au.Green(p.Mark()).Bold().String()
	case tictactoe.P2:
		return g.au.Blue(p.Mark()).Bold().String()
	}
	return " "
}

func (g *Game) printBoard(b *tictactoe.Board) {
	s := strings.Builder{}
	s.WriteString("\n")
	for y := range tictactoe.N {
		if y > 0 {
			s.WriteString("---+---+---\n")
		}
		for x := range tictactoe.N {
			if x > 0 {
				s.WriteString("|")
			}
			fmt.Fprintf(&s, " %s ", g.mark(b.Cells[y*tictactoe.N+x]))
		}
		s.WriteString("\n")
	}
	s.WriteString("\n")
	fmt.Fprint(g.out, s.String())
}

func (g *Game) printIntro() {
	fmt.Fprintln(g.out, "=== Tic-tac-toe ===")
	fmt.Fprintln(g.out, "Pick a cell with a number from 1 to 9.")
	fmt.Fprintln(g.out)
	fmt.Fprintln(g.out, " 1 | 2 | 3 ")
	fmt.Fprintln(g.out, "---+---+---")
	fmt.Fprintln(g.out, " 4 | 5 | 6 ")
	fmt.Fprintln(g.out, "---+---+---")
	fmt.Fprintln(g.out, " 7 | 8 | 9 ")
	fmt.Fprintln(g.out, "===================")
}

// humanMove prompts until the human makes a legal move. It only fails when
// the input ends.
func (g *Game) humanMove(b *tictactoe.Board, p tictactoe.Player) (bool, error) {
	for {
		fmt.Fprintf(g.out, "%s to move (1-9): ", g.mark(p))
		if !g.in.Scan() {
			if err := g.in.Err(); err != nil {
				return false, err
			}
			return false, io.ErrUnexpectedEOF
		}

		n, err := strconv.Atoi(strings.TrimSpace(g.in.Text()))
		if err != nil {
			fmt.Fprintln(g.out, g.au.Red("Please enter a number."))
			continue
		}

		if n < 1 || n > tictactoe.Cells {
			fmt.Fprintln(g.out, g.au.Red("Choose a number from 1 to 9."))
			continue
		}

		terminal, err := b.ApplyMove(n-1, p)
		if errors.Is(err, tictactoe.ErrIllegalMove) {
			fmt.Fprintln(g.out, g.au.Red("That cell is already taken."))
			continue
		}

		return terminal, err
	}
}

func (g *Game) botMove(ctx context.Context, b *tictactoe.Board, p tictactoe.Player) (bool, error) {
	move, err := g.bot.GetNextMove(ctx, b, p)
	if err != nil {
		return false, fmt.Errorf("bot move: %w", err)
	}

	terminal, err := b.ApplyMove(move, p)
	if err != nil {
		return false, fmt.Errorf("bot move: %w", err)
	}

	fmt.Fprintf(g.out, "%s plays %d\n", g.mark(p), move+1)
	return terminal, nil
}

// Play runs one game to completion and returns the winner (Empty on a draw).
func (g *Game) Play(ctx context.Context) (tictactoe.Player, error) {
	board := tictactoe.New()
	g.printIntro()

	player := tictactoe.P1
	for {
		g.printBoard(board)

		var terminal bool
		var err error
		if g.bot != nil && player == g.botSide {
			terminal, err = g.botMove(ctx, board, player)
		} else {
			terminal, err = g.humanMove(board, player)
		}
		if err != nil {
			return tictactoe.Empty, err
		}

		if terminal {
			g.printBoard(board)
			winner := board.CheckWinner()
			if winner == tictactoe.Empty {
				fmt.Fprintln(g.out, "It's a draw!")
			} else {
				fmt.Fprintf(g.out, "%s wins!\n", g.mark(winner))
			}
			return winner, nil
		}

		player = player.Opponent()
	}
}
