package game

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zarux/ticqtactoe/pkg/qlearn"
	"github.com/Zarux/ticqtactoe/pkg/tictactoe"
)

type botPlayer interface {
	GetNextMove(context.Context, *tictactoe.Board, tictactoe.Player) (int, error)
}

type statsBot interface {
	Stats() *qlearn.LastMoveStats
}

type model struct {
	board         *tictactoe.Board
	cursor        int
	currentPlayer tictactoe.Player
	botPlayer     tictactoe.Player
	bot           botPlayer
	spinner       spinner.Model
	header        string
	err           error

	gameOver bool
	winner   tictactoe.Player
	Replay   bool
}

func (m model) Init() tea.Cmd {
	if m.botTurn() {
		return tea.Batch(m.beginTick(), m.botMove(context.Background()))
	}

	return nil
}

var (
	p1Style              = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#007e50ff", Dark: "#6afd76ff"}).Render
	p2Style              = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0003adff", Dark: "#5f61fcff"}).Render
	cursorStyle          = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#960000ff", Dark: "#fc7e7eff"}).Render
	winningRowStyle      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#bb0000ff", Dark: "#df1010ff"}).Render
	bracketStyle         = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#414141ff", Dark: "#8f8f8fff"}).Render
	lastMoveBracketStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000ff", Dark: "#ffffffff"}).Render
	statStyle1           = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8a880fff", Dark: "#ddda1dff"}).Render
	statStyle2           = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#138a0fff", Dark: "#1ddd37ff"}).Render
	helpStyle            = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#414141ff", Dark: "#8f8f8fff"}).Render
)

func InitialModel(header string, b *tictactoe.Board, bot botPlayer, playerStone tictactoe.Player) *model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &model{
		board:         b,
		cursor:        firstEmpty(b),
		currentPlayer: tictactoe.P1,
		botPlayer:     playerStone.Opponent(),
		bot:           bot,
		spinner:       s,
		Replay:        false,
		header:        header,
	}
}

// Winner is Empty on a draw or an unfinished game.
func (m *model) Winner() tictactoe.Player {
	return m.winner
}

func firstEmpty(b *tictactoe.Board) int {
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return -1
	}
	return moves[0]
}

func (m *model) botTurn() bool {
	return m.bot != nil && m.currentPlayer == m.botPlayer && !m.gameOver
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case botDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.gameOver = true
			return m, nil
		}

		m.play(msg.move)
		return m, nil

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "right", "l":
			m.cursor = m.step(1)
		case "left", "h":
			m.cursor = m.step(-1)
		case "up", "k":
			m.cursor = m.step(-tictactoe.N)
		case "down", "j":
			m.cursor = m.step(tictactoe.N)

		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			if m.gameOver || m.botTurn() {
				return m, nil
			}
			n, _ := strconv.Atoi(key)
			return m, m.humanMove(n - 1)

		case "enter", " ":
			if m.gameOver {
				m.Replay = true
				return m, tea.Quit
			}

			if m.botTurn() {
				return m, nil
			}

			return m, m.humanMove(m.cursor)
		}

	default:
		if m.gameOver {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// humanMove places a mark for the current player and hands over to the bot.
// Occupied cells are ignored.
func (m *model) humanMove(idx int) tea.Cmd {
	if idx < 0 || idx >= tictactoe.Cells || m.board.Cells[idx] != tictactoe.Empty {
		return nil
	}

	m.play(idx)
	if m.botTurn() {
		return tea.Batch(m.beginTick(), m.botMove(context.Background()))
	}

	return nil
}

func (m *model) play(idx int) {
	terminal, err := m.board.ApplyMove(idx, m.currentPlayer)
	if err != nil {
		m.err = err
		return
	}

	if terminal {
		m.gameOver = true
		m.winner = m.board.CheckWinner()
		m.cursor = -1
		return
	}

	m.currentPlayer = m.currentPlayer.Opponent()
	if m.cursor < 0 || m.board.Cells[m.cursor] != tictactoe.Empty {
		m.cursor = firstEmpty(m.board)
	}
}

// step moves the cursor by delta, skipping occupied cells.
func (m *model) step(delta int) int {
	if m.cursor < 0 {
		return m.cursor
	}

	for c := m.cursor + delta; c >= 0 && c < tictactoe.Cells; c += delta {
		if (delta == 1 || delta == -1) && c/tictactoe.N != m.cursor/tictactoe.N {
			break
		}

		if m.board.Cells[c] == tictactoe.Empty {
			return c
		}
	}

	return m.cursor
}

type botDoneMsg struct {
	move int
	err  error
}

func (m model) beginTick() tea.Cmd {
	return func() tea.Msg {
		return m.spinner.Tick()
	}
}

// botMove asks the bot on a copy of the board; the result is applied in Update.
func (m model) botMove(ctx context.Context) tea.Cmd {
	board := m.board.Clone()
	player := m.botPlayer

	return func() tea.Msg {
		move, err := m.bot.GetNextMove(ctx, board, player)
		return botDoneMsg{move: move, err: err}
	}
}

func (m model) View() string {
	if m.gameOver && m.Replay {
		return ""
	}

	var highlights []int
	if m.gameOver && m.winner != tictactoe.Empty {
		highlights = m.board.WinningLine(m.winner)
	}

	s := m.header

	s += "Current player: "
	switch m.currentPlayer {
	case tictactoe.P1:
		s += p1Style(m.currentPlayer.Mark())
	case tictactoe.P2:
		s += p2Style(m.currentPlayer.Mark())
	}

	if m.botTurn() {
		s += " (bot) " + m.spinner.View()
	}

	s += "\n\n"

	for i, p := range m.board.Cells {
		mark := p.Mark()
		if m.cursor == i && !m.botTurn() {
			mark = cursorStyle("*")
		}

		switch p {
		case tictactoe.P1:
			mark = p1Style(p.Mark())
		case tictactoe.P2:
			mark = p2Style(p.Mark())
		}

		bStyle := bracketStyle
		if slices.Contains(highlights, i) {
			bStyle = winningRowStyle
		} else if m.board.LastMove == i && p != tictactoe.Empty {
			bStyle = lastMoveBracketStyle
		}

		s += fmt.Sprintf("%s%s%s", bStyle("["), mark, bStyle("]"))
		if (i+1)%tictactoe.N == 0 {
			s += "\n"
		}
	}

	if sb, ok := m.bot.(statsBot); ok && !m.botTurn() {
		if stats := sb.Stats(); stats != nil {
			s += fmt.Sprintf(
				"\nBot played: %s\nQ-value: %s (best shared by %s of %s moves)\n",
				statStyle1(fmt.Sprintf("(%d, %d)", stats.BestMove%tictactoe.N+1, stats.BestMove/tictactoe.N+1)),
				statStyle2(fmt.Sprintf("%.3f", stats.Value)),
				statStyle1(strconv.Itoa(stats.Tied)),
				statStyle1(strconv.Itoa(stats.Candidates)),
			)
		}
	}

	if m.err != nil {
		s += "\n" + cursorStyle("error: "+m.err.Error()) + "\n"
	}

	if m.gameOver {
		s += "\n" + gameOverText

		s += "\nTHE WINNER IS: "
		switch m.winner {
		case tictactoe.P1:
			s += p1Style(m.winner.Mark())
		case tictactoe.P2:
			s += p2Style(m.winner.Mark())
		default:
			s += cursorStyle("NO ONE")
		}

		s += "\n" + helpStyle("enter: play again • q: quit") + "\n"
		return s
	}

	s += "\n" + helpStyle("arrows/hjkl: move • enter or 1-9: place • q: quit") + "\n"
	return s
}

const gameOverText = `ＧＡＭＥ ＯＶＥＲ`
