package settings

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zarux/ticqtactoe/pkg/tictactoe"
)

var (
	listSelectorStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}).Render
)

type Opponent int

const (
	OpponentTrained Opponent = iota
	OpponentRandom
	OpponentHuman
)

func (o Opponent) String() string {
	switch o {
	case OpponentTrained:
		return "trained bot"
	case OpponentRandom:
		return "random bot"
	case OpponentHuman:
		return "another human"
	}
	return "unknown"
}

type settings struct {
	P        tictactoe.Player
	Opponent Opponent
}

type choiceLevel int

const (
	choiceLevelP choiceLevel = iota
	choiceLevelOpponent
)

type choice struct {
	label string
	apply func(*settings)
}

var levels = map[choiceLevel]struct {
	title   string
	choices []choice
}{
	choiceLevelP: {
		title: "Choose stone:",
		choices: []choice{
			{"X (first)", func(s *settings) { s.P = tictactoe.P1 }},
			{"O", func(s *settings) { s.P = tictactoe.P2 }},
		},
	},
	choiceLevelOpponent: {
		title: "Choose opponent:",
		choices: []choice{
			{OpponentTrained.String(), func(s *settings) { s.Opponent = OpponentTrained }},
			{OpponentRandom.String(), func(s *settings) { s.Opponent = OpponentRandom }},
			{OpponentHuman.String(), func(s *settings) { s.Opponent = OpponentHuman }},
		},
	},
}

type model struct {
	cursor      int
	choiceLevel choiceLevel
	header      string

	settings settings

	// Aborted is set when the player leaves the menu without choosing.
	Aborted bool
	clear   bool
}

func (m model) GetSettings() settings {
	return m.settings
}

func InitialModel(header string) *model {
	return &model{
		header:   header,
		settings: settings{P: tictactoe.P1},
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	choices := levels[m.choiceLevel].choices

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.clear = true
			m.Aborted = true
			return m, tea.Quit

		case "enter":
			choices[m.cursor].apply(&m.settings)

			m.choiceLevel++
			if m.choiceLevel > choiceLevelOpponent {
				m.clear = true
				return m, tea.Quit
			}

			m.cursor = 0
			return m, nil

		case "down", "j":
			m.cursor++
			if m.cursor >= len(choices) {
				m.cursor = 0
			}

		case "up", "k":
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(choices) - 1
			}
		}
	}

	return m, nil
}

func (m *model) View() string {
	if m.clear {
		return ""
	}

	level := levels[m.choiceLevel]

	s := strings.Builder{}
	s.WriteString(m.header)
	s.WriteString(level.title + "\n")

	for i, c := range level.choices {
		if m.cursor == i {
			s.WriteString(listSelectorStyle("(•) "))
		} else {
			s.WriteString(listSelectorStyle("( ) "))
		}

		s.WriteString(c.label)
		s.WriteString("\n")
	}

	return s.String()
}
