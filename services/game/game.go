package game

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zarux/ticqtactoe/internal/logger"
	"github.com/Zarux/ticqtactoe/pkg/tictactoe"
	"github.com/Zarux/ticqtactoe/services/game/game"
	"github.com/Zarux/ticqtactoe/services/game/settings"
)

type botPlayer interface {
	GetNextMove(context.Context, *tictactoe.Board, tictactoe.Player) (int, error)
}

type Service struct {
	trained botPlayer
	random  botPlayer
}

func New(trained, random botPlayer) *Service {
	return &Service{
		trained: trained,
		random:  random,
	}
}

func (s *Service) opponent(o settings.Opponent) botPlayer {
	switch o {
	case settings.OpponentRandom:
		return s.random
	case settings.OpponentHuman:
		return nil
	}
	return s.trained
}

func (s *Service) Play(ctx context.Context) error {
	log := logger.FromContext(ctx)

	settingsModel := settings.InitialModel(header())
	p := tea.NewProgram(settingsModel, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	if settingsModel.Aborted {
		return nil
	}

	settings := settingsModel.GetSettings()
	bot := s.opponent(settings.Opponent)
	log.Info("starting game", "stone", settings.P.Mark(), "opponent", settings.Opponent.String())

	for {
		gameModel := game.InitialModel(header(), tictactoe.New(), bot, settings.P)

		p = tea.NewProgram(gameModel, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("game: %w", err)
		}

		log.Info("game finished", "winner", gameModel.Winner().Mark(), "replay", gameModel.Replay)
		if !gameModel.Replay {
			return nil
		}
	}
}

var (
	headerStyle1 = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#4204b5ff", Dark: "#4204b5ff"}).Render
	headerStyle2 = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#19b504ff", Dark: "#19b504ff"}).Render
	headerStyle3 = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b55404ff", Dark: "#b55404ff"}).Render
)

func header() string {
	return fmt.Sprintf(
		"%s %s %s %s %s\n\n",
		headerStyle2("---"),
		headerStyle1("Tic"),
		headerStyle2("Q"),
		headerStyle3("Tac Toe"),
		headerStyle2("---"),
	)
}
