package tui

import (
	"fmt"

	"uichat/internal/config"

	tea "github.com/charmbracelet/bubbletea"
)

// Run launches the interactive chat in inline mode: finished messages scroll
// in the terminal above the prompt.
func Run(version, profile string, cfg *config.Config) error {
	m := initialModel(version, profile, cfg)

	p := tea.NewProgram(m)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
