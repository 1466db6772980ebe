package components

import (
	"github.com/Use-Tusk/redirect-check/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

func Footer(width int, helpText string) string {
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(styles.PrimaryColor))
	return helpStyle.Render(helpText)
}
