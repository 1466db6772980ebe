package log

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Use-Tusk/redirect-check/internal/tui/styles"
)

func render(style lipgloss.Style, msg string) string {
	if styles.NoColor() {
		return msg
	}
	return style.Render(msg)
}

func renderError(msg string) string {
	return render(styles.ErrorStyle, msg)
}

func renderWarning(msg string) string {
	return render(styles.WarningStyle, msg)
}

func renderSuccess(msg string) string {
	return render(styles.SuccessStyle, msg)
}

func renderDim(msg string) string {
	return render(styles.DimStyle, msg)
}
