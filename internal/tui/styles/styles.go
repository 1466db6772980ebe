// Package styles holds the shared color palette and lipgloss styles.
package styles

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/Use-Tusk/redirect-check/internal/cliconfig"
)

var (
	HasDarkBackground = initDarkBackground()

	PrimaryColor = func() string {
		if HasDarkBackground {
			return "213"
		}
		return "53"
	}()

	SecondaryColor = "55"

	WarningColor = "214"

	// BorderColor is used for borders and dividers
	BorderColor = "240"

	// ErrorColor is used for error states
	ErrorColor = "196"

	// SuccessColor is used for success states
	SuccessColor = func() string {
		if HasDarkBackground {
			return "42"
		}
		return "34"
	}()

	// DeviationColor marks failing cases
	DeviationColor = "208"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(PrimaryColor)).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(SuccessColor))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ErrorColor))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(WarningColor))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// DeviationStyle is orange for failing cases
	DeviationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(DeviationColor))

	TableRowSelectedStyle = func() lipgloss.Style {
		foreground := "231"
		if HasDarkBackground {
			foreground = "229"
		}
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(foreground)).
			Background(lipgloss.Color(SecondaryColor)).
			Bold(false)
	}()

	TableHeaderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color(BorderColor)).
				BorderBottom(true).
				Bold(true).
				PaddingLeft(1).
				PaddingRight(1)

	TableCellStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			PaddingRight(1)
)

func NoColor() bool {
	return termenv.EnvNoColor()
}

// HuhTheme returns a huh theme using our style system
func HuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	primary := lipgloss.Color(PrimaryColor)

	// Title styling - bold and underlined, default color
	t.Focused.Title = lipgloss.NewStyle().Bold(true).Underline(true)

	// Remove the vertical line on the left (base border)
	t.Focused.Base = lipgloss.NewStyle().PaddingLeft(0)
	t.Blurred.Base = lipgloss.NewStyle().PaddingLeft(0)

	// Selection styling - ">" indicator in primary color
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(primary).SetString("> ")
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(primary)

	return t
}

// initDarkBackground determines if dark background should be used from config.
func initDarkBackground() bool {
	cfg := cliconfig.Current()
	if cfg.DarkMode == nil {
		return lipgloss.HasDarkBackground()
	}
	return *cfg.DarkMode
}
