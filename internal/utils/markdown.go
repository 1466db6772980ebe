package utils

import (
	"encoding/json"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/Use-Tusk/redirect-check/internal/tui/styles"
)

const helpWrapWidth = 90

var (
	helpRenderer     *glamour.TermRenderer
	helpRendererErr  error
	helpRendererOnce sync.Once
)

// helpStyleOverrides returns glamour style overrides for command help: no
// margins and headings in the CLI palette.
// Reference: https://github.com/charmbracelet/glamour/tree/master/styles
func helpStyleOverrides(dark bool) ([]byte, error) {
	heading := styles.SecondaryColor
	if dark {
		heading = styles.PrimaryColor
	}
	overrides := map[string]map[string]any{
		"document":   {"margin": 0},
		"code_block": {"margin": 0},
		"heading":    {"color": heading},
		"h1":         {"color": "255", "background_color": styles.SecondaryColor},
	}
	if dark {
		overrides["document"]["color"] = "255"
	}
	return json.Marshal(overrides)
}

func markdownRenderer() (*glamour.TermRenderer, error) {
	helpRendererOnce.Do(func() {
		base := "light"
		if styles.HasDarkBackground {
			base = "dark"
		}
		overrides, err := helpStyleOverrides(styles.HasDarkBackground)
		if err != nil {
			helpRendererErr = err
			return
		}
		helpRenderer, helpRendererErr = glamour.NewTermRenderer(
			glamour.WithStandardStyle(base),
			glamour.WithWordWrap(helpWrapWidth),
			glamour.WithStylesFromJSONBytes(overrides),
		)
	})
	return helpRenderer, helpRendererErr
}

// RenderMarkdown renders embedded help text for the terminal. The markdown
// is returned as is when color is off or stdout is not a terminal.
func RenderMarkdown(md string) string {
	if styles.NoColor() || !IsTerminal() {
		return md
	}
	r, err := markdownRenderer()
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
