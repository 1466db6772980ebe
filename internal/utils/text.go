package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes ANSI escape sequences from a string
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// WrapText word-wraps content to maxWidth columns, keeping existing line breaks.
func WrapText(content string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = 80
	}
	return wordwrap.String(content, maxWidth)
}

// Indent prefixes every line of s with n spaces.
func Indent(s string, n uint) string {
	return indent.String(s, n)
}

// PadRight pads text with spaces to width display columns.
func PadRight(text string, width int) string {
	w := runewidth.StringWidth(StripANSI(text))
	if w >= width {
		return text
	}
	return text + strings.Repeat(" ", width-w)
}

func TruncateWithEllipsis(text string, maxWidth int) string {
	visibleLength := runewidth.StringWidth(StripANSI(text))

	if visibleLength <= maxWidth {
		return text
	}

	if maxWidth <= 3 {
		return "..."
	}

	targetWidth := maxWidth - 3

	var result strings.Builder
	displayWidth := 0
	i := 0

	for i < len(text) && displayWidth < targetWidth {
		// Copy ANSI sequences through without counting them
		if i+1 < len(text) && text[i] == '\x1b' && text[i+1] == '[' {
			j := i + 2
			for j < len(text) && text[j] != 'm' {
				j++
			}
			if j < len(text) {
				j++
			}
			result.WriteString(text[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(text[i:])
		if r != utf8.RuneError {
			charWidth := runewidth.RuneWidth(r)
			if displayWidth+charWidth > targetWidth {
				break
			}
			result.WriteRune(r)
			displayWidth += charWidth
		}
		i += size
	}

	return result.String() + "..."
}
