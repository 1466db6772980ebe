// Package log provides centralized logging for redirect-check.
//
// Developer diagnostics go through slog to stderr. User-facing output
// (results, summaries, hints) goes to a swappable writer, stdout by default,
// and is suppressed while the interactive TUI is running.
package log

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// OutputMode determines how user-facing output is rendered
type OutputMode int

const (
	// ModeHeadless writes user output to the configured writer.
	ModeHeadless OutputMode = iota
	// ModeTUI indicates a bubbletea program owns the screen.
	ModeTUI
)

var (
	mode  atomic.Int32
	outMu sync.Mutex
	out   io.Writer = os.Stdout
)

// Setup configures slog for the process (call once at startup).
func Setup(debug bool, m OutputMode) {
	SetMode(m)

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := NewHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// SetMode changes the output mode
func SetMode(m OutputMode) {
	mode.Store(int32(m))
}

// GetMode returns the current output mode
func GetMode() OutputMode {
	return OutputMode(mode.Load())
}

// SetOutput redirects user-facing output and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	prev := out
	out = w
	return prev
}

// Output returns the current user-facing writer.
func Output() io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	return out
}

// --- Developer Logging (wraps slog) ---

// Debug logs a debug-level message
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Info logs an info-level message
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a warning-level message
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs an error-level message
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// --- User-Facing Output (styled, mode-aware) ---

// UserError prints a styled error message to the user
func UserError(msg string) {
	Println(renderError(msg))
}

// UserWarn prints a styled warning message to the user
func UserWarn(msg string) {
	Println(renderWarning(msg))
}

// UserSuccess prints a styled success message to the user
func UserSuccess(msg string) {
	Println(renderSuccess(msg))
}

// UserInfo prints an informational message to the user
func UserInfo(msg string) {
	Println(msg)
}

// UserProgress prints a progress/dim message to the user
func UserProgress(msg string) {
	Println(renderDim(msg))
}

// Print prints a message without styling or newline
func Print(msg string) {
	if GetMode() != ModeHeadless {
		return
	}
	outMu.Lock()
	defer outMu.Unlock()
	_, _ = io.WriteString(out, msg)
}

// Println prints a message with newline but no styling
func Println(msg string) {
	Print(msg + "\n")
}

// Stderrln prints a message to stderr with newline
func Stderrln(msg string) {
	if GetMode() == ModeHeadless {
		_, _ = io.WriteString(os.Stderr, msg+"\n")
	}
}
