// Package ui implements the operator channel: an append-only progress sink
// for structured status output and a blocking prompter for collecting
// secrets. The two concerns are deliberately separate interfaces — the
// orchestrator writes progress to one and requests input from the other,
// never through a shared polymorphic stream.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Sink is an append-only progress channel. Implementations must be safe for
// sequential use from a single orchestrator; no mutual exclusion is provided.
type Sink interface {
	Info(msg string)
	Success(msg string)
	Warn(msg string)
	Error(msg string)

	// Step marks the start of a named pipeline step.
	Step(name string)
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#eab308"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	stepStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3b82f6"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
)

// ConsoleSink writes progress lines to a writer, styled when the writer is
// an interactive terminal and plain otherwise.
type ConsoleSink struct {
	w      io.Writer
	styled bool
}

// NewConsoleSink returns a sink writing to stdout, with styling decided by
// TTY detection.
func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{
		w:      os.Stdout,
		styled: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}
}

// NewPlainSink returns an unstyled sink writing to w. Used by tests and
// non-interactive invocations.
func NewPlainSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Info(msg string) {
	fmt.Fprintf(s.w, "  %s\n", msg)
}

func (s *ConsoleSink) Success(msg string) {
	s.line("[OK]", successStyle, msg)
}

func (s *ConsoleSink) Warn(msg string) {
	s.line("[??]", warnStyle, msg)
}

func (s *ConsoleSink) Error(msg string) {
	s.line("[!!]", errorStyle, msg)
}

func (s *ConsoleSink) Step(name string) {
	if s.styled {
		fmt.Fprintf(s.w, "\n%s\n%s\n", stepStyle.Render(name), dimStyle.Render(strings.Repeat("─", len(name))))
		return
	}
	fmt.Fprintf(s.w, "\n%s\n%s\n", name, strings.Repeat("-", len(name)))
}

func (s *ConsoleSink) line(mark string, style lipgloss.Style, msg string) {
	if s.styled {
		fmt.Fprintf(s.w, "  %s %s\n", style.Render(mark), msg)
		return
	}
	fmt.Fprintf(s.w, "  %s %s\n", mark, msg)
}
