package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/huh"
)

// Prompter issues blocking prompts and reads back operator-entered strings.
// One request is pending at a time.
type Prompter interface {
	// Secret asks for a sensitive value. The returned string is not
	// trimmed; callers decide whether whitespace-only input means
	// cancellation.
	Secret(ctx context.Context, title, description string) (string, error)

	// Input asks for a plain value with optional validation.
	Input(ctx context.Context, title, description, placeholder string, validate func(string) error) (string, error)

	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, title string) (bool, error)
}

// FormPrompter collects input through huh forms on the terminal.
type FormPrompter struct{}

// NewFormPrompter returns a terminal-backed prompter.
func NewFormPrompter() *FormPrompter {
	return &FormPrompter{}
}

func (p *FormPrompter) Secret(ctx context.Context, title, description string) (string, error) {
	var value string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description(description).
				EchoMode(huh.EchoModePassword).
				Value(&value),
		),
	).RunWithContext(ctx)
	if err != nil {
		return "", err
	}
	return value, nil
}

func (p *FormPrompter) Input(ctx context.Context, title, description, placeholder string, validate func(string) error) (string, error) {
	var value string
	input := huh.NewInput().
		Title(title).
		Description(description).
		Placeholder(placeholder).
		Value(&value)
	if validate != nil {
		input = input.Validate(validate)
	}
	err := huh.NewForm(huh.NewGroup(input)).RunWithContext(ctx)
	if err != nil {
		return "", err
	}
	return value, nil
}

func (p *FormPrompter) Confirm(ctx context.Context, title string) (bool, error) {
	var value bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title(title).Value(&value),
		),
	).RunWithContext(ctx)
	if err != nil {
		return false, err
	}
	return value, nil
}

// IsBlank reports whether an operator answer is empty or whitespace-only.
// Blank answers to required secret prompts cancel the requesting phase.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
