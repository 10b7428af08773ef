// Package prompt provides the blocking, cancellable user interaction used by
// the downloader: list selection, free text, hidden passwords and yes/no
// toggles.
package prompt

import (
	"context"
	"errors"
)

var (
	// ErrCancelled is returned when the user aborts a prompt (Esc, Ctrl-C,
	// Ctrl-D) or the surrounding context is cancelled.
	ErrCancelled = errors.New("prompt cancelled")
	// ErrNotInteractive is returned when a prompt is needed but stdin is not
	// a terminal.
	ErrNotInteractive = errors.New("prompt: stdin is not a terminal")
)

// Prompter asks the user questions. Implementations block until the user
// answers or the context is done.
type Prompter interface {
	// Select returns the index of the chosen item.
	Select(ctx context.Context, message string, items []string) (int, error)
	// MultiSelect returns the chosen indices in the order they were picked.
	MultiSelect(ctx context.Context, message string, items []string) ([]int, error)
	// Input reads a line of text. An empty answer yields initial.
	Input(ctx context.Context, message, initial string) (string, error)
	// Password reads a line of text without echoing it.
	Password(ctx context.Context, message string) (string, error)
	// Toggle asks a two-way question labelled active (true) / inactive (false).
	Toggle(ctx context.Context, message string, initial bool, active, inactive string) (bool, error)
}

// RenameConfirmer asks for a replacement name when a subtitle file already
// exists. Returning the same name means overwrite.
type RenameConfirmer struct {
	Prompt Prompter
}

func (r RenameConfirmer) ConfirmRename(ctx context.Context, current string) (string, error) {
	return r.Prompt.Input(ctx, "Output file already exists, enter new name (or confirm to overwrite)", current)
}
