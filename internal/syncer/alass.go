package syncer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// DefaultCommand is the alass binary looked up on PATH.
const DefaultCommand = "alass"

// ErrCommandNotFound is returned when the sync command is not installed.
var ErrCommandNotFound = errors.New("subtitle sync command not found")

// Alass aligns a subtitle file to a video by running an external command as
// `<command> <video> <subtitle> <subtitle>`, rewriting the subtitle in place.
// Stderr is handed to the command as is; when nil it is captured and quoted
// in the returned error instead.
type Alass struct {
	Command string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// New returns an Alass runner for command, or DefaultCommand when empty,
// that shares the standard streams of this process.
func New(command string) *Alass {
	command = strings.TrimSpace(command)
	if command == "" {
		command = DefaultCommand
	}
	return &Alass{Command: command, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Sync runs the command and waits for it to finish.
func (a *Alass) Sync(ctx context.Context, videoPath, subtitlePath string) error {
	bin, err := exec.LookPath(a.Command)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCommandNotFound, a.Command)
	}

	cmd := exec.CommandContext(ctx, bin, videoPath, subtitlePath, subtitlePath)
	var stderr bytes.Buffer
	cmd.Stdin = a.Stdin
	cmd.Stdout = a.Stdout
	cmd.Stderr = a.Stderr
	if a.Stderr == nil {
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("sync subtitle %s: %w: %s", subtitlePath, err, msg)
		}
		return fmt.Errorf("sync subtitle %s: %w", subtitlePath, err)
	}
	return nil
}
