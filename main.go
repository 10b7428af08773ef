package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/TurriJP/ossub-downloader/internal/prompt"
	"github.com/TurriJP/ossub-downloader/internal/subtitles"
	"github.com/TurriJP/ossub-downloader/internal/video"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	releaseOnCancel(ctx, stop)
	code := execute(ctx, newApp(), os.Args[1:])
	stop()
	os.Exit(code)
}

// releaseOnCancel restores default signal handling once ctx is done, so a
// second Ctrl-C kills a run that is stuck cleaning up.
func releaseOnCancel(ctx context.Context, stop context.CancelFunc) {
	go func() {
		<-ctx.Done()
		stop()
	}()
}

func execute(ctx context.Context, a *app, args []string) int {
	cmd := newRootCommand(a)
	// cobra falls back to os.Args on nil
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	return exitCode(cmd.ExecuteContext(ctx), a.stdout, a.stderr)
}

func isCancellation(err error) bool {
	return errors.Is(err, prompt.ErrCancelled) || errors.Is(err, context.Canceled)
}

// exitCode reports err to the user and maps it to the process exit status.
func exitCode(err error, stdout, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	var notFound *video.NotFoundError
	switch {
	case isCancellation(err):
		fmt.Fprintln(stderr, "Cancelled")
	case errors.As(err, &notFound):
		fmt.Fprintf(stdout, "No video files found in directory %s\n", notFound.Dir)
	case errors.Is(err, subtitles.ErrNoSubtitles):
		fmt.Fprintln(stdout, "No subtitles found")
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}
