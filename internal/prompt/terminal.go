package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Terminal is the interactive Prompter backed by the controlling terminal.
type Terminal struct {
	in     *os.File
	out    io.Writer
	reader *bufio.Reader

	isTerminal   func(fd uintptr) bool
	readPassword func(fd int) ([]byte, error)
}

// NewTerminal returns a Terminal reading from stdin and writing to stderr.
func NewTerminal() *Terminal {
	return newTerminal(os.Stdin, os.Stderr)
}

func newTerminal(in *os.File, out io.Writer) *Terminal {
	return &Terminal{
		in:           in,
		out:          out,
		reader:       bufio.NewReader(in),
		isTerminal:   func(fd uintptr) bool { return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) },
		readPassword: term.ReadPassword,
	}
}

func (t *Terminal) interactive() error {
	if t.isTerminal(t.in.Fd()) {
		return nil
	}
	return ErrNotInteractive
}

func (t *Terminal) Select(ctx context.Context, message string, items []string) (int, error) {
	if err := t.interactive(); err != nil {
		return 0, err
	}
	idx, err := fuzzyfinder.Find(items,
		func(i int) string { return items[i] },
		fuzzyfinder.WithHeader(message),
		fuzzyfinder.WithContext(ctx),
	)
	if err != nil {
		return 0, finderError(err)
	}
	return idx, nil
}

func (t *Terminal) MultiSelect(ctx context.Context, message string, items []string) ([]int, error) {
	if err := t.interactive(); err != nil {
		return nil, err
	}
	idxs, err := fuzzyfinder.FindMulti(items,
		func(i int) string { return items[i] },
		fuzzyfinder.WithHeader(message+" (Tab to mark, Enter to confirm)"),
		fuzzyfinder.WithContext(ctx),
	)
	if err != nil {
		return nil, finderError(err)
	}
	return idxs, nil
}

func (t *Terminal) Toggle(ctx context.Context, message string, initial bool, active, inactive string) (bool, error) {
	if err := t.interactive(); err != nil {
		return false, err
	}
	// the first item is preselected
	options := []string{inactive, active}
	if initial {
		options = []string{active, inactive}
	}
	idx, err := fuzzyfinder.Find(options,
		func(i int) string { return options[i] },
		fuzzyfinder.WithHeader(message),
		fuzzyfinder.WithContext(ctx),
	)
	if err != nil {
		return false, finderError(err)
	}
	return options[idx] == active, nil
}

func (t *Terminal) Input(ctx context.Context, message, initial string) (string, error) {
	if err := t.interactive(); err != nil {
		return "", err
	}
	if initial != "" {
		fmt.Fprintf(t.out, "%s (%s): ", message, initial)
	} else {
		fmt.Fprintf(t.out, "%s: ", message)
	}

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := t.reader.ReadString('\n')
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(t.out)
		return "", ErrCancelled
	case r := <-ch:
		if r.err != nil {
			// EOF means Ctrl-D
			fmt.Fprintln(t.out)
			if errors.Is(r.err, io.EOF) {
				return "", ErrCancelled
			}
			return "", fmt.Errorf("read input: %w", r.err)
		}
		answer := strings.TrimSpace(r.line)
		if answer == "" {
			return initial, nil
		}
		return answer, nil
	}
}

func (t *Terminal) Password(ctx context.Context, message string) (string, error) {
	if err := t.interactive(); err != nil {
		return "", err
	}
	fd := int(t.in.Fd())
	// echo stays off if ReadPassword is abandoned mid-read
	restore := func() {}
	if state, err := term.GetState(fd); err == nil {
		restore = func() { _ = term.Restore(fd, state) }
	}
	fmt.Fprintf(t.out, "%s: ", message)

	type result struct {
		secret []byte
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		secret, err := t.readPassword(fd)
		ch <- result{secret: secret, err: err}
	}()

	select {
	case <-ctx.Done():
		restore()
		fmt.Fprintln(t.out)
		return "", ErrCancelled
	case r := <-ch:
		fmt.Fprintln(t.out)
		if r.err != nil {
			if errors.Is(r.err, io.EOF) {
				return "", ErrCancelled
			}
			return "", fmt.Errorf("read password: %w", r.err)
		}
		return string(r.secret), nil
	}
}

func finderError(err error) error {
	if errors.Is(err, fuzzyfinder.ErrAbort) || errors.Is(err, context.Canceled) {
		return ErrCancelled
	}
	return fmt.Errorf("prompt: %w", err)
}
