package syncer

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsCommand(t *testing.T) {
	assert.Equal(t, DefaultCommand, New("  ").Command)
	assert.Equal(t, "/opt/alass/alass-cli", New("/opt/alass/alass-cli").Command)
}

func TestSyncPassesVideoAndSubtitleTwice(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	var out bytes.Buffer
	a := &Alass{Command: "echo", Stdout: &out}

	require.NoError(t, a.Sync(context.Background(), "movie.mkv", "eng.srt"))
	assert.Equal(t, "movie.mkv eng.srt eng.srt\n", out.String())
}

func TestSyncMissingCommand(t *testing.T) {
	a := New("definitely-not-an-installed-alass-binary")

	err := a.Sync(context.Background(), "movie.mkv", "eng.srt")
	assert.ErrorIs(t, err, ErrCommandNotFound)
}

func TestSyncReportsFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}

	err := (&Alass{Command: "false"}).Sync(context.Background(), "movie.mkv", "eng.srt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync subtitle eng.srt")
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "fake-alass")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestNewSharesProcessStreams(t *testing.T) {
	a := New("")
	assert.Equal(t, os.Stdin, a.Stdin)
	assert.Equal(t, os.Stdout, a.Stdout)
	assert.Equal(t, os.Stderr, a.Stderr)
}

func TestSyncForwardsStdin(t *testing.T) {
	script := writeScript(t, "cat > \"$3\"\n")
	sub := filepath.Join(t.TempDir(), "eng.srt")
	a := &Alass{Command: script, Stdin: strings.NewReader("y\n")}

	require.NoError(t, a.Sync(context.Background(), "movie.mkv", sub))

	got, err := os.ReadFile(sub)
	require.NoError(t, err)
	assert.Equal(t, "y\n", string(got))
}

func TestSyncWritesStderrToSuppliedWriter(t *testing.T) {
	script := writeScript(t, "echo 'progress 50%' >&2\n")
	var stderr bytes.Buffer
	a := &Alass{Command: script, Stderr: &stderr}

	require.NoError(t, a.Sync(context.Background(), "movie.mkv", "eng.srt"))
	assert.Equal(t, "progress 50%\n", stderr.String())
}

func TestSyncQuotesCapturedStderr(t *testing.T) {
	script := writeScript(t, "echo 'no audio track' >&2\nexit 3\n")

	err := (&Alass{Command: script}).Sync(context.Background(), "movie.mkv", "eng.srt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio track")
}
