package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/sirupsen/logrus"

	"github.com/TurriJP/ossub-downloader/internal/subtitles"
)

// errBatchFailed is returned when at least one selected subtitle could not be
// downloaded. The summary table has already been printed by then.
var errBatchFailed = errors.New("some subtitles failed to download")

type downloader interface {
	Download(ctx context.Context, sub subtitles.Subtitle, dir, filename string) (string, error)
}

type synchronizer interface {
	Sync(ctx context.Context, videoPath, subtitlePath string) error
}

type itemResult struct {
	Subtitle subtitles.Subtitle
	Path     string
	Err      error
}

// batch downloads the selected subtitles one after the other. A failed item
// does not stop the rest, except for cancellation which ends the run.
type batch struct {
	Download downloader
	// Sync is nil unless resynchronization was requested.
	Sync synchronizer
	Log  logrus.FieldLogger
}

func (b *batch) run(ctx context.Context, wc WorkContext, chosen []subtitles.Subtitle, output string) ([]itemResult, error) {
	if output != "" && len(chosen) > 1 {
		b.Log.WithField("output", output).Warn("ignoring output name for multiple selections")
		output = ""
	}

	results := make([]itemResult, 0, len(chosen))
	for i, sub := range chosen {
		path, err := b.Download.Download(ctx, sub, wc.WorkingDir, output)
		if err != nil {
			if isCancellation(err) {
				return results, err
			}
			b.Log.WithError(err).WithField("item", i+1).Warn("download failed")
			results = append(results, itemResult{Subtitle: sub, Err: err})
			continue
		}

		if b.Sync != nil {
			if err := b.Sync.Sync(ctx, wc.Filename, path); err != nil {
				b.Log.WithError(err).WithField("subtitle", path).Debug("sync failed")
			}
		}
		results = append(results, itemResult{Subtitle: sub, Path: path})
	}
	return results, nil
}

func failed(results []itemResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func renderSummary(results []itemResult) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Subtitle", "Status", "Saved as / Error"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	for i, r := range results {
		status, detail := "ok", filepath.Base(r.Path)
		if r.Err != nil {
			status, detail = "failed", r.Err.Error()
		}
		tw.AppendRow(table.Row{i + 1, fmt.Sprintf("[%s] %s", r.Subtitle.Langcode, r.Subtitle.Filename), status, detail})
	}
	return tw.Render()
}
