package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/TurriJP/ossub-downloader/internal/video"
)

// WorkContext is the video a run operates on and the directory subtitles are
// written to.
type WorkContext struct {
	WorkingDir string
	Filename   string
}

// resolveWorkContext uses filename when given, otherwise asks locator for a
// video in the current directory.
func resolveWorkContext(ctx context.Context, filename string, getwd func() (string, error), locator *video.Locator) (WorkContext, error) {
	if filename != "" {
		return WorkContext{WorkingDir: filepath.Dir(filename), Filename: filename}, nil
	}

	cwd, err := getwd()
	if err != nil {
		return WorkContext{}, fmt.Errorf("get working directory: %w", err)
	}
	path, err := locator.Locate(ctx, cwd)
	if err != nil {
		return WorkContext{}, err
	}
	return WorkContext{WorkingDir: filepath.Dir(path), Filename: path}, nil
}
