package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extensions lists the file extensions recognised as video files.
var Extensions = []string{".mp4", ".mkv", ".avi", ".mov"}

// ErrNoVideoFiles is matched by NotFoundError.
var ErrNoVideoFiles = errors.New("no video files found")

// NotFoundError reports a directory without any recognised video file.
type NotFoundError struct {
	Dir string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no video files found in directory %s", e.Dir)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNoVideoFiles
}

// Selector picks one entry from a list.
type Selector interface {
	Select(ctx context.Context, message string, items []string) (int, error)
}

// Locator finds the video file a run operates on.
type Locator struct {
	Prompt Selector
}

// Locate returns the path of the single video file in dir, or asks the user
// to choose when there are several.
func (l *Locator) Locate(ctx context.Context, dir string) (string, error) {
	names, err := FindVideos(dir)
	if err != nil {
		return "", err
	}

	switch len(names) {
	case 0:
		return "", &NotFoundError{Dir: dir}
	case 1:
		return filepath.Join(dir, names[0]), nil
	}

	idx, err := l.Prompt.Select(ctx, "Select video file to download subtitles for", names)
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(names) {
		return "", fmt.Errorf("video selection out of range: %d", idx)
	}
	return filepath.Join(dir, names[idx]), nil
}

// FindVideos lists the names of regular files in dir (following symlinks)
// with a video extension, sorted by name.
func FindVideos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !HasVideoExtension(entry.Name()) {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// HasVideoExtension reports whether name ends in one of Extensions.
func HasVideoExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range Extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
