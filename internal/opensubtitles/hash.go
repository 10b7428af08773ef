package opensubtitles

import (
	"fmt"
	"os"

	"github.com/opensubtitlescli/moviehash"
)

// Fingerprint identifies a video file the way the search API expects.
type Fingerprint struct {
	Hash string
	Size int64
}

// ComputeFingerprint hashes the file at path with the OpenSubtitles movie hash.
func ComputeFingerprint(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("opensubtitles: open video: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Fingerprint{}, fmt.Errorf("opensubtitles: stat video: %w", err)
	}
	hash, err := moviehash.Sum(f)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("opensubtitles: hash video: %w", err)
	}
	return Fingerprint{Hash: hash, Size: info.Size()}, nil
}
