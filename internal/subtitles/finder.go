package subtitles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/TurriJP/ossub-downloader/internal/creds"
)

// ErrNoSubtitles reports an empty search result.
var ErrNoSubtitles = errors.New("no subtitles found")

// CredentialSource supplies the account used for searching.
type CredentialSource interface {
	Load(ctx context.Context) (creds.Credentials, error)
}

// ClientFactory builds a Searcher logged in with the given credentials.
type ClientFactory func(ctx context.Context, c creds.Credentials) (Searcher, error)

// FindRequest selects the video and how it is matched. UseName searches by
// file name instead of the file fingerprint.
type FindRequest struct {
	VideoPath string
	Language  string
	UseName   bool
}

// Finder runs one search for a video file.
type Finder struct {
	Credentials CredentialSource
	NewClient   ClientFactory
	Log         logrus.FieldLogger
}

// Find returns every candidate subtitle for the video in the order the
// service returned them.
func (f *Finder) Find(ctx context.Context, req FindRequest) ([]Subtitle, error) {
	account, err := f.Credentials.Load(ctx)
	if err != nil {
		return nil, err
	}

	client, err := f.NewClient(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("create subtitle client: %w", err)
	}
	if closer, ok := client.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				f.logger().WithError(err).Debug("close subtitle client")
			}
		}()
	}

	method := "file hash"
	search := SearchRequest{Language: req.Language, Path: req.VideoPath}
	if req.UseName {
		method = "file name"
		search = SearchRequest{Language: req.Language, Query: filepath.Base(req.VideoPath)}
	}
	f.logger().Infof("Searching for subtitles for %s (using %s)", req.VideoPath, method)

	results, err := client.Search(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("search subtitles: %w", err)
	}
	return results.Flatten(), nil
}

func (f *Finder) logger() logrus.FieldLogger {
	if f.Log == nil {
		return logrus.StandardLogger()
	}
	return f.Log
}
