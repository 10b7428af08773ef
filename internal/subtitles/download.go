package subtitles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ErrEmptyBody is returned when the server answers 200 without content.
var ErrEmptyBody = errors.New("download failed: empty response body")

// DownloadError is returned for any non-200 response.
type DownloadError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed: %s", e.Status)
}

// ConfirmProvider decides what to do when the output file already exists.
// It returns the name to write to; returning current means overwrite.
type ConfirmProvider interface {
	ConfirmRename(ctx context.Context, current string) (string, error)
}

// Downloader fetches subtitle files into a directory.
type Downloader struct {
	Client  *http.Client
	Confirm ConfirmProvider
	Log     logrus.FieldLogger
}

// Download saves sub into dir as filename (sub.Filename when empty) and
// returns the written path. Names without an extension get ".srt".
func (d *Downloader) Download(ctx context.Context, sub Subtitle, dir, filename string) (string, error) {
	if filename == "" {
		filename = sub.Filename
	}
	name := NormalizeFilename(sanitizeFilename(filename))
	if name == DefaultExtension {
		name = NormalizeFilename(sanitizeFilename(sub.Langcode))
	}

	url := sub.DownloadURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := d.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &DownloadError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return "", ErrEmptyBody
	}

	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		renamed, err := d.Confirm.ConfirmRename(ctx, name)
		if err != nil {
			return "", err
		}
		if renamed = sanitizeFilename(renamed); renamed != "" {
			name = NormalizeFilename(renamed)
		}
		path = filepath.Join(dir, name)
	}

	d.logger().Infof("Saving to %s", path)
	if err := writeFile(path, resp.Body); err != nil {
		return "", err
	}
	return path, nil
}

func writeFile(path string, body io.Reader) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	if _, err := io.Copy(out, body); err != nil {
		return fmt.Errorf("failed to copy data to file: %w", err)
	}
	return nil
}

func (d *Downloader) client() *http.Client {
	if d.Client == nil {
		return http.DefaultClient
	}
	return d.Client
}

func (d *Downloader) logger() logrus.FieldLogger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}
