package subtitles

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// DefaultExtension is appended to output names that have none.
const DefaultExtension = ".srt"

// Subtitle is one candidate returned by a search. UTF8 is an optional link
// to the same file re-encoded as UTF-8 and is preferred over URL when set.
type Subtitle struct {
	Langcode  string
	Filename  string
	Downloads int
	URL       string
	UTF8      string
	Score     *float64
}

// DownloadURL returns the link the content should be fetched from.
func (s Subtitle) DownloadURL() string {
	if s.UTF8 != "" {
		return s.UTF8
	}
	return s.URL
}

// ChoiceLabel renders s as a single selection line.
func ChoiceLabel(s Subtitle) string {
	score := "?"
	if s.Score != nil {
		score = strconv.FormatFloat(*s.Score, 'g', -1, 64)
	}
	return fmt.Sprintf("[%s] %s ⇩%d ⭐%s", s.Langcode, s.Filename, s.Downloads, score)
}

// NormalizeFilename appends DefaultExtension when name contains no dot.
func NormalizeFilename(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return name + DefaultExtension
}

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

// sanitizeFilename reduces name to a single path element safe to create in
// the working directory.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(filepath.Base(filepath.Clean(name)))
	switch name {
	case ".", "..", string(filepath.Separator):
		return ""
	}
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}
