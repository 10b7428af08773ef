package opensubtitles

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/TurriJP/ossub-downloader/internal/subtitles"
)

// searchRecord is one entry of the SearchSubtitles data array. Counters come
// back as strings, so decoding is weakly typed.
type searchRecord struct {
	SubFileName     string   `mapstructure:"SubFileName"`
	SubLanguageID   string   `mapstructure:"SubLanguageID"`
	ISO639          string   `mapstructure:"ISO639"`
	SubDownloadsCnt int      `mapstructure:"SubDownloadsCnt"`
	SubDownloadLink string   `mapstructure:"SubDownloadLink"`
	SubFormat       string   `mapstructure:"SubFormat"`
	Score           *float64 `mapstructure:"Score"`
}

func decodeRecord(raw map[string]interface{}) (searchRecord, error) {
	var rec searchRecord
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &rec,
	})
	if err != nil {
		return rec, err
	}
	if err := decoder.Decode(raw); err != nil {
		return rec, fmt.Errorf("opensubtitles: decode search record: %w", err)
	}
	return rec, nil
}

func (r searchRecord) subtitle() subtitles.Subtitle {
	langcode := r.ISO639
	if langcode == "" {
		langcode = r.SubLanguageID
	}
	url, utf8 := contentLinks(r.SubDownloadLink, r.SubFormat)
	return subtitles.Subtitle{
		Langcode:  langcode,
		Filename:  r.SubFileName,
		Downloads: r.SubDownloadsCnt,
		URL:       url,
		UTF8:      utf8,
		Score:     r.Score,
	}
}

// contentLinks turns the gzip download link into a plain one and derives the
// UTF-8 re-encoded variant the site serves next to it.
func contentLinks(link, format string) (raw, utf8 string) {
	if format == "" {
		format = strings.TrimPrefix(subtitles.DefaultExtension, ".")
	}
	raw = link
	if strings.HasSuffix(link, ".gz") {
		raw = strings.TrimSuffix(link, ".gz") + "." + format
	}
	if strings.Contains(raw, "download/") {
		utf8 = strings.Replace(raw, "download/", "download/subencoding-utf8/", 1)
	}
	return raw, utf8
}

// groupRecords groups the data field by language in first-seen order. The
// API sends false instead of an empty array when nothing matched.
func groupRecords(data interface{}) (subtitles.Results, error) {
	items, ok := data.([]interface{})
	if !ok {
		return subtitles.Results{}, nil
	}

	var results subtitles.Results
	index := make(map[string]int)
	for _, item := range items {
		raw, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return subtitles.Results{}, err
		}
		sub := rec.subtitle()
		pos, seen := index[sub.Langcode]
		if !seen {
			pos = len(results.Groups)
			index[sub.Langcode] = pos
			results.Groups = append(results.Groups, subtitles.Group{Key: sub.Langcode})
		}
		results.Groups[pos].Subtitles = append(results.Groups[pos].Subtitles, sub)
	}
	return results, nil
}
