package subtitles

import "context"

// SearchRequest is a single query against the subtitle database. Exactly one
// of Path (fingerprint search) and Query (free text) is set. Limit 0 asks
// for every result the service is willing to return.
type SearchRequest struct {
	Language string
	Path     string
	Query    string
	Limit    int
}

// Group is one bucket of the service's grouped response, in service order.
type Group struct {
	Key       string
	Subtitles []Subtitle
}

// Results is the grouped response of a search.
type Results struct {
	Groups []Group
}

// Flatten concatenates every group in order. Nothing is sorted, filtered or
// deduplicated.
func (r Results) Flatten() []Subtitle {
	var out []Subtitle
	for _, g := range r.Groups {
		out = append(out, g.Subtitles...)
	}
	return out
}

// Searcher is the remote subtitle database.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (Results, error)
}
