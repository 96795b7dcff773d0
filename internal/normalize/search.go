package normalize

import "github.com/MrSnakeDoc/brainsync/internal/domain"

// ScoreUnknown is the similarity of a result that arrived without a score.
const ScoreUnknown = -1.0

// EntryShape tags how one search result entry was encoded.
type EntryShape int

const (
	// EntryBare is a bookmark payload placed directly in results.
	EntryBare EntryShape = iota
	// EntryRanked is {"bookmark": {...}, "similarity_score": x}.
	EntryRanked
)

// SearchResponse is the normalized result of a search call.
type SearchResponse struct {
	Query string `json:"query"`
	// Results keeps the service ranking. It is never re-sorted.
	Results []domain.Bookmark `json:"results"`
	// Scores is parallel to Results. ScoreUnknown marks bare entries.
	Scores        []float64 `json:"scores"`
	Total         int       `json:"total"`
	ExecutionTime float64   `json:"execution_time"`
}

// ClassifyEntry reports whether a result entry wraps its bookmark.
func ClassifyEntry(v any) EntryShape {
	obj, ok := asObject(v)
	if !ok {
		return EntryBare
	}
	if _, ok := obj["bookmark"].(map[string]any); ok {
		return EntryRanked
	}
	return EntryBare
}

// SearchResults maps a search payload, {"query", "results", ...} or a bare
// results array. Ranked and bare entries may be mixed; each contributes
// exactly one bookmark in input order.
func SearchResults(v any) SearchResponse {
	obj, _ := asObject(v)
	if obj == nil {
		obj = map[string]any{}
	}

	items := listItems(v, "results")
	resp := SearchResponse{
		Query:   stringField(obj, "query"),
		Results: make([]domain.Bookmark, 0, len(items)),
		Scores:  make([]float64, 0, len(items)),
		Total:   countField(obj, "total"),
	}
	if raw, ok := firstPresent(obj, "execution_time"); ok {
		if f, ok := toFloat(raw); ok && f >= 0 {
			resp.ExecutionTime = f
		}
	}

	for _, it := range items {
		entry, ok := asObject(it)
		if !ok {
			continue
		}
		switch ClassifyEntry(entry) {
		case EntryRanked:
			resp.Results = append(resp.Results, Bookmark(entry["bookmark"]))
			score := ScoreUnknown
			if raw, ok := firstPresent(entry, "similarity_score"); ok {
				if f, ok := toFloat(raw); ok {
					score = f
				}
			}
			resp.Scores = append(resp.Scores, score)
		default:
			resp.Results = append(resp.Results, Bookmark(entry))
			resp.Scores = append(resp.Scores, ScoreUnknown)
		}
	}
	return resp
}
