package synchronizer

import (
	"context"
	"strings"

	"github.com/MrSnakeDoc/brainsync/internal/domain"
	"github.com/MrSnakeDoc/brainsync/internal/logger"
	"github.com/MrSnakeDoc/brainsync/internal/normalize"
)

// Search replaces the displayed collection with ranked results for query,
// in the order the service returned them. Listing filters are not applied
// and the processing counters are left alone. A blank query falls back to
// Load with the current filters.
func (s *Synchronizer) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.Load(ctx)
	}

	req, err := s.begin(ctx)
	if err != nil {
		return err
	}
	return s.runSearch(req, query)
}

func (s *Synchronizer) runSearch(req request, query string) error {
	resp, err := s.remote.Search(req.ctx, query, s.searchLimit)
	if err != nil {
		if !s.settle(req, func() { s.lastErr = err.Error() }) {
			return ErrSuperseded
		}
		s.logger.Warn("search failed", logger.String("query", query), logger.Error(err))
		return err
	}

	committed := s.settle(req, func() {
		s.bookmarks = s.replayLocked(domain.CloneBookmarks(resp.Results), req.mutSeq, SourceSearch)
		s.scores = scoresOf(resp)
		s.lastErr = ""
		s.provenance = Provenance{
			Source:        SourceSearch,
			Query:         query,
			Total:         resp.Total,
			ExecutionTime: resp.ExecutionTime,
		}
	})
	if !committed {
		s.logger.Debug("discarded superseded search", logger.String("query", query))
		return ErrSuperseded
	}

	s.logger.Debug("search committed",
		logger.String("query", query),
		logger.Int("results", len(resp.Results)))
	return nil
}

// scoresOf indexes the known similarity scores by bookmark id.
func scoresOf(resp normalize.SearchResponse) map[int64]float64 {
	scores := make(map[int64]float64, len(resp.Scores))
	for i, b := range resp.Results {
		if i >= len(resp.Scores) || !b.HasID() || resp.Scores[i] == normalize.ScoreUnknown {
			continue
		}
		scores[b.IDValue()] = resp.Scores[i]
	}
	return scores
}

// ClearSearch returns to the filtered listing if a search is displayed.
func (s *Synchronizer) ClearSearch(ctx context.Context) error {
	s.mu.Lock()
	searching := s.provenance.Source == SourceSearch
	s.mu.Unlock()
	if !searching {
		return nil
	}
	return s.Load(ctx)
}
