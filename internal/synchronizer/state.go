package synchronizer

import (
	"github.com/MrSnakeDoc/brainsync/internal/domain"
)

// Source tells where the displayed collection came from.
type Source string

const (
	SourceListing Source = "listing"
	SourceSearch  Source = "search"
)

// Provenance describes the request that produced the displayed collection.
type Provenance struct {
	Source Source `json:"source"`
	Query  string `json:"query,omitempty"`
	// Total and ExecutionTime are only reported by search.
	Total         int     `json:"total,omitempty"`
	ExecutionTime float64 `json:"execution_time,omitempty"`
}

// State is a point-in-time copy of the synchronizer. Mutating it has no
// effect on the synchronizer.
type State struct {
	Bookmarks []domain.Bookmark `json:"bookmarks"`
	// Stats is nil until the first successful stats refresh.
	Stats      *domain.ProcessingStats `json:"stats"`
	Loading    bool                    `json:"loading"`
	Error      string                  `json:"error,omitempty"`
	Filters    domain.Filters          `json:"filters"`
	Provenance Provenance              `json:"provenance"`
	// Scores holds the similarity of displayed search results by bookmark
	// id. Empty for a listing.
	Scores map[int64]float64 `json:"scores,omitempty"`
}

// Snapshot returns a copy of the current state.
func (s *Synchronizer) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Bookmarks:  domain.CloneBookmarks(s.bookmarks),
		Loading:    s.inflight > 0,
		Error:      s.lastErr,
		Filters:    s.filters.Clone(),
		Provenance: s.provenance,
	}
	if s.stats != nil {
		stats := *s.stats
		st.Stats = &stats
	}
	if len(s.scores) > 0 {
		st.Scores = make(map[int64]float64, len(s.scores))
		for id, v := range s.scores {
			st.Scores[id] = v
		}
	}
	return st
}

// Filters returns the active listing filters.
func (s *Synchronizer) Filters() domain.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}

// Settled reports whether at least one collection request has completed,
// successfully or not.
func (s *Synchronizer) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled
}

// Subscribe returns a channel that receives a value after every state
// change. Sends never block: a slow subscriber sees one pending signal for
// any number of changes. The channel is closed by unsubscribe or Close.
func (s *Synchronizer) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan struct{}, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}
}

// notifyLocked signals every subscriber. Callers hold s.mu.
func (s *Synchronizer) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
