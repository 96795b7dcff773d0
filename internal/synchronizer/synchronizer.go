// Package synchronizer owns the in-memory bookmark collection and the
// processing counters, and keeps them consistent with the remote service.
//
// Network calls never run under the state lock. Collection requests (Load
// and Search) are ordered by a generation token: issuing a new one cancels
// the previous request and only the latest issued result is committed.
package synchronizer

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/brainsync/internal/domain"
	"github.com/MrSnakeDoc/brainsync/internal/logger"
	"github.com/MrSnakeDoc/brainsync/internal/normalize"
	"github.com/MrSnakeDoc/brainsync/internal/remote"
)

var (
	// ErrEmptyURL is returned by Add for a blank URL. No request is sent.
	ErrEmptyURL = errors.New("url is required")
	// ErrSuperseded is returned by a Load or Search whose result was
	// discarded because a newer collection request was issued meanwhile.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("synchronizer closed")
)

// Remote is the subset of the service client the synchronizer drives.
// *remote.Client implements it.
type Remote interface {
	List(ctx context.Context, filters domain.Filters) ([]domain.Bookmark, error)
	Add(ctx context.Context, rawURL string) (domain.Bookmark, error)
	Remove(ctx context.Context, id int64) error
	Stats(ctx context.Context) (domain.ProcessingStats, error)
	Search(ctx context.Context, query string, limit int) (normalize.SearchResponse, error)
}

var _ Remote = (*remote.Client)(nil)

// Options configures a Synchronizer.
type Options struct {
	// Filters are the initial listing filters.
	Filters domain.Filters
	// SearchLimit is forwarded with every search, 0 = remote default.
	SearchLimit int
}

// Synchronizer is safe for concurrent use.
type Synchronizer struct {
	remote      Remote
	logger      logger.Logger
	searchLimit int

	mu         sync.Mutex
	bookmarks  []domain.Bookmark
	stats      *domain.ProcessingStats
	inflight   int
	lastErr    string
	filters    domain.Filters
	provenance Provenance
	scores     map[int64]float64
	settled    bool
	closed     bool

	// mutations that succeeded while a collection request was in flight,
	// replayed onto its result when it commits.
	mutSeq    uint64
	mutations []mutation

	gen    uint64
	cancel context.CancelFunc

	statsGen uint64

	subs    map[int]chan struct{}
	nextSub int
}

// New builds a Synchronizer. Nothing is fetched until Load or Refetch.
func New(r Remote, opts Options, log logger.Logger) *Synchronizer {
	return &Synchronizer{
		remote:      r,
		logger:      log,
		searchLimit: opts.SearchLimit,
		bookmarks:   []domain.Bookmark{},
		filters:     opts.Filters.Clone(),
		provenance:  Provenance{Source: SourceListing},
		subs:        make(map[int]chan struct{}),
	}
}

// ─────────────────────────────────────────────────────────────────
// Collection
// ─────────────────────────────────────────────────────────────────

// Load lists bookmarks with the current filters. Success replaces the whole
// collection and clears the error; failure records the error and keeps the
// previous collection.
func (s *Synchronizer) Load(ctx context.Context) error {
	req, err := s.begin(ctx)
	if err != nil {
		return err
	}
	return s.runList(req)
}

func (s *Synchronizer) runList(req request) error {
	list, err := s.remote.List(req.ctx, req.filters)
	if err != nil {
		if !s.settle(req, func() { s.lastErr = err.Error() }) {
			return ErrSuperseded
		}
		s.logger.Warn("failed to load bookmarks", logger.Error(err))
		return err
	}

	committed := s.settle(req, func() {
		s.bookmarks = s.replayLocked(domain.CloneBookmarks(list), req.mutSeq, SourceListing)
		s.lastErr = ""
		s.provenance = Provenance{Source: SourceListing}
		s.scores = nil
	})
	if !committed {
		s.logger.Debug("discarded superseded listing", logger.Uint64("generation", req.token))
		return ErrSuperseded
	}

	s.logger.Debug("bookmarks loaded", logger.Int("count", len(list)))
	return nil
}

// LoadStats refreshes the processing counters. A failure is logged and
// leaves the previous counters in place; it never touches the error state.
func (s *Synchronizer) LoadStats(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.statsGen++
	token := s.statsGen
	s.mu.Unlock()

	stats, err := s.remote.Stats(ctx)
	if err != nil {
		s.logger.Warn("failed to load stats", logger.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.statsGen || s.closed {
		return nil
	}
	s.stats = &stats
	s.notifyLocked()
	return nil
}

// Refetch runs Load and LoadStats concurrently and returns once both have
// settled. A stats failure is only logged; the Load result is returned.
func (s *Synchronizer) Refetch(ctx context.Context) error {
	var (
		wg      sync.WaitGroup
		loadErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		loadErr = s.Load(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = s.LoadStats(ctx)
	}()
	wg.Wait()
	return loadErr
}

// SetFilters stores new listing filters and refetches. The refetch runs
// even when the filters did not change.
func (s *Synchronizer) SetFilters(ctx context.Context, f domain.Filters) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if !s.filters.Equal(f) {
		s.filters = f.Clone()
		s.notifyLocked()
		s.logger.Debug("filters updated",
			logger.String("status_filter", f.StatusFilter),
			logger.String("category", f.Category))
	}
	s.mu.Unlock()

	return s.Refetch(ctx)
}

// Poll is the background refresh. It re-runs whatever is displayed, the
// filtered listing or the active search, next to a stats refresh. When a
// collection request is already in flight only the counters are refreshed,
// so polling never supersedes a request issued by the view.
func (s *Synchronizer) Poll(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	busy := s.inflight > 0
	shown := s.provenance
	var req request
	if !busy {
		req = s.beginLocked(ctx)
	}
	s.mu.Unlock()

	if busy {
		s.logger.Debug("collection request in flight, polling stats only")
		_ = s.LoadStats(ctx)
		return nil
	}

	var (
		wg      sync.WaitGroup
		loadErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if shown.Source == SourceSearch {
			loadErr = s.runSearch(req, shown.Query)
			return
		}
		loadErr = s.runList(req)
	}()
	go func() {
		defer wg.Done()
		_ = s.LoadStats(ctx)
	}()
	wg.Wait()
	return loadErr
}

// ─────────────────────────────────────────────────────────────────
// Mutations
// ─────────────────────────────────────────────────────────────────

// Add submits a URL. On success the returned bookmark is prepended and the
// counters are refreshed once. On failure the collection is unchanged.
func (s *Synchronizer) Add(ctx context.Context, rawURL string) (domain.Bookmark, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return domain.Bookmark{}, ErrEmptyURL
	}
	if s.isClosed() {
		return domain.Bookmark{}, ErrClosed
	}

	b, err := s.remote.Add(ctx, rawURL)
	if err != nil {
		return domain.Bookmark{}, err
	}

	s.mu.Lock()
	next := make([]domain.Bookmark, 0, len(s.bookmarks)+1)
	next = append(next, b)
	s.bookmarks = append(next, s.bookmarks...)
	s.recordLocked(mutation{added: &b})
	s.notifyLocked()
	s.mu.Unlock()

	s.logger.Info("bookmark added",
		logger.String("url", rawURL),
		logger.Int64("id", b.IDValue()))

	_ = s.LoadStats(ctx)
	return b, nil
}

// Delete removes a bookmark. An id that is not in the local collection is a
// no-op and sends nothing. On failure the collection is unchanged.
func (s *Synchronizer) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	present := indexOf(s.bookmarks, id) >= 0
	s.mu.Unlock()
	if !present {
		return nil
	}

	if err := s.remote.Remove(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.bookmarks = withoutID(s.bookmarks, id)
	s.recordLocked(mutation{removed: id})
	s.notifyLocked()
	s.mu.Unlock()

	s.logger.Info("bookmark deleted", logger.Int64("id", id))

	_ = s.LoadStats(ctx)
	return nil
}

// Contains reports whether id is in the local collection.
func (s *Synchronizer) Contains(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.bookmarks, id) >= 0
}

func indexOf(list []domain.Bookmark, id int64) int {
	for i, b := range list {
		if b.HasID() && b.IDValue() == id {
			return i
		}
	}
	return -1
}

func withoutID(list []domain.Bookmark, id int64) []domain.Bookmark {
	kept := make([]domain.Bookmark, 0, len(list))
	for _, b := range list {
		if b.HasID() && b.IDValue() == id {
			continue
		}
		kept = append(kept, b)
	}
	return kept
}

// mutation is a successful Add (added set) or Delete (removed id).
type mutation struct {
	seq     uint64
	added   *domain.Bookmark
	removed int64
}

// recordLocked keeps m for replay when a collection request is in flight.
func (s *Synchronizer) recordLocked(m mutation) {
	s.mutSeq++
	if s.inflight == 0 {
		return
	}
	m.seq = s.mutSeq
	s.mutations = append(s.mutations, m)
}

// replayLocked applies the mutations made after a request was issued to its
// result. Deletions always apply. Added bookmarks are only put back into a
// listing, search results keep the service ranking.
func (s *Synchronizer) replayLocked(list []domain.Bookmark, since uint64, source Source) []domain.Bookmark {
	for _, m := range s.mutations {
		if m.seq <= since {
			continue
		}
		if m.added == nil {
			list = withoutID(list, m.removed)
			continue
		}
		if source != SourceListing {
			continue
		}
		if m.added.HasID() && indexOf(list, m.added.IDValue()) >= 0 {
			continue
		}
		list = append([]domain.Bookmark{*m.added}, list...)
	}
	return list
}

// ─────────────────────────────────────────────────────────────────
// Request lifecycle
// ─────────────────────────────────────────────────────────────────

type request struct {
	ctx     context.Context
	cancel  context.CancelFunc
	token   uint64
	filters domain.Filters
	mutSeq  uint64
}

// begin issues a new collection request: the previous one is cancelled,
// the generation advances and the in-flight counter goes up.
func (s *Synchronizer) begin(ctx context.Context) (request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return request{}, ErrClosed
	}
	return s.beginLocked(ctx), nil
}

func (s *Synchronizer) beginLocked(ctx context.Context) request {
	if s.cancel != nil {
		s.cancel()
	}
	rctx, cancel := context.WithCancel(ctx)
	s.gen++
	s.cancel = cancel
	s.inflight++
	s.notifyLocked()

	return request{
		ctx:     rctx,
		cancel:  cancel,
		token:   s.gen,
		filters: s.filters.Clone(),
		mutSeq:  s.mutSeq,
	}
}

// settle ends a request. commit runs under the lock only when the request
// is still the latest one; the in-flight counter drops either way.
func (s *Synchronizer) settle(req request, commit func()) bool {
	req.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight--
	latest := req.token == s.gen && !s.closed
	if latest {
		commit()
		s.settled = true
		s.cancel = nil
	}
	if s.inflight == 0 {
		s.mutations = nil
	}
	s.notifyLocked()
	return latest
}

func (s *Synchronizer) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close cancels the in-flight collection request and releases subscribers.
// Results that settle afterwards are dropped.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}
