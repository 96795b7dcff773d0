package synchronizer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/brainsync/internal/domain"
	"github.com/MrSnakeDoc/brainsync/internal/logger"
	"github.com/MrSnakeDoc/brainsync/internal/normalize"
	"github.com/MrSnakeDoc/brainsync/internal/remote"
)

// fakeRemote answers from function fields and counts calls.
type fakeRemote struct {
	list   func(ctx context.Context, f domain.Filters) ([]domain.Bookmark, error)
	add    func(ctx context.Context, rawURL string) (domain.Bookmark, error)
	remove func(ctx context.Context, id int64) error
	stats  func(ctx context.Context) (domain.ProcessingStats, error)
	search func(ctx context.Context, query string, limit int) (normalize.SearchResponse, error)

	listCalls   atomic.Int32
	addCalls    atomic.Int32
	removeCalls atomic.Int32
	statsCalls  atomic.Int32
	searchCalls atomic.Int32

	mu          sync.Mutex
	lastFilters domain.Filters
	lastLimit   int
}

func (f *fakeRemote) List(ctx context.Context, filters domain.Filters) ([]domain.Bookmark, error) {
	f.listCalls.Add(1)
	f.mu.Lock()
	f.lastFilters = filters
	f.mu.Unlock()
	if f.list == nil {
		return []domain.Bookmark{}, nil
	}
	return f.list(ctx, filters)
}

func (f *fakeRemote) Add(ctx context.Context, rawURL string) (domain.Bookmark, error) {
	f.addCalls.Add(1)
	if f.add == nil {
		return domain.Bookmark{URL: rawURL}, nil
	}
	return f.add(ctx, rawURL)
}

func (f *fakeRemote) Remove(ctx context.Context, id int64) error {
	f.removeCalls.Add(1)
	if f.remove == nil {
		return nil
	}
	return f.remove(ctx, id)
}

func (f *fakeRemote) Stats(ctx context.Context) (domain.ProcessingStats, error) {
	f.statsCalls.Add(1)
	if f.stats == nil {
		return domain.ProcessingStats{}, nil
	}
	return f.stats(ctx)
}

func (f *fakeRemote) Search(ctx context.Context, query string, limit int) (normalize.SearchResponse, error) {
	f.searchCalls.Add(1)
	f.mu.Lock()
	f.lastLimit = limit
	f.mu.Unlock()
	if f.search == nil {
		return normalize.SearchResponse{Query: query, Results: []domain.Bookmark{}}, nil
	}
	return f.search(ctx, query, limit)
}

func bm(id int64) domain.Bookmark {
	return domain.Bookmark{ID: &id, URL: "https://example.com/" + string(rune('a'+id%26))}
}

func ids(list []domain.Bookmark) []int64 {
	out := make([]int64, 0, len(list))
	for _, b := range list {
		out = append(out, b.IDValue())
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newSync(t *testing.T, r *fakeRemote, opts Options) *Synchronizer {
	t.Helper()
	s := New(r, opts, logger.New("error", false))
	t.Cleanup(s.Close)
	return s
}

// loaded returns a synchronizer whose collection already holds the given ids.
func loaded(t *testing.T, r *fakeRemote, initial ...int64) *Synchronizer {
	t.Helper()
	list := make([]domain.Bookmark, 0, len(initial))
	for _, id := range initial {
		list = append(list, bm(id))
	}
	r.list = func(context.Context, domain.Filters) ([]domain.Bookmark, error) { return list, nil }

	s := newSync(t, r, Options{})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	r.list = nil
	r.listCalls.Store(0)
	return s
}

func TestLoadReplacesCollection(t *testing.T) {
	r := &fakeRemote{}
	s := loaded(t, r, 1, 2, 3)

	r.list = func(context.Context, domain.Filters) ([]domain.Bookmark, error) {
		return []domain.Bookmark{bm(9)}, nil
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	st := s.Snapshot()
	if !equalIDs(ids(st.Bookmarks), []int64{9}) {
		t.Errorf("bookmarks = %v, want [9]", ids(st.Bookmarks))
	}
	if st.Loading || st.Error != "" || st.Provenance.Source != SourceListing {
		t.Errorf("state = %+v", st)
	}
	if !s.Settled() {
		t.Error("Settled() = false after a load")
	}
}

func TestLoadFailureKeepsCollection(t *testing.T) {
	r := &fakeRemote{}
	s := loaded(t, r, 1, 2, 3)

	r.list = func(context.Context, domain.Filters) ([]domain.Bookmark, error) {
		return nil, &remote.StatusError{Op: "list bookmarks", Code: 500, Text: "Internal Server Error"}
	}
	if err := s.Load(context.Background()); !remote.IsStatus(err, 500) {
		t.Fatalf("Load() error = %v, want HTTP 500", err)
	}

	st := s.Snapshot()
	if !equalIDs(ids(st.Bookmarks), []int64{1, 2, 3}) {
		t.Errorf("bookmarks = %v, want [1 2 3]", ids(st.Bookmarks))
	}
	if st.Error != "HTTP 500: Internal Server Error" {
		t.Errorf("error = %q", st.Error)
	}
	if st.Loading {
		t.Error("loading still set after failure")
	}

	// The next success clears the error.
	r.list = nil
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st := s.Snapshot(); st.Error != "" {
		t.Errorf("error = %q after success, want empty", st.Error)
	}
}

func TestLoadSendsCurrentFilters(t *testing.T) {
	r := &fakeRemote{}
	f := domain.Filters{StatusFilter: "completed", Category: "tech", Limit: 25}
	s := newSync(t, r, Options{Filters: f})

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	r.mu.Lock()
	got := r.lastFilters
	r.mu.Unlock()
	if !got.Equal(f) {
		t.Errorf("filters sent = %+v, want %+v", got, f)
	}
}

func TestLoadingFlagWhileInFlight(t *testing.T) {
	r := &fakeRemote{}
	started := make(chan struct{})
	release := make(chan struct{})
	r.list = func(context.Context, domain.Filters) ([]domain.Bookmark, error) {
		close(started)
		<-release
		return []domain.Bookmark{}, nil
	}
	s := newSync(t, r, Options{})

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()
	<-started

	if !s.Snapshot().Loading {
		t.Error("loading = false while a request is in flight")
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Snapshot().Loading {
		t.Error("loading = true after the request settled")
	}
}

func TestLatestRequestWins(t *testing.T) {
	r := &fakeRemote{}
	started := make(chan struct{})
	release := make(chan struct{})
	var firstCtx context.Context

	r.list = func(ctx context.Context, _ domain.Filters) ([]domain.Bookmark, error) {
		if r.listCalls.Load() == 1 {
			firstCtx = ctx
			close(started)
			<-release // a server that ignores cancellation
			return []domain.Bookmark{bm(1)}, nil
		}
		return []domain.Bookmark{bm(2)}, nil
	}
	s := newSync(t, r, Options{})

	first := make(chan error, 1)
	go func() { first <- s.Load(context.Background()) }()
	<-started

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if firstCtx.Err() == nil {
		t.Error("first request context not cancelled by the newer one")
	}
	if !s.Snapshot().Loading {
		t.Error("loading cleared while the first request is still in flight")
	}

	close(release)
	if err := <-first; !errors.Is(err, ErrSuperseded) {
		t.Errorf("first Load() error = %v, want ErrSuperseded", err)
	}

	st := s.Snapshot()
	if !equalIDs(ids(st.Bookmarks), []int64{2}) {
		t.Errorf("bookmarks = %v, want [2]", ids(st.Bookmarks))
	}
	if st.Loading {
		t.Error("loading = true after both requests settled")
	}
}

func TestSupersededFailureNotRecorded(t *testing.T) {
	r := &fakeRemote{}
	started := make(chan struct{})
	r.list = func(ctx context.Context, _ domain.Filters) ([]domain.Bookmark, error) {
		if r.listCalls.Load() == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []domain.Bookmark{bm(5)}, nil
	}
	s := newSync(t, r, Options{})

	first := make(chan error, 1)
	go func() { first <- s.Load(context.Background()) }()
	<-started

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if err := <-first; !errors.Is(err, ErrSuperseded) {
		t.Errorf("first Load() error = %v, want ErrSuperseded", err)
	}
	if st := s.Snapshot(); st.Error != "" {
		t.Errorf("error = %q, want empty", st.Error)
	}
}

func TestLoadStats(t *testing.T) {
	r := &fakeRemote{}
	s := newSync(t, r, Options{})

	if s.Snapshot().Stats != nil {
		t.Fatal("stats should be nil before the first refresh")
	}

	want := domain.ProcessingStats{TotalBookmarks: 10, Completed: 7, Pending: 2, Failed: 1}
	r.stats = func(context.Context) (domain.ProcessingStats, error) { return want, nil }
	if err := s.LoadStats(context.Background()); err != nil {
		t.Fatalf("LoadStats() error = %v", err)
	}
	if got := s.Snapshot().Stats; got == nil || *got != want {
		t.Fatalf("stats = %+v, want %+v", got, want)
	}

	// A failed refresh keeps the previous counters and the error state clean.
	r.stats = func(context.Context) (domain.ProcessingStats, error) {
		return domain.ProcessingStats{}, errors.New("boom")
	}
	if err := s.LoadStats(context.Background()); err == nil {
		t.Fatal("LoadStats() error = nil, want error")
	}
	st := s.Snapshot()
	if st.Stats == nil || *st.Stats != want {
		t.Errorf("stats = %+v after failure, want %+v", st.Stats, want)
	}
	if st.Error != "" {
		t.Errorf("error = %q, stats failures must not surface", st.Error)
	}
}

func TestRefetchIndependentFailures(t *testing.T) {
	r := &fakeRemote{
		list: func(context.Context, domain.Filters) ([]domain.Bookmark, error) {
			return nil, errors.New("list down")
		},
		stats: func(context.Context) (domain.ProcessingStats, error) {
			return domain.ProcessingStats{TotalBookmarks: 4}, nil
		},
	}
	s := newSync(t, r, Options{})

	if err := s.Refetch(context.Background()); err == nil {
		t.Fatal("Refetch() error = nil, want list error")
	}
	st := s.Snapshot()
	if st.Stats == nil || st.Stats.TotalBookmarks != 4 {
		t.Errorf("stats = %+v, want total 4 despite list failure", st.Stats)
	}
	if st.Error != "list down" {
		t.Errorf("error = %q", st.Error)
	}
}

func TestSetFiltersRefetches(t *testing.T) {
	r := &fakeRemote{}
	s := newSync(t, r, Options{})

	f := domain.Filters{StatusFilter: "failed", Tags: []string{"go"}}
	if err := s.SetFilters(context.Background(), f); err != nil {
		t.Fatalf("SetFilters() error = %v", err)
	}
	if r.listCalls.Load() != 1 || r.statsCalls.Load() != 1 {
		t.Errorf("calls list=%d stats=%d, want 1/1", r.listCalls.Load(), r.statsCalls.Load())
	}
	r.mu.Lock()
	got := r.lastFilters
	r.mu.Unlock()
	if !got.Equal(f) {
		t.Errorf("filters sent = %+v, want %+v", got, f)
	}
	if !s.Filters().Equal(f) {
		t.Errorf("Filters() = %+v", s.Filters())
	}

	// Unchanged filters still refetch.
	if err := s.SetFilters(context.Background(), f); err != nil {
		t.Fatalf("SetFilters() error = %v", err)
	}
	if r.listCalls.Load() != 2 {
		t.Errorf("list calls = %d, want 2", r.listCalls.Load())
	}
}

func TestAddPrependsAndRefreshesStatsOnce(t *testing.T) {
	r := &fakeRemote{}
	s := loaded(t, r, 1, 2)

	r.add = func(_ context.Context, rawURL string) (domain.Bookmark, error) {
		id := int64(42)
		return domain.Bookmark{ID: &id, URL: rawURL, Status: domain.StatusPending}, nil
	}
	b, err := s.Add(context.Background(), "https://x.com")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if b.IDValue() != 42 {
		t.Errorf("Add() id = %d", b.IDValue())
	}

	st := s.Snapshot()
	if !equalIDs(ids(st.Bookmarks), []int64{42, 1, 2}) {
		t.Errorf("bookmarks = %v, want [42 1 2]", ids(st.Bookmarks))
	}
	if n := r.statsCalls.Load(); n != 1 {
		t.Errorf("stats calls = %d, want 1", n)
	}
	if n := r.listCalls.Load(); n != 0 {
		t.Errorf("list calls = %d, want 0", n)
	}
}

func TestAddFailureLeavesCollection(t *testing.T) {
	r := &fakeRemote{}
	s := loaded(t, r, 1)

	r.add = func(context.Context, string) (domain.Bookmark, error) {
		return domain.Bookmark{}, &remote.StatusError{Code: 422, Text: "Unprocessable Entity"}
	}
	if _, err := s.Add(context.Background(), "https://x.com"); !remote.IsStatus(err, 422) {
		t.Fatalf("Add() error = %v, want 422", err)
	}
	if got := ids(s.Snapshot().Bookmarks); !equalIDs(got, []int64{1}) {
		t.Errorf("bookmarks = %v, want [1]", got)
	}
	if r.statsCalls.Load() != 0 {
		t.Error("stats refreshed after a failed add")
	}
}

func TestAddEmptyURL(t *testing.T) {
	r := &fakeRemote{}
	s := newSync(t, r, Options{})

	for _, raw := range []string{"", "   "} {
		if _, err := s.Add(context.Background(), raw); !errors.Is(err, ErrEmptyURL) {
			t.Errorf("Add(%q) error = %v, want ErrEmptyURL", raw, err)
		}
	}
	if r.addCalls.Load() != 0 {
		t.Error("blank url reached the remote")
	}
}

func TestDelete(t *testing.T) {
	r := &fakeRemote{}
	s := loaded(t, r, 1, 2, 3)

	if err := s.Delete(context.Background(), 2); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := ids(s.Snapshot().Bookmarks); !equalIDs(got, []int64{1, 3}) {
		t.Errorf("bookmarks = %v, want [1 3]", got)
	}
	if r.removeCalls.Load() != 1 || r.statsCalls.Load() != 1 {
		t.Errorf("calls remove=%d stats=%d, want 1/1", r.removeCalls.Load(), r.statsCalls.Load())
	}

	// Second delete of the same id: local no-op, nothing sent.
	if err := s.Delete(context.Background(), 2); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	if got := ids(s.Snapshot().Bookmarks); !equalIDs(got, []int64{1, 3}) {
		t.Errorf("bookmarks = %v after repeat delete", got)
	}
	if r.removeCalls.Load() != 1 {
		t.Errorf("remove calls = %d, want 1", r.removeCalls.Load())
	}
}

func TestDeleteFailureLeavesCollection(t *testing.T) {
	r := &fakeRemote{}
	s := loaded(t, r, 1, 2)

	r.remove = func(context.Context, int64) error {
		return &remote.StatusError{Code: 404, Text: "Not Found"}
	}
	if err := s.Delete(context.Background(), 1); !remote.IsStatus(err, 404) {
		t.Fatalf("Delete() error = %v, want 404", err)
	}
	if got := ids(s.Snapshot().Bookmarks); !equalIDs(got, []int64{1, 2}) {
		t.Errorf("bookmarks = %v, want [1 2]", got)
	}
	if !s.Contains(1) {
		t.Error("Contains(1) = false after failed delete")
	}
}

func TestSubscribeAndClose(t *testing.T) {
	r := &fakeRemote{}
	s := New(r, Options{}, logger.New("error", false))

	ch, unsubscribe := s.Subscribe()
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no change signal after Load")
	}

	unsubscribe()
	if _, ok := <-drain(ch); ok {
		t.Error("channel still open after unsubscribe")
	}

	other, _ := s.Subscribe()
	s.Close()
	if _, ok := <-drain(other); ok {
		t.Error("channel still open after Close")
	}
	if err := s.Load(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Load() after Close error = %v, want ErrClosed", err)
	}
}

// drain consumes pending signals and reports the channel once it is closed.
func drain(ch <-chan struct{}) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		for range ch {
		}
		close(out)
	}()
	return out
}

func TestRefetchRunsLoadAndStatsTogether(t *testing.T) {
	listStarted := make(chan struct{})
	statsStarted := make(chan struct{})

	// Each side waits for the other: a sequential Refetch times out.
	r := &fakeRemote{
		list: func(context.Context, domain.Filters) ([]domain.Bookmark, error) {
			close(listStarted)
			select {
			case <-statsStarted:
				return []domain.Bookmark{bm(1)}, nil
			case <-time.After(2 * time.Second):
				return nil, errors.New("stats never started while listing")
			}
		},
		stats: func(context.Context) (domain.ProcessingStats, error) {
			close(statsStarted)
			select {
			case <-listStarted:
				return domain.ProcessingStats{TotalBookmarks: 1}, nil
			case <-time.After(2 * time.Second):
				return domain.ProcessingStats{}, errors.New("listing never started while loading stats")
			}
		},
	}
	s := newSync(t, r, Options{})

	if err := s.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch() error = %v", err)
	}
	st := s.Snapshot()
	if !equalIDs(ids(st.Bookmarks), []int64{1}) || st.Stats == nil || st.Stats.TotalBookmarks != 1 {
		t.Errorf("state = %+v", st)
	}
}

func TestAddDuringInFlightLoadSurvives(t *testing.T) {
	r := &fakeRemote{}
	s := loaded(t, r, 1)

	started := make(chan struct{})
	release := make(chan struct{})
	r.list = func(context.Context, domain.Filters) ([]domain.Bookmark, error) {
		close(started)
		<-release
		return []domain.Bookmark{bm(1)}, nil // issued before the add
	}
	r.add = func(_ context.Context, rawURL string) (domain.Bookmark, error) {
		return domain.Bookmark{ID: ptrID(42), URL: rawURL}, nil
	}

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()
	<-started

	if _, err := s.Add(context.Background(), "https://x.com"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := ids(s.Snapshot().Bookmarks); !equalIDs(got, []int64{42, 1}) {
		t.Errorf("bookmarks = %v, want [42 1]", got)
	}

	// Once nothing is in flight, later loads are taken as is.
	r.list = func(context.Context, domain.Filters) ([]domain.Bookmark, error) {
		return []domain.Bookmark{bm(1)}, nil
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := ids(s.Snapshot().Bookmarks); !equalIDs(got, []int64{1}) {
		t.Errorf("bookmarks = %v, want [1]", got)
	}
}

func TestDeleteDuringInFlightLoadSurvives(t *testing.T) {
	r := &fakeRemote{}
	s := loaded(t, r, 1, 2)

	started := make(chan struct{})
	release := make(chan struct{})
	r.list = func(context.Context, domain.Filters) ([]domain.Bookmark, error) {
		close(started)
		<-release
		return []domain.Bookmark{bm(1), bm(2)}, nil
	}

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()
	<-started

	if err := s.Delete(context.Background(), 2); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := ids(s.Snapshot().Bookmarks); !equalIDs(got, []int64{1}) {
		t.Errorf("bookmarks = %v, want [1]", got)
	}
}

func TestPollListing(t *testing.T) {
	r := &fakeRemote{}
	s := newSync(t, r, Options{})

	if err := s.Poll(context.Background()); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if r.listCalls.Load() != 1 || r.statsCalls.Load() != 1 || r.searchCalls.Load() != 0 {
		t.Errorf("calls list=%d stats=%d search=%d, want 1/1/0",
			r.listCalls.Load(), r.statsCalls.Load(), r.searchCalls.Load())
	}
}

func ptrID(id int64) *int64 { return &id }
