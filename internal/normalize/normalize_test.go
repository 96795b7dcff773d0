package normalize

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/brainsync/internal/domain"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("failed to decode %q: %v", raw, err)
	}
	return v
}

func TestStats(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		shape    StatsShape
		expected domain.ProcessingStats
	}{
		{
			name:     "total without processing key",
			raw:      `{"total": 10, "completed": 7, "pending": 2, "failed": 1}`,
			shape:    StatsTotal,
			expected: domain.ProcessingStats{TotalBookmarks: 10, Completed: 7, Pending: 2, Processing: 0, Failed: 1},
		},
		{
			name:     "total_bookmarks naming",
			raw:      `{"total_bookmarks": 4, "completed": 1, "pending": 1, "processing": 1, "failed": 1}`,
			shape:    StatsTotalBookmarks,
			expected: domain.ProcessingStats{TotalBookmarks: 4, Completed: 1, Pending: 1, Processing: 1, Failed: 1},
		},
		{
			name:     "total wins over total_bookmarks",
			raw:      `{"total": 5, "total_bookmarks": 9}`,
			shape:    StatsTotal,
			expected: domain.ProcessingStats{TotalBookmarks: 5},
		},
		{
			name:     "null total falls through to total_bookmarks",
			raw:      `{"total": null, "total_bookmarks": 9}`,
			shape:    StatsTotalBookmarks,
			expected: domain.ProcessingStats{TotalBookmarks: 9},
		},
		{
			name:     "no known fields",
			raw:      `{"foo": "bar"}`,
			shape:    StatsEmpty,
			expected: domain.ProcessingStats{},
		},
		{
			name:     "not an object",
			raw:      `[1, 2, 3]`,
			shape:    StatsEmpty,
			expected: domain.ProcessingStats{},
		},
		{
			name:     "negative and mistyped values clamp to zero",
			raw:      `{"total": -3, "completed": "x", "pending": true}`,
			shape:    StatsTotal,
			expected: domain.ProcessingStats{},
		},
		{
			name:     "mistyped total falls through to total_bookmarks",
			raw:      `{"total": "x", "total_bookmarks": 9}`,
			shape:    StatsTotalBookmarks,
			expected: domain.ProcessingStats{TotalBookmarks: 9},
		},
		{
			name:     "out of range counts saturate",
			raw:      `{"total": 1e300, "completed": -1e300}`,
			shape:    StatsTotal,
			expected: domain.ProcessingStats{TotalBookmarks: math.MaxInt},
		},
		{
			name:     "manual_required folds into failed",
			raw:      `{"total": 6, "completed": 3, "failed": 1, "manual_required": 2}`,
			shape:    StatsTotal,
			expected: domain.ProcessingStats{TotalBookmarks: 6, Completed: 3, Failed: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := decode(t, tt.raw)
			if got := ClassifyStats(v); got != tt.shape {
				t.Errorf("ClassifyStats() = %v, want %v", got, tt.shape)
			}
			if got := Stats(v); got != tt.expected {
				t.Errorf("Stats() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestStatsNilInput(t *testing.T) {
	if got := Stats(nil); got != (domain.ProcessingStats{}) {
		t.Errorf("Stats(nil) = %+v, want zero", got)
	}
}

func TestCategoriesShapes(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		shape Shape
	}{
		{name: "wrapped", raw: `{"categories": [{"category": "tech", "count": 3}, {"category": "news", "count": 1}]}`, shape: ShapeWrapped},
		{name: "bare", raw: `[{"category": "tech", "count": 3}, {"category": "news", "count": 1}]`, shape: ShapeBare},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := decode(t, tt.raw)
			if got := ClassifyList(v, "categories"); got != tt.shape {
				t.Errorf("ClassifyList() = %v, want %v", got, tt.shape)
			}

			cats := Categories(v)
			if len(cats) != 2 {
				t.Fatalf("Categories() returned %d entries, want 2", len(cats))
			}
			if cats[0].Category != "tech" || cats[0].Count != 3 {
				t.Errorf("cats[0] = %+v, want tech/3", cats[0])
			}
			if cats[1].Category != "news" || cats[1].Count != 1 {
				t.Errorf("cats[1] = %+v, want news/1", cats[1])
			}
			for _, c := range cats {
				if domain.PercentageKnown(c.Percentage) {
					t.Errorf("percentage for %s = %v, want unknown", c.Category, c.Percentage)
				}
			}
		})
	}
}

func TestTagsShapes(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		shape Shape
		want  []string
	}{
		{name: "wrapped", raw: `{"tags": [{"tag": "go", "count": 5}, {"tag": "ai", "count": 2}]}`, shape: ShapeWrapped, want: []string{"go", "ai"}},
		{name: "bare", raw: `[{"tag": "go", "count": 5}, {"tag": "ai", "count": 2}]`, shape: ShapeBare, want: []string{"go", "ai"}},
		{name: "empty wrapper", raw: `{"tags": []}`, shape: ShapeWrapped, want: []string{}},
		{name: "missing key", raw: `{"other": []}`, shape: ShapeEmpty, want: []string{}},
		{name: "null", raw: `null`, shape: ShapeEmpty, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := decode(t, tt.raw)
			if got := ClassifyList(v, "tags"); got != tt.shape {
				t.Errorf("ClassifyList() = %v, want %v", got, tt.shape)
			}

			tags := Tags(v)
			if tags == nil {
				t.Fatal("Tags() returned nil, want empty slice")
			}
			if len(tags) != len(tt.want) {
				t.Fatalf("Tags() returned %d entries, want %d", len(tags), len(tt.want))
			}
			for i, name := range tt.want {
				if tags[i].Tag != name {
					t.Errorf("tags[%d] = %s, want %s", i, tags[i].Tag, name)
				}
			}
		})
	}
}

func TestTagsSuppliedPercentageKept(t *testing.T) {
	tags := Tags(decode(t, `[{"tag": "go", "count": 1, "percentage": 12.5}]`))
	if len(tags) != 1 || tags[0].Percentage != 12.5 {
		t.Errorf("Tags() = %+v, want percentage 12.5", tags)
	}
}

func TestSearchResultsWrapped(t *testing.T) {
	raw := `{"query": "tech", "results": [{"bookmark": {"id": 1, "url": "https://a"}, "similarity_score": 0.9}], "total": 1, "execution_time": 0.02}`
	resp := SearchResults(decode(t, raw))

	if resp.Query != "tech" {
		t.Errorf("Query = %q, want tech", resp.Query)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("len(Results) = %d, want 1", len(resp.Results))
	}
	got := resp.Results[0]
	if got.IDValue() != 1 || got.URL != "https://a" {
		t.Errorf("Results[0] = id %d url %s, want 1 https://a", got.IDValue(), got.URL)
	}
	if resp.Scores[0] != 0.9 {
		t.Errorf("Scores[0] = %v, want 0.9", resp.Scores[0])
	}
	if resp.Total != 1 || resp.ExecutionTime != 0.02 {
		t.Errorf("Total/ExecutionTime = %d/%v, want 1/0.02", resp.Total, resp.ExecutionTime)
	}
}

func TestSearchResultsMixedPreservesOrder(t *testing.T) {
	// Scores deliberately ascend: the service order must win.
	raw := `{"results": [
		{"bookmark": {"id": 3, "url": "https://c"}, "similarity_score": 0.1},
		{"id": 1, "url": "https://a"},
		{"bookmark": {"id": 2, "url": "https://b"}, "similarity_score": 0.95}
	]}`
	resp := SearchResults(decode(t, raw))

	wantIDs := []int64{3, 1, 2}
	if len(resp.Results) != len(wantIDs) {
		t.Fatalf("len(Results) = %d, want %d", len(resp.Results), len(wantIDs))
	}
	for i, id := range wantIDs {
		if resp.Results[i].IDValue() != id {
			t.Errorf("Results[%d].ID = %d, want %d", i, resp.Results[i].IDValue(), id)
		}
	}
	if resp.Scores[1] != ScoreUnknown {
		t.Errorf("Scores[1] = %v, want ScoreUnknown for bare entry", resp.Scores[1])
	}
	if resp.Total != 0 {
		t.Errorf("Total = %d, want 0 when absent", resp.Total)
	}
}

func TestSearchResultsMissing(t *testing.T) {
	resp := SearchResults(decode(t, `{"query": "x"}`))
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("Results = %v, want empty non-nil", resp.Results)
	}
}

func TestClassifyEntry(t *testing.T) {
	if got := ClassifyEntry(decode(t, `{"bookmark": {"id": 1}, "similarity_score": 0.5}`)); got != EntryRanked {
		t.Errorf("ClassifyEntry(ranked) = %v, want EntryRanked", got)
	}
	if got := ClassifyEntry(decode(t, `{"id": 1, "url": "https://a"}`)); got != EntryBare {
		t.Errorf("ClassifyEntry(bare) = %v, want EntryBare", got)
	}
}

func TestBookmark(t *testing.T) {
	raw := `{
		"id": 42, "url": "https://www.example.com/post", "original_title": "Post",
		"clean_title": null, "tags": ["go", 5, "web"], "status": "manual_required",
		"word_count": 120, "created_at": "2025-01-01T00:00:00", "is_nsfw": false
	}`
	b := Bookmark(decode(t, raw))

	if b.IDValue() != 42 {
		t.Errorf("ID = %d, want 42", b.IDValue())
	}
	if b.Domain != "example.com" {
		t.Errorf("Domain = %q, want derived example.com", b.Domain)
	}
	if b.CleanTitle != nil {
		t.Errorf("CleanTitle = %v, want nil for null", *b.CleanTitle)
	}
	if b.DisplayTitle() != "Post" {
		t.Errorf("DisplayTitle() = %q, want Post", b.DisplayTitle())
	}
	if b.Status != domain.StatusFailed {
		t.Errorf("Status = %q, want failed", b.Status)
	}
	if len(b.Tags) != 2 || b.Tags[0] != "go" || b.Tags[1] != "web" {
		t.Errorf("Tags = %v, want [go web]", b.Tags)
	}
	if b.WordCount == nil || *b.WordCount != 120 {
		t.Errorf("WordCount = %v, want 120", b.WordCount)
	}
	if b.CreatedAt != "2025-01-01T00:00:00" {
		t.Errorf("CreatedAt = %q", b.CreatedAt)
	}
}

func TestBookmarkWithoutID(t *testing.T) {
	b := Bookmark(decode(t, `{"url": "https://x.com", "status": "weird"}`))
	if b.HasID() {
		t.Error("HasID() = true, want false")
	}
	if b.Status != domain.StatusPending {
		t.Errorf("Status = %q, want pending for unknown input", b.Status)
	}
}

func TestBookmarksShapes(t *testing.T) {
	for _, raw := range []string{
		`[{"id": 1, "url": "https://a"}, {"id": 2, "url": "https://b"}]`,
		`{"bookmarks": [{"id": 1, "url": "https://a"}, {"id": 2, "url": "https://b"}]}`,
	} {
		got := Bookmarks(decode(t, raw))
		if len(got) != 2 || got[0].IDValue() != 1 || got[1].IDValue() != 2 {
			t.Errorf("Bookmarks(%s) = %+v, want ids [1 2]", raw, got)
		}
	}

	if got := Bookmarks(nil); got == nil || len(got) != 0 {
		t.Errorf("Bookmarks(nil) = %v, want empty non-nil", got)
	}
}
