package normalize

import "github.com/MrSnakeDoc/brainsync/internal/domain"

// StatsShape tags which total field a stats payload used.
type StatsShape int

const (
	StatsEmpty StatsShape = iota
	// StatsTotal is the service's current naming: {"total": N, ...}.
	StatsTotal
	// StatsTotalBookmarks is the older naming: {"total_bookmarks": N, ...}.
	StatsTotalBookmarks
)

// ClassifyStats reports the total field variant of v. When both hold a
// number "total" wins; a mistyped "total" gives way to "total_bookmarks".
func ClassifyStats(v any) StatsShape {
	obj, ok := asObject(v)
	if !ok {
		return StatsEmpty
	}
	if _, ok := intField(obj, "total"); ok {
		return StatsTotal
	}
	if _, ok := intField(obj, "total_bookmarks"); ok {
		return StatsTotalBookmarks
	}
	return StatsEmpty
}

// Stats maps a processing-stats payload. A payload with no known field, or
// one that is not an object at all, yields all-zero stats.
func Stats(v any) domain.ProcessingStats {
	obj, ok := asObject(v)
	if !ok {
		return domain.ProcessingStats{}
	}

	// manual_required is reported separately by the service; it is a terminal
	// failure from the client's point of view.
	failed := countField(obj, "failed") + countField(obj, "manual_required")

	return domain.ProcessingStats{
		TotalBookmarks: countField(obj, "total", "total_bookmarks"),
		Completed:      countField(obj, "completed"),
		Pending:        countField(obj, "pending"),
		Processing:     countField(obj, "processing"),
		Failed:         failed,
	}
}
