package domain

import "math"

// PercentageUnknown marks a percentage the service did not supply.
// Consumers must render it as unknown, never as 0%.
const PercentageUnknown = -1.0

// ProcessingStats are server-computed counts of bookmarks by status.
//
// They are refreshed by re-fetch after every mutation and never derived from
// the displayed list, which is usually a filtered or paginated subset.
// completed+pending+processing+failed <= total_bookmarks holds only
// best-effort since the service counts during status transitions.
type ProcessingStats struct {
	TotalBookmarks int `json:"total_bookmarks"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	Processing     int `json:"processing"`
	Failed         int `json:"failed"`
}

// CategoryStats is the bookmark count for one category.
type CategoryStats struct {
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TagStats is the bookmark count for one tag.
type TagStats struct {
	Tag        string  `json:"tag"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// PercentageKnown reports whether p carries a real value.
func PercentageKnown(p float64) bool {
	return p >= 0
}

// CategoriesWithPercentages fills unknown percentages from the share of each
// count over the sum of all counts. Supplied percentages are left as is.
func CategoriesWithPercentages(in []CategoryStats) []CategoryStats {
	out := make([]CategoryStats, len(in))
	copy(out, in)

	total := 0
	for _, c := range out {
		total += c.Count
	}
	for i := range out {
		if !PercentageKnown(out[i].Percentage) {
			out[i].Percentage = share(out[i].Count, total)
		}
	}
	return out
}

// TagsWithPercentages is CategoriesWithPercentages for tags.
func TagsWithPercentages(in []TagStats) []TagStats {
	out := make([]TagStats, len(in))
	copy(out, in)

	total := 0
	for _, t := range out {
		total += t.Count
	}
	for i := range out {
		if !PercentageKnown(out[i].Percentage) {
			out[i].Percentage = share(out[i].Count, total)
		}
	}
	return out
}

// share returns count/total as a percentage rounded to one decimal.
func share(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(count)*1000/float64(total)) / 10
}
