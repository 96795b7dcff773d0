package normalize

import "github.com/MrSnakeDoc/brainsync/internal/domain"

const (
	categoriesKey = "categories"
	tagsKey       = "tags"
)

// Categories maps a category-stats payload, either a bare array or
// {"categories": [...]}, preserving order. Entries that are neither objects
// nor strings are dropped. Percentage stays domain.PercentageUnknown unless
// the entry carries one.
func Categories(v any) []domain.CategoryStats {
	items := listItems(v, categoriesKey)
	out := make([]domain.CategoryStats, 0, len(items))
	for _, it := range items {
		label, count, pct, ok := labelEntry(it, "category")
		if !ok {
			continue
		}
		out = append(out, domain.CategoryStats{Category: label, Count: count, Percentage: pct})
	}
	return out
}

// Tags maps a tag-stats payload, either a bare array or {"tags": [...]}.
func Tags(v any) []domain.TagStats {
	items := listItems(v, tagsKey)
	out := make([]domain.TagStats, 0, len(items))
	for _, it := range items {
		label, count, pct, ok := labelEntry(it, "tag")
		if !ok {
			continue
		}
		out = append(out, domain.TagStats{Tag: label, Count: count, Percentage: pct})
	}
	return out
}

// labelEntry reads {<labelKey>, count, percentage?}. A bare string is taken
// as a label with no count.
func labelEntry(v any, labelKey string) (string, int, float64, bool) {
	if s, ok := v.(string); ok {
		return s, 0, domain.PercentageUnknown, true
	}
	obj, ok := asObject(v)
	if !ok {
		return "", 0, 0, false
	}

	pct := domain.PercentageUnknown
	if raw, ok := firstPresent(obj, "percentage"); ok {
		if f, ok := toFloat(raw); ok && f >= 0 {
			pct = f
		}
	}
	return stringField(obj, labelKey, "name"), countField(obj, "count"), pct, true
}
