package normalize

import (
	"strings"

	"github.com/MrSnakeDoc/brainsync/internal/domain"
)

const bookmarksKey = "bookmarks"

// Bookmark maps a single bookmark payload.
func Bookmark(v any) domain.Bookmark {
	obj, ok := asObject(v)
	if !ok {
		return domain.Bookmark{Status: domain.StatusPending, Tags: []string{}}
	}

	b := domain.Bookmark{
		URL:           stringField(obj, "url"),
		Domain:        stringField(obj, "domain"),
		OriginalTitle: stringField(obj, "original_title", "title"),
		CleanTitle:    optString(obj, "clean_title"),
		Summary:       optString(obj, "summary"),
		// Detail responses name the extracted text full_text.
		Content:      optString(obj, "content", "full_text"),
		Category:     optString(obj, "category"),
		Language:     optString(obj, "language"),
		Tags:         stringList(obj["tags"]),
		IsNSFW:       boolField(obj, "is_nsfw"),
		Status:       domain.ParseStatus(stringField(obj, "status")),
		ErrorMessage: optString(obj, "error_message"),
		CreatedAt:    stringField(obj, "created_at"),
		UpdatedAt:    stringField(obj, "updated_at"),
	}

	if raw, ok := firstPresent(obj, "id"); ok {
		if id, ok := toInt64(raw); ok {
			b.ID = &id
		}
	}
	if n, ok := intField(obj, "word_count"); ok {
		b.WordCount = &n
	}
	if raw, ok := firstPresent(obj, "relevance_score"); ok {
		if f, ok := toFloat(raw); ok {
			b.RelevanceScore = &f
		}
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if strings.TrimSpace(b.Domain) == "" {
		b.Domain = domain.DomainFromURL(b.URL)
	}
	return b
}

// Bookmarks maps a list payload: a bare array, or {"bookmarks": [...]}.
// Order is preserved. The result is never nil.
func Bookmarks(v any) []domain.Bookmark {
	items := listItems(v, bookmarksKey)
	out := make([]domain.Bookmark, 0, len(items))
	for _, it := range items {
		if _, ok := asObject(it); !ok {
			continue
		}
		out = append(out, Bookmark(it))
	}
	return out
}
