package domain

import (
	"net/url"
	"strings"
)

// Status is the processing-pipeline state of a bookmark on the remote side.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ParseStatus maps a raw status string onto one of the four known values.
// "manual_required" is reported by the service for bookmarks the pipeline
// gave up on, so it lands in failed. Anything unknown (or empty) is pending.
func ParseStatus(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending
	case StatusProcessing:
		return StatusProcessing
	case StatusCompleted:
		return StatusCompleted
	case StatusFailed, "manual_required":
		return StatusFailed
	default:
		return StatusPending
	}
}

// Valid reports whether s is one of the four enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Bookmark is a saved URL plus the metadata the remote service extracted.
//
// The client never edits content fields locally. A Bookmark changes only
// when a fresh representation is fetched from the service.
type Bookmark struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is assigned by the remote service. Nil before confirmation.
	ID *int64 `json:"id,omitempty"`

	// URL is the saved address. Required.
	URL string `json:"url"`

	// Domain is a display string derived from the URL.
	Domain string `json:"domain"`

	// ─────────────────────────────
	// Extracted content
	// ─────────────────────────────

	OriginalTitle string   `json:"original_title"`
	CleanTitle    *string  `json:"clean_title,omitempty"`
	Summary       *string  `json:"summary,omitempty"`
	Content       *string  `json:"content,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Language      *string  `json:"language,omitempty"`
	WordCount     *int     `json:"word_count,omitempty"`
	IsNSFW        bool     `json:"is_nsfw,omitempty"`

	// RelevanceScore is the service-side ranking hint, when reported.
	RelevanceScore *float64 `json:"relevance_score,omitempty"`

	// ─────────────────────────────
	// Pipeline
	// ─────────────────────────────

	Status       Status  `json:"status"`
	ErrorMessage *string `json:"error_message,omitempty"`

	// CreatedAt and UpdatedAt are kept as the ISO strings the service sent.
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// HasID reports whether the service has assigned an identity.
func (b Bookmark) HasID() bool {
	return b.ID != nil
}

// IDValue returns the assigned id, or 0 when absent.
func (b Bookmark) IDValue() int64 {
	if b.ID == nil {
		return 0
	}
	return *b.ID
}

// DisplayTitle returns the clean title, falling back to the original title
// and then to the URL. It never returns an empty string for a bookmark with
// a URL.
func (b Bookmark) DisplayTitle() string {
	if b.CleanTitle != nil && strings.TrimSpace(*b.CleanTitle) != "" {
		return *b.CleanTitle
	}
	if strings.TrimSpace(b.OriginalTitle) != "" {
		return b.OriginalTitle
	}
	return b.URL
}

// DomainFromURL extracts the hostname of raw without a leading "www.".
// Returns "" when raw cannot be parsed.
func DomainFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// CloneBookmarks returns a copy of the slice so callers cannot mutate the
// owner's backing array. Never returns nil.
func CloneBookmarks(in []Bookmark) []Bookmark {
	out := make([]Bookmark, len(in))
	copy(out, in)
	return out
}
