package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// StatusFilterAll disables status filtering on list requests.
const StatusFilterAll = "all"

// Filters are the criteria applied to the default bookmark listing.
// The zero value lists everything with the service defaults.
type Filters struct {
	StatusFilter string   `json:"status_filter,omitempty" yaml:"status_filter"`
	Category     string   `json:"category,omitempty" yaml:"category"`
	Tags         []string `json:"tags,omitempty" yaml:"tags"`
	Search       string   `json:"search,omitempty" yaml:"search"`
	Limit        int      `json:"limit,omitempty" yaml:"limit"`
	Offset       int      `json:"offset,omitempty" yaml:"offset"`
	IncludeNSFW  bool     `json:"include_nsfw,omitempty" yaml:"include_nsfw"`
}

// Query encodes the filters as list query parameters. Empty fields are
// omitted, and the offset is sent as "skip", the name the service reads.
func (f Filters) Query() url.Values {
	q := url.Values{}
	if s := strings.TrimSpace(f.StatusFilter); s != "" && s != StatusFilterAll {
		q.Set("status_filter", s)
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		q.Set("category", c)
	}
	if tags := cleanTags(f.Tags); len(tags) > 0 {
		q.Set("tags", strings.Join(tags, ","))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("skip", strconv.Itoa(f.Offset))
	}
	if f.IncludeNSFW {
		q.Set("include_nsfw", "true")
	}
	return q
}

// Clone returns a deep copy.
func (f Filters) Clone() Filters {
	out := f
	if f.Tags != nil {
		out.Tags = append([]string(nil), f.Tags...)
	}
	return out
}

// Equal reports whether two filter sets produce the same listing.
func (f Filters) Equal(o Filters) bool {
	return f.Query().Encode() == o.Query().Encode()
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
