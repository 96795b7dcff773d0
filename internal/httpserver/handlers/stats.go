package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/brainsync/internal/domain"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/respond"
)

type processingResponse struct {
	Stats *domain.ProcessingStats `json:"stats"`
}

// Stats returns the processing counters the synchronizer holds. They are
// null until the first successful refresh.
func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, processingResponse{Stats: d.Sync.Snapshot().Stats})
	}
}

// Categories returns the per-category breakdown. Percentages the service
// did not supply are computed from the counts.
func Categories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := d.Remote.Categories(r.Context())
		if err != nil {
			writeOpError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, domain.CategoriesWithPercentages(cats))
	}
}

// Tags returns the most used tags, ?limit=N overriding the default.
func Tags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := d.TagsLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				respond.Error(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		tags, err := d.Remote.Tags(r.Context(), limit)
		if err != nil {
			writeOpError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, domain.TagsWithPercentages(tags))
	}
}
