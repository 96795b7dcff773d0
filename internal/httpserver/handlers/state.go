package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/brainsync/internal/domain"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/respond"
	"github.com/MrSnakeDoc/brainsync/internal/logger"
	"github.com/MrSnakeDoc/brainsync/internal/synchronizer"
)

type stateResponse struct {
	Bookmarks  []bookmarkView          `json:"bookmarks"`
	Stats      *domain.ProcessingStats `json:"stats"`
	Loading    bool                    `json:"loading"`
	Error      string                  `json:"error,omitempty"`
	Filters    domain.Filters          `json:"filters"`
	Provenance synchronizer.Provenance `json:"provenance"`
}

func stateOf(st synchronizer.State) stateResponse {
	return stateResponse{
		Bookmarks:  viewsOf(st.Bookmarks, st.Scores),
		Stats:      st.Stats,
		Loading:    st.Loading,
		Error:      st.Error,
		Filters:    st.Filters,
		Provenance: st.Provenance,
	}
}

func writeState(w http.ResponseWriter, d deps.Deps, status int) {
	respond.JSON(w, status, stateOf(d.Sync.Snapshot()))
}

// State returns the current snapshot.
func State(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeState(w, d, http.StatusOK)
	}
}

// Refresh runs a refetch in the request and answers with the resulting
// state. A failed listing shows up as the state's error, not as a status.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Sync.Refetch(r.Context()); err != nil {
			if errors.Is(err, synchronizer.ErrClosed) {
				writeOpError(w, err)
				return
			}
			if !errors.Is(err, synchronizer.ErrSuperseded) {
				d.Logger.Debug("refresh request failed", logger.Error(err))
			}
		}
		writeState(w, d, http.StatusOK)
	}
}

func validStatusFilter(v string) bool {
	return v == "" || v == domain.StatusFilterAll || domain.Status(v).Valid()
}

// SetFilters replaces the listing filters and refetches.
func SetFilters(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f domain.Filters
		if err := decodeBody(w, r, &f); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if !validStatusFilter(f.StatusFilter) {
			respond.Error(w, http.StatusBadRequest, "invalid status_filter "+f.StatusFilter)
			return
		}
		if f.Limit < 0 || f.Offset < 0 {
			respond.Error(w, http.StatusBadRequest, "limit and offset must not be negative")
			return
		}

		if err := d.Sync.SetFilters(r.Context(), f); err != nil && errors.Is(err, synchronizer.ErrClosed) {
			writeOpError(w, err)
			return
		}
		writeState(w, d, http.StatusOK)
	}
}
