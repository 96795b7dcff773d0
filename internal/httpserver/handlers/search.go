package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/brainsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/respond"
	"github.com/MrSnakeDoc/brainsync/internal/synchronizer"
)

type searchRequest struct {
	Query string `json:"query"`
}

// Search swaps the displayed collection for ranked results. A blank query
// goes back to the filtered listing.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := decodeBody(w, r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		err := d.Sync.Search(r.Context(), req.Query)
		switch {
		case err == nil, errors.Is(err, synchronizer.ErrSuperseded):
			writeState(w, d, http.StatusOK)
		default:
			d.Toasts.Error("Search failed: " + err.Error())
			writeOpError(w, err)
		}
	}
}

// ClearSearch returns to the filtered listing.
func ClearSearch(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := d.Sync.ClearSearch(r.Context())
		if err != nil && errors.Is(err, synchronizer.ErrClosed) {
			writeOpError(w, err)
			return
		}
		writeState(w, d, http.StatusOK)
	}
}
