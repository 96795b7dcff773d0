package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/brainsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/respond"
	"github.com/MrSnakeDoc/brainsync/internal/logger"
)

type addRequest struct {
	URL string `json:"url"`
}

// AddBookmark submits a URL. The outcome is also queued as a toast.
func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addRequest
		if err := decodeBody(w, r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		b, err := d.Sync.Add(r.Context(), req.URL)
		if err != nil {
			d.Logger.Warn("add bookmark failed",
				logger.String("url", req.URL),
				logger.Error(err))
			d.Toasts.Error("Failed to add bookmark: " + err.Error())
			writeOpError(w, err)
			return
		}

		d.Toasts.Success("Bookmark added, processing started")
		respond.JSON(w, http.StatusCreated, viewOf(b))
	}
}

// GetBookmark fetches one bookmark straight from the service.
func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		b, err := d.Remote.Get(r.Context(), id)
		if err != nil {
			writeOpError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, viewOf(b))
	}
}

// DeleteBookmark removes a bookmark. An id that is not displayed is a no-op
// and still answers 204.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		present := d.Sync.Contains(id)
		if err := d.Sync.Delete(r.Context(), id); err != nil {
			d.Logger.Warn("delete bookmark failed",
				logger.Int64("id", id),
				logger.Error(err))
			d.Toasts.Error("Failed to delete bookmark: " + err.Error())
			writeOpError(w, err)
			return
		}

		if present {
			d.Toasts.Success("Bookmark deleted")
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
