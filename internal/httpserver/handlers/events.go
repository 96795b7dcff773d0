package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/brainsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/respond"
	"github.com/MrSnakeDoc/brainsync/internal/logger"
)

const keepAlive = 25 * time.Second

// Events streams a server-sent "state" event with the full snapshot after
// every change, starting with the current one. Bursts of changes coalesce.
func Events(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			respond.Error(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}
		// The stream outlives the server write timeout.
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		changes, unsubscribe := d.Sync.Subscribe()
		defer unsubscribe()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		send := func() bool {
			payload, err := json.Marshal(stateOf(d.Sync.Snapshot()))
			if err != nil {
				d.Logger.Error("failed to encode state event", logger.Error(err))
				return false
			}
			if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", payload); err != nil {
				return false
			}
			flusher.Flush()
			return true
		}

		if !send() {
			return
		}

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case _, open := <-changes:
				if !open || !send() {
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	}
}
