package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/brainsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/respond"
)

type readyzResponse struct {
	Ready bool `json:"ready"`
}

// Readyz reports ready once the first collection request has settled,
// whether it succeeded or not.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := d.Sync.Settled()
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(w, status, readyzResponse{Ready: ready})
	}
}
