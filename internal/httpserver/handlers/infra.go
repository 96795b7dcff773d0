package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/brainsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/respond"
)

const remoteProbeTimeout = 2 * time.Second

type componentStatus struct {
	OK              bool   `json:"ok"`
	URL             string `json:"url,omitempty"`
	BookmarksLoaded *int   `json:"bookmarks_loaded,omitempty"`
	Loading         bool   `json:"loading,omitempty"`
	Source          string `json:"source,omitempty"`
	Pending         *int   `json:"pending,omitempty"`
	Error           string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra probes the remote service and reports the synchronizer state.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := d.Sync.Snapshot()
		loaded := len(st.Bookmarks)

		components := map[string]componentStatus{
			"remote": checkRemote(r.Context(), d),
			"synchronizer": {
				OK:              st.Error == "",
				BookmarksLoaded: &loaded,
				Loading:         st.Loading,
				Source:          string(st.Provenance.Source),
				Error:           st.Error,
			},
		}
		if d.Toasts != nil {
			pending := d.Toasts.Len()
			components["toasts"] = componentStatus{OK: true, Pending: &pending}
		}

		respond.JSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if remote, ok := components["remote"]; ok && !remote.OK {
		return "offline" // nothing can be refreshed or mutated
	}
	if s, ok := components["synchronizer"]; ok && !s.OK {
		return "degraded" // last listing failed, previous collection shown
	}
	return "operational"
}

func checkRemote(ctx context.Context, d deps.Deps) componentStatus {
	if d.Remote == nil {
		return componentStatus{OK: false, Error: "client not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, remoteProbeTimeout)
	defer cancel()

	if err := d.Remote.Health(ctx); err != nil {
		return componentStatus{OK: false, URL: d.Remote.BaseURL(), Error: err.Error()}
	}
	return componentStatus{OK: true, URL: d.Remote.BaseURL()}
}
