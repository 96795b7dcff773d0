package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/brainsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/respond"
	"github.com/MrSnakeDoc/brainsync/internal/logger"
	"github.com/MrSnakeDoc/brainsync/internal/scheduler"
)

type reloadResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Reload asks the background refresher for an immediate refetch without
// waiting for it.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.RefreshTrigger == nil {
			respond.Error(w, http.StatusServiceUnavailable, "background refresh disabled")
			return
		}

		if scheduler.Trigger(d.RefreshTrigger) {
			d.Logger.Info("manual refresh triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			respond.JSON(w, http.StatusAccepted, reloadResponse{Triggered: true, Message: "refresh triggered"})
			return
		}

		d.Logger.Warn("refresh already pending",
			logger.String("remote_ip", r.RemoteAddr))
		respond.JSON(w, http.StatusTooManyRequests, reloadResponse{Message: "refresh already pending, please wait"})
	}
}
