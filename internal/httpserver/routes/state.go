package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/brainsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/handlers"
)

func init() { Register("state", registerState) }

func registerState(r chi.Router, d deps.Deps) {
	g, m := guarded(d), mutating(d)

	r.Method(http.MethodGet, "/api/state", g.Then(handlers.State(d)))
	r.Method(http.MethodGet, "/api/events", g.Then(handlers.Events(d)))
	r.Method(http.MethodPost, "/api/refresh", m.Then(handlers.Refresh(d)))
	r.Method(http.MethodPut, "/api/filters", m.Then(handlers.SetFilters(d)))
}
