package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/brainsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/handlers"
)

func init() { Register("stats", registerStats) }

func registerStats(r chi.Router, d deps.Deps) {
	g := guarded(d)

	r.Method(http.MethodGet, "/api/stats", g.Then(handlers.Stats(d)))
	r.Method(http.MethodGet, "/api/stats/categories", g.Then(handlers.Categories(d)))
	r.Method(http.MethodGet, "/api/stats/tags", g.Then(handlers.Tags(d)))
}
