package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/brainsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/handlers"
)

func init() { Register("search", registerSearch) }

func registerSearch(r chi.Router, d deps.Deps) {
	m := mutating(d)

	r.Method(http.MethodPost, "/api/search", m.Then(handlers.Search(d)))
	r.Method(http.MethodDelete, "/api/search", m.Then(handlers.ClearSearch(d)))
}
