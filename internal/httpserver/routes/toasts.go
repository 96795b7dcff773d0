package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/brainsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/handlers"
)

func init() { Register("toasts", registerToasts) }

func registerToasts(r chi.Router, d deps.Deps) {
	g := guarded(d)

	r.Method(http.MethodGet, "/api/toasts", g.Then(handlers.Toasts(d)))
	r.Method(http.MethodDelete, "/api/toasts/{id}", g.Then(handlers.HideToast(d)))
}
