package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/brainsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/handlers"
)

func init() { Register("bookmarks", registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	g, m := guarded(d), mutating(d)

	r.Method(http.MethodPost, "/api/bookmarks", m.Then(handlers.AddBookmark(d)))
	r.Method(http.MethodGet, "/api/bookmarks/{id}", g.Then(handlers.GetBookmark(d)))
	r.Method(http.MethodDelete, "/api/bookmarks/{id}", m.Then(handlers.DeleteBookmark(d)))
}
