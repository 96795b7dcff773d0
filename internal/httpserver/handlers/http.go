package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/brainsync/internal/domain"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/respond"
	"github.com/MrSnakeDoc/brainsync/internal/remote"
	"github.com/MrSnakeDoc/brainsync/internal/synchronizer"
)

const maxBodyBytes = 64 << 10

// decodeBody reads a JSON request body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid bookmark id %q", raw)
	}
	return id, nil
}

// errorStatus maps an operation error to the status the view receives.
// Remote answers keep their 4xx code; remote 5xx and transport failures
// become 502.
func errorStatus(err error) int {
	var se *remote.StatusError
	switch {
	case errors.Is(err, synchronizer.ErrEmptyURL):
		return http.StatusBadRequest
	case errors.Is(err, synchronizer.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &se) && se.Code >= 400 && se.Code < 500:
		return se.Code
	default:
		return http.StatusBadGateway
	}
}

func writeOpError(w http.ResponseWriter, err error) {
	respond.Error(w, errorStatus(err), err.Error())
}

// bookmarkView adds the computed display title to a bookmark, and the
// similarity score when it is a search result that carried one.
type bookmarkView struct {
	domain.Bookmark
	DisplayTitle    string   `json:"display_title"`
	SimilarityScore *float64 `json:"similarity_score,omitempty"`
}

func viewOf(b domain.Bookmark) bookmarkView {
	return bookmarkView{Bookmark: b, DisplayTitle: b.DisplayTitle()}
}

func viewsOf(list []domain.Bookmark, scores map[int64]float64) []bookmarkView {
	out := make([]bookmarkView, 0, len(list))
	for _, b := range list {
		v := viewOf(b)
		if score, ok := scores[b.IDValue()]; ok && b.HasID() {
			v.SimilarityScore = &score
		}
		out = append(out, v)
	}
	return out
}
