package api

import (
	"context"
	"net/http"

	"github.com/okian/tracksense/internal/domain/catalog"
)

// TracksDependencies defines the interface for catalog reads.
type TracksDependencies interface {
	Tracks(ctx context.Context) ([]catalog.Track, error)
}

// TracksHandler handles catalog requests.
type TracksHandler struct {
	deps TracksDependencies
}

// NewTracksHandler creates a new tracks handler.
func NewTracksHandler(deps TracksDependencies) *TracksHandler {
	return &TracksHandler{deps: deps}
}

// HandleGetTracks handles GET /tracks requests.
func (h *TracksHandler) HandleGetTracks(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_tracks"
	tracks, err := h.deps.Tracks(r.Context())
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}
