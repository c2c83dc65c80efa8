// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/tracksense/internal/domain/catalog"
	"github.com/okian/tracksense/internal/domain/model"
	"github.com/okian/tracksense/internal/domain/scoring"
	"github.com/okian/tracksense/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StartAssessment(ctx context.Context, lang string) (types.Started, error)
	ApplyTurn(ctx context.Context, id string, turn model.Turn) (types.TurnOutcome, error)
	Session(ctx context.Context, id string) (types.SessionSnapshot, error)
	Result(ctx context.Context, id string) (*scoring.Result, error)
	Tracks(ctx context.Context) ([]catalog.Track, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	assessmentHandler *AssessmentHandler
	tracksHandler     *TracksHandler

	limiter *rateLimiter
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		assessmentHandler: NewAssessmentHandler(deps),
		tracksHandler:     NewTracksHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	a := s.assessmentHandler

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /tracks", MetricsMiddleware(s.tracksHandler.HandleGetTracks, "tracks"))

	mux.HandleFunc("POST /assessments",
		MetricsMiddleware(s.limiter.middleware(a.HandleStart, "start_assessment"), "start_assessment"))
	mux.HandleFunc("POST /assessments/{id}/turns",
		MetricsMiddleware(s.limiter.middleware(a.HandleTurn, "apply_turn"), "apply_turn"))
	mux.HandleFunc("GET /assessments/{id}", MetricsMiddleware(a.HandleGetSession, "get_session"))
	mux.HandleFunc("GET /assessments/{id}/result", MetricsMiddleware(a.HandleGetResult, "get_result"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
