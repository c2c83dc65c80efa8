package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/okian/tracksense/internal/domain/assessment"
	"github.com/okian/tracksense/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// startRequest mirrors the OpenAPI schema for POST /assessments.
type startRequest struct {
	Language string `json:"language"`
}

// turnRequest mirrors the OpenAPI schema for POST /assessments/{id}/turns.
type turnRequest struct {
	TurnID       string              `json:"turn_id"`
	ScoresUpdate *assessment.Partial `json:"scores_update"`
	NextStage    string              `json:"next_stage"`
	Reply        string              `json:"reply"`
}

func (t turnRequest) validate() error {
	if strings.TrimSpace(t.NextStage) == "" {
		return errors.New("missing next_stage")
	}
	if len(t.TurnID) > 128 {
		return errors.New("turn_id too long")
	}
	return nil
}

func (t turnRequest) turn() model.Turn {
	var update assessment.Partial
	if t.ScoresUpdate != nil {
		update = *t.ScoresUpdate
	}
	return model.Turn{
		TurnID:    strings.TrimSpace(t.TurnID),
		Update:    update,
		NextStage: t.NextStage,
		Reply:     t.Reply,
	}
}

// AssessmentHandler serves the session lifecycle routes.
type AssessmentHandler struct {
	deps Dependencies
}

// NewAssessmentHandler creates a new assessment handler.
func NewAssessmentHandler(deps Dependencies) *AssessmentHandler {
	return &AssessmentHandler{deps: deps}
}

// HandleStart handles POST /assessments. The body is optional; without a
// language field the Accept-Language header decides.
func (h *AssessmentHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_assessment"
	var req startRequest
	if err := decode(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		lang = r.Header.Get("Accept-Language")
	}
	started, err := h.deps.StartAssessment(r.Context(), lang)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, started)
}

// HandleTurn handles POST /assessments/{id}/turns.
func (h *AssessmentHandler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	const op = "api.apply_turn"
	id := r.PathValue("id")
	var req turnRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	outcome, err := h.deps.ApplyTurn(r.Context(), id, req.turn())
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// HandleGetSession handles GET /assessments/{id}.
func (h *AssessmentHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	snap, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleGetResult handles GET /assessments/{id}/result.
func (h *AssessmentHandler) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_result"
	res, err := h.deps.Result(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decode(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}
