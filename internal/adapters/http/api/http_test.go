package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/tracksense/internal/adapters/http/api"
	"github.com/okian/tracksense/internal/adapters/repository"
	service "github.com/okian/tracksense/internal/app"
	"github.com/okian/tracksense/internal/domain/assessment"
	"github.com/okian/tracksense/internal/domain/catalog"
	"github.com/okian/tracksense/internal/domain/i18n"
	"github.com/okian/tracksense/internal/domain/model"
	"github.com/okian/tracksense/internal/domain/scoring"
	"github.com/okian/tracksense/internal/domain/stage"
	"github.com/okian/tracksense/internal/domain/types"
	"github.com/okian/tracksense/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDependencies returns canned values or a configured error.
type mockDependencies struct {
	err      error
	lastLang string
	lastTurn model.Turn
	tracks   []catalog.Track
}

func (m *mockDependencies) StartAssessment(_ context.Context, lang string) (types.Started, error) {
	m.lastLang = lang
	if m.err != nil {
		return types.Started{}, m.err
	}
	return types.Started{SessionID: "s-1", Question: "q", Stage: stage.Opening, Language: i18n.English}, nil
}

func (m *mockDependencies) ApplyTurn(_ context.Context, id string, turn model.Turn) (types.TurnOutcome, error) {
	m.lastTurn = turn
	if m.err != nil {
		return types.TurnOutcome{}, m.err
	}
	st := stage.Evaluate(turn.NextStage)
	return types.TurnOutcome{Stage: st.Stage, Progress: st.Progress, IsComplete: st.IsComplete, ConversationCount: 1, Reply: turn.Reply}, nil
}

func (m *mockDependencies) Session(_ context.Context, id string) (types.SessionSnapshot, error) {
	if m.err != nil {
		return types.SessionSnapshot{}, m.err
	}
	return types.SessionSnapshot{SessionID: id, Stage: stage.Opening}, nil
}

func (m *mockDependencies) Result(_ context.Context, _ string) (*scoring.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &scoring.Result{Language: i18n.English}, nil
}

func (m *mockDependencies) Tracks(_ context.Context) ([]catalog.Track, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tracks, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...).
		Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{tracks: []catalog.Track{{ID: "a"}, {ID: "b"}}}
		mux := newMux(deps)

		Convey("Then health returns JSON liveness", func() {
			w := do(mux, "GET", "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("And metrics are exposed in Prometheus format", func() {
			do(mux, "GET", "/healthz", "")
			w := do(mux, "GET", "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("And stats come from the provider", func() {
			w := do(mux, "GET", "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("And tracks list the catalog", func() {
			w := do(mux, "GET", "/tracks", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var tracks []catalog.Track
			So(json.Unmarshal(w.Body.Bytes(), &tracks), ShouldBeNil)
			So(len(tracks), ShouldEqual, 2)
		})

		Convey("And unknown paths are not found", func() {
			w := do(mux, "GET", "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And wrong methods are rejected", func() {
			w := do(mux, "DELETE", "/assessments/s-1", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestAssessmentRoutes(t *testing.T) {
	Convey("Given an API server over mock dependencies", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When starting without a body", func() {
			req := httptest.NewRequest("POST", "/assessments", http.NoBody)
			req.Header.Set("Accept-Language", "zh-TW")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then a session is created with the header language", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(deps.lastLang, ShouldEqual, "zh-TW")
				So(w.Body.String(), ShouldContainSubstring, `"session_id":"s-1"`)
			})
		})

		Convey("When starting with an explicit language", func() {
			w := do(mux, "POST", "/assessments", `{"language":"en"}`)

			Convey("Then the body wins", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(deps.lastLang, ShouldEqual, "en")
			})
		})

		Convey("When starting with malformed JSON", func() {
			w := do(mux, "POST", "/assessments", `{"language":`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(errorCode(w), ShouldEqual, "bad_request")
			})
		})

		Convey("When posting a turn", func() {
			body := `{"turn_id":" t-1 ","next_stage":"risk","reply":"next?","scores_update":{"risk":{"raw":70,"confidence":0.5},"sdgPriorities":[7,13]}}`
			w := do(mux, "POST", "/assessments/s-1/turns", body)

			Convey("Then the decoded turn reaches the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastTurn.TurnID, ShouldEqual, "t-1")
				So(deps.lastTurn.NextStage, ShouldEqual, "risk")
				So(deps.lastTurn.Update.Risk, ShouldNotBeNil)
				So(deps.lastTurn.Update.Risk.Raw, ShouldEqual, 70)
				So(deps.lastTurn.Update.SDGPriorities, ShouldResemble, []int{7, 13})

				var out types.TurnOutcome
				So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
				So(out.Stage, ShouldEqual, stage.Risk)
				So(out.Progress, ShouldEqual, 30)
				So(out.Reply, ShouldEqual, "next?")
			})
		})

		Convey("When a turn has no next_stage", func() {
			w := do(mux, "POST", "/assessments/s-1/turns", `{"turn_id":"t-1"}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "missing next_stage")
			})
		})

		Convey("When a turn omits scores_update", func() {
			w := do(mux, "POST", "/assessments/s-1/turns", `{"next_stage":"opening"}`)

			Convey("Then an empty update is applied", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastTurn.Update.Risk, ShouldBeNil)
				So(deps.lastTurn.Update.SDGPriorities, ShouldBeNil)
			})
		})

		Convey("When reading a session and its result", func() {
			snap := do(mux, "GET", "/assessments/s-9", "")
			res := do(mux, "GET", "/assessments/s-9/result", "")

			Convey("Then both succeed", func() {
				So(snap.Code, ShouldEqual, http.StatusOK)
				So(snap.Body.String(), ShouldContainSubstring, `"session_id":"s-9"`)
				So(res.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{repository.ErrNotFound, http.StatusNotFound, "not_found"},
		{fmt.Errorf("wrapped: %w", repository.ErrNotFound), http.StatusNotFound, "not_found"},
		{service.ErrSessionComplete, http.StatusConflict, "session_complete"},
		{service.ErrNotComplete, http.StatusConflict, "session_incomplete"},
		{fmt.Errorf("%w: %q", service.ErrInvalidStage, "nope"), http.StatusBadRequest, "bad_request"},
		{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	Convey("Given service errors", t, func() {
		for _, tc := range cases {
			deps := &mockDependencies{err: tc.err}
			mux := newMux(deps)

			Convey(fmt.Sprintf("%v maps to %d", tc.err, tc.status), func() {
				w := do(mux, "POST", "/assessments/s-1/turns", `{"next_stage":"risk"}`)
				So(w.Code, ShouldEqual, tc.status)
				So(errorCode(w), ShouldEqual, tc.code)

				w = do(mux, "GET", "/assessments/s-1/result", "")
				So(w.Code, ShouldEqual, tc.status)
			})
		}
	})
}

func TestRateLimit(t *testing.T) {
	Convey("Given a server limited to a burst of two", t, func() {
		mux := newMux(&mockDependencies{}, api.WithRateLimit(1, 2))

		Convey("When one client starts three assessments", func() {
			codes := make([]int, 0, 3)
			for i := 0; i < 3; i++ {
				codes = append(codes, do(mux, "POST", "/assessments", "").Code)
			}

			Convey("Then the third is rejected", func() {
				So(codes, ShouldResemble, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests})
			})

			Convey("And reads are not limited", func() {
				So(do(mux, "GET", "/tracks", "").Code, ShouldEqual, http.StatusOK)
			})

			Convey("And another client has its own budget", func() {
				req := httptest.NewRequest("POST", "/assessments", http.NoBody)
				req.Header.Set("X-Forwarded-For", "203.0.113.7")
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusCreated)
			})
		})
	})
}

func TestEndToEnd(t *testing.T) {
	Convey("Given the API over a running service", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		mux := newMux(svc)

		w := do(mux, "POST", "/assessments", `{"language":"en"}`)
		So(w.Code, ShouldEqual, http.StatusCreated)
		var started types.Started
		So(json.Unmarshal(w.Body.Bytes(), &started), ShouldBeNil)
		base := "/assessments/" + started.SessionID

		Convey("When the result is requested too early", func() {
			w := do(mux, "GET", base+"/result", "")

			Convey("Then it conflicts", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When an unknown stage is proposed", func() {
			w := do(mux, "POST", base+"/turns", `{"next_stage":"lunch"}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the session walks to completion", func() {
			turns := []string{
				`{"turn_id":"1","next_stage":"risk"}`,
				`{"turn_id":"2","next_stage":"goals","scores_update":{"risk":{"raw":95,"confidence":0.9}}}`,
				`{"turn_id":"3","next_stage":"behavior","scores_update":{"timeHorizon":{"raw":30,"confidence":0.8}}}`,
				`{"turn_id":"4","next_stage":"values","scores_update":{"biases":[{"type":"herding","strength":"high","evidence":"follows friends"}]}}`,
				`{"turn_id":"5","next_stage":"confirmation","scores_update":{"esg":{"environmental":90,"social":40,"governance":20},"sdgPriorities":[7,13]}}`,
				`{"turn_id":"6","next_stage":"complete"}`,
			}
			var last types.TurnOutcome
			for _, body := range turns {
				w := do(mux, "POST", base+"/turns", body)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(json.Unmarshal(w.Body.Bytes(), &last), ShouldBeNil)
			}

			Convey("Then the final status is complete", func() {
				So(last.IsComplete, ShouldBeTrue)
				So(last.Progress, ShouldEqual, 100)
				So(last.ConversationCount, ShouldEqual, 6)
			})

			Convey("And a retried turn is reported as a duplicate", func() {
				w := do(mux, "POST", base+"/turns", turns[5])
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"duplicate":true`)
			})

			Convey("And a new turn conflicts", func() {
				w := do(mux, "POST", base+"/turns", `{"turn_id":"7","next_stage":"complete"}`)
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(errorCode(w), ShouldEqual, "session_complete")
			})

			Convey("And the result ranks three tracks", func() {
				w := do(mux, "GET", base+"/result", "")
				So(w.Code, ShouldEqual, http.StatusOK)

				var res scoring.Result
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(len(res.RecommendedTracks), ShouldEqual, 3)
				So(res.RecommendedTracks[0].Rank, ShouldEqual, 1)
				So(res.BehavioralInsights.MainBiases, ShouldResemble, []assessment.BiasType{assessment.BiasHerding})
			})

			Convey("And the snapshot reports the stored result", func() {
				do(mux, "GET", base+"/result", "")
				w := do(mux, "GET", base, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"has_result":true`)
			})
		})

		Convey("When the session does not exist", func() {
			w := do(mux, "GET", "/assessments/missing", "")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(errorCode(w), ShouldEqual, "not_found")
			})
		})
	})
}
