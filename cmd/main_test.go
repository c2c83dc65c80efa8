package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	app "github.com/okian/tracksense/internal/app"
	"github.com/okian/tracksense/internal/config"
	"github.com/okian/tracksense/pkg/logger"
	"github.com/okian/tracksense/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const customCatalog = `
tracks:
  - id: only-track
    name: 唯一
    nameEn: Only Track
    description: the single track
    riskLevel: 50
    timeHorizon: 50
    esgProfile: {E: 50, S: 50, G: 50}
    sdgs: [1]
    examples: [x]
`

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("TRACKSENSE_ADDR", ":8080")
			_ = os.Setenv("TRACKSENSE_QUEUE_SIZE", "1000")
			_ = os.Setenv("TRACKSENSE_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("TRACKSENSE_ADDR")
				_ = os.Unsetenv("TRACKSENSE_QUEUE_SIZE")
				_ = os.Unsetenv("TRACKSENSE_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable on its own registry", func() {
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestNewService(t *testing.T) {
	convey.Convey("Given a default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.WorkerCount = 1

		convey.Convey("When the catalog path is empty", func() {
			svc, err := newService(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then the embedded catalog is served", func() {
				tracks, err := svc.Tracks(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(tracks), convey.ShouldBeGreaterThan, 3)
			})
		})

		convey.Convey("When the catalog path points at a custom file", func() {
			path := filepath.Join(t.TempDir(), "tracks.yaml")
			convey.So(os.WriteFile(path, []byte(customCatalog), 0o600), convey.ShouldBeNil)
			cfg.CatalogPath = path

			svc, err := newService(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then only its tracks are served", func() {
				tracks, err := svc.Tracks(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(tracks), convey.ShouldEqual, 1)
				convey.So(tracks[0].ID, convey.ShouldEqual, "only-track")
			})
		})

		convey.Convey("When the catalog file is missing", func() {
			cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")

			svc, err := newService(ctx, cfg, logger.Get())

			convey.Convey("Then the service does not start", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(svc, convey.ShouldBeNil)
			})
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given a handler over a started service", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.WorkerCount = 1
		svc, err := newService(ctx, cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(ctx, cfg, svc)

		for _, path := range []string{"/healthz", "/metrics", "/stats", "/tracks", "/api-docs", "/openapi.yaml"} {
			convey.Convey("Then GET "+path+" is served", func() {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest("GET", path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		}

		convey.Convey("Then an assessment can be started", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest("POST", "/assessments", strings.NewReader(`{"language":"zh"}`)))
			convey.So(w.Code, convey.ShouldEqual, http.StatusCreated)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"language":"zh"`)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics updater", func() {
			svc := app.New()

			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics update on a stopped service", func() {
			svc := app.New()

			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})
	})
}
