package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/levelup/internal/config"
	"github.com/okian/levelup/pkg/logger"
	"github.com/okian/levelup/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.New(context.Background())
	cfg.WorkerCount = 2
	cfg.EventQueueSize = 100
	cfg.StoreDriver = config.DriverSQLite
	cfg.StorePath = filepath.Join(t.TempDir(), "levelup.db")
	cfg.Addr = "127.0.0.1:0"
	cfg.StatsIntervalMS = 10
	return cfg
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given a configuration with a sqlite store", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)

		convey.Convey("When the service is built from it", func() {
			svc, store, err := newService(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = store.Close() }()
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then the API answers on the configured routes", func() {
				h := newHandler(svc, cfg)

				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"store":"sqlite"`)

				w = httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subjects/alice/progression", nil))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"level":1`)
			})

			convey.Convey("Then the scheduler refreshes gauges", func() {
				sched, err := newScheduler(ctx, svc, 10*time.Millisecond)
				convey.So(err, convey.ShouldBeNil)
				sched.Start()
				time.Sleep(50 * time.Millisecond)
				convey.So(sched.Shutdown(), convey.ShouldBeNil)

				gathered, err := testutil.GatherAndCount(metrics.GetRegistry(), "levelup_engine_system_goroutine_count")
				convey.So(err, convey.ShouldBeNil)
				convey.So(gathered, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the store driver is unknown", func() {
			cfg.StoreDriver = "tape"
			_, _, err := newService(ctx, cfg)

			convey.Convey("Then building the service fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the stages are invalid", func() {
			cfg.StoreDriver = config.DriverMemory
			cfg.Stages = nil
			_, _, err := newService(ctx, cfg)

			convey.Convey("Then building the service fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running application", t, func() {
		cfg := testConfig(t)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- run(ctx, cfg) }()

		convey.Convey("When its context is cancelled", func() {
			time.Sleep(100 * time.Millisecond)
			cancel()

			convey.Convey("Then it shuts down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(10 * time.Second):
					convey.So("run did not return", convey.ShouldBeEmpty)
				}
			})
		})
	})
}
