package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager is created with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.levelUps.Inc()

			Convey("Then metrics are registered under the namespace with the labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "test_unit_"), ShouldBeTrue)
					if f.GetName() == "test_unit_level_ups_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are given", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "levelup")
				So(m.subsystem, ShouldEqual, "engine")
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When domain events are recorded", func() {
			before := testutil.ToFloat64(globalManager.eventsRecorded.WithLabelValues("points"))
			levels := testutil.ToFloat64(globalManager.levelUps)
			stages := testutil.ToFloat64(globalManager.stagesCleared)
			points := testutil.ToFloat64(globalManager.pointsAwarded)

			RecordEventRecorded("points")
			RecordLevelUp()
			RecordStagesCleared(2)
			RecordStagesCleared(0)
			RecordPointsAwarded(10)
			RecordPointsAwarded(-5)

			Convey("Then counters move by the recorded amounts", func() {
				So(testutil.ToFloat64(globalManager.eventsRecorded.WithLabelValues("points"))-before, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.levelUps)-levels, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.stagesCleared)-stages, ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.pointsAwarded)-points, ShouldEqual, 10)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(100)
			UpdateSubjectsTracked(3)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100)
				So(testutil.ToFloat64(globalManager.subjectsTracked), ShouldEqual, 3)
			})
		})

		Convey("When the remaining recorders are called", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordEventDuplicate("damage")
					RecordEventRejected("damage", "invalid_score")
					RecordDamageDealt(300)
					RecordApplyLatency("points", 1.5)
					RecordStoreLatency("append", 0.2)
					RecordStoreError("append")
					RecordHTTPRequest("/leaderboard", "GET", "200")
					RecordHTTPRequestDuration("/leaderboard", "GET", "200", 3)
					UpdateQueueUtilization(0.5)
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					UpdateWorkerCount(4)
					RecordWorkerProcessingLatency(2)
					RecordWorkerError()
					RecordErrorByComponent("service", "store")
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.3)
				}, ShouldNotPanic)
			})
		})

		Convey("When the registry is gathered", func() {
			families, err := GetRegistry().Gather()

			Convey("Then levelup metrics are exposed", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
