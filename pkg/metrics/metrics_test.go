package metrics

import (
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
				WithPrometheusRegistry(registry),
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithCustomLabels(map[string]string{"env": "test"}),
			)
			m.queueEnqueued.Inc()

			Convey("Then collectors are registered under the namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_queue_enqueue_total"], ShouldBeTrue)
				So(testutil.ToFloat64(m.queueEnqueued), ShouldEqual, 1)
			})
		})

		Convey("When two managers share a registry", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestGlobalRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When engine metrics are recorded", func() {
			before := testutil.ToFloat64(globalManager.clusteringRuns.WithLabelValues("city", "grid"))
			RecordClustering("city", "grid", 7, 1.5)
			RecordEventsDropped("invalid_coordinate", 2)
			RecordEventsDropped("invalid_coordinate", 0)

			Convey("Then counters and gauges move", func() {
				So(testutil.ToFloat64(globalManager.clusteringRuns.WithLabelValues("city", "grid")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.clustersProduced.WithLabelValues("city")), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.eventsDropped.WithLabelValues("invalid_coordinate")), ShouldBeGreaterThanOrEqualTo, 2)
			})
		})

		Convey("When snapshot and queue metrics are recorded", func() {
			RecordSnapshotReplaced(12, 340)
			UpdateQueueSize(3)
			RecordClusterCache(true)

			Convey("Then gauges hold the latest values", func() {
				So(testutil.ToFloat64(globalManager.snapshotVersion), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.snapshotEvents), ShouldEqual, 340)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.clusterCacheLookups.WithLabelValues("hit")), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When recording is disabled", func() {
			SetEnabled(false)
			defer SetEnabled(true)
			before := testutil.ToFloat64(globalManager.queueEnqueued)
			RecordQueueEnqueue()

			Convey("Then nothing changes", func() {
				So(testutil.ToFloat64(globalManager.queueEnqueued), ShouldEqual, before)
			})
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
			So(func() {
				RecordHTTPRequest("/clusters", "GET", "200", 3)
				RecordJobProcessed("done", 12)
				RecordErrorByComponent("api", "bad_request")
			}, ShouldNotPanic)
		})
	})
}
