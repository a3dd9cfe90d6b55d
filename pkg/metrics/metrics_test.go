package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a private registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("sync"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"backend": "memory"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then its metrics should be registered there", func() {
				So(m, ShouldNotBeNil)
				m.RecordRemoteCall("read_all", OutcomeOK, 12)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_sync_remote_calls_total")
				So(names, ShouldContain, "test_sync_remote_call_latency_milliseconds")
			})
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When recording remote calls", func() {
			m.RecordRemoteCall("update_cell", OutcomeOK, 5)
			m.RecordRemoteCall("update_cell", OutcomeOK, 7)
			m.RecordRemoteCall("update_cell", OutcomeRejected, 3)

			Convey("Then counts should be split by outcome", func() {
				So(testutil.ToFloat64(m.remoteCalls.WithLabelValues("update_cell", OutcomeOK)), ShouldEqual, 2.0)
				So(testutil.ToFloat64(m.remoteCalls.WithLabelValues("update_cell", OutcomeRejected)), ShouldEqual, 1.0)
			})
		})

		Convey("When recording skipped rows", func() {
			m.RecordRowsSkipped(2)
			m.RecordRowsSkipped(0)
			m.RecordRowsSkipped(-1)

			Convey("Then only positive counts should be added", func() {
				So(testutil.ToFloat64(m.rowsSkipped), ShouldEqual, 2.0)
			})
		})

		Convey("When recording cache lookups and mutations", func() {
			m.RecordCacheLookup(CacheHit)
			m.RecordCacheLookup(CacheHit)
			m.RecordCacheLookup(CacheStale)
			m.RecordMutation("create", OutcomeInvalid)
			m.UpdateTicketsLoaded(3)

			Convey("Then each series should reflect the calls", func() {
				So(testutil.ToFloat64(m.cacheLookups.WithLabelValues(CacheHit)), ShouldEqual, 2.0)
				So(testutil.ToFloat64(m.cacheLookups.WithLabelValues(CacheStale)), ShouldEqual, 1.0)
				So(testutil.ToFloat64(m.mutations.WithLabelValues("create", OutcomeInvalid)), ShouldEqual, 1.0)
				So(testutil.ToFloat64(m.ticketsLoaded), ShouldEqual, 3.0)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then the package helpers should not panic", func() {
			So(func() {
				RecordRemoteCall("read_all", OutcomeUnavailable, 10000)
				RecordRowsSkipped(1)
				UpdateTicketsLoaded(10)
				RecordCacheLookup(CacheMiss)
				RecordMutation("append_note", OutcomeOK)
				UpdateSessionsActive(2)
				RecordSessionEvicted()
				RecordHTTPRequest("tickets", "GET", "200")
				RecordHTTPRequestDuration("tickets", "GET", "200", 12)
				RecordErrorByType("server_error", "high")
				RecordErrorByEndpoint("tickets", "GET", "server_error")
				RecordErrorLatency("http", "server_error", 12)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(8)
				RecordSystemGCPauseTime(0.5)
			}, ShouldNotPanic)
		})

		Convey("And the registry should be exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
