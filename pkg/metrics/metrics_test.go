package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with degenerate option values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are retained and creation succeeds", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "lumina")
				So(manager.subsystem, ShouldEqual, "engagement")
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording ingestion metrics", func() {
			So(func() {
				RecordActivityProcessed()
				RecordActivityDuplicate()
				RecordActivityRejected()
				RecordValuationLatency(1.5)
				RecordValuationError()
			}, ShouldNotPanic)
		})

		Convey("When recording queue metrics", func() {
			So(func() {
				UpdateQueueSize(100)
				UpdateQueueCapacity(10000)
				UpdateQueueUtilization(0.01)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
			}, ShouldNotPanic)
		})

		Convey("When recording worker metrics", func() {
			So(func() {
				UpdateWorkerCount(8)
				RecordWorkerProcessingLatency(12.0)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording ledger metrics", func() {
			So(func() {
				UpdateLedgerWallets(5000)
				RecordLedgerUpdate()
				RecordLedgerUpdateLatency(0.4)
				RecordLedgerQueryLatency(0.2)
				RecordLedgerSnapshot()
			}, ShouldNotPanic)
		})

		Convey("When recording upstream metrics", func() {
			So(func() {
				RecordUpstreamRequest("catalog", "trending")
				RecordUpstreamError("socialgraph", "comments")
				RecordUpstreamLatency("catalog", "trending", 85.0)
			}, ShouldNotPanic)
		})

		Convey("When recording engine metrics", func() {
			So(func() {
				RecordEngineComputation("signals")
				RecordEngineError("personalization")
				RecordEngineLatency("feed", 140.0)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("/leaderboard", "GET", "200")
				RecordHTTPRequest("/activities", "POST", "202")
				RecordHTTPRequestDuration("/leaderboard", "GET", "200", 3.0)
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1024 * 1024 * 64)
				UpdateSystemGoroutineCount(42)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsEdgeCases(t *testing.T) {
	Convey("Given edge values", t, func() {
		Convey("zero, negative, and large values do not panic", func() {
			So(func() {
				UpdateQueueSize(0)
				UpdateQueueSize(-1)
				UpdateQueueSize(1_000_000)
				UpdateLedgerWallets(0)
				RecordValuationLatency(0.0)
				RecordHTTPRequestDuration("/x", "GET", "200", 30000.0)
			}, ShouldNotPanic)
		})

		Convey("empty label values do not panic", func() {
			So(func() {
				RecordHTTPRequest("", "", "")
				RecordUpstreamRequest("", "")
				RecordEngineComputation("")
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recording", t, func() {
		done := make(chan bool, 10)

		for i := 0; i < 10; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					RecordActivityProcessed()
					UpdateQueueSize(j)
					RecordLedgerQueryLatency(float64(j))
					RecordHTTPRequest("/leaderboard", "GET", "200")
				}
				done <- true
			}()
		}

		for i := 0; i < 10; i++ {
			<-done
		}

		Convey("Then no panics occurred", func() {
			So(true, ShouldBeTrue)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("GetRegistry returns the shared registry", t, func() {
		So(GetRegistry(), ShouldNotBeNil)
		So(GetRegistry(), ShouldEqual, customRegistry)
	})
}
