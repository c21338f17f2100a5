package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAndGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(DownloadEvents, DownloadedBytes, TransportErrors, TransportLatency, ActiveDownloads, EventsDropped, JobsRejected)

	DownloadEvents.WithLabelValues("completed").Inc()
	TransportErrors.WithLabelValues("probe").Add(2)
	ActiveDownloads.Set(3)
	DownloadedBytes.Add(1024)

	// Histogram: observe one sample to ensure collector is live
	TransportLatency.WithLabelValues("fetch").Observe(0.05)

	expectedEvents := `# HELP modelkeep_download_events_total Count of terminal download events by status.
# TYPE modelkeep_download_events_total counter
modelkeep_download_events_total{status="completed"} 1
`
	if err := testutil.CollectAndCompare(DownloadEvents, strings.NewReader(expectedEvents)); err != nil {
		t.Fatalf("unexpected events metric: %v", err)
	}

	expectedErrors := `# HELP modelkeep_transport_errors_total Errors from remote length probes and fetches.
# TYPE modelkeep_transport_errors_total counter
modelkeep_transport_errors_total{op="probe"} 2
`
	if err := testutil.CollectAndCompare(TransportErrors, strings.NewReader(expectedErrors)); err != nil {
		t.Fatalf("unexpected transport errors metric: %v", err)
	}

	expectedGauge := `# HELP modelkeep_active_downloads Number of download jobs currently registered.
# TYPE modelkeep_active_downloads gauge
modelkeep_active_downloads 3
`
	if err := testutil.CollectAndCompare(ActiveDownloads, strings.NewReader(expectedGauge)); err != nil {
		t.Fatalf("unexpected active downloads gauge: %v", err)
	}

	if got := testutil.ToFloat64(DownloadedBytes); got != 1024 {
		t.Fatalf("downloaded bytes = %v", got)
	}
}

func TestTransportLatencyHistogram(t *testing.T) {
	// Use a fresh histogram to avoid cross-test contamination
	TransportLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "modelkeep",
			Name:      "transport_latency_seconds",
			Help:      "Latency of remote length probes and full file fetches.",
		},
		[]string{"op"},
	)

	TransportLatency.WithLabelValues("probe").Observe(0.03)
	TransportLatency.WithLabelValues("probe").Observe(0.6)

	expected := `# HELP modelkeep_transport_latency_seconds Latency of remote length probes and full file fetches.
# TYPE modelkeep_transport_latency_seconds histogram
modelkeep_transport_latency_seconds_bucket{op="probe",le="0.005"} 0
modelkeep_transport_latency_seconds_bucket{op="probe",le="0.01"} 0
modelkeep_transport_latency_seconds_bucket{op="probe",le="0.025"} 0
modelkeep_transport_latency_seconds_bucket{op="probe",le="0.05"} 1
modelkeep_transport_latency_seconds_bucket{op="probe",le="0.1"} 1
modelkeep_transport_latency_seconds_bucket{op="probe",le="0.25"} 1
modelkeep_transport_latency_seconds_bucket{op="probe",le="0.5"} 1
modelkeep_transport_latency_seconds_bucket{op="probe",le="1"} 2
modelkeep_transport_latency_seconds_bucket{op="probe",le="2.5"} 2
modelkeep_transport_latency_seconds_bucket{op="probe",le="5"} 2
modelkeep_transport_latency_seconds_bucket{op="probe",le="10"} 2
modelkeep_transport_latency_seconds_bucket{op="probe",le="+Inf"} 2
modelkeep_transport_latency_seconds_sum{op="probe"} 0.63
modelkeep_transport_latency_seconds_count{op="probe"} 2
`
	if err := testutil.CollectAndCompare(TransportLatency, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected histogram: %v", err)
	}
}
