package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	DownloadEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelkeep",
			Name:      "download_events_total",
			Help:      "Count of terminal download events by status.",
		},
		[]string{"status"},
	)

	DownloadedBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modelkeep",
			Name:      "downloaded_bytes_total",
			Help:      "Bytes written to local storage by model downloads.",
		},
	)

	TransportErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelkeep",
			Name:      "transport_errors_total",
			Help:      "Errors from remote length probes and fetches.",
		},
		[]string{"op"},
	)

	TransportLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "modelkeep",
			Name:      "transport_latency_seconds",
			Help:      "Latency of remote length probes and full file fetches.",
		},
		[]string{"op"},
	)

	ActiveDownloads = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "modelkeep",
			Name:      "active_downloads",
			Help:      "Number of download jobs currently registered.",
		},
	)

	EventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modelkeep",
			Name:      "progress_events_dropped_total",
			Help:      "Progress events dropped because a consumer was not keeping up.",
		},
	)

	JobsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modelkeep",
			Name:      "jobs_rejected_total",
			Help:      "Download starts rejected because a job for the model was already running.",
		},
	)
)

// Register registers the modelkeep metrics into the default registry.
func Register() {
	prometheus.MustRegister(DownloadEvents, DownloadedBytes, TransportErrors, TransportLatency, ActiveDownloads, EventsDropped, JobsRejected)
}
