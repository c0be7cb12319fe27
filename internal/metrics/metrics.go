package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ecotrack_http_requests_total", Help: "Total HTTP requests by method and status"},
		[]string{"method", "status"},
	)
	PickupsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ecotrack_pickups_created_total", Help: "Total pickup requests created"},
	)
	BatchesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ecotrack_batches_created_total", Help: "Total batches created"},
	)
	StageChanges = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ecotrack_stage_changes_total", Help: "Total batch stage changes"},
	)
	Detections = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ecotrack_detections_total", Help: "Total detection requests served"},
	)
)

func Register() {
	prometheus.MustRegister(HTTPRequests, PickupsCreated, BatchesCreated, StageChanges, Detections)
}
