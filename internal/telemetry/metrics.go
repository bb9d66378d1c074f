package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	JobsCreated   = prometheus.NewCounter(prometheus.CounterOpts{Name: "downloads_jobs_created_total", Help: "Total download jobs created"})
	JobsFinished  = prometheus.NewCounter(prometheus.CounterOpts{Name: "downloads_jobs_finished_total", Help: "Jobs that reached finished status"})
	JobsFailed    = prometheus.NewCounter(prometheus.CounterOpts{Name: "downloads_jobs_failed_total", Help: "Jobs that reached error status"})
	ItemsFinished = prometheus.NewCounter(prometheus.CounterOpts{Name: "downloads_items_finished_total", Help: "Playlist items downloaded to completion"})
	ClientsSwept  = prometheus.NewCounter(prometheus.CounterOpts{Name: "downloads_clients_swept_total", Help: "Expired client sessions reclaimed by the sweeper"})
	JobsRunning   = prometheus.NewGauge(prometheus.GaugeOpts{Name: "downloads_jobs_running", Help: "Jobs with an active download worker"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			JobsCreated,
			JobsFinished,
			JobsFailed,
			ItemsFinished,
			ClientsSwept,
			JobsRunning,
		)
	})
	return promhttp.Handler()
}
