package monitoring

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medpal_notifications_total",
		Help: "Total notification send attempts by channel and outcome.",
	}, []string{"channel", "status"})

	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medpal_scheduler_scans_total",
		Help: "Total poller scans by scan name and outcome.",
	}, []string{"scan", "status"})

	TicksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medpal_scheduler_ticks_skipped_total",
		Help: "Scheduler ticks skipped because the previous tick was still running.",
	})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "medpal_scheduler_scan_duration_seconds",
		Help:    "Duration of one poller scan.",
		Buckets: prometheus.DefBuckets,
	}, []string{"scan"})
)

// CountNotification records one send attempt.
func CountNotification(channel string, success bool) {
	status := "failed"
	if success {
		status = "sent"
	}
	NotificationsTotal.WithLabelValues(channel, status).Inc()
}

// CountScan records one completed or aborted scan.
func CountScan(scan string, ok bool) {
	status := "error"
	if ok {
		status = "ok"
	}
	ScansTotal.WithLabelValues(scan, status).Inc()
}

// ObserveScan records how long a scan took.
func ObserveScan(scan string, d time.Duration) {
	ScanDuration.WithLabelValues(scan).Observe(d.Seconds())
}

// StartMetricsServer exposes /metrics on its own listener.
func StartMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		log.Printf("Metrics server listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()
}
