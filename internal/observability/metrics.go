// Package observability exposes optional Prometheus metrics for long batch
// runs. Disabled by default; orchestrators treat a nil *Metrics as off.
package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the pipeline's Prometheus collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	itemsScraped     *prometheus.CounterVec
	imagesUploaded   *prometheus.CounterVec
	downloadDuration prometheus.Histogram
}

// New constructs and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	itemsScraped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fragscrape_items_total",
			Help: "Catalog items processed by the scrape pass, by outcome status.",
		},
		[]string{"status"},
	)
	imagesUploaded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fragscrape_uploads_total",
			Help: "Publish attempts, by result.",
		},
		[]string{"result"},
	)
	downloadDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fragscrape_download_duration_seconds",
			Help:    "Image download latency.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(itemsScraped, imagesUploaded, downloadDuration)

	return &Metrics{
		registry:         registry,
		itemsScraped:     itemsScraped,
		imagesUploaded:   imagesUploaded,
		downloadDuration: downloadDuration,
	}
}

// ObserveItem records one scrape outcome. Nil-safe.
func (m *Metrics) ObserveItem(status string) {
	if m == nil {
		return
	}
	m.itemsScraped.WithLabelValues(status).Inc()
}

// ObserveUpload records one publish attempt. Nil-safe.
func (m *Metrics) ObserveUpload(result string) {
	if m == nil {
		return
	}
	m.imagesUploaded.WithLabelValues(result).Inc()
}

// ObserveDownload records one download duration. Nil-safe.
func (m *Metrics) ObserveDownload(d time.Duration) {
	if m == nil {
		return
	}
	m.downloadDuration.Observe(d.Seconds())
}

// StartServer serves the metrics endpoint in the background.
func (m *Metrics) StartServer(port int, path string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", port)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
	logger.Info("metrics server listening", "addr", addr, "path", path)
}
