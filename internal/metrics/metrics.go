package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Viewport sync
	Settles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geomap",
		Subsystem: "viewsync",
		Name:      "settles_total",
		Help:      "Total viewport-settle events that issued a fetch",
	})

	Responses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geomap",
		Subsystem: "viewsync",
		Name:      "responses_total",
		Help:      "Fetch responses by outcome (applied, stale, failed)",
	}, []string{"outcome"})

	CurrentEpoch = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geomap",
		Subsystem: "viewsync",
		Name:      "current_epoch",
		Help:      "Most recently allocated request epoch",
	})

	LayerFeatures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "geomap",
		Subsystem: "map",
		Name:      "layer_features",
		Help:      "Number of features held by each map layer",
	}, []string{"layer"})

	// Data service client
	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geomap",
		Subsystem: "client",
		Name:      "fetch_duration_seconds",
		Help:      "Latency of /layers requests",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"outcome"})

	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geomap",
		Subsystem: "client",
		Name:      "fetch_errors_total",
		Help:      "Failed /layers requests by kind (network, status, decode)",
	}, []string{"kind"})

	ResponseSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geomap",
		Subsystem: "client",
		Name:      "response_size_bytes",
		Help:      "Size of /layers response bodies",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	})
)

// Serve exposes /metrics on addr until ctx is done. An empty addr disables it.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown", "error", err)
		}
	}()

	slog.Info("metrics server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
