// Package metrics exposes the serving Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PredictionsTotal counts prediction attempts by outcome (ok, error).
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindmeter_predictions_total",
			Help: "Total number of adherence predictions by status",
		},
		[]string{"status"},
	)

	// PredictionErrorsTotal counts failed predictions by error kind.
	PredictionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindmeter_prediction_errors_total",
			Help: "Total number of failed predictions by error kind",
		},
		[]string{"kind"},
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mindmeter_prediction_duration_seconds",
			Help:    "Duration of a single prediction including transformation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	// PredictionCacheTotal counts cache lookups by result (hit, miss, error).
	PredictionCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindmeter_prediction_cache_total",
			Help: "Prediction cache lookups by result",
		},
		[]string{"result"},
	)

	BundleInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mindmeter_bundle_info",
			Help: "Currently served model bundle; value is always 1",
		},
		[]string{"version", "algorithm"},
	)
)

func RecordPrediction(duration time.Duration, kind string) {
	PredictionDuration.Observe(duration.Seconds())
	if kind == "" {
		PredictionsTotal.WithLabelValues("ok").Inc()
		return
	}
	PredictionsTotal.WithLabelValues("error").Inc()
	PredictionErrorsTotal.WithLabelValues(kind).Inc()
}

func RecordCacheLookup(result string) {
	PredictionCacheTotal.WithLabelValues(result).Inc()
}

func SetBundle(version, algorithm string) {
	BundleInfo.Reset()
	BundleInfo.WithLabelValues(version, algorithm).Set(1)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
