// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catatan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catatan_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catatan_http_active_requests",
			Help: "Current number of active HTTP requests",
		},
	)

	// NoteOperationsTotal counts note mutations by operation and outcome.
	NoteOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catatan_note_operations_total",
			Help: "Total number of note operations",
		},
		[]string{"operation", "outcome"}, // create/update/delete/toggle/add_image, ok/error
	)

	// TranscodeDuration times block/content conversions.
	TranscodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catatan_transcode_duration_seconds",
			Help:    "Duration of editor encode and decode passes",
			Buckets: []float64{.00001, .0001, .0005, .001, .005, .01, .05},
		},
		[]string{"direction"}, // encode, decode
	)

	ImagesRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catatan_image_refs_removed_total",
			Help: "Image references dropped because the file disappeared",
		},
	)
)

// TrackNoteOperation records one note operation.
func TrackNoteOperation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	NoteOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// TrackTranscode returns a timer for one encode or decode pass.
func TrackTranscode(direction string) *prometheus.Timer {
	return prometheus.NewTimer(TranscodeDuration.WithLabelValues(direction))
}

// RegisterSSEClients exposes the live SSE client count as a gauge.
func RegisterSSEClients(count func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "catatan_sse_clients",
		Help: "Connected Server-Sent Events clients",
	}, func() float64 { return float64(count()) })
}

// Middleware records request counts and latency, labelled by chi route
// pattern so ids do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ActiveRequests.Inc()
		defer ActiveRequests.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
