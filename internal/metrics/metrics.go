// Package metrics exposes drawing counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the board's collectors on a private registry. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	stamps    *prometheus.CounterVec
	committed prometheus.Counter
	erased    prometheus.Counter
	events    *prometheus.CounterVec
	ignored   prometheus.Counter
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stamps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inkboard",
			Name:      "stamps_total",
			Help:      "Circular stamps composited onto the pixel buffer.",
		}, []string{"tool"}),
		committed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inkboard",
			Name:      "strokes_committed_total",
			Help:      "Brush strokes committed to the stroke store.",
		}),
		erased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inkboard",
			Name:      "strokes_erased_total",
			Help:      "Strokes removed by the line eraser.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inkboard",
			Name:      "pointer_events_total",
			Help:      "Pointer events handled, by kind.",
		}, []string{"kind"}),
		ignored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inkboard",
			Name:      "ignored_events_total",
			Help:      "Pointer events dropped because no matching gesture was active.",
		}),
	}
	r.registry.MustRegister(r.stamps, r.committed, r.erased, r.events, r.ignored)
	return r
}

func (r *Recorder) Stamp(tool string) {
	if r == nil {
		return
	}
	r.stamps.WithLabelValues(tool).Inc()
}

func (r *Recorder) StrokeCommitted() {
	if r == nil {
		return
	}
	r.committed.Inc()
}

func (r *Recorder) StrokesErased(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.erased.Add(float64(n))
}

func (r *Recorder) PointerEvent(kind string) {
	if r == nil {
		return
	}
	r.events.WithLabelValues(kind).Inc()
}

func (r *Recorder) IgnoredEvent() {
	if r == nil {
		return
	}
	r.ignored.Inc()
}

// Registry returns the underlying registry, mostly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the collectors for scraping.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
