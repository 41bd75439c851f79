package metricsvc

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/attendo/core/attendance"
)

const namespace = "attendo"

// Metrics holds the app counters, on their own registry.
type Metrics struct {
	registry     *prometheus.Registry
	parses       *prometheus.CounterVec
	unrecognized *prometheus.CounterVec
	recordsSaved prometheus.Counter
	ocrRequests  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parses_total",
			Help:      "Parsed attendance messages, by outcome (complete or incomplete).",
		}, []string{"outcome"}),
		unrecognized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unrecognized_fields_total",
			Help:      "Metadata fields the parser could not find, by field.",
		}, []string{"field"}),
		recordsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_saved_total",
			Help:      "Attendance records created or updated.",
		}),
		ocrRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_requests_total",
			Help:      "OCR requests, by engine and result (ok or error).",
		}, []string{"engine", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.parses,
		m.unrecognized,
		m.recordsSaved,
		m.ocrRequests,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveParse(pa attendance.ParsedAttendance) {
	outcome := "complete"
	if !pa.Complete() {
		outcome = "incomplete"
	}
	m.parses.WithLabelValues(outcome).Inc()

	if !pa.Date.Valid {
		m.unrecognized.WithLabelValues("date").Inc()
	}
	if !pa.Session.Valid {
		m.unrecognized.WithLabelValues("session").Inc()
	}
	if !pa.Section.Valid {
		m.unrecognized.WithLabelValues("section").Inc()
	}
}

func (m *Metrics) ObserveMark(res attendance.MarkResult) {
	m.recordsSaved.Add(float64(res.Count))
}

func (m *Metrics) ObserveOCR(engine string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ocrRequests.WithLabelValues(engine, result).Inc()
}
