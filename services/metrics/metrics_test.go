package metricsvc

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/attendo/core/attendance"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.ObserveParse(attendance.Parse("31 Jan 2026\nMorning\nAD-A"))
	m.ObserveParse(attendance.Parse("Morning\nAbsentees\n12.Kumar"))
	m.ObserveMark(attendance.MarkResult{Count: 40})
	m.ObserveMark(attendance.MarkResult{Count: 2})
	m.ObserveOCR("ocrspace", nil)
	m.ObserveOCR("ocrspace", errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.parses.WithLabelValues("complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parses.WithLabelValues("incomplete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.unrecognized.WithLabelValues("date")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.unrecognized.WithLabelValues("session")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.unrecognized.WithLabelValues("section")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.recordsSaved))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ocrRequests.WithLabelValues("ocrspace", "error")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `attendo_records_saved_total 42`)
	assert.Contains(t, rec.Body.String(), `attendo_parses_total{outcome="complete"} 1`)
}
