package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCopy(t *testing.T) {
	m := New()
	m.RecordCopy("element", OutcomeOK, 20*time.Millisecond, 512)
	m.RecordCopy("element", OutcomeOK, 10*time.Millisecond, 64)
	m.RecordCopy("selection", OutcomeClipboardError, 0, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Copies.WithLabelValues("element", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Copies.WithLabelValues("selection", OutcomeClipboardError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ConversionDuration))
}

func TestGaugesAndCounters(t *testing.T) {
	m := New()
	m.PageOpened()
	m.PageOpened()
	m.PageClosed()
	m.RecordNotice("copied")
	m.RecordFetch(true)
	m.RecordFetch(false)
	m.RecordFetch(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PagesOpen))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notices.WithLabelValues("copied")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Fetches.WithLabelValues("false")))
}

func TestNil(t *testing.T) {
	var m *Metrics
	m.RecordCopy("element", OutcomeOK, time.Second, 1)
	m.RecordNotice("copied")
	m.RecordFetch(true)
	m.PageOpened()
	m.PageClosed()
	assert.Nil(t, m.Registry())
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordCopy("html", OutcomeOK, time.Millisecond, 10)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `copymd_copies_total{outcome="ok",source="html"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
