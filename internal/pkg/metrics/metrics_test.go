package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestMemorySink(t *testing.T) {
	m := NewMemory()

	m.Inc(OrdersCreated, Tags{"status": "confirmed"})
	m.Inc(OrdersCreated, Tags{"status": "confirmed"})
	m.Inc(OrdersCreated, Tags{"status": "cancelled"})
	m.Add(Revenue, 3000000, nil)
	m.Observe(EventPublishDuration, 0.2, Tags{"topic": "order-events"})

	assert.Equal(t, 2.0, m.Value(OrdersCreated, Tags{"status": "confirmed"}))
	assert.Equal(t, 1.0, m.Value(OrdersCreated, Tags{"status": "cancelled"}))
	assert.Equal(t, 0.0, m.Value(OrdersCreated, Tags{"status": "created"}))
	assert.Equal(t, 3000000.0, m.Value(Revenue, nil))
	assert.Equal(t, 1, m.Observations(EventPublishDuration, Tags{"topic": "order-events"}))
}

func TestSeriesKeyIgnoresTagOrder(t *testing.T) {
	a := seriesKey("x", Tags{"a": "1", "b": "2"})
	b := seriesKey("x", Tags{"b": "2", "a": "1"})
	assert.Equal(t, a, b)
}

func TestPrometheusSink(t *testing.T) {
	p := NewPrometheus("sagaline", quietLogger())

	p.Inc(OrdersCreated, Tags{"status": "created"})
	p.Inc(OrdersCreated, Tags{"status": "created"})
	p.Add(Revenue, 1500000, nil)
	p.Observe(HTTPRequestDuration, 0.05, Tags{"method": "GET", "path": "/api/cart", "status": "200"})

	assert.Equal(t, 2.0, testutil.ToFloat64(p.counters[OrdersCreated].WithLabelValues("created")))
	assert.Equal(t, 1500000.0, testutil.ToFloat64(p.counters[Revenue].WithLabelValues()))

	count, err := testutil.GatherAndCount(p.Registry(), "sagaline_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPrometheusSinkDropsMismatchedLabels(t *testing.T) {
	p := NewPrometheus("sagaline", quietLogger())

	p.Inc(EventsPublished, Tags{"topic": "order-events", "status": "success"})
	p.Inc(EventsPublished, Tags{"topic": "order-events"})

	assert.Equal(t, 1.0, testutil.ToFloat64(p.counters[EventsPublished].WithLabelValues("success", "order-events")))
}

func TestPrometheusHandler(t *testing.T) {
	p := NewPrometheus("sagaline", quietLogger())
	p.Inc(UserRegistrations, nil)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "sagaline_user_registrations_total 1")
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard.Inc(OrdersCreated, nil)
		Discard.Add(Revenue, 1, nil)
		Discard.Observe(HTTPRequestDuration, 1, nil)
	})
}
