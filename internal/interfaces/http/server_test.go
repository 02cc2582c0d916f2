package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sagaline/ecommerce-backend/internal/config"
	"github.com/sagaline/ecommerce-backend/internal/interfaces/http/handlers"
	"github.com/sagaline/ecommerce-backend/internal/interfaces/http/routes"
	"github.com/sagaline/ecommerce-backend/internal/pkg/metrics"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, checks map[string]HealthCheck) (*Server, *metrics.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.Load()
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	sink := metrics.NewMemory()

	srv := NewServer(Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: sink,
		Handlers: routes.Handlers{
			Auth:      handlers.NewAuthHandler(nil),
			Products:  handlers.NewProductHandler(nil),
			Search:    handlers.NewSearchHandler(nil),
			Cart:      handlers.NewCartHandler(nil),
			Orders:    handlers.NewOrderHandler(nil),
			Invoices:  handlers.NewInvoiceHandler(nil, nil),
			Payments:  handlers.NewPaymentHandler(nil),
			UserAdmin: handlers.NewUserAdminHandler(nil),
		},
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
		Checks: checks,
	})
	return srv, sink
}

func get(srv *Server, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHealthReportsComponents(t *testing.T) {
	srv, _ := newTestServer(t, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
	})

	w := get(srv, "/health")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, map[string]any{"database": "up", "redis": "down"}, body["components"])
}

func TestHealthy(t *testing.T) {
	srv, _ := newTestServer(t, map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	})

	assert.Equal(t, http.StatusOK, get(srv, "/health").Code)
	assert.Equal(t, http.StatusOK, get(srv, "/ready").Code)
}

func TestMetricsEndpointAndRequestCounting(t *testing.T) {
	srv, sink := newTestServer(t, nil)

	w := get(srv, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# metrics", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, float64(1), sink.Value(metrics.HTTPRequests, metrics.Tags{
		"method": http.MethodGet,
		"path":   "/metrics",
		"status": "200",
	}))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	assert.Equal(t, http.StatusUnauthorized, get(srv, "/api/cart").Code)
	assert.Equal(t, http.StatusUnauthorized, get(srv, "/api/orders").Code)
	assert.Equal(t, http.StatusUnauthorized, get(srv, "/api/products/export").Code)
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := get(srv, "/api/nope")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"route not found"}`, w.Body.String())
}
