package obs

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillbridge/internal/app/failure"
	domainratings "skillbridge/internal/domain/ratings"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.BookingTransition("approve", "")
	m.BookingTransition("approve", failure.KindUnauthorized)
	m.CascadeCancellation(false)
	m.RatingSubmitted("SUBMITTED")
	m.AggregateRecomputed(domainratings.TypeStudent, true)
	m.OutboxPublished("booking.events.v1", errors.New("broker down"))
	m.CacheLookup(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingTransitions.WithLabelValues("approve", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingTransitions.WithLabelValues("approve", "UNAUTHORIZED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CascadeCancellations.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RatingSubmissions.WithLabelValues("SUBMITTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AggregateRecomputes.WithLabelValues("STUDENT", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxPublishes.WithLabelValues("booking.events.v1", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
}

func TestMiddleware_RequestIDAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()
	var logs bytes.Buffer
	mw := Middleware{Logger: newLogger(&logs, "prod", "info"), Metrics: m}

	r := gin.New()
	r.Use(mw.RequestID(), mw.AccessLog())
	r.GET("/ping/:id", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c.Request.Context()))
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	req := httptest.NewRequest(http.MethodGet, "/ping/1", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Body.String())
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	assert.Contains(t, logs.String(), `"request_id":"req-42"`)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/ping/:id", "200")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "skillbridge_http_requests_total"))
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := true
	h := HealthHandlers{
		Timeout: time.Second,
		Checks: map[string]Check{
			"mongo": func(ctx context.Context) error {
				if !healthy {
					return errors.New("no primary")
				}
				return nil
			},
		},
	}
	r := gin.New()
	r.GET("/livez", h.Livez)
	r.GET("/readyz", h.Readyz)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	healthy = false
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "no primary")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel(" Warning ").String())
	assert.Equal(t, "INFO", parseLevel("").String())
}
