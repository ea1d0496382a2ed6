package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/beachd/pkg/logger"
	"github.com/lk2023060901/beachd/pkg/prometheus"
	"github.com/lk2023060901/beachd/pkg/web/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestServer(t *testing.T, extra ...gin.HandlerFunc) *Server {
	t.Helper()
	s, err := NewServer(&Config{Addr: "127.0.0.1:0", Mode: gin.TestMode}, logger.NewNoop(), extra...)
	require.NoError(t, err)
	return s
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.ErrorIs(t, (&Config{}).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, (&Config{Addr: ":1", Mode: "bogus"}).Validate(), ErrInvalidConfig)

	cfg := &Config{Addr: ":1"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, gin.ReleaseMode, cfg.Mode)
}

func TestStartStop(t *testing.T) {
	s := newTestServer(t)
	s.Router().GET("/ping", func(c *gin.Context) { Success(c, "pong") })

	assert.ErrorIs(t, s.Stop(), ErrServerNotStarted)
	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrServerAlreadyStarted)

	resp, err := http.Get(fmt.Sprintf("http://%s/ping", s.Addr()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"code":0,"message":"ok","data":"pong"}`, string(body))

	require.NoError(t, s.Stop())
}

func TestRecoveryAndMetrics(t *testing.T) {
	client, err := prometheus.New(&prometheus.Config{Namespace: "test"})
	require.NoError(t, err)
	requests := client.MustNewCounter("http_requests_total", "requests", []string{"path", "method", "status"})
	duration := client.MustNewHistogram("http_request_duration_seconds", "latency", []string{"path", "method"}, nil)

	s := newTestServer(t, middleware.Metrics(requests, duration))
	s.Router().GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(requests.WithLabelValues("/boom", "GET", "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(requests.WithLabelValues("unknown", "GET", "404")))
}

func TestBindURI(t *testing.T) {
	s := newTestServer(t)
	s.Router().GET("/items/:id", func(c *gin.Context) {
		var req struct {
			ID int `uri:"id" binding:"min=0"`
		}
		if !BindURI(c, &req) {
			return
		}
		Success(c, req.ID)
	})

	for path, code := range map[string]int{"/items/3": 200, "/items/-1": 400, "/items/x": 400} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, code, rec.Code, path)
	}
}

func TestRateLimit(t *testing.T) {
	s, err := NewServer(&Config{Addr: "127.0.0.1:0", Mode: gin.TestMode, RateLimit: 0.001, Burst: 2}, logger.NewNoop())
	require.NoError(t, err)
	s.Router().GET("/ping", func(c *gin.Context) { Success(c, "pong") })

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)
}

func TestRateLimitPerIP(t *testing.T) {
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1, PerIP: true})
	assert.True(t, limiter.Allow("ip:10.0.0.1"))
	assert.False(t, limiter.Allow("ip:10.0.0.1"))
	assert.True(t, limiter.Allow("ip:10.0.0.2"))
}

func TestCORS(t *testing.T) {
	s, err := NewServer(&Config{Addr: "127.0.0.1:0", Mode: gin.TestMode, CORSOrigins: []string{"http://console.local"}}, logger.NewNoop())
	require.NoError(t, err)
	s.Router().GET("/ping", func(c *gin.Context) { Success(c, "pong") })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://console.local")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://console.local", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.local")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTracing(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	s := newTestServer(t, middleware.Tracing(tp, propagation.TraceContext{}, "svc"))
	var inner trace.SpanContext
	s.Router().GET("/items/:id", func(c *gin.Context) {
		inner = trace.SpanContextFromContext(c.Request.Context())
		Success(c, c.Param("id"))
	})
	s.Router().GET("/broken", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		Error(c, http.StatusInternalServerError, 500, "boom")
	})

	for _, path := range []string{"/items/7", "/broken", "/missing"} {
		s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	spans := rec.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "GET /items/:id", spans[0].Name())
	assert.Equal(t, spans[0].SpanContext().SpanID(), inner.SpanID())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	assert.Equal(t, "GET /broken", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)

	// 未匹配路由退回原始路径
	assert.Equal(t, "GET /missing", spans[2].Name())
	assert.Equal(t, codes.Error, spans[2].Status().Code)
}
