package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/config"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/jwtutil"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/logger"
	"github.com/Yuvraj-Singh-HIT/VeriChain/prometheus"
	"github.com/labstack/echo/v4"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(RequestIDMiddleware)
	var fromCtx, fromEcho *zap.Logger
	e.GET("/", func(c echo.Context) error {
		fromCtx = logger.FromCtx(c.Request().Context(), nil)
		fromEcho = logger.FromContext(c)
		return c.String(http.StatusOK, c.Get(logger.RequestIDKey).(string))
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	id := rec.Header().Get(logger.RequestIDKey)
	if id == "" || rec.Body.String() != id {
		t.Fatalf("request id header %q, body %q", id, rec.Body.String())
	}
	if fromCtx == nil || fromCtx != fromEcho {
		t.Fatal("request logger not propagated to request context")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(logger.RequestIDKey, "upstream-1")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Header().Get(logger.RequestIDKey); got != "upstream-1" {
		t.Fatalf("upstream id not kept: %q", got)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	prometheus.InitMetricsWith("mwtest", prom.NewRegistry())

	e := echo.New()
	e.Use(MetricsMiddleware)
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/fail", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, errors.New("nope")) })

	for _, path := range []string{"/ok", "/ok", "/fail"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(prometheus.HttpRequestsTotal.WithLabelValues("GET", "/ok", "200")); got != 2 {
		t.Fatalf("ok requests = %v", got)
	}
	if got := testutil.ToFloat64(prometheus.HttpRequestsTotal.WithLabelValues("GET", "/fail", "418")); got != 1 {
		t.Fatalf("failed requests = %v", got)
	}
}

func TestAuthMiddleware(t *testing.T) {
	j := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "k", ExpirationTime: time.Hour})
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, _ := GetUserIDFromContext(c)
		return c.String(http.StatusOK, id)
	}, AuthMiddleware(j))

	token, err := j.GenerateToken("a@example.com", "user-9")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.code {
				t.Fatalf("code = %d", rec.Code)
			}
			if tt.code == http.StatusOK && rec.Body.String() != "user-9" {
				t.Fatalf("user id = %q", rec.Body.String())
			}
		})
	}
}
