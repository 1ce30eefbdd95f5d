package httptransport

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS(t *testing.T) {
	handler := CORS("http://localhost:5173")(okHandler())

	tests := []struct {
		name       string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantHeader string
	}{
		{name: "dashboard origin", method: http.MethodGet, origin: "http://localhost:5173", wantStatus: http.StatusOK, wantHeader: "http://localhost:5173"},
		{name: "preflight", method: http.MethodOptions, origin: "http://localhost:5173", preflight: true, wantStatus: http.StatusNoContent, wantHeader: "http://localhost:5173"},
		{name: "foreign origin", method: http.MethodGet, origin: "http://evil.example", wantStatus: http.StatusOK},
		{name: "no origin", method: http.MethodGet, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/timeline", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantHeader, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }
	handler := limiter.Middleware(okHandler())

	codes := make([]int, 0, 4)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/v1/timeline", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	other := httptest.NewRequest(http.MethodGet, "/v1/timeline", nil)
	other.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	codes = append(codes, rec.Code)

	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusOK}, codes)

	fixed = fixed.Add(time.Second)
	require.True(t, limiter.Allow("10.0.0.1"), "bucket refills over time")
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.Allow("a"))
	now = now.Add(time.Hour)
	require.True(t, limiter.Allow("b"))
	require.Len(t, limiter.clients, 1)
}

func TestRateLimiterIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }
	handler := limiter.Middleware(okHandler())

	allowed := 0
	for i := range 100 {
		req := httptest.NewRequest(http.MethodGet, "/v1/timeline", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}
	require.Equal(t, 1, allowed)
	require.Len(t, limiter.clients, 1)
	require.Contains(t, limiter.clients, "203.0.113.9")
}

func TestRateLimiterHonoursTrustedProxy(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.168.1.7"})
	require.NoError(t, err)
	limiter := NewRateLimiter(1, 1, WithTrustedProxies(trusted...))

	tests := []struct {
		name   string
		remote string
		fwd    string
		want   string
	}{
		{name: "untrusted peer", remote: "203.0.113.9:1", fwd: "1.2.3.4", want: "203.0.113.9"},
		{name: "trusted peer", remote: "10.1.2.3:1", fwd: "198.51.100.4", want: "198.51.100.4"},
		{name: "spoofed prefix", remote: "10.1.2.3:1", fwd: "1.1.1.1, 198.51.100.4", want: "198.51.100.4"},
		{name: "proxy chain", remote: "10.1.2.3:1", fwd: "198.51.100.4, 192.168.1.7", want: "198.51.100.4"},
		{name: "no header", remote: "10.1.2.3:1", want: "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.fwd != "" {
				req.Header.Set("X-Forwarded-For", tt.fwd)
			}
			require.Equal(t, tt.want, limiter.clientKey(req))
		})
	}

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	require.Error(t, err)
}

func TestRateLimiterCapsTrackedClients(t *testing.T) {
	limiter := NewRateLimiter(1, 1, WithMaxClients(3))
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := range 10 {
		now = now.Add(time.Second)
		limiter.Allow(fmt.Sprintf("client-%d", i))
		require.LessOrEqual(t, len(limiter.clients), 3)
	}
	require.Contains(t, limiter.clients, "client-9")
	require.NotContains(t, limiter.clients, "client-0")
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodPut, "/v1/calendar", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "PUT", fields["method"])
	require.Equal(t, "/v1/calendar", fields["path"])
	require.EqualValues(t, http.StatusTeapot, fields["status"])
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /v1/employees/{id}/day", okHandler())
	handler := Metrics(mux)

	req := httptest.NewRequest(http.MethodGet, "/v1/employees/emp-3/day", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "GET /v1/employees/{id}/day", req.Pattern)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	Chain(okHandler(), mark("outer"), mark("inner")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}
