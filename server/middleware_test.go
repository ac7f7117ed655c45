package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/giygas/drugchecker-api/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTokenCost(t *testing.T) {
	tests := []struct {
		path string
		want int64
	}{
		{"/health", 0},
		{"/metrics", 0},
		{"/api/analyze-pdf", 50},
		{"/api/analyze", 20},
		{"/api/drugs", 5},
		{"/api/drugs/aine", 5},
		{"/other", 10},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := tokenCost(httptest.NewRequest(http.MethodGet, tt.path, nil)); got != tt.want {
				t.Errorf("tokenCost(%s) = %d, want %d", tt.path, got, tt.want)
			}
		})
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 10)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(path, addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := range 2 {
		if rr := serve("/api/drugs", "198.51.100.1"); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rr.Code)
		}
	}

	rr := serve("/api/drugs", "198.51.100.1")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" || rr.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("unexpected headers %v", rr.Header())
	}

	if rr := serve("/api/drugs", "198.51.100.2"); rr.Code != http.StatusOK {
		t.Errorf("other clients must have their own bucket, got %d", rr.Code)
	}
	if rr := serve("/health", "198.51.100.1"); rr.Code != http.StatusOK {
		t.Errorf("free endpoints must not be limited, got %d", rr.Code)
	}

	if got := testutil.ToFloat64(metrics.RateLimiterBucketsTotal); got != 2 {
		t.Errorf("expected 2 buckets reported, got %v", got)
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(1, 100)
	rl.getBucket("full")
	rl.getBucket("used").TakeAvailable(50)

	if removed := rl.Sweep(); removed != 1 {
		t.Errorf("expected 1 bucket removed, got %d", removed)
	}

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	if _, ok := rl.clients["used"]; !ok {
		t.Error("bucket in use must be kept")
	}
	if _, ok := rl.clients["full"]; ok {
		t.Error("full bucket must be removed")
	}
}
