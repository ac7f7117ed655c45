package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/giygas/drugchecker-api/config"
	"github.com/giygas/drugchecker-api/logging"
	"github.com/giygas/drugchecker-api/metrics"
	"github.com/juju/ratelimit"
)

const (
	uploadPath = "/api/analyze-pdf"

	// uploadOverhead covers multipart boundaries and form fields
	uploadOverhead = 64 * 1024
)

// RequestSizeMiddleware rejects requests whose declared body or headers
// exceed the configured limits. Uploads get MAX_UPLOAD_SIZE, everything
// else MAX_REQUEST_BODY.
func RequestSizeMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := cfg.MaxRequestBody
			if r.URL.Path == uploadPath {
				limit = cfg.MaxUploadSize + uploadOverhead
			}

			if r.ContentLength > limit {
				logging.Warn("Request body too large",
					"content_length", r.ContentLength,
					"max_allowed", limit,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent())

				respondWithError(w, http.StatusRequestEntityTooLarge,
					fmt.Sprintf("Request body too large. Maximum allowed size is %d bytes", limit))
				return
			}

			// Rough estimate of the header size
			headerSize := int64(0)
			for key, values := range r.Header {
				headerSize += int64(len(key))
				for _, value := range values {
					headerSize += int64(len(value))
				}
			}

			if headerSize > cfg.MaxHeaderSize {
				logging.Warn("Request headers too large",
					"header_size", headerSize,
					"max_allowed", cfg.MaxHeaderSize,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent())

				respondWithError(w, http.StatusRequestHeaderFieldsTooLarge,
					fmt.Sprintf("Request headers too large. Maximum allowed size is %d bytes", cfg.MaxHeaderSize))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter keeps one token bucket per client address
type RateLimiter struct {
	rate     float64
	capacity int64

	mu      sync.RWMutex
	clients map[string]*ratelimit.Bucket
}

// NewRateLimiter creates a limiter refilling rate tokens per second up to capacity
func NewRateLimiter(rate float64, capacity int64) *RateLimiter {
	return &RateLimiter{
		rate:     rate,
		capacity: capacity,
		clients:  make(map[string]*ratelimit.Bucket),
	}
}

func (rl *RateLimiter) getBucket(client string) *ratelimit.Bucket {
	rl.mu.RLock()
	bucket, exists := rl.clients[client]
	rl.mu.RUnlock()

	if exists {
		return bucket
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if bucket, exists = rl.clients[client]; !exists {
		bucket = ratelimit.NewBucketWithRate(rl.rate, rl.capacity)
		rl.clients[client] = bucket
		metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
	}
	return bucket
}

// Sweep drops the buckets of clients that have refilled completely
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for client, bucket := range rl.clients {
		if bucket.Available() == bucket.Capacity() {
			delete(rl.clients, client)
			removed++
		}
	}
	metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
	return removed
}

// StartCleanup sweeps every interval until ctx is done
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Sweep()
			}
		}
	}()
}

// tokenCost weights endpoints by how much work they do
func tokenCost(r *http.Request) int64 {
	switch path := r.URL.Path; {
	case path == "/health", path == "/metrics":
		return 0
	case path == uploadPath:
		return 50
	case path == "/api/analyze":
		return 20
	case strings.HasPrefix(path, "/api/drugs"):
		return 5
	default:
		return 10
	}
}

// Middleware rejects clients that ran out of tokens with 429
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	limit := strconv.FormatInt(rl.capacity, 10)
	rate := strconv.FormatFloat(rl.rate, 'f', -1, 64)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cost := tokenCost(r)
		if cost == 0 {
			next.ServeHTTP(w, r)
			return
		}

		bucket := rl.getBucket(r.RemoteAddr)

		w.Header().Set("X-RateLimit-Limit", limit)
		w.Header().Set("X-RateLimit-Rate", rate)

		if bucket.TakeAvailable(cost) < cost {
			logging.Warn("Rate limit exceeded", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "60")
			respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
		next.ServeHTTP(w, r)
	})
}

// respondWithError writes the API error body from middleware
func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	err := json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
	if err != nil {
		logging.Error("Failed to encode JSON response", "error", err)
	}
}
