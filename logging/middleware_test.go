package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func newCaptureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestLoggingMiddlewareSkipsQuietPaths(t *testing.T) {
	logger, buf := newCaptureLogger()
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			buf.Reset()
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

			if rr.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", rr.Code)
			}
			if buf.Len() != 0 {
				t.Errorf("expected no log output for %s, got %q", path, buf.String())
			}
		})
	}
}

func TestLoggingMiddlewareFields(t *testing.T) {
	logger, buf := newCaptureLogger()
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/drugs/aine?trimester=first", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-42"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}

	expected := map[string]any{
		"msg":           "HTTP request",
		"level":         "INFO",
		"request_id":    "req-42",
		"method":        "GET",
		"path":          "/api/drugs/aine",
		"query":         "trimester=first",
		"status_code":   float64(http.StatusCreated),
		"bytes_written": float64(5),
	}
	for key, want := range expected {
		if entry[key] != want {
			t.Errorf("%s = %v, want %v", key, entry[key], want)
		}
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("expected duration_ms field")
	}
}

func TestLoggingMiddlewareLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusBadRequest, "WARN"},
		{http.StatusRequestEntityTooLarge, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			logger, buf := newCaptureLogger()
			handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/analyze", nil))

			if !strings.Contains(buf.String(), `"level":"`+tt.level+`"`) {
				t.Errorf("expected level %s, got %q", tt.level, buf.String())
			}
		})
	}
}

func TestLoggingMiddlewareUnknownRequestID(t *testing.T) {
	logger, buf := newCaptureLogger()
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/drugs", nil))

	if !strings.Contains(buf.String(), `"request_id":"unknown"`) {
		t.Errorf("expected unknown request id, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), `"status_code":200`) {
		t.Errorf("expected implicit 200 status, got %q", buf.String())
	}
}
