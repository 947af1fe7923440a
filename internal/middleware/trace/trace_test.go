package trace

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"debts/internal/log"
)

func TestMiddlewareAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{
		Component: log.ComponentTrace,
		Handler:   slog.NewTextHandler(&buf, nil),
	})
	m := NewMiddleware(logger, func(*http.Request) string { return "127.0.0.1" })

	var seenID string
	var seenLogger *log.Logger
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		seenLogger = log.FromContext(r.Context())
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if !strings.HasPrefix(seenID, "req_") {
		t.Errorf("request id = %q, want req_ prefix", seenID)
	}
	if seenLogger == nil || seenLogger.Component() != log.ComponentTrace {
		t.Error("expected request logger in context")
	}
	out := buf.String()
	if !strings.Contains(out, "HTTP request started") || !strings.Contains(out, "HTTP request completed") {
		t.Errorf("missing start/end logs: %s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), out)
	}
	for _, line := range lines {
		if !strings.Contains(line, "request_id="+seenID) {
			t.Errorf("log line missing request id: %s", line)
		}
		if n := strings.Count(line, "component="); n != 1 {
			t.Errorf("component logged %d times: %s", n, line)
		}
	}

	got := m.GetMetrics()
	if got.TotalRequests != 1 || got.FailedRequests != 1 {
		t.Errorf("metrics = %+v", got)
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if a == b {
		t.Errorf("expected unique ids, got %q twice", a)
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", io.NopCloser(strings.NewReader("")))
	if id := GetRequestID(r.Context()); id != "" {
		t.Errorf("GetRequestID() = %q, want empty", id)
	}
}
