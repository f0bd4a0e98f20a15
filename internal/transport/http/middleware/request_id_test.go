package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("expected generated request id in context")
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Fatal("expected request id echoed in response header")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "req-123" {
		t.Fatalf("expected propagated request id, got %q", seen)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	got := normalizeEndpoint("/api/v1/tasks/0d4720cb-27ba-4a96-a7a3-6e8b54a60cb1/comments")
	if got != "/api/v1/tasks/:id/comments" {
		t.Fatalf("unexpected normalized path %q", got)
	}
	if got := normalizeEndpoint("/api/v1/dashboard/summary"); got != "/api/v1/dashboard/summary" {
		t.Fatalf("unexpected normalized path %q", got)
	}
}
