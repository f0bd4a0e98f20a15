package dashboardhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"taskboard/internal/domain/analytics"
	"taskboard/internal/transport/http/api"
)

type stubReports struct {
	snap       analytics.Snapshot
	refreshErr error
	refreshed  int
}

func (s *stubReports) Summaries(context.Context) analytics.Snapshot { return s.snap }

func (s *stubReports) Refresh(context.Context) error {
	s.refreshed++
	return s.refreshErr
}

func (s *stubReports) Snapshot(context.Context) analytics.Snapshot { return s.snap }

func newTestRouter(reports Reports) chi.Router {
	r := chi.NewRouter()
	NewHandler(reports).RegisterRoutes(r)
	return r
}

func TestHandleSummary(t *testing.T) {
	stub := &stubReports{snap: analytics.Snapshot{
		Users: []analytics.UserSummary{{UserID: "u1", Name: "Ada", CompletionRate: 67}},
	}}
	rec := httptest.NewRecorder()
	newTestRouter(stub).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/summary", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope api.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if !envelope.Success {
		t.Fatal("expected success envelope")
	}
}

func TestHandleRefreshError(t *testing.T) {
	stub := &stubReports{refreshErr: errors.New("database unreachable")}
	rec := httptest.NewRecorder()
	newTestRouter(stub).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/dashboard/refresh", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if stub.refreshed != 1 {
		t.Fatalf("expected one refresh call, got %d", stub.refreshed)
	}
}

func TestHandleExportCSV(t *testing.T) {
	stub := &stubReports{snap: analytics.Snapshot{
		Users: []analytics.UserSummary{{UserID: "u1", Name: "Ada"}},
	}}
	rec := httptest.NewRecorder()
	newTestRouter(stub).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/export?format=csv", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected csv content type, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Ada") {
		t.Fatal("expected user row in export")
	}
}

func TestHandleExportInvalidFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&stubReports{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/export?format=xml", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
