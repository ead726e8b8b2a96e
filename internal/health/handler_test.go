package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestApplicationHealthAlwaysReportsHealthy(t *testing.T) {
	h := NewHandler("vad-gateway", "test", nil)
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp applicationHealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != StatusHealthy || resp.Application != "vad-gateway" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestDatabaseHealthReportsUnhealthyWhenNotConfigured(t *testing.T) {
	h := NewHandler("vad-gateway", "test", nil)
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/db", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var resp databaseHealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != StatusUnhealthy {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestApplicationHealthRouteRejectsNonGetMethod(t *testing.T) {
	h := NewHandler("vad-gateway", "test", nil)
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST on a GET-only route, got %d", rec.Code)
	}
}
