package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/config"
	"github.com/zinspection/zi-engine/pkg/metrics"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func testConfig() *config.Config {
	return &config.Config{Version: "test-version", Env: "test"}
}

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler(testConfig(), nil, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("expected body 'ok', got %q", rec.Body.String())
	}
}

func TestHealthHandler_Ping(t *testing.T) {
	handler := NewHealthHandler(testConfig(), stubPinger{}, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Ping(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response PingResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "ok" || response.Database != "ok" {
		t.Errorf("unexpected status: %+v", response)
	}
	if response.Version != "test-version" {
		t.Errorf("expected version 'test-version', got %q", response.Version)
	}
	if response.Service != "zi-engine" {
		t.Errorf("expected service 'zi-engine', got %q", response.Service)
	}
	if response.Environment != "test" {
		t.Errorf("expected environment 'test', got %q", response.Environment)
	}
	if !strings.HasPrefix(response.GoVersion, "go") {
		t.Errorf("unexpected go version %q", response.GoVersion)
	}
}

func TestHealthHandler_Ping_DatabaseDown(t *testing.T) {
	handler := NewHealthHandler(testConfig(), stubPinger{err: errors.New("connection refused")}, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Ping(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}

	var response PingResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "degraded" || response.Database != "unreachable" {
		t.Errorf("unexpected response: %+v", response)
	}
}

func TestHealthHandler_Metrics(t *testing.T) {
	m, err := metrics.New()
	if err != nil {
		t.Fatalf("metrics.New() failed: %v", err)
	}
	m.RecordResponseSaved("submitted")

	mux := http.NewServeMux()
	NewHealthHandler(testConfig(), nil, m.Handler(), zap.NewNop()).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "zi_responses_saved_total") {
		t.Errorf("expected zi_responses_saved_total in metrics output")
	}
}
