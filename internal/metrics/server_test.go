package metrics

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestServerHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := New()
	m.IncAction("campaign", "start", "ok")

	s := NewServer(m, "", "", logger)
	if s.addr != ":9090" || s.path != "/metrics" {
		t.Fatalf("unexpected defaults: %s %s", s.addr, s.path)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "disparo_actions_total") {
		t.Errorf("expected disparo_actions_total in output")
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Body.String() != "OK" {
		t.Errorf("expected health OK, got %q", rec.Body.String())
	}
}
