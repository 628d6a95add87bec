package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/analysis"
	"github.com/dgnsrekt/gex-analyzer/internal/chain"
	"github.com/dgnsrekt/gex-analyzer/internal/config"
)

var testNow = time.Date(2025, 11, 14, 15, 0, 0, 0, time.UTC)

func testConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Port:           "0",
		CacheSize:      8,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		MaxBodyBytes:   1 << 20,
		CORSOrigin:     "*",
	}
}

func newTestServer(t *testing.T, cfg *config.ServerConfig) (*Server, http.Handler) {
	t.Helper()
	analyzer, err := analysis.New(analysis.DefaultConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("analysis.New failed: %v", err)
	}
	srv := NewServer(analyzer, cfg, zap.NewNop())
	srv.now = func() time.Time { return testNow }
	return srv, NewRouter(srv, zap.NewNop())
}

func chainBody(t *testing.T, spot float64) []byte {
	t.Helper()
	gen, err := chain.NewGenerator("SPX", 20, 30, 7)
	if err != nil {
		t.Fatal(err)
	}
	c, err := gen.Generate(4500, testNow)
	if err != nil {
		t.Fatal(err)
	}
	c.Spot = spot
	body, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func do(handler http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAnalyze(t *testing.T) {
	_, handler := newTestServer(t, testConfig())

	rec := do(handler, http.MethodPost, "/v1/analyze", chainBody(t, 4500))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report analysis.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.Symbol != "SPX" {
		t.Errorf("expected symbol SPX, got %s", report.Symbol)
	}
	if report.ContractCount != 40 {
		t.Errorf("expected 40 contracts, got %d", report.ContractCount)
	}
	if len(report.Exposures) != 20 {
		t.Errorf("expected 20 strikes, got %d", len(report.Exposures))
	}
	if report.ID == "" {
		t.Error("expected report id")
	}
}

func TestAnalyze_CacheHit(t *testing.T) {
	srv, handler := newTestServer(t, testConfig())
	body := chainBody(t, 4500)

	first := do(handler, http.MethodPost, "/v1/analyze", body)
	if got := first.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("expected first request to miss, got %q", got)
	}

	second := do(handler, http.MethodPost, "/v1/analyze", body)
	if got := second.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("expected second request to hit, got %q", got)
	}
	if first.Body.String() != second.Body.String() {
		t.Error("cached response should match the original")
	}
	if srv.cache.Len() != 1 {
		t.Errorf("expected 1 cached report, got %d", srv.cache.Len())
	}

	// A different price is a different report
	third := do(handler, http.MethodPost, "/v1/analyze?spot=4510", body)
	if got := third.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("expected spot override to miss, got %q", got)
	}
}

func TestAnalyze_CacheDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.CacheSize = 0
	_, handler := newTestServer(t, cfg)

	rec := do(handler, http.MethodPost, "/v1/analyze", chainBody(t, 4500))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Cache"); got != "" {
		t.Errorf("expected no cache header, got %q", got)
	}
}

func TestAnalyze_BadRequests(t *testing.T) {
	_, handler := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		target string
		body   []byte
		status int
	}{
		{"malformed json", "/v1/analyze", []byte(`{"symbol":`), http.StatusBadRequest},
		{"no contracts", "/v1/analyze", []byte(`{"symbol":"SPX","spot":4500,"contracts":[]}`), http.StatusBadRequest},
		{"missing spot", "/v1/analyze", chainBody(t, 0), http.StatusBadRequest},
		{"invalid spot override", "/v1/analyze?spot=abc", chainBody(t, 4500), http.StatusBadRequest},
		{"negative spot override", "/v1/analyze?spot=-5", chainBody(t, 4500), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(handler, http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Error == "" {
				t.Errorf("expected JSON error body, got %q", rec.Body.String())
			}
		})
	}
}

func TestAnalyze_BodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 64
	_, handler := newTestServer(t, cfg)

	rec := do(handler, http.MethodPost, "/v1/analyze", chainBody(t, 4500))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestSample(t *testing.T) {
	_, handler := newTestServer(t, testConfig())

	rec := do(handler, http.MethodGet, "/v1/sample?symbol=spy&spot=450&strikes=10&days=7&seed=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report analysis.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.Symbol != "SPY" {
		t.Errorf("expected symbol SPY, got %s", report.Symbol)
	}
	if report.Spot != 450 {
		t.Errorf("expected spot 450, got %v", report.Spot)
	}
	if len(report.Exposures) != 10 {
		t.Errorf("expected 10 strikes, got %d", len(report.Exposures))
	}
}

func TestSample_InvalidParams(t *testing.T) {
	_, handler := newTestServer(t, testConfig())

	for _, q := range []string{"spot=x", "spot=-1", "strikes=1", "strikes=100000", "days=-1", "seed=-2"} {
		rec := do(handler, http.MethodGet, "/v1/sample?"+q, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	_, handler := newTestServer(t, cfg)

	if rec := do(handler, http.MethodGet, "/v1/sample", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	rec := do(handler, http.MethodGet, "/v1/sample", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// Health checks are not throttled
	if rec := do(handler, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Errorf("expected health to pass, got %d", rec.Code)
	}
}

func TestHealthAndResetCache(t *testing.T) {
	_, handler := newTestServer(t, testConfig())
	do(handler, http.MethodPost, "/v1/analyze", chainBody(t, 4500))

	rec := do(handler, http.MethodGet, "/health", nil)
	var health HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" || !health.CacheEnabled || health.CacheEntries != 1 {
		t.Errorf("unexpected health: %+v", health)
	}

	rec = do(handler, http.MethodDelete, "/v1/cache", nil)
	var reset ResetResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &reset); err != nil {
		t.Fatal(err)
	}
	if reset.Count != 1 {
		t.Errorf("expected 1 entry reset, got %d", reset.Count)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, handler := newTestServer(t, testConfig())
	do(handler, http.MethodGet, "/v1/sample", nil)
	do(handler, http.MethodPost, "/v1/analyze", chainBody(t, 0))

	rec := do(handler, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`gex_analyses_total{source="sample",status="success"} 1`,
		`gex_analyses_total{source="request",status="error"} 1`,
		"gex_analysis_duration_seconds_count 2",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.CORSOrigin = "https://example.com"
	_, handler := newTestServer(t, cfg)

	rec := do(handler, http.MethodOptions, "/v1/analyze", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Errorf("unexpected origin header: %q", got)
	}
}

func TestMaskQueryKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"key=abcdefgh", "key=abcd****"},
		{"key=abc", "key=****"},
		{"spot=4500&key=secretkey", "key=secr****&spot=4500"},
	}
	for _, tt := range tests {
		if got := maskQueryKey(tt.in); got != tt.want {
			t.Errorf("maskQueryKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
