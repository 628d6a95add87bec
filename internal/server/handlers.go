package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/gex-analyzer/internal/analysis"
	"github.com/dgnsrekt/gex-analyzer/internal/chain"
	"github.com/dgnsrekt/gex-analyzer/internal/config"
	"github.com/dgnsrekt/gex-analyzer/internal/gamma"
)

// Sample defaults mirror the CLI's sample command.
const (
	defaultSampleSymbol  = "SPX"
	defaultSampleSpot    = 4500.0
	defaultSampleStrikes = 20
	defaultSampleDays    = 30
	maxSampleStrikes     = 500
)

type Server struct {
	analyzer   *analysis.Analyzer
	cache      *analysis.Cache
	config     *config.ServerConfig
	limiter    *rate.Limiter
	registry   *prometheus.Registry
	collectors *collectors
	now        func() time.Time
	logger     *zap.Logger
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	CacheEnabled bool   `json:"cache_enabled"`
	CacheEntries int    `json:"cache_entries"`
}

type ResetResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// NewServer wires handlers around a shared analyzer. A CacheSize of 0
// disables the report cache.
func NewServer(analyzer *analysis.Analyzer, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	var cache *analysis.Cache
	if cfg.CacheSize > 0 {
		cache = analysis.NewCache(cfg.CacheSize)
	}

	registry := prometheus.NewRegistry()
	return &Server{
		analyzer:   analyzer,
		cache:      cache,
		config:     cfg,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		registry:   registry,
		collectors: newCollectors(registry),
		now:        time.Now,
		logger:     logger,
	}
}

// Analyze handles POST /v1/analyze. The body is a JSON chain snapshot; the
// optional "spot" query parameter overrides its price. Snapshots without
// as_of are evaluated at the current time and never cached.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	c, err := chain.Read(body, chain.FormatJSON, s.logger)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if raw := r.URL.Query().Get("spot"); raw != "" {
		spot, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid spot: "+raw)
			return
		}
		c = c.WithSpot(spot, time.Time{})
	}

	now := c.AsOf
	cacheable := s.cache != nil && !now.IsZero()
	if now.IsZero() {
		now = s.now()
	}

	var key analysis.CacheKey
	if cacheable {
		key = analysis.KeyFor(c, now, s.analyzer.Config())
		if report, ok := s.cache.Get(key); ok {
			s.collectors.cache.WithLabelValues("hit").Inc()
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, report)
			return
		}
		s.collectors.cache.WithLabelValues("miss").Inc()
		w.Header().Set("X-Cache", "MISS")
	}

	report, err := s.analyze(r.Context(), "request", c, now)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	if cacheable {
		s.cache.Put(key, report)
	}
	writeJSON(w, http.StatusOK, report)
}

// Sample handles GET /v1/sample, analyzing a synthetic chain. Query
// parameters: symbol, spot, strikes, days, seed.
func (s *Server) Sample(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	symbol := strings.ToUpper(strings.TrimSpace(q.Get("symbol")))
	if symbol == "" {
		symbol = defaultSampleSymbol
	}
	spot, err := queryFloat(q.Get("spot"), defaultSampleSpot)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid spot: "+err.Error())
		return
	}
	strikes, err := queryInt(q.Get("strikes"), defaultSampleStrikes)
	if err != nil || strikes > maxSampleStrikes {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid strikes: must be an integer in [2, %d]", maxSampleStrikes))
		return
	}
	days, err := queryInt(q.Get("days"), defaultSampleDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid days: "+err.Error())
		return
	}
	seed, err := queryInt(q.Get("seed"), 1)
	if err != nil || seed < 0 {
		writeError(w, http.StatusBadRequest, "invalid seed")
		return
	}

	gen, err := chain.NewGenerator(symbol, strikes, days, uint64(seed))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := s.now()
	c, err := gen.Generate(spot, now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.analyze(r.Context(), "sample", c, now)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", CacheEnabled: s.cache != nil}
	if s.cache != nil {
		resp.CacheEntries = s.cache.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResetCache handles DELETE /v1/cache.
func (s *Server) ResetCache(w http.ResponseWriter, r *http.Request) {
	count := 0
	if s.cache != nil {
		count = s.cache.Reset()
	}

	s.logger.Info("cache reset", zap.Int("count", count))
	writeJSON(w, http.StatusOK, ResetResponse{Status: "success", Count: count})
}

func (s *Server) analyze(ctx context.Context, source string, c *chain.Chain, now time.Time) (*analysis.Report, error) {
	start := time.Now()
	report, err := s.analyzer.Analyze(ctx, c, now)
	s.collectors.duration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.collectors.analyses.WithLabelValues(source, "error").Inc()
		s.logger.Warn("analysis failed",
			zap.String("source", source),
			zap.String("symbol", c.Symbol),
			zap.Error(err),
		)
		return nil, err
	}

	s.collectors.analyses.WithLabelValues(source, "success").Inc()
	s.collectors.skipped.Add(float64(len(report.Skipped)))
	return report, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrNoSpot), errors.Is(err, gamma.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func queryFloat(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
