package config

import (
	"fmt"
	"os"
	"strconv"
)

type ServerConfig struct {
	Port string
	// CacheSize bounds the report cache; 0 disables caching.
	CacheSize      int
	RateLimitRPS   float64
	RateLimitBurst int
	// MaxBodyBytes caps POST /v1/analyze payloads.
	MaxBodyBytes int64
	CORSOrigin   string
}

func LoadServerConfig() (*ServerConfig, error) {
	cacheSize, err := getEnvIntOrDefault("CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	burst, err := getEnvIntOrDefault("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, err
	}
	maxBody, err := getEnvIntOrDefault("MAX_BODY_BYTES", 50<<20)
	if err != nil {
		return nil, err
	}
	rps, err := strconv.ParseFloat(getEnvOrDefault("RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	cfg := &ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		CacheSize:      cacheSize,
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
		MaxBodyBytes:   int64(maxBody),
		CORSOrigin:     getEnvOrDefault("CORS_ORIGIN", "*"),
	}

	// Validate
	if cfg.CacheSize < 0 {
		return nil, fmt.Errorf("invalid CACHE_SIZE: %d (must be >= 0)", cfg.CacheSize)
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst < 1 {
		return nil, fmt.Errorf("invalid rate limit: %v rps, burst %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.MaxBodyBytes < 1 {
		return nil, fmt.Errorf("invalid MAX_BODY_BYTES: %d", cfg.MaxBodyBytes)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
