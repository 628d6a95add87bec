package analysis

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/dgnsrekt/gex-analyzer/internal/chain"
	"github.com/dgnsrekt/gex-analyzer/internal/options"
)

// CacheKey identifies a report by its inputs.
type CacheKey uint64

// Fingerprint hashes the contract list, spot and pipeline config. Contract
// order matters.
func Fingerprint(contracts []options.Contract, spot float64, cfg Config) CacheKey {
	d := xxhash.New()
	var buf [8]byte

	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = d.Write(buf[:])
	}
	writeInt := func(i int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(i))
		_, _ = d.Write(buf[:])
	}

	for _, c := range contracts {
		_, _ = d.WriteString(c.Symbol)
		_, _ = d.WriteString(string(c.Type))
		writeFloat(c.Strike)
		writeInt(c.Expiry.UnixNano())
		writeInt(c.OpenInterest)
		writeFloat(c.ImpliedVolatility)
	}
	writeFloat(spot)

	p := cfg.Gamma
	for _, f := range []float64{
		p.RiskFreeRate, p.ContractMultiplier, p.DefaultVolatility, p.MinVolatility,
		p.MaxVolatility, p.MinTimeToExpiry, p.MaxTimeToExpiry,
		cfg.MinSignificance, float64(cfg.MaxWalls), cfg.NearbyPct,
	} {
		writeFloat(f)
	}
	for _, pct := range cfg.Percentiles {
		writeFloat(pct)
	}
	return CacheKey(d.Sum64())
}

// KeyFor fingerprints a chain snapshot evaluated at asOf. Reports depend on
// the evaluation time through time to expiry, so it is part of the key.
func KeyFor(c *chain.Chain, asOf time.Time, cfg Config) CacheKey {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(Fingerprint(c.Contracts, c.Spot, cfg)))
	binary.LittleEndian.PutUint64(buf[8:], uint64(asOf.UnixNano()))
	return CacheKey(xxhash.Sum64(buf[:]))
}

// Cache is an explicit key to report map owned by the caller.
type Cache struct {
	mu         sync.RWMutex
	reports    map[CacheKey]*Report
	order      []CacheKey
	maxEntries int
}

// NewCache returns a cache holding at most maxEntries reports, evicting the
// oldest insert first. maxEntries <= 0 means unbounded.
func NewCache(maxEntries int) *Cache {
	return &Cache{
		reports:    make(map[CacheKey]*Report),
		maxEntries: maxEntries,
	}
}

func (c *Cache) Get(key CacheKey) (*Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.reports[key]
	return r, ok
}

func (c *Cache) Put(key CacheKey, r *Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.reports[key]; !ok {
		c.order = append(c.order, key)
	}
	c.reports[key] = r

	for c.maxEntries > 0 && len(c.order) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.reports, oldest)
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.reports)
}

// Reset drops every entry and returns how many were removed.
func (c *Cache) Reset() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(c.reports)
	c.reports = make(map[CacheKey]*Report)
	c.order = nil
	return count
}
