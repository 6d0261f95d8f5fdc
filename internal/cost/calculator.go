// Package cost tracks spend on model calls so per-request cost shows up in
// logs and can be reconciled against the provider bill.
package cost

import "sync"

// ModelRate holds per-model token pricing (USD per million tokens).
type ModelRate struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// DefaultRates returns the default per-model pricing.
func DefaultRates() map[string]ModelRate {
	return map[string]ModelRate{
		"claude-haiku-4-5-20251001": {
			Input: 0.80, Output: 4.00,
			CacheWriteMul: 1.25, CacheReadMul: 0.1,
		},
		"claude-sonnet-4-5-20250929": {
			Input: 3.00, Output: 15.00,
			CacheWriteMul: 1.25, CacheReadMul: 0.1,
		},
	}
}

// Calculator computes and accumulates model-call costs.
type Calculator struct {
	mu       sync.Mutex
	rates    map[string]ModelRate
	totalUSD float64
	calls    int
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates map[string]ModelRate) *Calculator {
	return &Calculator{rates: rates}
}

// Claude computes the cost for a single call and adds it to the running
// total. Unknown models cost zero.
func (c *Calculator) Claude(model string, input, output, cacheWrite, cacheRead int) float64 {
	rate, ok := c.rates[model]
	if !ok {
		return 0
	}

	inCost := (float64(input) / 1e6) * rate.Input
	outCost := (float64(output) / 1e6) * rate.Output
	cwCost := (float64(cacheWrite) / 1e6) * rate.Input * rate.CacheWriteMul
	crCost := (float64(cacheRead) / 1e6) * rate.Input * rate.CacheReadMul
	total := inCost + outCost + cwCost + crCost

	c.mu.Lock()
	c.totalUSD += total
	c.calls++
	c.mu.Unlock()

	return total
}

// Totals returns the number of priced calls and their accumulated cost.
func (c *Calculator) Totals() (calls int, usd float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls, c.totalUSD
}
