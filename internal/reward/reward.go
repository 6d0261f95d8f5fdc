// Package reward maps a classified browsing pattern to a bonus-scroll
// allowance. Model-proposed bonus values proved inconsistent across calls,
// so the policy table owns the number and overwrites whatever the model said.
package reward

import (
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/scrollsense/scrollsense/internal/model"
)

// Range is an inclusive integer bonus range.
type Range struct {
	Min int `yaml:"min" mapstructure:"min"`
	Max int `yaml:"max" mapstructure:"max"`
}

// DefaultRanges returns the per-pattern bonus table. Higher-engagement
// patterns earn larger allowances; compulsive patterns earn little or none.
func DefaultRanges() map[model.UserPattern]Range {
	return map[model.UserPattern]Range{
		model.PatternDeepFocus:      {Min: 15, Max: 30},
		model.PatternActiveResearch: {Min: 10, Max: 20},
		model.PatternCasualBrowsing: {Min: 5, Max: 10},
		model.PatternSocial:         {Min: 3, Max: 8},
		model.PatternAnxiousCheck:   {Min: 0, Max: 5},
		model.PatternDoomscrolling:  {Min: 0, Max: 3},
	}
}

// Policy draws bonus allowances from per-pattern ranges.
type Policy struct {
	mu     sync.Mutex
	ranges map[model.UserPattern]Range
	rng    *rand.Rand
}

// Option configures a Policy.
type Option func(*Policy)

// WithRanges overrides the range table.
func WithRanges(ranges map[model.UserPattern]Range) Option {
	return func(p *Policy) { p.ranges = ranges }
}

// WithSeed makes draws deterministic for tests.
func WithSeed(seed int64) Option {
	return func(p *Policy) { p.rng = rand.New(rand.NewSource(seed)) }
}

// NewPolicy creates a Policy over the default table.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		ranges: DefaultRanges(),
		rng:    rand.New(rand.NewSource(rand.Int63())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Bonus draws a uniformly distributed bonus within the range for pattern.
// Unknown patterns draw from the casual-browsing range.
func (p *Policy) Bonus(pattern model.UserPattern) int {
	r, ok := p.ranges[pattern]
	if !ok {
		zap.L().Debug("reward: unmapped pattern, using casual range",
			zap.String("pattern", string(pattern)),
		)
		r = p.ranges[model.PatternCasualBrowsing]
	}
	if r.Max <= r.Min {
		return r.Min
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return r.Min + p.rng.Intn(r.Max-r.Min+1)
}

// RangeFor returns the configured range for pattern, falling back to the
// casual-browsing range for unmapped patterns.
func (p *Policy) RangeFor(pattern model.UserPattern) Range {
	if r, ok := p.ranges[pattern]; ok {
		return r
	}
	return p.ranges[model.PatternCasualBrowsing]
}
