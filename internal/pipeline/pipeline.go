// Package pipeline composes the analysis stages: validate, cache lookup,
// prompt, model call, parse, reward, cache store.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/scrollsense/scrollsense/internal/cache"
	"github.com/scrollsense/scrollsense/internal/config"
	"github.com/scrollsense/scrollsense/internal/cost"
	"github.com/scrollsense/scrollsense/internal/fingerprint"
	"github.com/scrollsense/scrollsense/internal/model"
	"github.com/scrollsense/scrollsense/internal/parser"
	"github.com/scrollsense/scrollsense/internal/prompt"
	"github.com/scrollsense/scrollsense/internal/resilience"
	"github.com/scrollsense/scrollsense/internal/reward"
	"github.com/scrollsense/scrollsense/internal/validate"
	"github.com/scrollsense/scrollsense/pkg/anthropic"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultMaxTokens = 512
)

// Pipeline runs the full analysis flow. The cache and reward policy are
// shared across concurrent invocations; the model client is the only stage
// that suspends for non-trivial wall-clock time and holds no shared lock
// while doing so.
type Pipeline struct {
	cfg      config.AnthropicConfig
	ai       anthropic.Client
	cache    *cache.Cache
	rewards  *reward.Policy
	costCalc *cost.Calculator
	pacer    *rate.Limiter
	timeout  time.Duration
}

// New creates a Pipeline with all dependencies.
func New(cfg config.AnthropicConfig, ai anthropic.Client, resultCache *cache.Cache, rewards *reward.Policy) *Pipeline {
	timeout := defaultTimeout
	if cfg.TimeoutSecs > 0 {
		timeout = time.Duration(cfg.TimeoutSecs) * time.Second
	}
	rps := cfg.MaxRPS
	if rps <= 0 {
		rps = 5
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Pipeline{
		cfg:      cfg,
		ai:       ai,
		cache:    resultCache,
		rewards:  rewards,
		costCalc: cost.NewCalculator(cost.DefaultRates()),
		pacer:    rate.NewLimiter(rate.Limit(rps), burst),
		timeout:  timeout,
	}
}

// Analyze validates the raw payload and produces an analysis result. The
// only error it returns is a *validate.Error; every downstream failure
// degrades to the conservative fallback result instead of an error, because
// responding with some guidance beats surfacing backend fragility.
func (p *Pipeline) Analyze(ctx context.Context, payload map[string]any) (*model.AnalysisResult, error) {
	req, verr := validate.Request(payload)
	if verr != nil {
		zap.L().Info("pipeline: request rejected",
			zap.String("field", verr.Field),
			zap.String("rule", verr.Rule),
		)
		return nil, verr
	}

	log := zap.L().With(zap.String("domain", req.Context.Domain))

	key := fingerprint.Generate(req.Content, req.Context.Domain)
	if cached, ok := p.cache.Get(key); ok {
		log.Debug("pipeline: cache hit", zap.String("key", key[:12]))
		return &cached, nil
	}

	result := p.analyzeFresh(ctx, *req, log)

	if result.fromModel {
		p.cache.Set(key, result.AnalysisResult)
	}
	return &result.AnalysisResult, nil
}

type analysisOutcome struct {
	model.AnalysisResult
	// fromModel is false when the model call itself failed: a transient
	// outage must not poison the cache with a default for a fingerprint
	// that might succeed on retry.
	fromModel bool
}

func (p *Pipeline) analyzeFresh(ctx context.Context, req model.AnalysisRequest, log *zap.Logger) analysisOutcome {
	if err := p.pacer.Wait(ctx); err != nil {
		log.Warn("pipeline: pacing aborted", zap.Error(err))
		return analysisOutcome{AnalysisResult: parser.Fallback()}
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.ai.CreateMessage(callCtx, anthropic.MessageRequest{
		Model:     p.cfg.Model,
		MaxTokens: defaultMaxTokens,
		System:    prompt.SystemBlocks(),
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt.User(req)},
		},
	})
	if err != nil {
		if resilience.IsTransient(err) {
			log.Warn("pipeline: transient model failure, using fallback",
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
		} else {
			log.Error("pipeline: model call failed, using fallback", zap.Error(err))
		}
		return analysisOutcome{AnalysisResult: parser.Fallback()}
	}

	resp.Usage.LogCost(p.cfg.Model, "analyze")
	p.costCalc.Claude(p.cfg.Model,
		int(resp.Usage.InputTokens),
		int(resp.Usage.OutputTokens),
		int(resp.Usage.CacheCreationInputTokens),
		int(resp.Usage.CacheReadInputTokens),
	)

	result := parser.Parse(anthropic.ExtractText(resp))

	// The policy table owns the bonus; the model's own number is never
	// trusted past this point.
	result.BonusScrolls = p.rewards.Bonus(result.UserPattern)

	log.Info("pipeline: analysis complete",
		zap.String("pattern", string(result.UserPattern)),
		zap.String("action", string(result.RecommendedAction)),
		zap.Int("bonus_scrolls", result.BonusScrolls),
		zap.Duration("elapsed", time.Since(start)),
	)

	return analysisOutcome{AnalysisResult: result, fromModel: true}
}

// CacheStats exposes cache introspection for the admin endpoint.
func (p *Pipeline) CacheStats() cache.Stats {
	return p.cache.Stats()
}

// CostTotals exposes accumulated model spend.
func (p *Pipeline) CostTotals() (calls int, usd float64) {
	return p.costCalc.Totals()
}
