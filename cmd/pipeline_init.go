package main

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/scrollsense/scrollsense/internal/cache"
	"github.com/scrollsense/scrollsense/internal/config"
	"github.com/scrollsense/scrollsense/internal/model"
	"github.com/scrollsense/scrollsense/internal/pipeline"
	"github.com/scrollsense/scrollsense/internal/ratelimit"
	"github.com/scrollsense/scrollsense/internal/reward"
	"github.com/scrollsense/scrollsense/pkg/anthropic"
)

// buildPipeline assembles the shared pipeline from config. The API key is
// fetched once at startup; a missing key fails fast rather than on the
// first request.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key not configured (set SCROLLSENSE_ANTHROPIC_KEY)")
	}

	aiClient := anthropic.NewClient(cfg.Anthropic.Key)

	resultCache := cache.New(cacheOptions(cfg.Cache)...)
	rewards := reward.NewPolicy(rewardOptions(cfg.Reward)...)

	return pipeline.New(cfg.Anthropic, aiClient, resultCache, rewards), nil
}

func cacheOptions(cfg config.CacheConfig) []cache.Option {
	var opts []cache.Option
	if cfg.TTLHours > 0 {
		opts = append(opts, cache.WithTTL(time.Duration(cfg.TTLHours)*time.Hour))
	}
	if cfg.MaxSize > 0 {
		opts = append(opts, cache.WithMaxSize(cfg.MaxSize))
	}
	if cfg.EvictBatch > 0 {
		opts = append(opts, cache.WithEvictBatch(cfg.EvictBatch))
	}
	return opts
}

func limiterOptions(cfg config.RateLimitConfig) []ratelimit.Option {
	var opts []ratelimit.Option
	if cfg.WindowMins > 0 {
		opts = append(opts, ratelimit.WithWindow(time.Duration(cfg.WindowMins)*time.Minute))
	}
	if cfg.MaxRequests > 0 {
		opts = append(opts, ratelimit.WithLimit(cfg.MaxRequests))
	}
	return opts
}

// rewardOptions merges any configured per-pattern ranges over the defaults.
func rewardOptions(cfg config.RewardConfig) []reward.Option {
	if len(cfg.Ranges) == 0 {
		return nil
	}
	ranges := reward.DefaultRanges()
	for name, r := range cfg.Ranges {
		ranges[model.UserPattern(name)] = reward.Range{Min: r.Min, Max: r.Max}
	}
	return []reward.Option{reward.WithRanges(ranges)}
}
