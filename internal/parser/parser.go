// Package parser recovers structured analysis results from raw model output.
// The model is instructed to emit a single JSON object but is not a
// contract-bound API: it wraps JSON in commentary, emits near-JSON, or
// occasionally nothing parseable. Parse is therefore a total function: any
// input string yields a valid AnalysisResult, never an error.
package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/scrollsense/scrollsense/internal/model"
)

const (
	// Neutral score used when the model omits or mangles a numeric field.
	neutralScore = 0.5
	// maxBonusScrolls caps a model-proposed bonus before the reward policy
	// overwrites it anyway.
	maxBonusScrolls = 50

	defaultReasoning       = "Analysis completed"
	fallbackReasoning      = "Unable to analyze content; applying conservative defaults"
	fallbackBreakSuggested = "Consider stepping away from the screen for a few minutes"
)

// extraction patterns, ordered strictest to loosest. The first match wins.
var extractors = []struct {
	name string
	re   *regexp.Regexp
}{
	// A flat object anchored at end-of-text.
	{"end_anchored", regexp.MustCompile(`(?s)\{[^{}]*\}\s*\z`)},
	// A flat object just before a trailing newline (prose appended after).
	{"before_newline", regexp.MustCompile(`(?s)\{[^{}]*\}\s*\n`)},
	// An object permitting one level of nested braces.
	{"one_nested", regexp.MustCompile(`(?s)\{(?:[^{}]|\{[^{}]*\})*\}`)},
	// Greediest span from first { to last }.
	{"greedy", regexp.MustCompile(`(?s)\{.*\}`)},
}

// Narrow last resort: any brace span carrying the discriminator field.
var discriminatorRe = regexp.MustCompile(`(?s)\{[^{}]*"user_pattern"[^{}]*\}`)

// wireResult mirrors the JSON shape the model is instructed to emit.
// Pointer fields distinguish absent from zero.
type wireResult struct {
	UserPattern       string   `json:"user_pattern"`
	AddictionRisk     *float64 `json:"addiction_risk"`
	EducationalValue  *float64 `json:"educational_value"`
	RecommendedAction string   `json:"recommended_action"`
	BonusScrolls      *float64 `json:"bonus_scrolls"`
	Reasoning         string   `json:"reasoning"`
	BreakSuggestion   *string  `json:"break_suggestion"`
}

// Fallback returns the fixed conservative result used when the model is
// unreachable or its output carries no recoverable signal.
func Fallback() model.AnalysisResult {
	return model.AnalysisResult{
		UserPattern:       model.PatternCasualBrowsing,
		AddictionRisk:     neutralScore,
		EducationalValue:  neutralScore,
		RecommendedAction: model.ActionMaintainLimit,
		BonusScrolls:      5,
		Reasoning:         fallbackReasoning,
		BreakSuggestion:   fallbackBreakSuggested,
	}
}

// Parse extracts a best-effort AnalysisResult from raw model text.
func Parse(raw string) model.AnalysisResult {
	candidate, ok := extract(raw)
	if !ok {
		zap.L().Warn("parser: no JSON candidate in model output",
			zap.Int("raw_len", len(raw)),
		)
		return Fallback()
	}

	wire, ok := decode(candidate)
	if !ok {
		// Last resort: the narrowest span that at least names the
		// discriminator field.
		narrow := discriminatorRe.FindString(raw)
		if narrow != "" {
			wire, ok = decode(narrow)
		}
	}
	if !ok || (wire.UserPattern == "" && wire.RecommendedAction == "") {
		zap.L().Warn("parser: model output unrecoverable, using fallback")
		return Fallback()
	}

	return repair(wire)
}

// extract runs the cascade over the fence-stripped text and returns the
// first matching candidate, trimmed to its last closing brace.
func extract(raw string) (string, bool) {
	text := stripFences(raw)
	for _, ex := range extractors {
		if m := ex.re.FindString(text); m != "" {
			zap.L().Debug("parser: candidate extracted", zap.String("pattern", ex.name))
			return trimToLastBrace(m), true
		}
	}
	return "", false
}

// stripFences removes a leading/trailing markdown code fence if present.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		// Drop the opening fence line (which may carry a language tag).
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	return strings.TrimSpace(text)
}

// trimToLastBrace discards anything the model appended after the JSON.
func trimToLastBrace(s string) string {
	if idx := strings.LastIndex(s, "}"); idx >= 0 {
		return s[:idx+1]
	}
	return s
}

func decode(candidate string) (wireResult, bool) {
	var wire wireResult
	if err := json.Unmarshal([]byte(candidate), &wire); err != nil {
		return wireResult{}, false
	}
	return wire, true
}

// repair enforces field domains on a decoded result. Nothing past a
// successful decode is a hard failure: invalid enums fall back to
// conservative variants and numbers are clamped into scale.
func repair(wire wireResult) model.AnalysisResult {
	result := model.AnalysisResult{
		UserPattern:       model.UserPattern(wire.UserPattern),
		RecommendedAction: model.RecommendedAction(wire.RecommendedAction),
		AddictionRisk:     clampScore(wire.AddictionRisk),
		EducationalValue:  clampScore(wire.EducationalValue),
		Reasoning:         strings.TrimSpace(wire.Reasoning),
	}

	if !model.ValidUserPattern(result.UserPattern) {
		zap.L().Debug("parser: invalid user_pattern replaced",
			zap.String("got", wire.UserPattern),
		)
		result.UserPattern = model.PatternCasualBrowsing
	}
	if !model.ValidRecommendedAction(result.RecommendedAction) {
		zap.L().Debug("parser: invalid recommended_action replaced",
			zap.String("got", wire.RecommendedAction),
		)
		result.RecommendedAction = model.ActionMaintainLimit
	}

	if wire.BonusScrolls != nil {
		bonus := int(*wire.BonusScrolls)
		if bonus < 0 {
			bonus = 0
		}
		if bonus > maxBonusScrolls {
			bonus = maxBonusScrolls
		}
		result.BonusScrolls = bonus
	}

	if result.Reasoning == "" {
		result.Reasoning = defaultReasoning
	}
	if wire.BreakSuggestion != nil {
		result.BreakSuggestion = strings.TrimSpace(*wire.BreakSuggestion)
	}

	return result
}

// clampScore forces a risk/value score into [0, 1], defaulting to neutral
// when the field is missing.
func clampScore(v *float64) float64 {
	if v == nil {
		return neutralScore
	}
	switch {
	case *v < 0:
		return 0
	case *v > 1:
		return 1
	default:
		return *v
	}
}
