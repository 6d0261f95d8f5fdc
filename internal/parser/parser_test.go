package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrollsense/scrollsense/internal/model"
)

const happyJSON = `{"user_pattern":"Deep Focus/Learning","recommended_action":"session_extension","addiction_risk":0.1,"educational_value":0.9,"reasoning":"ok"}`

func TestParse_HappyPath(t *testing.T) {
	result := Parse(happyJSON)

	assert.Equal(t, model.PatternDeepFocus, result.UserPattern)
	assert.Equal(t, model.ActionSessionExtension, result.RecommendedAction)
	assert.InDelta(t, 0.1, result.AddictionRisk, 0.001)
	assert.InDelta(t, 0.9, result.EducationalValue, 0.001)
	assert.Equal(t, "ok", result.Reasoning)
	assert.Empty(t, result.BreakSuggestion)
}

func TestParse_FencedWithTrailingProse(t *testing.T) {
	raw := "```json\n" + happyJSON + "\n```\nHope this helps!"
	result := Parse(raw)

	assert.Equal(t, model.PatternDeepFocus, result.UserPattern)
	assert.Equal(t, model.ActionSessionExtension, result.RecommendedAction)
}

func TestParse_BareFence(t *testing.T) {
	raw := "```\n" + happyJSON + "\n```"
	result := Parse(raw)
	assert.Equal(t, model.PatternDeepFocus, result.UserPattern)
}

func TestParse_LeadingCommentary(t *testing.T) {
	raw := "Sure! Here is my analysis of the session:\n\n" + happyJSON
	result := Parse(raw)
	assert.Equal(t, model.PatternDeepFocus, result.UserPattern)
}

func TestParse_TrailingProseSameBlock(t *testing.T) {
	raw := happyJSON + "\nLet me know if you need anything else."
	result := Parse(raw)
	assert.Equal(t, model.PatternDeepFocus, result.UserPattern)
}

func TestParse_GarbageReturnsFallback(t *testing.T) {
	result := Parse("I cannot analyze this.")

	assert.Equal(t, model.PatternCasualBrowsing, result.UserPattern)
	assert.Equal(t, model.ActionMaintainLimit, result.RecommendedAction)
	assert.Positive(t, result.BonusScrolls)
	assert.NotEmpty(t, result.Reasoning)
}

func TestParse_Totality(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"just prose, nothing else",
		"{",
		"}",
		`{"truncated": `,
		`{"user_pattern": }`,
		"```json\n```",
		"{}{}{}",
		`{"nested":{"deep":{"deeper":1}}}`,
		string([]byte{0xff, 0xfe, '{', '}'}),
	}
	for _, in := range inputs {
		result := Parse(in)
		assert.True(t, model.ValidUserPattern(result.UserPattern), "input %q", in)
		assert.True(t, model.ValidRecommendedAction(result.RecommendedAction), "input %q", in)
		assert.GreaterOrEqual(t, result.AddictionRisk, 0.0)
		assert.LessOrEqual(t, result.AddictionRisk, 1.0)
		assert.NotEmpty(t, result.Reasoning)
	}
}

func TestParse_DiscriminatorRescue(t *testing.T) {
	// The extracted span ({broken json}) fails strict decoding; the narrow
	// discriminator pattern recovers the real object.
	raw := `{broken json} and then {"user_pattern":"Doomscrolling","recommended_action":"strict_limit"} thanks`
	result := Parse(raw)
	assert.Equal(t, model.PatternDoomscrolling, result.UserPattern)
	assert.Equal(t, model.ActionStrictLimit, result.RecommendedAction)
}

func TestParse_MissingBothMandatoryFields(t *testing.T) {
	result := Parse(`{"addiction_risk": 0.9, "reasoning": "hmm"}`)
	assert.Equal(t, Fallback(), result)
}

func TestParse_OneMandatoryFieldSuffices(t *testing.T) {
	result := Parse(`{"user_pattern":"Anxious Checking"}`)
	assert.Equal(t, model.PatternAnxiousCheck, result.UserPattern)
	// Missing action repaired to the conservative default.
	assert.Equal(t, model.ActionMaintainLimit, result.RecommendedAction)
	assert.InDelta(t, 0.5, result.AddictionRisk, 0.001)
	assert.InDelta(t, 0.5, result.EducationalValue, 0.001)
	assert.Equal(t, "Analysis completed", result.Reasoning)
}

func TestParse_InvalidEnumsRepaired(t *testing.T) {
	result := Parse(`{"user_pattern":"Extreme Gaming","recommended_action":"ban_user"}`)
	assert.Equal(t, model.PatternCasualBrowsing, result.UserPattern)
	assert.Equal(t, model.ActionMaintainLimit, result.RecommendedAction)
}

func TestParse_ScoresClamped(t *testing.T) {
	result := Parse(`{"user_pattern":"Doomscrolling","recommended_action":"intervention","addiction_risk":7.5,"educational_value":-2}`)
	assert.Equal(t, 1.0, result.AddictionRisk)
	assert.Equal(t, 0.0, result.EducationalValue)
}

func TestParse_BonusScrollsClamped(t *testing.T) {
	result := Parse(`{"user_pattern":"Deep Focus/Learning","recommended_action":"session_extension","bonus_scrolls":9999}`)
	assert.Equal(t, 50, result.BonusScrolls)

	result = Parse(`{"user_pattern":"Deep Focus/Learning","recommended_action":"session_extension","bonus_scrolls":-3}`)
	assert.Equal(t, 0, result.BonusScrolls)
}

func TestParse_NullBreakSuggestionPreserved(t *testing.T) {
	result := Parse(`{"user_pattern":"Social/Entertainment","recommended_action":"suggest_break","break_suggestion":null}`)
	assert.Empty(t, result.BreakSuggestion)

	result = Parse(`{"user_pattern":"Social/Entertainment","recommended_action":"suggest_break","break_suggestion":"stretch for five minutes"}`)
	assert.Equal(t, "stretch for five minutes", result.BreakSuggestion)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}

func TestFallback_IsValid(t *testing.T) {
	fb := Fallback()
	assert.True(t, model.ValidUserPattern(fb.UserPattern))
	assert.True(t, model.ValidRecommendedAction(fb.RecommendedAction))
	assert.Positive(t, fb.BonusScrolls)
	assert.NotEmpty(t, fb.BreakSuggestion)
}
