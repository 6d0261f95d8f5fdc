package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidUserPattern(t *testing.T) {
	for _, p := range AllUserPatterns() {
		assert.True(t, ValidUserPattern(p))
	}
	assert.False(t, ValidUserPattern("Speedrunning"))
	assert.False(t, ValidUserPattern(""))
}

func TestValidRecommendedAction(t *testing.T) {
	for _, a := range AllRecommendedActions() {
		assert.True(t, ValidRecommendedAction(a))
	}
	assert.False(t, ValidRecommendedAction("shutdown"))
}

func TestAnalysisResult_BreakSuggestionOmittedWhenEmpty(t *testing.T) {
	data, err := json.Marshal(AnalysisResult{
		UserPattern:       PatternDeepFocus,
		RecommendedAction: ActionSessionExtension,
		Reasoning:         "ok",
	})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "breakSuggestion")
}
