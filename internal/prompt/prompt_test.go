package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrollsense/scrollsense/internal/model"
)

func sampleRequest(content string) model.AnalysisRequest {
	return model.AnalysisRequest{
		Content: content,
		Context: model.AnalysisContext{
			ScrollCount: 42,
			MaxScrolls:  100,
			Domain:      "news.example.com",
			Timestamp:   1735000000000,
			TimeOfDay:   "late night",
			ScrollTime:  180,
		},
	}
}

func TestUser_Deterministic(t *testing.T) {
	req := sampleRequest("some article")
	assert.Equal(t, User(req), User(req))
}

func TestUser_IncludesContext(t *testing.T) {
	p := User(sampleRequest("some article"))
	assert.Contains(t, p, "news.example.com")
	assert.Contains(t, p, "late night")
	assert.Contains(t, p, "42 of 100")
	assert.Contains(t, p, "180 seconds")
	assert.Contains(t, p, "some article")
}

func TestUser_TruncatesContent(t *testing.T) {
	long := strings.Repeat("a", 5000)
	p := User(sampleRequest(long))
	assert.Less(t, len(p), 2500)
}

func TestSystemBlocks_CachedAndNamesVariants(t *testing.T) {
	blocks := SystemBlocks()
	assert.Len(t, blocks, 1)
	assert.NotNil(t, blocks[0].CacheControl)
	for _, pattern := range model.AllUserPatterns() {
		assert.Contains(t, blocks[0].Text, string(pattern))
	}
	for _, action := range model.AllRecommendedActions() {
		assert.Contains(t, blocks[0].Text, string(action))
	}
}
