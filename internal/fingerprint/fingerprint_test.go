package fingerprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate("Some article text", "news.example.com")
	b := Generate("Some article text", "news.example.com")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestGenerate_NormalizesWhitespaceAndCase(t *testing.T) {
	a := Generate("Breaking   News\n\tToday", "news.example.com")
	b := Generate("breaking news today", "news.example.com")
	assert.Equal(t, a, b)
}

func TestGenerate_DomainDistinguishes(t *testing.T) {
	a := Generate("same content", "a.example.com")
	b := Generate("same content", "b.example.com")
	assert.NotEqual(t, a, b)
}

func TestGenerate_PrefixCollision(t *testing.T) {
	// Content differing only past the 500-char prefix collides deliberately.
	prefix := strings.Repeat("x ", 300) // 600 chars, well past the prefix
	a := Generate(prefix+"tail one", "example.com")
	b := Generate(prefix+"completely different tail", "example.com")
	assert.Equal(t, a, b)
}

func TestGenerate_PrefixDifferenceSeparates(t *testing.T) {
	a := Generate("first article about cats", "example.com")
	b := Generate("second article about dogs", "example.com")
	assert.NotEqual(t, a, b)
}

func TestGenerate_EmptyContent(t *testing.T) {
	k := Generate("", "example.com")
	assert.Len(t, k, 64)
	assert.Equal(t, k, Generate("   \t\n", "example.com"))
}
