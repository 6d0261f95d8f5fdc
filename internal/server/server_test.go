package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrollsense/scrollsense/internal/cache"
	"github.com/scrollsense/scrollsense/internal/config"
	"github.com/scrollsense/scrollsense/internal/pipeline"
	"github.com/scrollsense/scrollsense/internal/ratelimit"
	"github.com/scrollsense/scrollsense/internal/reward"
	"github.com/scrollsense/scrollsense/pkg/anthropic"
)

// stubModelClient returns a fixed response or error for every call.
type stubModelClient struct {
	text string
	err  error
}

func (s *stubModelClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: s.text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 30},
	}, nil
}

const deepFocusJSON = `{"user_pattern":"Deep Focus/Learning","recommended_action":"session_extension","addiction_risk":0.1,"educational_value":0.9,"reasoning":"ok"}`

func newTestServer(ai anthropic.Client, limiterOpts ...ratelimit.Option) *Server {
	cfg := config.AnthropicConfig{Model: "claude-haiku-4-5-20251001", TimeoutSecs: 5, MaxRPS: 1000}
	p := pipeline.New(cfg, ai, cache.New(), reward.NewPolicy(reward.WithSeed(3)))
	return New(p, ratelimit.New(limiterOpts...), config.ServerConfig{Port: 0})
}

func analyzeBody(t *testing.T, content string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"content": content,
		"context": map[string]any{
			"scrollCount": 10,
			"maxScrolls":  100,
			"domain":      "example.com",
			"timestamp":   1735000000000,
			"timeOfDay":   "morning",
			"scrollTime":  30,
		},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubModelClient{text: deepFocusJSON})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAnalyze_OK(t *testing.T) {
	srv := newTestServer(&stubModelClient{text: deepFocusJSON})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", analyzeBody(t, "a long tutorial"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		UserPattern  string `json:"userPattern"`
		BonusScrolls int    `json:"bonusScrolls"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Deep Focus/Learning", resp.UserPattern)
	assert.GreaterOrEqual(t, resp.BonusScrolls, 15)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestAnalyze_ValidationError(t *testing.T) {
	srv := newTestServer(&stubModelClient{text: deepFocusJSON})
	body := bytes.NewBufferString(`{"content": "", "context": {}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "content")
}

func TestAnalyze_MalformedBody(t *testing.T) {
	srv := newTestServer(&stubModelClient{text: deepFocusJSON})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze_ModelDownStillResponds(t *testing.T) {
	srv := newTestServer(&stubModelClient{err: errors.New("connection reset by peer")})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", analyzeBody(t, "anything"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Casual Browsing/Catch-up")
}

func TestAnalyze_RateLimited(t *testing.T) {
	srv := newTestServer(&stubModelClient{text: deepFocusJSON}, ratelimit.WithLimit(2))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", analyzeBody(t, "hello"))
		req.RemoteAddr = "10.1.2.3:5555"
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", analyzeBody(t, "hello"))
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestCacheStats(t *testing.T) {
	srv := newTestServer(&stubModelClient{text: deepFocusJSON})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", analyzeBody(t, "warm the cache"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats cache.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, cache.DefaultMaxSize, stats.MaxSize)
	require.Len(t, stats.Entries, 1)
	assert.Len(t, stats.Entries[0].KeyPrefix, 12)
}

func TestClientID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:1234"
	assert.Equal(t, "192.0.2.7", clientID(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 192.0.2.7")
	assert.Equal(t, "203.0.113.9", clientID(r))
}
