// Package validate checks inbound analysis payloads before any expensive
// work happens. Hard rules reject the request; soft rules only log.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/scrollsense/scrollsense/internal/model"
)

// MaxContentLen bounds snippet size; anything larger is a client bug.
const MaxContentLen = 500_000

// scrollSlack is how far scrollCount may exceed maxScrolls before the
// mismatch is worth logging. Bonus allowances legitimately push the count
// past the base limit.
const scrollSlack = 100

var domainShape = regexp.MustCompile(`^[a-zA-Z0-9-]+(\.[a-zA-Z0-9-]+)+$`)

// Error describes the first violated validation rule.
type Error struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Rule)
}

// Request validates a decoded wire payload and returns a typed
// AnalysisRequest. A fault inside validation itself must never take the
// service down, so panics degrade to allow-and-log with a best-effort
// coercion of the payload.
func Request(payload map[string]any) (req *model.AnalysisRequest, verr *Error) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("validate: internal fault, allowing request",
				zap.Any("panic", r),
			)
			req = coerceLenient(payload)
			verr = nil
		}
	}()
	return validate(payload)
}

func validate(payload map[string]any) (*model.AnalysisRequest, *Error) {
	rawContent, ok := payload["content"]
	if !ok || rawContent == nil {
		return nil, &Error{Field: "content", Rule: "required"}
	}
	content, ok := rawContent.(string)
	if !ok {
		return nil, &Error{Field: "content", Rule: "must be a string"}
	}
	if strings.TrimSpace(content) == "" {
		return nil, &Error{Field: "content", Rule: "must not be empty"}
	}
	if len(content) > MaxContentLen {
		return nil, &Error{Field: "content", Rule: fmt.Sprintf("must be at most %d characters", MaxContentLen)}
	}

	rawCtx, ok := payload["context"]
	if !ok || rawCtx == nil {
		return nil, &Error{Field: "context", Rule: "required"}
	}
	ctxMap, ok := rawCtx.(map[string]any)
	if !ok {
		return nil, &Error{Field: "context", Rule: "must be an object"}
	}

	for _, field := range []string{"scrollCount", "maxScrolls", "domain", "timestamp", "timeOfDay", "scrollTime"} {
		if _, present := ctxMap[field]; !present {
			return nil, &Error{Field: "context." + field, Rule: "required"}
		}
	}

	scrollCount, ok := asNumber(ctxMap["scrollCount"])
	if !ok || scrollCount < 0 {
		return nil, &Error{Field: "context.scrollCount", Rule: "must be a non-negative number"}
	}
	maxScrolls, ok := asNumber(ctxMap["maxScrolls"])
	if !ok || maxScrolls <= 0 {
		return nil, &Error{Field: "context.maxScrolls", Rule: "must be a positive number"}
	}
	domain, ok := ctxMap["domain"].(string)
	if !ok || domain == "" {
		return nil, &Error{Field: "context.domain", Rule: "must be a non-empty string"}
	}
	timestamp, ok := asNumber(ctxMap["timestamp"])
	if !ok || timestamp <= 0 {
		return nil, &Error{Field: "context.timestamp", Rule: "must be a positive number"}
	}
	timeOfDay, ok := ctxMap["timeOfDay"].(string)
	if !ok || timeOfDay == "" {
		return nil, &Error{Field: "context.timeOfDay", Rule: "must be a non-empty string"}
	}
	scrollTime, ok := asNumber(ctxMap["scrollTime"])
	if !ok || scrollTime < 0 {
		return nil, &Error{Field: "context.scrollTime", Rule: "must be a non-negative number"}
	}

	// Soft checks: worth a log line, never worth a rejection.
	if scrollCount > maxScrolls+scrollSlack {
		zap.L().Warn("validate: scrollCount far exceeds maxScrolls",
			zap.Float64("scroll_count", scrollCount),
			zap.Float64("max_scrolls", maxScrolls),
		)
	}
	if !domainShape.MatchString(domain) {
		zap.L().Warn("validate: domain has unusual shape", zap.String("domain", domain))
	}

	return &model.AnalysisRequest{
		Content: content,
		Context: model.AnalysisContext{
			ScrollCount: int(scrollCount),
			MaxScrolls:  int(maxScrolls),
			Domain:      domain,
			Timestamp:   int64(timestamp),
			TimeOfDay:   timeOfDay,
			ScrollTime:  scrollTime,
		},
	}, nil
}

// coerceLenient builds the best request it can from a payload after a
// validator fault, substituting defaults for anything unusable.
func coerceLenient(payload map[string]any) *model.AnalysisRequest {
	req := &model.AnalysisRequest{
		Context: model.AnalysisContext{
			MaxScrolls: 1,
			Timestamp:  1,
			Domain:     "unknown",
			TimeOfDay:  "unknown",
		},
	}
	if payload == nil {
		return req
	}
	if s, ok := payload["content"].(string); ok {
		req.Content = s
	}
	ctxMap, ok := payload["context"].(map[string]any)
	if !ok {
		return req
	}
	if n, ok := asNumber(ctxMap["scrollCount"]); ok && n >= 0 {
		req.Context.ScrollCount = int(n)
	}
	if n, ok := asNumber(ctxMap["maxScrolls"]); ok && n > 0 {
		req.Context.MaxScrolls = int(n)
	}
	if s, ok := ctxMap["domain"].(string); ok && s != "" {
		req.Context.Domain = s
	}
	if n, ok := asNumber(ctxMap["timestamp"]); ok && n > 0 {
		req.Context.Timestamp = int64(n)
	}
	if s, ok := ctxMap["timeOfDay"].(string); ok && s != "" {
		req.Context.TimeOfDay = s
	}
	if n, ok := asNumber(ctxMap["scrollTime"]); ok && n >= 0 {
		req.Context.ScrollTime = n
	}
	return req
}

// asNumber accepts the numeric types a decoded JSON payload can carry.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
