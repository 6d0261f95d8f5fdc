// Package prompt renders analysis requests into model instructions. The
// rendered strings are the only artifact crossing into the model call, so
// rendering must be deterministic for a given request.
package prompt

import (
	"fmt"
	"strings"

	"github.com/scrollsense/scrollsense/internal/model"
	"github.com/scrollsense/scrollsense/pkg/anthropic"
)

// contentLimit bounds how much snippet text goes into the prompt. The
// fingerprint already treats content past 500 chars as noise; 2000 gives the
// model enough to judge tone without paying for a whole article.
const contentLimit = 2000

const systemPrompt = `You analyze browsing behavior for a digital wellness tool. Classify the user's current session.

Respond with ONLY a single JSON object, no prose, exactly this shape:
{"user_pattern": "<pattern>", "addiction_risk": <0.0-1.0>, "educational_value": <0.0-1.0>, "recommended_action": "<action>", "bonus_scrolls": <integer>, "reasoning": "<one sentence>", "break_suggestion": "<optional suggestion or null>"}

user_pattern must be exactly one of: "Doomscrolling", "Active Research/Working", "Deep Focus/Learning", "Casual Browsing/Catch-up", "Social/Entertainment", "Anxious Checking".
recommended_action must be exactly one of: "session_extension", "maintain_limit", "suggest_break", "strict_limit", "intervention".`

const userPromptTemplate = `Domain: %s
Time of day: %s
Scrolls this session: %d of %d allowed
Time spent scrolling: %.0f seconds

Page content (first %d chars):
%s`

// SystemBlocks returns the fixed system prompt as a cached system block.
func SystemBlocks() []anthropic.SystemBlock {
	return anthropic.BuildCachedSystemBlocks(systemPrompt)
}

// User renders the behavioral context and truncated content into the user
// prompt for a single analysis call.
func User(req model.AnalysisRequest) string {
	content := strings.TrimSpace(req.Content)
	if len(content) > contentLimit {
		content = content[:contentLimit]
	}
	return fmt.Sprintf(userPromptTemplate,
		req.Context.Domain,
		req.Context.TimeOfDay,
		req.Context.ScrollCount,
		req.Context.MaxScrolls,
		req.Context.ScrollTime,
		contentLimit,
		content,
	)
}
