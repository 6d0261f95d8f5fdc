package model

// UserPattern classifies the browsing behavior observed in a session snippet.
type UserPattern string

const (
	PatternDoomscrolling  UserPattern = "Doomscrolling"
	PatternActiveResearch UserPattern = "Active Research/Working"
	PatternDeepFocus      UserPattern = "Deep Focus/Learning"
	PatternCasualBrowsing UserPattern = "Casual Browsing/Catch-up"
	PatternSocial         UserPattern = "Social/Entertainment"
	PatternAnxiousCheck   UserPattern = "Anxious Checking"
)

// AllUserPatterns returns every valid pattern variant.
func AllUserPatterns() []UserPattern {
	return []UserPattern{
		PatternDoomscrolling,
		PatternActiveResearch,
		PatternDeepFocus,
		PatternCasualBrowsing,
		PatternSocial,
		PatternAnxiousCheck,
	}
}

// ValidUserPattern reports whether p is one of the defined variants.
func ValidUserPattern(p UserPattern) bool {
	for _, v := range AllUserPatterns() {
		if v == p {
			return true
		}
	}
	return false
}

// RecommendedAction is the guidance returned alongside a classification.
type RecommendedAction string

const (
	ActionSessionExtension RecommendedAction = "session_extension"
	ActionMaintainLimit    RecommendedAction = "maintain_limit"
	ActionSuggestBreak     RecommendedAction = "suggest_break"
	ActionStrictLimit      RecommendedAction = "strict_limit"
	ActionIntervention     RecommendedAction = "intervention"
)

// AllRecommendedActions returns every valid action variant.
func AllRecommendedActions() []RecommendedAction {
	return []RecommendedAction{
		ActionSessionExtension,
		ActionMaintainLimit,
		ActionSuggestBreak,
		ActionStrictLimit,
		ActionIntervention,
	}
}

// ValidRecommendedAction reports whether a is one of the defined variants.
func ValidRecommendedAction(a RecommendedAction) bool {
	for _, v := range AllRecommendedActions() {
		if v == a {
			return true
		}
	}
	return false
}

// AnalysisContext carries the behavioral signals captured by the extension
// alongside the content snippet.
type AnalysisContext struct {
	ScrollCount int     `json:"scrollCount"`
	MaxScrolls  int     `json:"maxScrolls"`
	Domain      string  `json:"domain"`
	Timestamp   int64   `json:"timestamp"` // epoch milliseconds
	TimeOfDay   string  `json:"timeOfDay"`
	ScrollTime  float64 `json:"scrollTime"` // seconds spent scrolling
}

// AnalysisRequest is the validated, immutable input to the pipeline.
type AnalysisRequest struct {
	Content string          `json:"content"`
	Context AnalysisContext `json:"context"`
}

// AnalysisResult is the validated pipeline output. Risk and value scores use
// a fractional 0-1 scale. BonusScrolls is always set by the reward policy,
// never taken from the model (see reward package).
type AnalysisResult struct {
	UserPattern       UserPattern       `json:"userPattern"`
	AddictionRisk     float64           `json:"addictionRisk"`
	EducationalValue  float64           `json:"educationalValue"`
	RecommendedAction RecommendedAction `json:"recommendedAction"`
	BonusScrolls      int               `json:"bonusScrolls"`
	Reasoning         string            `json:"reasoning"`
	BreakSuggestion   string            `json:"breakSuggestion,omitempty"`
}
