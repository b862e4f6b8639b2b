package models

// ModerationAction is the classifier's recommendation for a piece of text
type ModerationAction string

const (
	ActionAccept ModerationAction = "Accept"
	ActionReview ModerationAction = "Review"
)

const (
	// DefaultSentimentScore is used when sentiment analysis is unavailable
	DefaultSentimentScore = 0.5
	// UnknownLanguage is used when language detection is unavailable
	UnknownLanguage = "Unknown"
)

// ModerationResult is the transient output of the safety classifier.
// It is never persisted.
type ModerationResult struct {
	IsContentSafe     bool             `json:"is_content_safe"`
	CategoryScores    map[string]int   `json:"category_scores"`
	FlaggedCategories []string         `json:"flagged_categories"`
	MaxSeverityLevel  int              `json:"max_severity_level"`
	RecommendedAction ModerationAction `json:"recommended_action"`
}

// SafeModerationResult is substituted when the classifier cannot be reached
func SafeModerationResult() *ModerationResult {
	return &ModerationResult{
		IsContentSafe:     true,
		CategoryScores:    map[string]int{},
		FlaggedCategories: []string{},
		RecommendedAction: ActionAccept,
	}
}

// Decision holds the safety-related fields derived from a moderation result
type Decision struct {
	IsContentSafe      bool
	RequiresReview     bool
	IsApproved         bool
	SeverityLevel      int
	FlaggedCategories  []string
	ModerationCategory string
}

// Apply writes the decision onto a feedback record
func (d Decision) Apply(f *Feedback) {
	f.IsContentSafe = d.IsContentSafe
	f.RequiresReview = d.RequiresReview
	f.IsApproved = d.IsApproved
	f.SeverityLevel = d.SeverityLevel
	f.FlaggedCategories = append([]string{}, d.FlaggedCategories...)
	f.ModerationCategory = d.ModerationCategory
}

// Sentiment is the output of sentiment analysis
type Sentiment struct {
	Score    float64           `json:"score"`
	Category SentimentCategory `json:"category"`
}

// NeutralSentiment is substituted when sentiment analysis fails
func NeutralSentiment() Sentiment {
	return Sentiment{Score: DefaultSentimentScore, Category: SentimentNeutral}
}

// Enrichment bundles the three text analysis outputs
type Enrichment struct {
	Sentiment  Sentiment
	KeyPhrases []string
	Language   string
}
