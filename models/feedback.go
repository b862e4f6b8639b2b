package models

import (
	"time"

	"github.com/lib/pq"
)

// SentimentCategory is the label assigned by sentiment analysis.
// The empty value means enrichment has not run yet.
type SentimentCategory string

const (
	SentimentPositive SentimentCategory = "Positive"
	SentimentNegative SentimentCategory = "Negative"
	SentimentNeutral  SentimentCategory = "Neutral"
)

// Valid reports whether c is one of the three analysis labels
func (c SentimentCategory) Valid() bool {
	switch c {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// ReviewState is the derived moderation state of a feedback record
type ReviewState string

const (
	StatePending  ReviewState = "pending"
	StateApproved ReviewState = "approved"
	StateRejected ReviewState = "rejected"
)

// Feedback represents a single submitted feedback entry
type Feedback struct {
	ID                 string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Content            string            `json:"content" gorm:"type:text;not null"`
	SubmissionTime     time.Time         `json:"submission_time" gorm:"not null;index"`
	SentimentScore     float64           `json:"sentiment_score"`
	SentimentCategory  SentimentCategory `json:"sentiment_category,omitempty" gorm:"type:varchar(20)"`
	KeyPhrases         pq.StringArray    `json:"key_phrases" gorm:"type:text[]"`
	Language           string            `json:"language,omitempty" gorm:"type:varchar(100)"`
	IsContentSafe      bool              `json:"is_content_safe"`
	SeverityLevel      int               `json:"severity_level"`
	FlaggedCategories  pq.StringArray    `json:"flagged_categories" gorm:"type:text[]"`
	ModerationCategory string            `json:"moderation_category,omitempty" gorm:"type:varchar(255)"`
	RequiresReview     bool              `json:"requires_review" gorm:"index"`
	IsApproved         bool              `json:"is_approved" gorm:"index"`
	ReviewNotes        string            `json:"review_notes,omitempty" gorm:"type:text"`
}

// TableName sets custom table name
func (Feedback) TableName() string { return "feedback" }

// State reports which of the three moderation states the record is in
func (f *Feedback) State() ReviewState {
	switch {
	case f.RequiresReview && !f.IsApproved:
		return StatePending
	case !f.RequiresReview && f.IsApproved:
		return StateApproved
	default:
		return StateRejected
	}
}

// IsEnriched reports whether sentiment analysis has populated the record
func (f *Feedback) IsEnriched() bool {
	return f.SentimentCategory != ""
}

// ApplyEnrichment copies analyzer output onto the record
func (f *Feedback) ApplyEnrichment(e Enrichment) {
	f.SentimentScore = e.Sentiment.Score
	f.SentimentCategory = e.Sentiment.Category
	f.KeyPhrases = pq.StringArray(append([]string{}, e.KeyPhrases...))
	f.Language = e.Language
}

// Clone returns a deep copy so callers can mutate without aliasing stored slices
func (f *Feedback) Clone() *Feedback {
	c := *f
	if f.KeyPhrases != nil {
		c.KeyPhrases = append(pq.StringArray{}, f.KeyPhrases...)
	}
	if f.FlaggedCategories != nil {
		c.FlaggedCategories = append(pq.StringArray{}, f.FlaggedCategories...)
	}
	return &c
}
