package services

import (
	"context"
	"errors"

	"feedback-moderation-server/models"
)

var (
	// ErrInvalidContent is returned for empty or out-of-bounds submissions
	ErrInvalidContent = errors.New("invalid feedback content")
	// ErrInvalidTransition is returned when a review action targets a record
	// that already reached the opposite terminal state
	ErrInvalidTransition = errors.New("invalid review transition")
	// ErrProviderUnavailable wraps failures of the external analysis providers
	ErrProviderUnavailable = errors.New("analysis provider unavailable")
)

// SafetyClassifier screens text for unsafe content. It only fails when the
// provider cannot be reached, never for ordinary unsafe text.
type SafetyClassifier interface {
	AnalyzeText(ctx context.Context, text string) (*models.ModerationResult, error)
}

// TextAnalyzer enriches safe text
type TextAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) (models.Sentiment, error)
	ExtractKeyPhrases(ctx context.Context, text string) ([]string, error)
	DetectLanguage(ctx context.Context, text string) (string, error)
}

// EventPublisher receives moderation events. Publishing is best effort.
type EventPublisher interface {
	Publish(event models.ModerationEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(models.ModerationEvent) {}
