package services

import (
	"context"
	"time"

	"feedback-moderation-server/cache"
	"feedback-moderation-server/models"
)

// CachedClassifier memoizes classifications by content. Failures are not cached.
type CachedClassifier struct {
	next  SafetyClassifier
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedClassifier(next SafetyClassifier, c cache.Cache, ttl time.Duration) *CachedClassifier {
	return &CachedClassifier{next: next, cache: c, ttl: ttl}
}

func (c *CachedClassifier) AnalyzeText(ctx context.Context, text string) (*models.ModerationResult, error) {
	return cache.Remember(ctx, c.cache, "content_safety", text, c.ttl,
		func(ctx context.Context) (*models.ModerationResult, error) {
			return c.next.AnalyzeText(ctx, text)
		})
}

// CachedAnalyzer memoizes each text analysis separately
type CachedAnalyzer struct {
	next  TextAnalyzer
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedAnalyzer(next TextAnalyzer, c cache.Cache, ttl time.Duration) *CachedAnalyzer {
	return &CachedAnalyzer{next: next, cache: c, ttl: ttl}
}

func (c *CachedAnalyzer) AnalyzeSentiment(ctx context.Context, text string) (models.Sentiment, error) {
	return cache.Remember(ctx, c.cache, "sentiment", text, c.ttl,
		func(ctx context.Context) (models.Sentiment, error) {
			return c.next.AnalyzeSentiment(ctx, text)
		})
}

func (c *CachedAnalyzer) ExtractKeyPhrases(ctx context.Context, text string) ([]string, error) {
	return cache.Remember(ctx, c.cache, "key_phrases", text, c.ttl,
		func(ctx context.Context) ([]string, error) {
			return c.next.ExtractKeyPhrases(ctx, text)
		})
}

func (c *CachedAnalyzer) DetectLanguage(ctx context.Context, text string) (string, error) {
	return cache.Remember(ctx, c.cache, "language", text, c.ttl,
		func(ctx context.Context) (string, error) {
			return c.next.DetectLanguage(ctx, text)
		})
}
