package services

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"feedback-moderation-server/metrics"
	"feedback-moderation-server/models"
)

// enricher runs sentiment, key phrase and language analysis. A failing
// analysis falls back to its neutral default and never fails the caller.
type enricher struct {
	analyzer TextAnalyzer
	log      *zap.Logger
}

func (e *enricher) enrich(ctx context.Context, id, text string) models.Enrichment {
	out := models.Enrichment{
		Sentiment:  models.NeutralSentiment(),
		KeyPhrases: []string{},
		Language:   models.UnknownLanguage,
	}

	// Each goroutine writes a disjoint field of out.
	var g errgroup.Group
	g.Go(func() error {
		s, err := e.analyzer.AnalyzeSentiment(ctx, text)
		if err == nil && !s.Category.Valid() {
			err = fmt.Errorf("%w: unknown sentiment category %q", ErrProviderUnavailable, s.Category)
		}
		if err != nil {
			e.fallback("sentiment", id, err)
			return nil
		}
		s.Score = math.Max(0, math.Min(1, s.Score))
		out.Sentiment = s
		return nil
	})
	g.Go(func() error {
		phrases, err := e.analyzer.ExtractKeyPhrases(ctx, text)
		if err != nil {
			e.fallback("key_phrases", id, err)
			return nil
		}
		if phrases != nil {
			out.KeyPhrases = phrases
		}
		return nil
	})
	g.Go(func() error {
		lang, err := e.analyzer.DetectLanguage(ctx, text)
		if err != nil || lang == "" {
			e.fallback("language", id, err)
			return nil
		}
		out.Language = lang
		return nil
	})
	_ = g.Wait()

	return out
}

func (e *enricher) fallback(analysis, id string, err error) {
	metrics.ModerationFallbacks.WithLabelValues(analysis).Inc()
	e.log.Warn("analysis failed, using default",
		zap.String("analysis", analysis),
		zap.String("feedback_id", id),
		zap.Error(err),
	)
}
