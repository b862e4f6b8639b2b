package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-moderation-server/cache"
)

func TestCachedClassifierServesRepeatsFromCache(t *testing.T) {
	stub := unsafeClassifier("Hate", 6)
	c := NewCachedClassifier(stub, cache.NewMemoryCache(time.Hour, time.Minute), time.Hour)
	ctx := context.Background()

	first, err := c.AnalyzeText(ctx, "identical text")
	require.NoError(t, err)
	second, err := c.AnalyzeText(ctx, "identical text")
	require.NoError(t, err)

	assert.Equal(t, int32(1), stub.calls.Load())
	assert.Equal(t, first, second)

	_, err = c.AnalyzeText(ctx, "different text")
	require.NoError(t, err)
	assert.Equal(t, int32(2), stub.calls.Load())
}

func TestCachedClassifierDoesNotCacheFailures(t *testing.T) {
	stub := &stubClassifier{err: errProviderDown}
	c := NewCachedClassifier(stub, cache.NewMemoryCache(time.Hour, time.Minute), time.Hour)

	_, err := c.AnalyzeText(context.Background(), "text")
	assert.ErrorIs(t, err, errProviderDown)
	_, err = c.AnalyzeText(context.Background(), "text")
	assert.ErrorIs(t, err, errProviderDown)
	assert.Equal(t, int32(2), stub.calls.Load())
}

func TestCachedAnalyzerKeysEachAnalysisSeparately(t *testing.T) {
	stub := positiveAnalyzer()
	c := NewCachedAnalyzer(stub, cache.NewMemoryCache(time.Hour, time.Minute), time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s, err := c.AnalyzeSentiment(ctx, "same text")
		require.NoError(t, err)
		assert.Equal(t, stub.sentiment, s)

		p, err := c.ExtractKeyPhrases(ctx, "same text")
		require.NoError(t, err)
		assert.Equal(t, stub.phrases, p)

		l, err := c.DetectLanguage(ctx, "same text")
		require.NoError(t, err)
		assert.Equal(t, "English", l)
	}

	assert.Equal(t, int32(1), stub.sentimentCalls.Load())
	assert.Equal(t, int32(1), stub.phrasesCalls.Load())
	assert.Equal(t, int32(1), stub.languageCalls.Load())
}

func TestPipelineWithCachedProviders(t *testing.T) {
	classifier := safeClassifier()
	analyzer := positiveAnalyzer()
	mem := cache.NewMemoryCache(time.Hour, time.Minute)
	svc := newTestFeedbackService(t, newCountingRepo(),
		NewCachedClassifier(classifier, mem, time.Hour),
		NewCachedAnalyzer(analyzer, mem, time.Hour), nil)

	for i := 0; i < 2; i++ {
		_, err := svc.Submit(context.Background(), "the same glowing review")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), classifier.calls.Load())
	assert.Equal(t, int32(3), analyzer.totalCalls())
}
