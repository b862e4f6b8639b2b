package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"feedback-moderation-server/config"
	"feedback-moderation-server/models"
)

func TestContentSafetyClientFlagsAtThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/contentsafety/text:analyze", r.URL.Path)
		assert.Equal(t, "2023-10-01", r.URL.Query().Get("api-version"))
		assert.Equal(t, "secret", r.Header.Get(subscriptionKeyHeader))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"text":"you are awful"`)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"categoriesAnalysis":[
			{"category":"Hate","severity":4},
			{"category":"SelfHarm","severity":0},
			{"category":"Sexual","severity":0},
			{"category":"Violence","severity":2}]}`)
	}))
	defer srv.Close()

	c := NewContentSafetyClient(config.ContentSafetyConfig{
		Endpoint: srv.URL, APIKey: "secret", SeverityThreshold: 4, Timeout: time.Second,
	}, zaptest.NewLogger(t))

	r, err := c.AnalyzeText(context.Background(), "you are awful")
	require.NoError(t, err)
	assert.False(t, r.IsContentSafe)
	assert.Equal(t, []string{"Hate"}, r.FlaggedCategories)
	assert.Equal(t, 4, r.MaxSeverityLevel)
	assert.Equal(t, 2, r.CategoryScores["Violence"])
	assert.Equal(t, models.ActionReview, r.RecommendedAction)
}

func TestContentSafetyClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":"TooManyRequests"}}`)
	}))
	defer srv.Close()

	c := NewContentSafetyClient(config.ContentSafetyConfig{Endpoint: srv.URL, APIKey: "k", SeverityThreshold: 4},
		zaptest.NewLogger(t))
	_, err := c.AnalyzeText(context.Background(), "text")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "429")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewContentSafetyClient(config.ContentSafetyConfig{Endpoint: srv.URL, APIKey: "k", SeverityThreshold: 4},
		zaptest.NewLogger(t))
	for i := 0; i < 8; i++ {
		_, err := c.AnalyzeText(context.Background(), "text")
		assert.ErrorIs(t, err, ErrProviderUnavailable)
	}
	assert.Equal(t, int32(5), hits.Load())
}

func newAnalyticsServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/language/:analyze-text", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get(subscriptionKeyHeader))

		var req analyzeRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Len(t, req.AnalysisInput.Documents, 1)

		resp, ok := responses[req.Kind]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, resp)
	}))
}

func TestTextAnalyticsClient(t *testing.T) {
	srv := newAnalyticsServer(t, map[string]string{
		"SentimentAnalysis": `{"kind":"SentimentAnalysisResults","results":{"documents":[
			{"id":"1","sentiment":"negative","confidenceScores":{"positive":0.1,"neutral":0.2,"negative":0.7}}],"errors":[]}}`,
		"KeyPhraseExtraction": `{"kind":"KeyPhraseExtractionResults","results":{"documents":[
			{"id":"1","keyPhrases":["late delivery","refund"]}],"errors":[]}}`,
		"LanguageDetection": `{"kind":"LanguageDetectionResults","results":{"documents":[
			{"id":"1","detectedLanguage":{"name":"English","iso6391Name":"en","confidenceScore":0.99}}],"errors":[]}}`,
	})
	defer srv.Close()

	c := NewTextAnalyticsClient(config.TextAnalyticsConfig{Endpoint: srv.URL, APIKey: "key"}, zaptest.NewLogger(t))
	ctx := context.Background()

	s, err := c.AnalyzeSentiment(ctx, "the delivery was late")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, s.Category)
	assert.InDelta(t, 0.7, s.Score, 1e-9)

	p, err := c.ExtractKeyPhrases(ctx, "the delivery was late")
	require.NoError(t, err)
	assert.Equal(t, []string{"late delivery", "refund"}, p)

	l, err := c.DetectLanguage(ctx, "the delivery was late")
	require.NoError(t, err)
	assert.Equal(t, "English", l)
}

func TestTextAnalyticsSentimentMapping(t *testing.T) {
	tests := []struct {
		label    string
		category models.SentimentCategory
		score    float64
	}{
		{"positive", models.SentimentPositive, 0.6},
		{"neutral", models.SentimentNeutral, 0.3},
		{"mixed", models.SentimentNeutral, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			srv := newAnalyticsServer(t, map[string]string{
				"SentimentAnalysis": `{"results":{"documents":[{"id":"1","sentiment":"` + tt.label +
					`","confidenceScores":{"positive":0.6,"neutral":0.3,"negative":0.1}}]}}`,
			})
			defer srv.Close()

			c := NewTextAnalyticsClient(config.TextAnalyticsConfig{Endpoint: srv.URL, APIKey: "key"}, zaptest.NewLogger(t))
			s, err := c.AnalyzeSentiment(context.Background(), "text")
			require.NoError(t, err)
			assert.Equal(t, tt.category, s.Category)
			assert.InDelta(t, tt.score, s.Score, 1e-9)
		})
	}
}

func TestTextAnalyticsDocumentError(t *testing.T) {
	srv := newAnalyticsServer(t, map[string]string{
		"LanguageDetection": `{"results":{"documents":[],"errors":[
			{"id":"1","error":{"code":"InvalidArgument","message":"Document text is empty."}}]}}`,
	})
	defer srv.Close()

	c := NewTextAnalyticsClient(config.TextAnalyticsConfig{Endpoint: srv.URL, APIKey: "key"}, zaptest.NewLogger(t))
	_, err := c.DetectLanguage(context.Background(), "")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "InvalidArgument")
}
