package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"feedback-moderation-server/config"
	"feedback-moderation-server/models"
)

const textAnalyticsPath = "/language/:analyze-text?api-version=2023-04-01"

// TextAnalyticsClient calls the Azure AI Language analyze-text REST API
type TextAnalyticsClient struct {
	providerClient
}

func NewTextAnalyticsClient(cfg config.TextAnalyticsConfig, log *zap.Logger) *TextAnalyticsClient {
	return &TextAnalyticsClient{
		providerClient: newProviderClient("text_analytics", cfg.Endpoint, cfg.APIKey, cfg.Timeout, log),
	}
}

type analyzeDocument struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type analyzeRequest struct {
	Kind          string `json:"kind"`
	AnalysisInput struct {
		Documents []analyzeDocument `json:"documents"`
	} `json:"analysisInput"`
}

type documentError struct {
	ID    string `json:"id"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type analyzeResponse[D any] struct {
	Results struct {
		Documents []D             `json:"documents"`
		Errors    []documentError `json:"errors"`
	} `json:"results"`
}

type sentimentDocument struct {
	Sentiment        string `json:"sentiment"`
	ConfidenceScores struct {
		Positive float64 `json:"positive"`
		Neutral  float64 `json:"neutral"`
		Negative float64 `json:"negative"`
	} `json:"confidenceScores"`
}

type keyPhraseDocument struct {
	KeyPhrases []string `json:"keyPhrases"`
}

type languageDocument struct {
	DetectedLanguage struct {
		Name        string  `json:"name"`
		ISO6391Name string  `json:"iso6391Name"`
		Confidence  float64 `json:"confidenceScore"`
	} `json:"detectedLanguage"`
}

// analyze runs one analysis kind over a single document
func analyze[D any](ctx context.Context, c *TextAnalyticsClient, kind, text string) (D, error) {
	var zero D
	req := analyzeRequest{Kind: kind}
	req.AnalysisInput.Documents = []analyzeDocument{{ID: "1", Text: text}}

	data, err := c.post(ctx, textAnalyticsPath, req)
	if err != nil {
		return zero, err
	}

	var resp analyzeResponse[D]
	if err := json.Unmarshal(data, &resp); err != nil {
		return zero, fmt.Errorf("%w: %s: decode: %v", ErrProviderUnavailable, kind, err)
	}
	if len(resp.Results.Errors) > 0 {
		e := resp.Results.Errors[0].Error
		return zero, fmt.Errorf("%w: %s: %s: %s", ErrProviderUnavailable, kind, e.Code, e.Message)
	}
	if len(resp.Results.Documents) == 0 {
		return zero, fmt.Errorf("%w: %s: empty result", ErrProviderUnavailable, kind)
	}
	return resp.Results.Documents[0], nil
}

// AnalyzeSentiment reports the confidence of the winning label. Mixed text
// is reported as Neutral.
func (c *TextAnalyticsClient) AnalyzeSentiment(ctx context.Context, text string) (models.Sentiment, error) {
	doc, err := analyze[sentimentDocument](ctx, c, "SentimentAnalysis", text)
	if err != nil {
		return models.Sentiment{}, err
	}
	switch strings.ToLower(doc.Sentiment) {
	case "positive":
		return models.Sentiment{Score: doc.ConfidenceScores.Positive, Category: models.SentimentPositive}, nil
	case "negative":
		return models.Sentiment{Score: doc.ConfidenceScores.Negative, Category: models.SentimentNegative}, nil
	default:
		return models.Sentiment{Score: doc.ConfidenceScores.Neutral, Category: models.SentimentNeutral}, nil
	}
}

func (c *TextAnalyticsClient) ExtractKeyPhrases(ctx context.Context, text string) ([]string, error) {
	doc, err := analyze[keyPhraseDocument](ctx, c, "KeyPhraseExtraction", text)
	if err != nil {
		return nil, err
	}
	if doc.KeyPhrases == nil {
		return []string{}, nil
	}
	return doc.KeyPhrases, nil
}

// DetectLanguage returns the language's display name, e.g. "English"
func (c *TextAnalyticsClient) DetectLanguage(ctx context.Context, text string) (string, error) {
	doc, err := analyze[languageDocument](ctx, c, "LanguageDetection", text)
	if err != nil {
		return "", err
	}
	if doc.DetectedLanguage.Name == "" || doc.DetectedLanguage.Name == "(Unknown)" {
		return models.UnknownLanguage, nil
	}
	return doc.DetectedLanguage.Name, nil
}
