package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"feedback-moderation-server/config"
	"feedback-moderation-server/models"
)

const contentSafetyPath = "/contentsafety/text:analyze?api-version=2023-10-01"

var contentSafetyCategories = []string{"Hate", "SelfHarm", "Sexual", "Violence"}

// ContentSafetyClient classifies text with the Azure AI Content Safety REST API
type ContentSafetyClient struct {
	providerClient
	threshold int
}

func NewContentSafetyClient(cfg config.ContentSafetyConfig, log *zap.Logger) *ContentSafetyClient {
	return &ContentSafetyClient{
		providerClient: newProviderClient("content_safety", cfg.Endpoint, cfg.APIKey, cfg.Timeout, log),
		threshold:      cfg.SeverityThreshold,
	}
}

type analyzeTextRequest struct {
	Text       string   `json:"text"`
	Categories []string `json:"categories"`
	OutputType string   `json:"outputType"`
}

type analyzeTextResponse struct {
	CategoriesAnalysis []struct {
		Category string `json:"category"`
		Severity *int   `json:"severity"`
	} `json:"categoriesAnalysis"`
}

func (c *ContentSafetyClient) AnalyzeText(ctx context.Context, text string) (*models.ModerationResult, error) {
	data, err := c.post(ctx, contentSafetyPath, analyzeTextRequest{
		Text:       text,
		Categories: contentSafetyCategories,
		OutputType: "FourSeverityLevels",
	})
	if err != nil {
		return nil, err
	}

	var resp analyzeTextResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: content_safety: decode: %v", ErrProviderUnavailable, err)
	}

	scores := make([]CategorySeverity, 0, len(resp.CategoriesAnalysis))
	for _, a := range resp.CategoriesAnalysis {
		sev := 0
		if a.Severity != nil {
			sev = *a.Severity
		}
		scores = append(scores, CategorySeverity{Category: a.Category, Severity: sev})
	}
	return Evaluate(scores, c.threshold), nil
}
