package services

import (
	"strings"

	"feedback-moderation-server/models"
)

// Decide maps a classification onto the record's initial moderation state.
// Safe content is published immediately; unsafe content waits for a moderator.
func Decide(r *models.ModerationResult) models.Decision {
	if r == nil {
		r = models.SafeModerationResult()
	}
	d := models.Decision{
		IsContentSafe:     r.IsContentSafe,
		SeverityLevel:     r.MaxSeverityLevel,
		FlaggedCategories: append([]string{}, r.FlaggedCategories...),
	}
	if r.IsContentSafe {
		d.IsApproved = true
		return d
	}
	d.RequiresReview = true
	d.ModerationCategory = strings.Join(r.FlaggedCategories, ", ")
	return d
}

// CategorySeverity is one category score reported by a safety provider
type CategorySeverity struct {
	Category string
	Severity int
}

// Evaluate applies the severity threshold to provider scores. A category is
// flagged when its severity is at or above threshold; content is safe when
// nothing is flagged. Flag order follows the provider's order.
func Evaluate(scores []CategorySeverity, threshold int) *models.ModerationResult {
	r := &models.ModerationResult{
		CategoryScores:    make(map[string]int, len(scores)),
		FlaggedCategories: []string{},
	}
	for _, s := range scores {
		sev := s.Severity
		if sev < 0 {
			sev = 0
		}
		r.CategoryScores[s.Category] = sev
		if sev > r.MaxSeverityLevel {
			r.MaxSeverityLevel = sev
		}
		if sev >= threshold {
			r.FlaggedCategories = append(r.FlaggedCategories, s.Category)
		}
	}
	r.IsContentSafe = len(r.FlaggedCategories) == 0
	r.RecommendedAction = models.ActionAccept
	if !r.IsContentSafe {
		r.RecommendedAction = models.ActionReview
	}
	return r
}
