package services

import (
	"context"
	"sort"

	"feedback-moderation-server/models"
	"feedback-moderation-server/repository"
)

const topKeyPhrases = 10

type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DashboardStats summarises every stored record
type DashboardStats struct {
	TotalFeedbackCount    int          `json:"total_feedback_count"`
	PositiveFeedbackCount int          `json:"positive_feedback_count"`
	NeutralFeedbackCount  int          `json:"neutral_feedback_count"`
	NegativeFeedbackCount int          `json:"negative_feedback_count"`
	PendingReviewCount    int          `json:"pending_review_count"`
	SubmissionsByDay      []LabelCount `json:"submissions_by_day"`
	LanguageDistribution  []LabelCount `json:"language_distribution"`
	TopKeyPhrases         []LabelCount `json:"top_key_phrases"`
}

type DashboardService struct {
	repo repository.FeedbackRepository
}

func NewDashboardService(repo repository.FeedbackRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(all), nil
}

func summarize(all []*models.Feedback) *DashboardStats {
	stats := &DashboardStats{TotalFeedbackCount: len(all)}
	days := map[string]int{}
	languages := map[string]int{}
	phrases := map[string]int{}

	for _, f := range all {
		switch f.SentimentCategory {
		case models.SentimentPositive:
			stats.PositiveFeedbackCount++
		case models.SentimentNeutral:
			stats.NeutralFeedbackCount++
		case models.SentimentNegative:
			stats.NegativeFeedbackCount++
		}
		if f.State() == models.StatePending {
			stats.PendingReviewCount++
		}
		days[f.SubmissionTime.UTC().Format("2006-01-02")]++
		if f.Language != "" {
			languages[f.Language]++
		}
		for _, p := range f.KeyPhrases {
			phrases[p]++
		}
	}

	stats.SubmissionsByDay = toCounts(days)
	sort.Slice(stats.SubmissionsByDay, func(i, j int) bool {
		return stats.SubmissionsByDay[i].Label < stats.SubmissionsByDay[j].Label
	})
	stats.LanguageDistribution = byCountDesc(toCounts(languages))
	stats.TopKeyPhrases = byCountDesc(toCounts(phrases))
	if len(stats.TopKeyPhrases) > topKeyPhrases {
		stats.TopKeyPhrases = stats.TopKeyPhrases[:topKeyPhrases]
	}
	return stats
}

func toCounts(m map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(m))
	for k, v := range m {
		out = append(out, LabelCount{Label: k, Count: v})
	}
	return out
}

func byCountDesc(c []LabelCount) []LabelCount {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Count != c[j].Count {
			return c[i].Count > c[j].Count
		}
		return c[i].Label < c[j].Label
	})
	return c
}
