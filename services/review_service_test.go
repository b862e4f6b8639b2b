package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-moderation-server/models"
	"feedback-moderation-server/repository"
)

func TestApproveBackfillsEnrichment(t *testing.T) {
	repo := newCountingRepo()
	analyzer := positiveAnalyzer()
	events := &recordingPublisher{}
	svc := newTestReviewService(t, repo, analyzer, events)
	seedPending(t, repo, "p1")

	f, err := svc.Approve(context.Background(), "p1", "fine after all")
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.Equal(t, models.StateApproved, f.State())
	assert.Equal(t, "fine after all", f.ReviewNotes)
	assert.Equal(t, models.SentimentPositive, f.SentimentCategory)
	assert.Equal(t, "English", f.Language)
	assert.Equal(t, int32(1), analyzer.sentimentCalls.Load())
	assert.Equal(t, []models.EventType{models.EventApproved}, events.types())

	stored, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, stored.SentimentCategory)
	assert.False(t, stored.IsContentSafe, "safety classification is write-once")
	assert.Equal(t, []string{"Violence"}, []string(stored.FlaggedCategories))
}

func TestApproveBackfillFallsBackToDefaults(t *testing.T) {
	repo := newCountingRepo()
	analyzer := &stubAnalyzer{sentimentErr: errProviderDown, phrasesErr: errProviderDown, languageErr: errProviderDown}
	svc := newTestReviewService(t, repo, analyzer, nil)
	seedPending(t, repo, "p1")

	f, err := svc.Approve(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNeutral, f.SentimentCategory)
	assert.Equal(t, models.UnknownLanguage, f.Language)
}

func TestApproveSkipsEnrichmentWhenPresent(t *testing.T) {
	repo := newCountingRepo()
	analyzer := positiveAnalyzer()
	svc := newTestReviewService(t, repo, analyzer, nil)

	pending := seedPending(t, repo, "p1")
	pending.ApplyEnrichment(models.Enrichment{
		Sentiment:  models.Sentiment{Score: 0.8, Category: models.SentimentNegative},
		KeyPhrases: []string{"delivery"},
		Language:   "Polish",
	})
	_, err := repo.MemoryFeedbackRepository.Update(context.Background(), pending)
	require.NoError(t, err)

	f, err := svc.Approve(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.Zero(t, analyzer.totalCalls())
	assert.Equal(t, models.SentimentNegative, f.SentimentCategory)
	assert.Equal(t, "Polish", f.Language)
}

func TestApproveMissingIsNoop(t *testing.T) {
	repo := newCountingRepo()
	analyzer := positiveAnalyzer()
	svc := newTestReviewService(t, repo, analyzer, nil)

	f, err := svc.Approve(context.Background(), "missing-id", "")
	assert.NoError(t, err)
	assert.Nil(t, f)
	assert.Zero(t, repo.writes())
	assert.Zero(t, analyzer.totalCalls())
}

func TestApproveTwiceIsIdempotent(t *testing.T) {
	repo := newCountingRepo()
	analyzer := positiveAnalyzer()
	svc := newTestReviewService(t, repo, analyzer, nil)
	seedPending(t, repo, "p1")
	ctx := context.Background()

	first, err := svc.Approve(ctx, "p1", "first")
	require.NoError(t, err)
	writes := repo.writes()

	second, err := svc.Approve(ctx, "p1", "second")
	require.NoError(t, err)
	assert.Equal(t, writes, repo.writes())
	assert.Equal(t, int32(1), analyzer.sentimentCalls.Load())
	assert.Equal(t, "first", second.ReviewNotes)
	assert.Equal(t, first.State(), second.State())
}

func TestApproveRejectedIsInvalid(t *testing.T) {
	repo := newCountingRepo()
	svc := newTestReviewService(t, repo, positiveAnalyzer(), nil)
	seedPending(t, repo, "p1")
	ctx := context.Background()

	_, err := svc.Reject(ctx, "p1", "no")
	require.NoError(t, err)

	f, err := svc.Approve(ctx, "p1", "changed my mind")
	assert.Nil(t, f)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.StateRejected, stored.State())
}

func TestRejectLeavesEnrichmentUntouched(t *testing.T) {
	tests := map[string]*models.Enrichment{
		"never enriched": nil,
		"enriched": {
			Sentiment:  models.Sentiment{Score: 0.6, Category: models.SentimentNeutral},
			KeyPhrases: []string{"refund"},
			Language:   "English",
		},
	}
	for name, enrichment := range tests {
		t.Run(name, func(t *testing.T) {
			repo := newCountingRepo()
			analyzer := positiveAnalyzer()
			events := &recordingPublisher{}
			svc := newTestReviewService(t, repo, analyzer, events)
			before := seedPending(t, repo, "p1")
			if enrichment != nil {
				before.ApplyEnrichment(*enrichment)
				_, err := repo.MemoryFeedbackRepository.Update(context.Background(), before)
				require.NoError(t, err)
			}

			f, err := svc.Reject(context.Background(), "p1", "spam")
			require.NoError(t, err)
			assert.Equal(t, models.StateRejected, f.State())
			assert.Equal(t, "spam", f.ReviewNotes)
			assert.Equal(t, before.SentimentCategory, f.SentimentCategory)
			assert.Equal(t, before.SentimentScore, f.SentimentScore)
			assert.Equal(t, before.KeyPhrases, f.KeyPhrases)
			assert.Equal(t, before.Language, f.Language)
			assert.Zero(t, analyzer.totalCalls())
			assert.Equal(t, []models.EventType{models.EventRejected}, events.types())
		})
	}
}

func TestRejectMissingIsNoop(t *testing.T) {
	repo := newCountingRepo()
	svc := newTestReviewService(t, repo, positiveAnalyzer(), nil)

	f, err := svc.Reject(context.Background(), "missing-id", "")
	assert.NoError(t, err)
	assert.Nil(t, f)
	assert.Zero(t, repo.writes())
}

func TestRejectApprovedIsInvalid(t *testing.T) {
	repo := newCountingRepo()
	svc := newTestReviewService(t, repo, positiveAnalyzer(), nil)
	seedPending(t, repo, "p1")

	_, err := svc.Approve(context.Background(), "p1", "")
	require.NoError(t, err)
	_, err = svc.Reject(context.Background(), "p1", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReviewRetriesUpdateOnce(t *testing.T) {
	repo := newCountingRepo()
	repo.failUpdates = 1
	svc := newTestReviewService(t, repo, positiveAnalyzer(), nil)
	seedPending(t, repo, "p1")

	f, err := svc.Reject(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.Equal(t, models.StateRejected, f.State())
	assert.Equal(t, 2, repo.updates)

	repo.failUpdates = 2
	seedPending(t, repo, "p2")
	_, err = svc.Reject(context.Background(), "p2", "")
	assert.ErrorIs(t, err, repository.ErrRateLimited)
	assert.Equal(t, 4, repo.updates)
}

func TestQueriesAndPendingCount(t *testing.T) {
	repo := newCountingRepo()
	svc := newTestReviewService(t, repo, positiveAnalyzer(), nil)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		seedPending(t, repo, fmt.Sprintf("p%d", i))
	}
	_, err := svc.Approve(ctx, "p0", "")
	require.NoError(t, err)
	_, err = svc.Reject(ctx, "p1", "")
	require.NoError(t, err)

	n, err := svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rejected, err := svc.Rejected(ctx)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "p1", rejected[0].ID)

	approved, err := svc.Approved(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "p0", approved[0].ID)

	got, err := svc.GetPending(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "p2", got.ID)
	_, err = svc.GetPending(ctx, "p0")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStatesPartitionRecordSet(t *testing.T) {
	repo := newCountingRepo()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	feedback := newTestFeedbackService(t, repo, &rotatingClassifier{}, positiveAnalyzer(), nil)
	review := newTestReviewService(t, repo, positiveAnalyzer(), nil)

	var ids []string
	for i := 0; i < 60; i++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(ids) == 0:
			f, err := feedback.Submit(ctx, fmt.Sprintf("generated feedback number %d", i))
			require.NoError(t, err)
			ids = append(ids, f.ID)
		case op == 1:
			_, err := review.Approve(ctx, ids[rng.Intn(len(ids))], "")
			if err != nil {
				require.ErrorIs(t, err, ErrInvalidTransition)
			}
		default:
			_, err := review.Reject(ctx, ids[rng.Intn(len(ids))], "")
			if err != nil {
				require.ErrorIs(t, err, ErrInvalidTransition)
			}
		}
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	pending, err := review.PendingReview(ctx)
	require.NoError(t, err)
	rejected, err := review.Rejected(ctx)
	require.NoError(t, err)
	approved, err := review.Approved(ctx)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, group := range [][]*models.Feedback{pending, rejected, approved} {
		for _, f := range group {
			seen[f.ID]++
		}
	}
	assert.Len(t, seen, len(all))
	for _, f := range all {
		assert.Equal(t, 1, seen[f.ID], f.ID)
		assert.False(t, f.RequiresReview && f.IsApproved)
		if f.IsApproved {
			assert.NotEmpty(t, f.SentimentCategory)
		}
	}
}

// rotatingClassifier flags every other submission
type rotatingClassifier struct{ n int }

func (r *rotatingClassifier) AnalyzeText(context.Context, string) (*models.ModerationResult, error) {
	r.n++
	if r.n%2 == 0 {
		return Evaluate([]CategorySeverity{{Category: "Hate", Severity: 4}}, 4), nil
	}
	return Evaluate([]CategorySeverity{{Category: "Hate", Severity: 0}}, 4), nil
}
