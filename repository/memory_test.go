package repository

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-moderation-server/models"
)

func record(id string, at time.Time) *models.Feedback {
	return &models.Feedback{
		ID:                id,
		Content:           "content for " + id,
		SubmissionTime:    at,
		IsContentSafe:     false,
		SeverityLevel:     5,
		FlaggedCategories: pq.StringArray{"Hate"},
		RequiresReview:    true,
	}
}

func TestMemoryListAllNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryFeedbackRepository()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		_, err := repo.Create(ctx, record(id, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestMemoryGetByIDMissing(t *testing.T) {
	_, err := NewMemoryFeedbackRepository().GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryFeedbackRepository()
	_, err := repo.Create(ctx, record("a", time.Now()))
	require.NoError(t, err)
	_, err = repo.Create(ctx, record("a", time.Now()))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryUpdateKeepsWriteOnceFields(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryFeedbackRepository()
	orig := record("a", time.Now().UTC())
	_, err := repo.Create(ctx, orig)
	require.NoError(t, err)

	changed := orig.Clone()
	changed.Content = "rewritten"
	changed.IsContentSafe = true
	changed.SeverityLevel = 0
	changed.FlaggedCategories = nil
	changed.RequiresReview = false
	changed.IsApproved = true
	changed.ReviewNotes = "ok"
	changed.SentimentCategory = models.SentimentNeutral

	_, err = repo.Update(ctx, changed)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, orig.Content, got.Content)
	assert.False(t, got.IsContentSafe)
	assert.Equal(t, 5, got.SeverityLevel)
	assert.Equal(t, pq.StringArray{"Hate"}, got.FlaggedCategories)
	assert.Equal(t, models.StateApproved, got.State())
	assert.Equal(t, "ok", got.ReviewNotes)
	assert.Equal(t, models.SentimentNeutral, got.SentimentCategory)
}

func TestMemoryUpdateMissing(t *testing.T) {
	_, err := NewMemoryFeedbackRepository().Update(context.Background(), record("ghost", time.Now()))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryFeedbackRepository()
	_, err := repo.Create(ctx, record("a", time.Now()))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	got.FlaggedCategories[0] = "mutated"
	got.ReviewNotes = "mutated"

	again, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Hate", again.FlaggedCategories[0])
	assert.Empty(t, again.ReviewNotes)
}
