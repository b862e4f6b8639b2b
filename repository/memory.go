package repository

import (
	"context"
	"sort"
	"sync"

	"feedback-moderation-server/models"
)

// MemoryFeedbackRepository keeps records in process memory. It applies the
// same write-once rules as the postgres repository.
type MemoryFeedbackRepository struct {
	mu      sync.RWMutex
	records map[string]*models.Feedback
}

func NewMemoryFeedbackRepository() *MemoryFeedbackRepository {
	return &MemoryFeedbackRepository{records: map[string]*models.Feedback{}}
}

func (m *MemoryFeedbackRepository) Create(ctx context.Context, f *models.Feedback) (*models.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[f.ID]; ok {
		return nil, ErrConflict
	}
	m.records[f.ID] = f.Clone()
	return f.Clone(), nil
}

func (m *MemoryFeedbackRepository) ListAll(ctx context.Context) ([]*models.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]*models.Feedback, 0, len(m.records))
	for _, f := range m.records {
		out = append(out, f.Clone())
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SubmissionTime.Equal(out[j].SubmissionTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmissionTime.After(out[j].SubmissionTime)
	})
	return out, nil
}

func (m *MemoryFeedbackRepository) GetByID(ctx context.Context, id string) (*models.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return f.Clone(), nil
}

func (m *MemoryFeedbackRepository) Update(ctx context.Context, f *models.Feedback) (*models.Feedback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.records[f.ID]
	if !ok {
		return nil, ErrNotFound
	}
	next := cur.Clone()
	next.SentimentScore = f.SentimentScore
	next.SentimentCategory = f.SentimentCategory
	next.KeyPhrases = append(next.KeyPhrases[:0:0], f.KeyPhrases...)
	next.Language = f.Language
	next.ModerationCategory = f.ModerationCategory
	next.RequiresReview = f.RequiresReview
	next.IsApproved = f.IsApproved
	next.ReviewNotes = f.ReviewNotes
	m.records[f.ID] = next
	return next.Clone(), nil
}
