package repository

import (
	"context"
	"errors"

	"feedback-moderation-server/models"
)

var (
	// ErrNotFound is returned when no record has the requested id
	ErrNotFound = errors.New("feedback not found")
	// ErrRateLimited is returned when the store throttles or sheds the request
	ErrRateLimited = errors.New("feedback store rate limited")
	// ErrConflict is returned when a record with the same id already exists
	ErrConflict = errors.New("feedback already exists")
)

// FeedbackRepository is the keyed record store behind the moderation pipeline.
//
// Update writes only the fields the review workflow may change; id, content,
// submission time and the safety classification are fixed at Create.
// Concurrent updates of one id are last-writer-wins.
type FeedbackRepository interface {
	Create(ctx context.Context, f *models.Feedback) (*models.Feedback, error)
	// ListAll returns every record, newest submission first
	ListAll(ctx context.Context) ([]*models.Feedback, error)
	GetByID(ctx context.Context, id string) (*models.Feedback, error)
	Update(ctx context.Context, f *models.Feedback) (*models.Feedback, error)
}
