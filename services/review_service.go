package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"feedback-moderation-server/metrics"
	"feedback-moderation-server/models"
	"feedback-moderation-server/repository"
)

// ReviewService implements moderator decisions on pending feedback.
//
// Pending -> Approved and Pending -> Rejected are the only transitions.
// Repeating the action a record already received is a no-op; asking for the
// opposite one returns ErrInvalidTransition.
type ReviewService struct {
	repo       repository.FeedbackRepository
	enricher   *enricher
	events     EventPublisher
	retryDelay time.Duration
	log        *zap.Logger
}

func NewReviewService(
	repo repository.FeedbackRepository,
	analyzer TextAnalyzer,
	events EventPublisher,
	retryDelay time.Duration,
	log *zap.Logger,
) *ReviewService {
	if events == nil {
		events = noopPublisher{}
	}
	log = log.Named("review")
	return &ReviewService{
		repo:       repo,
		enricher:   &enricher{analyzer: analyzer, log: log},
		events:     events,
		retryDelay: retryDelay,
		log:        log,
	}
}

// Approve publishes a pending record, backfilling enrichment when it never
// ran. An unknown id yields (nil, nil) and nothing is written.
func (s *ReviewService) Approve(ctx context.Context, id, notes string) (*models.Feedback, error) {
	return s.transition(ctx, "approve", id, models.StateApproved, func(f *models.Feedback) {
		f.IsApproved = true
		f.RequiresReview = false
		f.ReviewNotes = notes
		if !f.IsEnriched() {
			f.ApplyEnrichment(s.enricher.enrich(ctx, f.ID, f.Content))
		}
	})
}

// Reject closes a pending record without publishing it. Enrichment fields
// are left as they are. An unknown id yields (nil, nil).
func (s *ReviewService) Reject(ctx context.Context, id, notes string) (*models.Feedback, error) {
	return s.transition(ctx, "reject", id, models.StateRejected, func(f *models.Feedback) {
		f.IsApproved = false
		f.RequiresReview = false
		f.ReviewNotes = notes
	})
}

func (s *ReviewService) transition(
	ctx context.Context,
	action, id string,
	target models.ReviewState,
	apply func(*models.Feedback),
) (*models.Feedback, error) {
	f, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.ReviewActions.WithLabelValues(action, "not_found").Inc()
		s.log.Info("review target not found", zap.String("action", action), zap.String("feedback_id", id))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load feedback %s: %w", id, err)
	}

	switch f.State() {
	case target:
		metrics.ReviewActions.WithLabelValues(action, "noop").Inc()
		return f, nil
	case models.StatePending:
	default:
		metrics.ReviewActions.WithLabelValues(action, "invalid").Inc()
		return nil, fmt.Errorf("%w: cannot %s %s feedback", ErrInvalidTransition, action, f.State())
	}

	apply(f)

	updated, err := persistWithRetry(ctx, s.log, "update", s.retryDelay,
		func(ctx context.Context) (*models.Feedback, error) {
			return s.repo.Update(ctx, f)
		}, nil)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.ReviewActions.WithLabelValues(action, "not_found").Inc()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s feedback %s: %w", action, id, err)
	}

	metrics.ReviewActions.WithLabelValues(action, "ok").Inc()
	evt := models.EventApproved
	if target == models.StateRejected {
		evt = models.EventRejected
	}
	s.events.Publish(models.NewModerationEvent(evt, updated))
	s.log.Info("feedback reviewed",
		zap.String("action", action),
		zap.String("feedback_id", id),
	)
	return updated, nil
}

// PendingReview lists records awaiting a moderator, newest first
func (s *ReviewService) PendingReview(ctx context.Context) ([]*models.Feedback, error) {
	return s.byState(ctx, models.StatePending)
}

// Rejected lists records a moderator turned down
func (s *ReviewService) Rejected(ctx context.Context) ([]*models.Feedback, error) {
	return s.byState(ctx, models.StateRejected)
}

// Approved lists published records
func (s *ReviewService) Approved(ctx context.Context) ([]*models.Feedback, error) {
	return s.byState(ctx, models.StateApproved)
}

func (s *ReviewService) PendingCount(ctx context.Context) (int, error) {
	pending, err := s.PendingReview(ctx)
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

// GetPending returns repository.ErrNotFound unless id is awaiting review
func (s *ReviewService) GetPending(ctx context.Context, id string) (*models.Feedback, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.State() != models.StatePending {
		return nil, repository.ErrNotFound
	}
	return f, nil
}

func (s *ReviewService) byState(ctx context.Context, state models.ReviewState) ([]*models.Feedback, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterState(all, state), nil
}
