package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"feedback-moderation-server/metrics"
	"feedback-moderation-server/models"
	"feedback-moderation-server/repository"
)

// PipelineOptions tunes the submission pipeline
type PipelineOptions struct {
	MinLength       int
	MaxLength       int
	StoreRetryDelay time.Duration
}

// FeedbackService runs the submission pipeline: classify, decide, enrich
// safe content, persist.
type FeedbackService struct {
	repo       repository.FeedbackRepository
	classifier SafetyClassifier
	enricher   *enricher
	events     EventPublisher
	opts       PipelineOptions
	log        *zap.Logger
}

func NewFeedbackService(
	repo repository.FeedbackRepository,
	classifier SafetyClassifier,
	analyzer TextAnalyzer,
	events EventPublisher,
	opts PipelineOptions,
	log *zap.Logger,
) *FeedbackService {
	if events == nil {
		events = noopPublisher{}
	}
	if opts.MinLength <= 0 {
		opts.MinLength = 10
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = 1000
	}
	if opts.StoreRetryDelay <= 0 {
		opts.StoreRetryDelay = time.Second
	}
	log = log.Named("pipeline")
	return &FeedbackService{
		repo:       repo,
		classifier: classifier,
		enricher:   &enricher{analyzer: analyzer, log: log},
		events:     events,
		opts:       opts,
		log:        log,
	}
}

// Submit validates content and runs it through the pipeline. Provider
// failures degrade to defaults; only validation and store failures are
// returned.
func (s *FeedbackService) Submit(ctx context.Context, content string) (*models.Feedback, error) {
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n < s.opts.MinLength || n > s.opts.MaxLength {
		return nil, fmt.Errorf("%w: length must be between %d and %d characters",
			ErrInvalidContent, s.opts.MinLength, s.opts.MaxLength)
	}

	f := &models.Feedback{
		ID:                uuid.NewString(),
		Content:           content,
		SubmissionTime:    time.Now().UTC(),
		KeyPhrases:        pq.StringArray{},
		FlaggedCategories: pq.StringArray{},
	}

	result, err := s.classifier.AnalyzeText(ctx, content)
	if err != nil || result == nil {
		// Unscreened content is published as safe; see the fallback counter.
		metrics.ModerationFallbacks.WithLabelValues("content_safety").Inc()
		s.log.Warn("content safety unavailable, accepting as safe",
			zap.String("feedback_id", f.ID),
			zap.Error(err),
		)
		result = models.SafeModerationResult()
	}

	Decide(result).Apply(f)
	if f.IsContentSafe {
		f.ApplyEnrichment(s.enricher.enrich(ctx, f.ID, content))
	}

	stored, err := persistWithRetry(ctx, s.log, "create", s.opts.StoreRetryDelay,
		func(ctx context.Context) (*models.Feedback, error) {
			return s.repo.Create(ctx, f)
		},
		func(ctx context.Context) (*models.Feedback, error) {
			return s.repo.GetByID(ctx, f.ID)
		})
	if err != nil {
		return nil, fmt.Errorf("store feedback: %w", err)
	}

	metrics.Submissions.WithLabelValues(string(stored.State())).Inc()
	s.events.Publish(models.NewModerationEvent(models.EventSubmitted, stored))
	s.log.Info("feedback submitted",
		zap.String("feedback_id", stored.ID),
		zap.String("state", string(stored.State())),
		zap.Int("severity", stored.SeverityLevel),
		zap.Strings("flagged", stored.FlaggedCategories),
	)
	return stored, nil
}

// GetAll returns every record, newest first
func (s *FeedbackService) GetAll(ctx context.Context) ([]*models.Feedback, error) {
	return s.repo.ListAll(ctx)
}

// GetByID returns repository.ErrNotFound when id is unknown
func (s *FeedbackService) GetByID(ctx context.Context, id string) (*models.Feedback, error) {
	return s.repo.GetByID(ctx, id)
}

// ListApproved returns the published records, newest first
func (s *FeedbackService) ListApproved(ctx context.Context) ([]*models.Feedback, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterState(all, models.StateApproved), nil
}

func filterState(all []*models.Feedback, state models.ReviewState) []*models.Feedback {
	out := make([]*models.Feedback, 0, len(all))
	for _, f := range all {
		if f.State() == state {
			out = append(out, f)
		}
	}
	return out
}
