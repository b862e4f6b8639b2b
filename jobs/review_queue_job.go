package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"feedback-moderation-server/metrics"
	"feedback-moderation-server/models"
)

// PendingLister is the part of the review service the job needs
type PendingLister interface {
	PendingReview(ctx context.Context) ([]*models.Feedback, error)
}

// QueueReport is the outcome of one review queue check
type QueueReport struct {
	Pending int
	Stale   []string
}

// ReviewQueueJob periodically publishes the review backlog size and warns
// about records that have waited too long for a moderator
type ReviewQueueJob struct {
	review     PendingLister
	interval   time.Duration
	staleAfter time.Duration
	log        *zap.Logger
	now        func() time.Time

	stopChan chan struct{}
	done     chan struct{}
}

// NewReviewQueueJob creates a new review queue job
func NewReviewQueueJob(review PendingLister, interval, staleAfter time.Duration, log *zap.Logger) *ReviewQueueJob {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ReviewQueueJob{
		review:     review,
		interval:   interval,
		staleAfter: staleAfter,
		log:        log.Named("review-queue"),
		now:        time.Now,
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start begins the job. The first check runs immediately.
func (j *ReviewQueueJob) Start(ctx context.Context) {
	go j.run(ctx)
	j.log.Info("review queue job started", zap.Duration("interval", j.interval))
}

// Stop halts the job and waits for the running check to finish
func (j *ReviewQueueJob) Stop() {
	close(j.stopChan)
	<-j.done
	j.log.Info("review queue job stopped")
}

func (j *ReviewQueueJob) run(ctx context.Context) {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if _, err := j.Check(ctx); err != nil {
			j.log.Error("review queue check failed", zap.Error(err))
		}
		select {
		case <-ticker.C:
		case <-j.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Check measures the queue once and updates the pending gauge
func (j *ReviewQueueJob) Check(ctx context.Context) (QueueReport, error) {
	pending, err := j.review.PendingReview(ctx)
	if err != nil {
		return QueueReport{}, err
	}

	report := QueueReport{Pending: len(pending)}
	metrics.ReviewQueuePending.Set(float64(report.Pending))

	if j.staleAfter > 0 {
		cutoff := j.now().Add(-j.staleAfter)
		for _, f := range pending {
			if f.SubmissionTime.Before(cutoff) {
				report.Stale = append(report.Stale, f.ID)
			}
		}
	}
	if len(report.Stale) > 0 {
		j.log.Warn("feedback waiting for review",
			zap.Int("stale", len(report.Stale)),
			zap.Duration("older_than", j.staleAfter),
			zap.Strings("feedback_ids", report.Stale),
		)
	}
	return report, nil
}
