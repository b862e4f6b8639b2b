package services

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"feedback-moderation-server/metrics"
	"feedback-moderation-server/models"
	"feedback-moderation-server/repository"
)

type storeFunc func(ctx context.Context) (*models.Feedback, error)

// persistWithRetry runs write, and when it fails, runs it exactly once more
// after delay. Missing records, id conflicts and context errors are final.
//
// A conflict on the retry means the first attempt may have committed before
// its error reached us; when stored is non-nil it is consulted and the
// existing record returned.
func persistWithRetry(ctx context.Context, log *zap.Logger, op string, delay time.Duration, write, stored storeFunc) (*models.Feedback, error) {
	if delay <= 0 {
		delay = time.Millisecond
	}
	backoff := retry.WithMaxRetries(1, retry.NewConstant(delay))

	attempt := 0
	return retry.DoValue(ctx, backoff, func(ctx context.Context) (*models.Feedback, error) {
		attempt++
		if attempt > 1 {
			metrics.StoreRetries.WithLabelValues(op).Inc()
		}
		f, err := write(ctx)
		if err == nil {
			return f, nil
		}
		if attempt > 1 && stored != nil && errors.Is(err, repository.ErrConflict) {
			if existing, lookupErr := stored(ctx); lookupErr == nil {
				log.Info("feedback already stored by failed attempt", zap.String("op", op))
				return existing, nil
			}
		}
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrConflict) ||
			errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		log.Warn("feedback store write failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Bool("rate_limited", errors.Is(err, repository.ErrRateLimited)),
			zap.Error(err),
		)
		return nil, retry.RetryableError(err)
	})
}
