package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"feedback-moderation-server/models"
)

// Postgres error codes that mean "try again later"
var throttleCodes = map[string]bool{
	"53300": true, // too_many_connections
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57P03": true, // cannot_connect_now
}

// GormFeedbackRepository stores feedback in postgres
type GormFeedbackRepository struct {
	db *gorm.DB
}

func NewGormFeedbackRepository(db *gorm.DB) *GormFeedbackRepository {
	return &GormFeedbackRepository{db: db}
}

func (r *GormFeedbackRepository) Create(ctx context.Context, f *models.Feedback) (*models.Feedback, error) {
	rec := f.Clone()
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, translate("create", err)
	}
	return rec, nil
}

func (r *GormFeedbackRepository) ListAll(ctx context.Context) ([]*models.Feedback, error) {
	var rows []*models.Feedback
	if err := r.db.WithContext(ctx).
		Order("submission_time DESC").
		Find(&rows).Error; err != nil {
		return nil, translate("list", err)
	}
	return rows, nil
}

func (r *GormFeedbackRepository) GetByID(ctx context.Context, id string) (*models.Feedback, error) {
	var f models.Feedback
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, translate("get", err)
	}
	return &f, nil
}

func (r *GormFeedbackRepository) Update(ctx context.Context, f *models.Feedback) (*models.Feedback, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Where("id = ?", f.ID).
		Updates(map[string]interface{}{
			"sentiment_score":     f.SentimentScore,
			"sentiment_category":  f.SentimentCategory,
			"key_phrases":         f.KeyPhrases,
			"language":            f.Language,
			"moderation_category": f.ModerationCategory,
			"requires_review":     f.RequiresReview,
			"is_approved":         f.IsApproved,
			"review_notes":        f.ReviewNotes,
		})
	if res.Error != nil {
		return nil, translate("update", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return f.Clone(), nil
}

func translate(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case throttleCodes[pgErr.Code]:
			return fmt.Errorf("%s feedback: %w (%s)", op, ErrRateLimited, pgErr.Code)
		case pgErr.Code == "23505":
			return fmt.Errorf("%s feedback: %w", op, ErrConflict)
		}
	}
	return fmt.Errorf("%s feedback: %w", op, err)
}
