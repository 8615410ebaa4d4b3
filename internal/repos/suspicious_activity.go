package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/types"
)

type SuspiciousActivityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, signals []*types.SuspiciousActivity) ([]*types.SuspiciousActivity, error)
	GetForUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.SuspiciousActivity, error)
}

type suspiciousActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSuspiciousActivityRepo(db *gorm.DB, baseLog *logger.Logger) SuspiciousActivityRepo {
	repoLog := baseLog.With("repo", "SuspiciousActivityRepo")
	return &suspiciousActivityRepo{db: db, log: repoLog}
}

func (r *suspiciousActivityRepo) Create(ctx context.Context, tx *gorm.DB, signals []*types.SuspiciousActivity) ([]*types.SuspiciousActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(signals) == 0 {
		return []*types.SuspiciousActivity{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&signals).Error; err != nil {
		return nil, err
	}
	return signals, nil
}

func (r *suspiciousActivityRepo) GetForUserSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.SuspiciousActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.SuspiciousActivity
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND flagged_at >= ?", userID, since).
		Order("flagged_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
