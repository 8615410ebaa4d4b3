package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/types"
)

type UserBadgeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, awards []*types.UserBadge) ([]*types.UserBadge, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserBadge, error)
	Exists(ctx context.Context, tx *gorm.DB, userID, badgeID uuid.UUID) (bool, error)
	ExistsForGoal(ctx context.Context, tx *gorm.DB, userID, badgeID, goalID uuid.UUID) (bool, error)
}

type userBadgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserBadgeRepo(db *gorm.DB, baseLog *logger.Logger) UserBadgeRepo {
	repoLog := baseLog.With("repo", "UserBadgeRepo")
	return &userBadgeRepo{db: db, log: repoLog}
}

func (r *userBadgeRepo) Create(ctx context.Context, tx *gorm.DB, awards []*types.UserBadge) ([]*types.UserBadge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(awards) == 0 {
		return []*types.UserBadge{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&awards).Error; err != nil {
		return nil, err
	}
	return awards, nil
}

func (r *userBadgeRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserBadge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.UserBadge
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userBadgeRepo) Exists(ctx context.Context, tx *gorm.DB, userID, badgeID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.UserBadge{}).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userBadgeRepo) ExistsForGoal(ctx context.Context, tx *gorm.DB, userID, badgeID, goalID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.UserBadge{}).
		Where("user_id = ? AND badge_id = ? AND goal_id = ?", userID, badgeID, goalID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
