package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/types"
)

type StreakRepo interface {
	GetByUserAndGoal(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID) (*types.Streak, error)
	GetForGoals(ctx context.Context, tx *gorm.DB, userID uuid.UUID, goalIDs []uuid.UUID) ([]*types.Streak, error)
	GetAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Streak, error)
	Save(ctx context.Context, tx *gorm.DB, streak *types.Streak) (*types.Streak, error)
}

type streakRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStreakRepo(db *gorm.DB, baseLog *logger.Logger) StreakRepo {
	repoLog := baseLog.With("repo", "StreakRepo")
	return &streakRepo{db: db, log: repoLog}
}

func (r *streakRepo) GetByUserAndGoal(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID) (*types.Streak, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var streak types.Streak
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND goal_id = ?", userID, goalID).
		First(&streak).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &streak, nil
}

func (r *streakRepo) GetForGoals(ctx context.Context, tx *gorm.DB, userID uuid.UUID, goalIDs []uuid.UUID) ([]*types.Streak, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Streak
	if len(goalIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND goal_id IN ?", userID, goalIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *streakRepo) GetAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Streak, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Streak
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("current_streak DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *streakRepo) Save(ctx context.Context, tx *gorm.DB, streak *types.Streak) (*types.Streak, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if streak.ID == uuid.Nil {
		streak.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Save(streak).Error; err != nil {
		return nil, err
	}
	return streak, nil
}
