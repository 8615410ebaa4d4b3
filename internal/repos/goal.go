package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/types"
)

type GoalRepo interface {
	Create(ctx context.Context, tx *gorm.DB, goals []*types.Goal) ([]*types.Goal, error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, goalID, userID uuid.UUID) (*types.Goal, error)
	GetActiveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Goal, error)
	GetPublicActive(ctx context.Context, tx *gorm.DB, category *string) ([]*types.Goal, error)
	DistinctPublicCategories(ctx context.Context, tx *gorm.DB) ([]string, error)
	Deactivate(ctx context.Context, tx *gorm.DB, goalID, userID uuid.UUID) error
}

type goalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoalRepo(db *gorm.DB, baseLog *logger.Logger) GoalRepo {
	repoLog := baseLog.With("repo", "GoalRepo")
	return &goalRepo{db: db, log: repoLog}
}

func (r *goalRepo) Create(ctx context.Context, tx *gorm.DB, goals []*types.Goal) ([]*types.Goal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(goals) == 0 {
		return []*types.Goal{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *goalRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, goalID, userID uuid.UUID) (*types.Goal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var goal types.Goal
	err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", goalID, userID).
		First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *goalRepo) GetActiveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Goal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Goal
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *goalRepo) GetPublicActive(ctx context.Context, tx *gorm.DB, category *string) ([]*types.Goal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).
		Where("is_private = ? AND is_active = ?", false, true)
	if category != nil {
		q = q.Where("category = ?", *category)
	}

	var results []*types.Goal
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *goalRepo) DistinctPublicCategories(ctx context.Context, tx *gorm.DB) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var categories []string
	if err := transaction.WithContext(ctx).
		Model(&types.Goal{}).
		Where("is_private = ? AND is_active = ? AND category <> ''", false, true).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *goalRepo) Deactivate(ctx context.Context, tx *gorm.DB, goalID, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Goal{}).
		Where("id = ? AND user_id = ?", goalID, userID).
		Update("is_active", false).Error
}
