package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/types"
)

type BadgeRepo interface {
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Badge, error)
	UpsertByName(ctx context.Context, tx *gorm.DB, badge *types.Badge) (*types.Badge, error)
}

type badgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	repoLog := baseLog.With("repo", "BadgeRepo")
	return &badgeRepo{db: db, log: repoLog}
}

func (r *badgeRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Badge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Badge
	if err := transaction.WithContext(ctx).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *badgeRepo) UpsertByName(ctx context.Context, tx *gorm.DB, badge *types.Badge) (*types.Badge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var existing types.Badge
	err := transaction.WithContext(ctx).
		Where("name = ?", badge.Name).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if badge.ID == uuid.Nil {
			badge.ID = uuid.New()
		}
		if err := transaction.WithContext(ctx).Create(badge).Error; err != nil {
			return nil, err
		}
		return badge, nil
	}
	if err != nil {
		return nil, err
	}

	existing.Description = badge.Description
	existing.Category = badge.Category
	existing.CriteriaType = badge.CriteriaType
	existing.Threshold = badge.Threshold
	existing.Scope = badge.Scope
	existing.IconURL = badge.IconURL
	existing.PointsBonus = badge.PointsBonus
	if err := transaction.WithContext(ctx).Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}
