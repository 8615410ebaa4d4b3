package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/types"
)

type PointLedgerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entries []*types.PointLedger) ([]*types.PointLedger, error)
	TotalForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error)
	ActivityPointsForDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time) (int, error)
	ExistsByReason(ctx context.Context, tx *gorm.DB, userID uuid.UUID, reason string) (bool, error)
	PointsForGoalsInRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, goalIDs []uuid.UUID, start, end time.Time) (int, error)
}

type pointLedgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPointLedgerRepo(db *gorm.DB, baseLog *logger.Logger) PointLedgerRepo {
	repoLog := baseLog.With("repo", "PointLedgerRepo")
	return &pointLedgerRepo{db: db, log: repoLog}
}

func (r *pointLedgerRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.PointLedger) ([]*types.PointLedger, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(entries) == 0 {
		return []*types.PointLedger{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *pointLedgerRepo) TotalForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var total int
	if err := transaction.WithContext(ctx).
		Model(&types.PointLedger{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *pointLedgerRepo) ActivityPointsForDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var total int
	if err := transaction.WithContext(ctx).
		Model(&types.PointLedger{}).
		Where("user_id = ? AND reason = ? AND reference_date = ?",
			userID, types.ReasonActivityCompletion, types.DateOnly(date)).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *pointLedgerRepo) ExistsByReason(ctx context.Context, tx *gorm.DB, userID uuid.UUID, reason string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.PointLedger{}).
		Where("user_id = ? AND reason = ?", userID, reason).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *pointLedgerRepo) PointsForGoalsInRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, goalIDs []uuid.UUID, start, end time.Time) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(goalIDs) == 0 {
		return 0, nil
	}

	var total int
	if err := transaction.WithContext(ctx).
		Model(&types.PointLedger{}).
		Where("user_id = ? AND goal_id IN ? AND reference_date >= ? AND reference_date <= ?",
			userID, goalIDs, types.DateOnly(start), types.DateOnly(end)).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
