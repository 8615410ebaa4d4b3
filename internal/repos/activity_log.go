package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/types"
)

type ActivityLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entries []*types.ActivityLog) ([]*types.ActivityLog, error)
	ExistsForDay(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, logDate time.Time) (bool, error)
	TotalMinutesForDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, logDate time.Time) (int, error)
	GetForGoalSince(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, since time.Time) ([]*types.ActivityLog, error)
	GetForGoalsInRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, goalIDs []uuid.UUID, start, end time.Time) ([]*types.ActivityLog, error)
	DistinctLogDates(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]time.Time, error)
	DistinctLogDatesInRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, start, end time.Time) ([]time.Time, error)
}

type activityLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityLogRepo(db *gorm.DB, baseLog *logger.Logger) ActivityLogRepo {
	repoLog := baseLog.With("repo", "ActivityLogRepo")
	return &activityLogRepo{db: db, log: repoLog}
}

func (r *activityLogRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.ActivityLog) ([]*types.ActivityLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(entries) == 0 {
		return []*types.ActivityLog{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *activityLogRepo) ExistsForDay(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, logDate time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ActivityLog{}).
		Where("user_id = ? AND goal_id = ? AND log_date = ?", userID, goalID, types.DateOnly(logDate)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *activityLogRepo) TotalMinutesForDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, logDate time.Time) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var total int
	if err := transaction.WithContext(ctx).
		Model(&types.ActivityLog{}).
		Where("user_id = ? AND log_date = ?", userID, types.DateOnly(logDate)).
		Select("COALESCE(SUM(minutes_spent), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *activityLogRepo) GetForGoalSince(ctx context.Context, tx *gorm.DB, userID, goalID uuid.UUID, since time.Time) ([]*types.ActivityLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ActivityLog
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND goal_id = ? AND log_date >= ?", userID, goalID, types.DateOnly(since)).
		Order("log_date ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *activityLogRepo) GetForGoalsInRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, goalIDs []uuid.UUID, start, end time.Time) ([]*types.ActivityLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ActivityLog
	if len(goalIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND goal_id IN ? AND log_date >= ? AND log_date <= ?",
			userID, goalIDs, types.DateOnly(start), types.DateOnly(end)).
		Order("log_date ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *activityLogRepo) DistinctLogDates(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]time.Time, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var dates []time.Time
	if err := transaction.WithContext(ctx).
		Model(&types.ActivityLog{}).
		Where("user_id = ?", userID).
		Distinct("log_date").
		Order("log_date ASC").
		Pluck("log_date", &dates).Error; err != nil {
		return nil, err
	}
	return dates, nil
}

func (r *activityLogRepo) DistinctLogDatesInRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, start, end time.Time) ([]time.Time, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var dates []time.Time
	if err := transaction.WithContext(ctx).
		Model(&types.ActivityLog{}).
		Where("user_id = ? AND log_date >= ? AND log_date <= ?", userID, types.DateOnly(start), types.DateOnly(end)).
		Distinct("log_date").
		Order("log_date ASC").
		Pluck("log_date", &dates).Error; err != nil {
		return nil, err
	}
	return dates, nil
}
