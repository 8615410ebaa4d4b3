package repos

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/types"
)

type LeaderboardSnapshotRepo interface {
	// ReplaceScope supersedes the stored snapshot for one (period, category)
	// scope with a complete new row set, atomically.
	ReplaceScope(ctx context.Context, tx *gorm.DB, periodType string, category *string, rows []*types.LeaderboardSnapshot) error
	GetScope(ctx context.Context, tx *gorm.DB, periodType string, category *string) ([]*types.LeaderboardSnapshot, error)
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) error
}

type leaderboardSnapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLeaderboardSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) LeaderboardSnapshotRepo {
	repoLog := baseLog.With("repo", "LeaderboardSnapshotRepo")
	return &leaderboardSnapshotRepo{db: db, log: repoLog}
}

func scopeQuery(q *gorm.DB, periodType string, category *string) *gorm.DB {
	q = q.Where("period_type = ?", periodType)
	if category == nil {
		return q.Where("category_name IS NULL")
	}
	return q.Where("category_name = ?", *category)
}

func (r *leaderboardSnapshotRepo) ReplaceScope(ctx context.Context, tx *gorm.DB, periodType string, category *string, rows []*types.LeaderboardSnapshot) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if err := scopeQuery(inner.Model(&types.LeaderboardSnapshot{}), periodType, category).
			Delete(&types.LeaderboardSnapshot{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return inner.Create(&rows).Error
	})
}

func (r *leaderboardSnapshotRepo) GetScope(ctx context.Context, tx *gorm.DB, periodType string, category *string) ([]*types.LeaderboardSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.LeaderboardSnapshot
	if err := scopeQuery(transaction.WithContext(ctx), periodType, category).
		Order("rank_position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *leaderboardSnapshotRepo) DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("snapshot_at < ?", cutoff).
		Delete(&types.LeaderboardSnapshot{}).Error
}
