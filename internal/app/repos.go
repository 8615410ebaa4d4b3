package app

import (
	"gorm.io/gorm"

	"github.com/focusforge/focusforge-backend/internal/logger"
	"github.com/focusforge/focusforge-backend/internal/repos"
)

type Repos struct {
	User                repos.UserRepo
	Goal                repos.GoalRepo
	ActivityLog         repos.ActivityLogRepo
	Streak              repos.StreakRepo
	PointLedger         repos.PointLedgerRepo
	Badge               repos.BadgeRepo
	UserBadge           repos.UserBadgeRepo
	SuspiciousActivity  repos.SuspiciousActivityRepo
	LeaderboardSnapshot repos.LeaderboardSnapshotRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		User:                repos.NewUserRepo(db, log),
		Goal:                repos.NewGoalRepo(db, log),
		ActivityLog:         repos.NewActivityLogRepo(db, log),
		Streak:              repos.NewStreakRepo(db, log),
		PointLedger:         repos.NewPointLedgerRepo(db, log),
		Badge:               repos.NewBadgeRepo(db, log),
		UserBadge:           repos.NewUserBadgeRepo(db, log),
		SuspiciousActivity:  repos.NewSuspiciousActivityRepo(db, log),
		LeaderboardSnapshot: repos.NewLeaderboardSnapshotRepo(db, log),
	}
}
