package types

import (
	"time"

	"github.com/google/uuid"
)

// Streak holds stored streak state for one (user, goal) pair as of the last
// update. Whether the streak is still alive "today" is a read-time
// computation, not stored here.
type Streak struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_streak_user_goal" json:"user_id"`
	GoalID             uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_streak_user_goal" json:"goal_id"`
	Goal               *Goal      `gorm:"constraint:OnDelete:CASCADE;foreignKey:GoalID;references:ID" json:"goal,omitempty"`
	CurrentStreak      int        `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak      int        `gorm:"not null;default:0" json:"longest_streak"`
	LastQualifyingDate *time.Time `gorm:"type:date" json:"last_qualifying_date,omitempty"`
	UpdatedAt          time.Time  `gorm:"not null" json:"updated_at"`
}

func (Streak) TableName() string { return "streak" }
