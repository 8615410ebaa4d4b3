package types

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLog is one day's effort against one goal. At most one row exists
// per (user, goal, log date); rows are never mutated after creation.
type ActivityLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_activity_user_goal_date" json:"user_id"`
	User         *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	GoalID       uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_activity_user_goal_date" json:"goal_id"`
	Goal         *Goal     `gorm:"constraint:OnDelete:CASCADE;foreignKey:GoalID;references:ID" json:"goal,omitempty"`
	LogDate      time.Time `gorm:"type:date;not null;uniqueIndex:idx_activity_user_goal_date" json:"log_date"`
	MinutesSpent int       `gorm:"not null" json:"minutes_spent"`
	Notes        string    `json:"notes,omitempty"`
	Suspicious   bool      `gorm:"not null;default:false" json:"suspicious"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_log" }
