package types

import (
	"time"

	"github.com/google/uuid"
)

// UserBadge records one earned badge. Immutable after creation; the
// evaluator never awards the same (user, badge) twice, or the same
// (user, badge, goal) for PER_GOAL scope.
type UserBadge struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	BadgeID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"badge_id"`
	Badge        *Badge     `gorm:"constraint:OnDelete:CASCADE;foreignKey:BadgeID;references:ID" json:"badge,omitempty"`
	GoalID       *uuid.UUID `gorm:"type:uuid" json:"goal_id,omitempty"`
	Goal         *Goal      `gorm:"constraint:OnDelete:SET NULL;foreignKey:GoalID;references:ID" json:"goal,omitempty"`
	EarnedReason string     `json:"earned_reason"`
	EarnedAt     time.Time  `gorm:"not null" json:"earned_at"`
}

func (UserBadge) TableName() string { return "user_badge" }
