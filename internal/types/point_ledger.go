package types

import (
	"time"

	"github.com/google/uuid"
)

// Point ledger reasons. Weekly consistency entries append the ISO week tag,
// badge bonuses append the badge name.
const (
	ReasonActivityCompletion = "ACTIVITY_COMPLETION"
	ReasonWeeklyConsistency  = "WEEKLY_CONSISTENCY"
	ReasonBadgeBonus         = "BADGE_BONUS"
)

// PointLedger is append-only. Total points for a user is the sum over their
// rows; no row ever carries a negative amount.
type PointLedger struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	GoalID        *uuid.UUID `gorm:"type:uuid;index" json:"goal_id,omitempty"`
	Points        int        `gorm:"not null" json:"points"`
	Reason        string     `gorm:"not null;index" json:"reason"`
	ReferenceDate time.Time  `gorm:"type:date;not null;index" json:"reference_date"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
}

func (PointLedger) TableName() string { return "point_ledger" }
