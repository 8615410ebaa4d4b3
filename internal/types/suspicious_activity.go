package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Suspicious signal types recorded by the anti-cheat scorer.
const (
	SignalRepeatedPattern    = "REPEATED_PATTERN"
	SignalExcessiveTime      = "EXCESSIVE_TIME"
	SignalDailyTotalExceeded = "DAILY_TOTAL_EXCEEDED"
	SignalRateLimited        = "RATE_LIMITED"
)

// Signal severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// SuspiciousActivity is one entry in a user's trailing signal window. Old
// signals expire implicitly: the trust scorer only reads the last 30 days.
type SuspiciousActivity struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ActivityType string         `gorm:"not null" json:"activity_type"`
	Severity     string         `gorm:"not null;default:medium" json:"severity"`
	Details      datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
	Reviewed     bool           `gorm:"not null;default:false" json:"reviewed"`
	FlaggedAt    time.Time      `gorm:"not null;index" json:"flagged_at"`
}

func (SuspiciousActivity) TableName() string { return "suspicious_activity" }
