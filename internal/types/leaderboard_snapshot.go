package types

import (
	"time"

	"github.com/google/uuid"
)

// Leaderboard period types.
const (
	PeriodWeekly  = "WEEKLY"
	PeriodMonthly = "MONTHLY"
	PeriodAllTime = "ALL_TIME"
)

// LeaderboardSnapshot is one ranked row of one snapshot version for a
// (period, category) scope. A refresh writes a complete new row set stamped
// with a fresh SnapshotAt; stale versions are superseded, never edited.
type LeaderboardSnapshot struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CategoryName  *string   `gorm:"index" json:"category_name,omitempty"`
	PeriodType    string    `gorm:"not null;index" json:"period_type"`
	PeriodStart   time.Time `gorm:"type:date;not null" json:"period_start"`
	PeriodEnd     time.Time `gorm:"type:date;not null" json:"period_end"`
	RankPosition  int       `gorm:"not null" json:"rank_position"`
	Score         float64   `gorm:"not null" json:"score"`
	RawPoints     int       `gorm:"not null;default:0" json:"raw_points"`
	DaysActive    int       `gorm:"not null;default:0" json:"days_active"`
	CurrentStreak int       `gorm:"not null;default:0" json:"current_streak"`
	RankMovement  int       `gorm:"not null;default:0" json:"rank_movement"`
	IsNew         bool      `gorm:"not null;default:false" json:"is_new"`
	SnapshotAt    time.Time `gorm:"not null;index" json:"snapshot_at"`
}

func (LeaderboardSnapshot) TableName() string { return "leaderboard_snapshot" }
