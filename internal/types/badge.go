package types

import (
	"time"

	"github.com/google/uuid"
)

// Badge criteria types. A closed set; the evaluator dispatches per tag.
const (
	CriteriaPoints      = "POINTS"
	CriteriaStreak      = "STREAK"
	CriteriaConsistency = "CONSISTENCY"
	CriteriaDaysActive  = "DAYS_ACTIVE"
)

// Badge evaluation scopes.
const (
	ScopeGlobal  = "GLOBAL"
	ScopePerGoal = "PER_GOAL"
)

// Badge is a catalog row. The catalog is static configuration, loaded from
// YAML at process start and upserted by name.
type Badge struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"not null;uniqueIndex" json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category,omitempty"`
	CriteriaType string    `gorm:"not null" json:"criteria_type"`
	Threshold    int       `gorm:"not null" json:"threshold"`
	Scope        string    `gorm:"not null;default:GLOBAL" json:"scope"`
	IconURL      string    `json:"icon_url,omitempty"`
	PointsBonus  int       `gorm:"not null;default:0" json:"points_bonus"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (Badge) TableName() string { return "badge" }
