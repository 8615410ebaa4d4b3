package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Goal is owned by exactly one user. Goals are soft-deactivated, never
// destroyed; inactive goals reject new activity logs.
type Goal struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User                *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Title               string         `gorm:"not null" json:"title"`
	Category            string         `gorm:"index" json:"category"`
	Difficulty          int            `gorm:"not null;default:1" json:"difficulty"`
	DailyMinimumMinutes int            `gorm:"not null;default:10" json:"daily_minimum_minutes"`
	StartDate           time.Time      `gorm:"type:date;not null" json:"start_date"`
	EndDate             *time.Time     `gorm:"type:date" json:"end_date,omitempty"`
	IsPrivate           bool           `gorm:"not null;default:false" json:"is_private"`
	IsActive            bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt           time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Goal) TableName() string { return "goal" }
