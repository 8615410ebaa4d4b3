package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is the engine's projection of an account. Accounts are created and
// managed by the external auth service; this engine only reads them.
type User struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username        string         `gorm:"not null;uniqueIndex" json:"username"`
	Email           string         `gorm:"not null;uniqueIndex" json:"email"`
	PrivacySettings datatypes.JSON `gorm:"type:jsonb;column:privacy_settings" json:"privacy_settings,omitempty"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

// ShowLeaderboard reads the privacy opt-out. Missing or malformed settings
// default to visible.
func (u *User) ShowLeaderboard() bool {
	if u == nil || len(u.PrivacySettings) == 0 {
		return true
	}
	var settings map[string]interface{}
	if err := json.Unmarshal(u.PrivacySettings, &settings); err != nil {
		return true
	}
	if v, ok := settings["showLeaderboard"].(bool); ok {
		return v
	}
	return true
}
