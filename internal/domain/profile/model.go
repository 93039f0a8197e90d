package profile

import "time"

const (
	DefaultDisplayName   = "New member"
	maxDisplayNameLength = 80
)

// Profile is created lazily on first sign-in. CurrentFridgeID is a weak
// reference that only the membership ledger may set.
type Profile struct {
	UserID          string    `gorm:"primaryKey"`
	DisplayName     string    `gorm:"not null"`
	Email           *string   `gorm:"type:text"`
	CurrentFridgeID *string   `gorm:"type:uuid;index"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (Profile) TableName() string {
	return "user_profiles"
}
