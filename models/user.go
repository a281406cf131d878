package models

import (
	"time"

	"gorm.io/gorm"
)

// User holds the full progression state for one chat platform member.
// MaxHP is always derived from (level, class); it is never authored directly.
// LastJoyDay and LastClaimDay store civil dates as "YYYY-MM-DD" strings so
// day comparisons are exact and independent of the server clock.
type User struct {
	DiscordID    int64     `gorm:"primaryKey;autoIncrement:false" json:"discord_id"`
	Username     string    `gorm:"size:255" json:"username"`
	Level        int       `gorm:"default:1" json:"level"`
	XP           int       `gorm:"default:0" json:"xp"`
	HP           int       `gorm:"default:100" json:"hp"`
	MaxHP        int       `gorm:"default:100" json:"max_hp"`
	Coins        int       `gorm:"default:0" json:"coins"`
	Streak       int       `gorm:"default:0" json:"streak"`
	Depth        int       `gorm:"default:0" json:"depth"`
	Class        string    `gorm:"size:50" json:"class"`
	LastJoyDay   string    `gorm:"size:10" json:"last_joy_day"`
	LastClaimDay string    `gorm:"size:10" json:"last_claim_day"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
