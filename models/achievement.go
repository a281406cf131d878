package models

import "time"

// Achievement tracks per-user achievement progress. Achievement rows use
// plain last-writer-wins updates; they do not share the ledger's per-user
// serialization guarantees.
type Achievement struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	DiscordID     int64      `gorm:"index:idx_user_achievement,unique;not null" json:"discord_id"`
	AchievementID string     `gorm:"size:100;index:idx_user_achievement,unique;not null" json:"achievement_id"`
	Progress      int        `gorm:"default:0" json:"progress"`
	Completed     bool       `gorm:"default:false" json:"completed"`
	CompletedAt   *time.Time `json:"completed_at"`
}
