package models

// DailySender records that a user already produced a qualifying event on a
// given day. The composite primary key is the authoritative once-per-day
// guard: even if application-level locking fails, a second insert for the
// same (user, day) cannot succeed. Rows are pruned after a retention window
// and are never updated in place.
type DailySender struct {
	DiscordID int64  `gorm:"primaryKey;autoIncrement:false" json:"discord_id"`
	Day       string `gorm:"primaryKey;size:10" json:"day"`
}

func (DailySender) TableName() string {
	return "daily_senders"
}
