package models

// ServerStats is the community-wide singleton row. Exactly one record with
// ID == ServerStatsID exists at all times; it is seeded at startup and only
// mutated inside the progression ledger's aggregate critical section.
type ServerStats struct {
	ID            int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ServerStreak  int    `gorm:"default:0" json:"server_streak"`
	LastJoyDay    string `gorm:"size:10" json:"last_joy_day"`
	MonstersSlain int64  `gorm:"default:0" json:"monsters_slain"`
}

// ServerStatsID is the fixed primary key of the singleton row.
const ServerStatsID = 1
