package progression

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/joystreak/models"
)

// Ledger owns every mutation of progression state. Each public operation is
// one logical transaction: it serializes on a per-user mutex, runs the pure
// decision functions against freshly loaded rows, and commits the result
// atomically. The community streak has its own, independently keyed
// critical section so unrelated users never contend on it. Notification
// dispatch is the caller's job and happens strictly after these return.
type Ledger struct {
	db       *gorm.DB
	rules    Rules
	users    *userLocks
	serverMu sync.Mutex
}

// NewLedger builds a ledger over an initialized database.
func NewLedger(db *gorm.DB, rules Rules) *Ledger {
	return &Ledger{db: db, rules: rules, users: newUserLocks()}
}

// Rules exposes the tuning inputs the ledger was built with.
func (l *Ledger) Rules() Rules {
	return l.rules
}

const maxTxAttempts = 3

// runTx executes fn in a transaction, retrying a bounded number of times on
// lock conflicts. Domain errors pass through untouched; anything else is
// classified as a storage failure.
func (l *Ledger) runTx(fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = l.db.Transaction(fn)
		if err == nil {
			return nil
		}
		if isDomainErr(err) {
			return err
		}
		if !isRetryable(err) {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return fmt.Errorf("%w: %v", ErrTransientConflict, err)
}

func isDomainErr(err error) bool {
	for _, de := range []error{ErrStaleEvent, ErrAlreadyClaimed, ErrClassLocked, ErrUnknownClass} {
		if errors.Is(err, de) {
			return true
		}
	}
	return false
}

func isRetryable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Deadlock found") ||
		strings.Contains(msg, "Lock wait timeout") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// forUpdate adds a row lock on MySQL. SQLite (tests) has no FOR UPDATE;
// its writes serialize on the database lock instead.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// getOrCreate loads a user under lock or creates the default row. Every
// user-scoped operation upgrades "not found" this way; absent users are
// never an error. A non-empty username refreshes the cached display name.
func (l *Ledger) getOrCreate(tx *gorm.DB, userID int64, username string) (*models.User, error) {
	var u models.User
	err := forUpdate(tx).Where("discord_id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		u = models.User{DiscordID: userID, Username: username, Level: 1, HP: 100, MaxHP: 100}
		if err := tx.Create(&u).Error; err != nil {
			return nil, err
		}
		return &u, nil
	}
	if err != nil {
		return nil, err
	}
	if username != "" && username != u.Username {
		u.Username = username
	}
	return &u, nil
}

// applyXPDelta adds delta to the user's experience (clamped at zero),
// recomputes the level and, on a level change, max HP with the current HP
// reclamped into range.
func (l *Ledger) applyXPDelta(u *models.User, delta int) (oldLevel, newLevel int) {
	oldLevel = u.Level
	newXP := u.XP + delta
	if newXP < 0 {
		newXP = 0
	}
	u.XP = newXP
	newLevel = LevelForExperience(newXP)
	if newLevel != oldLevel {
		u.Level = newLevel
		u.MaxHP = MaxHP(newLevel, u.Class, l.rules)
		if u.HP > u.MaxHP {
			u.HP = u.MaxHP
		}
	}
	return oldLevel, newLevel
}

// insertDailySender registers (user, day) in the daily ledger. The returned
// bool is the authoritative "first event of the day" signal: the composite
// primary key makes a second insert a no-op even across processes.
func insertDailySender(tx *gorm.DB, userID int64, day Day) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.DailySender{DiscordID: userID, Day: string(day)})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// EventOutcome describes everything a caller needs to render the result of
// one qualifying event.
type EventOutcome struct {
	UserID        int64                 `json:"user_id"`
	Accepted      bool                  `json:"accepted"`
	OldLevel      int                   `json:"old_level"`
	NewLevel      int                   `json:"new_level"`
	OldStreak     int                   `json:"old_streak"`
	NewStreak     int                   `json:"new_streak"`
	XP            int                   `json:"xp"`
	XPDelta       int                   `json:"xp_delta"`
	HP            int                   `json:"hp"`
	MaxHP         int                   `json:"max_hp"`
	LeveledUp     bool                  `json:"leveled_up"`
	ClassUnlocked bool                  `json:"class_unlocked"`
	ClassEvolved  bool                  `json:"class_evolved"`
	TierName      string                `json:"tier_name"`
	MilestoneHit  bool                  `json:"milestone_hit"`
	Broken        bool                  `json:"broken"`
	BreakReason   string                `json:"break_reason,omitempty"`
	Server        *ServerStreakDecision `json:"server,omitempty"`
}

// ApplyQualifyingEvent processes one qualifying event for a user on the
// given day. The user transition commits first; the aggregate transition
// runs in its own critical section afterwards and is idempotent against
// replay within a day, so a crash between the two at worst delays the
// community counter until the next accepted event.
func (l *Ledger) ApplyQualifyingEvent(userID int64, username string, today Day) (*EventOutcome, error) {
	out, err := l.applyUserEvent(userID, username, today)
	if err != nil {
		return nil, err
	}
	if out.Accepted {
		srv, err := l.advanceServerStreak(today)
		if err != nil {
			return nil, err
		}
		out.Server = srv
	}
	return out, nil
}

func (l *Ledger) applyUserEvent(userID int64, username string, today Day) (*EventOutcome, error) {
	mu := l.users.get(userID)
	mu.Lock()
	defer mu.Unlock()

	var out *EventOutcome
	err := l.runTx(func(tx *gorm.DB) error {
		u, err := l.getOrCreate(tx, userID, username)
		if err != nil {
			return err
		}

		last := Day(u.LastJoyDay)
		if today.Before(last) {
			return fmt.Errorf("%w: event day %s, last day %s", ErrStaleEvent, today, last)
		}

		inserted, err := insertDailySender(tx, userID, today)
		if err != nil {
			return err
		}

		dec := AdvanceStreak(StreakState{
			Streak:    u.Streak,
			LastDay:   last,
			SentToday: !inserted,
		}, today, l.rules)

		out = &EventOutcome{
			UserID:       userID,
			Accepted:     dec.Accepted,
			OldLevel:     u.Level,
			NewLevel:     u.Level,
			OldStreak:    dec.OldStreak,
			NewStreak:    dec.NewStreak,
			Broken:       dec.Broken,
			BreakReason:  dec.BreakReason,
			MilestoneHit: dec.MilestoneHit,
		}

		if !dec.Accepted {
			// Double submission: the streak resets, nothing else moves and
			// the day ledger keeps its single existing row.
			u.Streak = 0
			out.XP = u.XP
			out.HP, out.MaxHP = u.HP, u.MaxHP
			out.TierName, _ = TierFor(u.Level, u.Class, l.rules)
			return tx.Save(u).Error
		}

		oldLevel, newLevel := l.applyXPDelta(u, dec.XPDelta)
		u.Streak = dec.NewStreak
		u.LastJoyDay = string(today)

		out.XPDelta = dec.XPDelta
		out.XP = u.XP
		out.OldLevel, out.NewLevel = oldLevel, newLevel
		out.LeveledUp = newLevel > oldLevel
		out.HP, out.MaxHP = u.HP, u.MaxHP
		out.ClassUnlocked = oldLevel < l.rules.ClassUnlockLevel && newLevel >= l.rules.ClassUnlockLevel

		_, oldTier := TierFor(oldLevel, u.Class, l.rules)
		newName, newTier := TierFor(newLevel, u.Class, l.rules)
		out.ClassEvolved = newTier > oldTier
		out.TierName = newName

		if err := tx.Save(u).Error; err != nil {
			return err
		}
		if dec.MilestoneHit {
			return l.recordMilestone(tx, userID, dec.NewStreak)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// recordMilestone upserts the streak milestone achievement inside the same
// transaction as the streak advance.
func (l *Ledger) recordMilestone(tx *gorm.DB, userID int64, streak int) error {
	now := time.Now()
	ach := models.Achievement{
		DiscordID:     userID,
		AchievementID: fmt.Sprintf("streak_%d", streak),
		Progress:      streak,
		Completed:     true,
		CompletedAt:   &now,
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ach).Error
}

// advanceServerStreak runs the aggregate check-then-act as one critical
// section. It never nests inside a user transaction and writes the stats
// row only when the decision actually advanced the counter.
func (l *Ledger) advanceServerStreak(today Day) (*ServerStreakDecision, error) {
	l.serverMu.Lock()
	defer l.serverMu.Unlock()

	var dec ServerStreakDecision
	err := l.runTx(func(tx *gorm.DB) error {
		stats, err := loadServerStats(tx)
		if err != nil {
			return err
		}
		dec = AdvanceServerStreak(stats.ServerStreak, Day(stats.LastJoyDay), today)
		if !dec.Advanced {
			return nil
		}
		return tx.Model(&models.ServerStats{}).
			Where("id = ?", models.ServerStatsID).
			Updates(map[string]interface{}{
				"server_streak": dec.NewStreak,
				"last_joy_day":  string(dec.LastDay),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &dec, nil
}

// loadServerStats fetches the singleton row, seeding the zero state if the
// database predates it.
func loadServerStats(tx *gorm.DB) (*models.ServerStats, error) {
	var stats models.ServerStats
	err := forUpdate(tx).First(&stats, models.ServerStatsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stats = models.ServerStats{ID: models.ServerStatsID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&stats).Error; err != nil {
			return nil, err
		}
		return &stats, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// GrantOutcome reports an experience mutation.
type GrantOutcome struct {
	OldLevel  int  `json:"old_level"`
	NewLevel  int  `json:"new_level"`
	NewXP     int  `json:"new_xp"`
	LeveledUp bool `json:"leveled_up"`
}

// GrantExperience adds delta (possibly negative) to a user's experience,
// clamping the total at zero and recomputing level and max HP. Both the
// qualifying-event path and administrative grants and penalties go through
// the same arithmetic.
func (l *Ledger) GrantExperience(userID int64, delta int) (*GrantOutcome, error) {
	mu := l.users.get(userID)
	mu.Lock()
	defer mu.Unlock()

	var out *GrantOutcome
	err := l.runTx(func(tx *gorm.DB) error {
		u, err := l.getOrCreate(tx, userID, "")
		if err != nil {
			return err
		}
		oldLevel, newLevel := l.applyXPDelta(u, delta)
		out = &GrantOutcome{
			OldLevel:  oldLevel,
			NewLevel:  newLevel,
			NewXP:     u.XP,
			LeveledUp: newLevel > oldLevel,
		}
		return tx.Save(u).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CoinOutcome reports a coin balance mutation.
type CoinOutcome struct {
	Delta    int `json:"delta"`
	NewTotal int `json:"new_total"`
}

// GrantCoins adjusts a user's coin balance, clamped at zero.
func (l *Ledger) GrantCoins(userID int64, delta int) (*CoinOutcome, error) {
	mu := l.users.get(userID)
	mu.Lock()
	defer mu.Unlock()

	var out *CoinOutcome
	err := l.runTx(func(tx *gorm.DB) error {
		u, err := l.getOrCreate(tx, userID, "")
		if err != nil {
			return err
		}
		u.Coins += delta
		if u.Coins < 0 {
			u.Coins = 0
		}
		out = &CoinOutcome{Delta: delta, NewTotal: u.Coins}
		return tx.Save(u).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// HPOutcome reports a hit point mutation.
type HPOutcome struct {
	OldHP  int  `json:"old_hp"`
	NewHP  int  `json:"new_hp"`
	Healed int  `json:"healed,omitempty"`
	Died   bool `json:"died,omitempty"`
}

// ApplyDamage subtracts hit points, flooring at zero.
func (l *Ledger) ApplyDamage(userID int64, amount int) (*HPOutcome, error) {
	if amount < 0 {
		amount = 0
	}
	return l.adjustHP(userID, -amount)
}

// ApplyHealing adds hit points, capped at max HP.
func (l *Ledger) ApplyHealing(userID int64, amount int) (*HPOutcome, error) {
	if amount < 0 {
		amount = 0
	}
	return l.adjustHP(userID, amount)
}

func (l *Ledger) adjustHP(userID int64, delta int) (*HPOutcome, error) {
	mu := l.users.get(userID)
	mu.Lock()
	defer mu.Unlock()

	var out *HPOutcome
	err := l.runTx(func(tx *gorm.DB) error {
		u, err := l.getOrCreate(tx, userID, "")
		if err != nil {
			return err
		}
		oldHP := u.HP
		newHP := oldHP + delta
		if newHP < 0 {
			newHP = 0
		}
		if newHP > u.MaxHP {
			newHP = u.MaxHP
		}
		u.HP = newHP
		out = &HPOutcome{OldHP: oldHP, NewHP: newHP}
		if delta >= 0 {
			out.Healed = newHP - oldHP
		} else {
			out.Died = newHP == 0
		}
		return tx.Save(u).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ClassOutcome reports a class assignment.
type ClassOutcome struct {
	Class    string `json:"class"`
	TierName string `json:"tier_name"`
	Tier     int    `json:"tier"`
	MaxHP    int    `json:"max_hp"`
	HP       int    `json:"hp"`
}

// AssignClass sets a user's class, recomputes max HP for their current
// level under the new formula, and fully heals them. The identifier must
// exist in the class table and the user must have reached the unlock level.
func (l *Ledger) AssignClass(userID int64, classID string) (*ClassOutcome, error) {
	if !l.rules.KnownClass(classID) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, classID)
	}

	mu := l.users.get(userID)
	mu.Lock()
	defer mu.Unlock()

	var out *ClassOutcome
	err := l.runTx(func(tx *gorm.DB) error {
		u, err := l.getOrCreate(tx, userID, "")
		if err != nil {
			return err
		}
		if u.Level < l.rules.ClassUnlockLevel {
			return fmt.Errorf("%w: level %d, unlock at %d", ErrClassLocked, u.Level, l.rules.ClassUnlockLevel)
		}
		u.Class = classID
		u.MaxHP = MaxHP(u.Level, classID, l.rules)
		u.HP = u.MaxHP
		name, tier := TierFor(u.Level, classID, l.rules)
		out = &ClassOutcome{Class: classID, TierName: name, Tier: tier, MaxHP: u.MaxHP, HP: u.HP}
		return tx.Save(u).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ClaimOutcome reports a daily coin claim.
type ClaimOutcome struct {
	CoinsEarned int `json:"coins_earned"`
	NewTotal    int `json:"new_total"`
}

// ClaimDaily grants level * DailyCoinsPerLevel coins once per day.
func (l *Ledger) ClaimDaily(userID int64, today Day) (*ClaimOutcome, error) {
	mu := l.users.get(userID)
	mu.Lock()
	defer mu.Unlock()

	var out *ClaimOutcome
	err := l.runTx(func(tx *gorm.DB) error {
		u, err := l.getOrCreate(tx, userID, "")
		if err != nil {
			return err
		}
		if Day(u.LastClaimDay) == today {
			return ErrAlreadyClaimed
		}
		earned := u.Level * l.rules.DailyCoinsPerLevel
		u.Coins += earned
		u.LastClaimDay = string(today)
		out = &ClaimOutcome{CoinsEarned: earned, NewTotal: u.Coins}
		return tx.Save(u).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrCreateUser returns the current user row, creating the default one on
// first contact. Read paths share the same lazy-creation semantics as the
// mutating operations.
func (l *Ledger) GetOrCreateUser(userID int64, username string) (*models.User, error) {
	mu := l.users.get(userID)
	mu.Lock()
	defer mu.Unlock()

	var u *models.User
	err := l.runTx(func(tx *gorm.DB) error {
		var err error
		u, err = l.getOrCreate(tx, userID, username)
		if err != nil {
			return err
		}
		if username != "" {
			return tx.Save(u).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ResetUser removes a user's entity and every row hanging off it in one
// transaction. A missing user is a no-op; the next interaction recreates
// the defaults.
func (l *Ledger) ResetUser(userID int64) error {
	mu := l.users.get(userID)
	mu.Lock()
	defer mu.Unlock()

	return l.runTx(func(tx *gorm.DB) error {
		if err := tx.Where("discord_id = ?", userID).Delete(&models.DailySender{}).Error; err != nil {
			return err
		}
		if err := tx.Where("discord_id = ?", userID).Delete(&models.Achievement{}).Error; err != nil {
			return err
		}
		return tx.Where("discord_id = ?", userID).Delete(&models.User{}).Error
	})
}

// ResetAll wipes every progression table and reinitializes the aggregate
// singleton to its zero state. The scope commits as one transaction;
// confirmation belongs to the caller.
func (l *Ledger) ResetAll() error {
	l.serverMu.Lock()
	defer l.serverMu.Unlock()

	return l.runTx(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&models.DailySender{}, &models.Achievement{}, &models.User{}} {
			if err := tx.Where("1 = 1").Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.ServerStats{}).
			Where("id = ?", models.ServerStatsID).
			Updates(map[string]interface{}{
				"server_streak":  0,
				"last_joy_day":   "",
				"monsters_slain": 0,
			}).Error
	})
}

// ForceNewDay clears the daily sender ledger and all claim dates so daily
// mechanics can be exercised without waiting for midnight. Streaks and
// experience are preserved.
func (l *Ledger) ForceNewDay() error {
	return l.runTx(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.DailySender{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("last_claim_day <> ''").
			Update("last_claim_day", "").Error
	})
}

// PruneDailySenders deletes ledger rows older than the retention window.
func (l *Ledger) PruneDailySenders(before Day) (int64, error) {
	res := l.db.Where("day < ?", string(before)).Delete(&models.DailySender{})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, res.Error)
	}
	return res.RowsAffected, nil
}
