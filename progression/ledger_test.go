package progression

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/joystreak/models"
)

var testDBSeq int
var testDBSeqMu sync.Mutex

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()

	testDBSeqMu.Lock()
	testDBSeq++
	name := fmt.Sprintf("ledger_test_%d", testDBSeq)
	testDBSeqMu.Unlock()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Shared-cache in-memory sqlite tolerates one writer at a time; the
	// ledger's own locks provide the serialization under test.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ServerStats{},
		&models.DailySender{},
		&models.Achievement{},
	))

	return NewLedger(db, testRules())
}

func loadUser(t *testing.T, l *Ledger, id int64) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, l.db.Where("discord_id = ?", id).First(&u).Error)
	return u
}

func TestApplyQualifyingEventCreatesDefaults(t *testing.T) {
	l := newTestLedger(t)

	out, err := l.ApplyQualifyingEvent(101, "alice", today)
	require.NoError(t, err)

	assert.True(t, out.Accepted)
	assert.Equal(t, 1, out.NewStreak)
	assert.Equal(t, 10, out.XP)
	assert.Equal(t, 1, out.NewLevel)

	u := loadUser(t, l, 101)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, 100, u.HP)
	assert.Equal(t, 100, u.MaxHP)
	assert.Equal(t, string(today), u.LastJoyDay)
}

func TestApplyQualifyingEventDoubleSubmissionResets(t *testing.T) {
	l := newTestLedger(t)

	first, err := l.ApplyQualifyingEvent(101, "alice", today)
	require.NoError(t, err)
	require.True(t, first.Accepted)

	second, err := l.ApplyQualifyingEvent(101, "alice", today)
	require.NoError(t, err)

	assert.False(t, second.Accepted)
	assert.True(t, second.Broken)
	assert.Equal(t, BreakDoubleSubmission, second.BreakReason)
	assert.Equal(t, 0, second.NewStreak)

	u := loadUser(t, l, 101)
	assert.Equal(t, 0, u.Streak)
	// Experience survives the reset, only the streak dies.
	assert.Equal(t, 10, u.XP)
	// The day stays recorded as the last qualifying day.
	assert.Equal(t, string(today), u.LastJoyDay)
}

func TestApplyQualifyingEventContinuation(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.ApplyQualifyingEvent(101, "alice", today.Yesterday())
	require.NoError(t, err)

	out, err := l.ApplyQualifyingEvent(101, "alice", today)
	require.NoError(t, err)

	assert.Equal(t, 2, out.NewStreak)
	assert.Equal(t, 20, out.XP)
}

func TestApplyQualifyingEventGapBreaksThenRestarts(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.ApplyQualifyingEvent(101, "alice", today.AddDays(-3))
	require.NoError(t, err)

	out, err := l.ApplyQualifyingEvent(101, "alice", today)
	require.NoError(t, err)

	assert.True(t, out.Accepted)
	assert.True(t, out.Broken)
	assert.Equal(t, BreakMissedDay, out.BreakReason)
	assert.Equal(t, 1, out.NewStreak)
	// 10 from the first day, -5 penalty, +10 for today.
	assert.Equal(t, 15, out.XP)
}

func TestApplyQualifyingEventRejectsStaleDay(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.ApplyQualifyingEvent(101, "alice", today)
	require.NoError(t, err)

	_, err = l.ApplyQualifyingEvent(101, "alice", today.Yesterday())
	assert.ErrorIs(t, err, ErrStaleEvent)

	// State untouched by the rejected event.
	u := loadUser(t, l, 101)
	assert.Equal(t, 1, u.Streak)
	assert.Equal(t, 10, u.XP)
}

func TestApplyQualifyingEventMilestoneRecordsAchievement(t *testing.T) {
	l := newTestLedger(t)

	for i := 6; i >= 0; i-- {
		_, err := l.ApplyQualifyingEvent(101, "alice", today.AddDays(-i))
		require.NoError(t, err)
	}

	var ach models.Achievement
	require.NoError(t, l.db.Where("discord_id = ? AND achievement_id = ?", 101, "streak_7").First(&ach).Error)
	assert.True(t, ach.Completed)
	assert.Equal(t, 7, ach.Progress)
}

func TestServerStreakAdvancesOncePerDay(t *testing.T) {
	l := newTestLedger(t)

	first, err := l.ApplyQualifyingEvent(101, "alice", today)
	require.NoError(t, err)
	require.NotNil(t, first.Server)
	assert.True(t, first.Server.Advanced)
	assert.Equal(t, 1, first.Server.NewStreak)

	second, err := l.ApplyQualifyingEvent(102, "bob", today)
	require.NoError(t, err)
	require.NotNil(t, second.Server)
	assert.False(t, second.Server.Advanced)
	assert.Equal(t, 1, second.Server.NewStreak)
}

func TestServerStreakNotAdvancedByDoubleSubmission(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.ApplyQualifyingEvent(101, "alice", today)
	require.NoError(t, err)

	out, err := l.ApplyQualifyingEvent(101, "alice", today)
	require.NoError(t, err)
	assert.Nil(t, out.Server)

	var stats models.ServerStats
	require.NoError(t, l.db.First(&stats, models.ServerStatsID).Error)
	assert.Equal(t, 1, stats.ServerStreak)
}

func TestServerStreakGapBreaks(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.ApplyQualifyingEvent(101, "alice", today.AddDays(-5))
	require.NoError(t, err)

	out, err := l.ApplyQualifyingEvent(102, "bob", today)
	require.NoError(t, err)
	require.NotNil(t, out.Server)
	assert.True(t, out.Server.Broken)
	assert.Equal(t, 1, out.Server.NewStreak)
}

func TestConcurrentEventsSameUserOneAccepted(t *testing.T) {
	l := newTestLedger(t)

	const n = 8
	outcomes := make([]*EventOutcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := l.ApplyQualifyingEvent(101, "alice", today)
			require.NoError(t, err)
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, out := range outcomes {
		if out.Accepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)

	var senders int64
	require.NoError(t, l.db.Model(&models.DailySender{}).Where("discord_id = ?", 101).Count(&senders).Error)
	assert.Equal(t, int64(1), senders)
}

func TestConcurrentEventsDistinctUsers(t *testing.T) {
	l := newTestLedger(t)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.ApplyQualifyingEvent(int64(200+i), fmt.Sprintf("user%d", i), today)
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var stats models.ServerStats
	require.NoError(t, l.db.First(&stats, models.ServerStatsID).Error)
	// All ten events land on the same day: exactly one advance.
	assert.Equal(t, 1, stats.ServerStreak)

	var users int64
	require.NoError(t, l.db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(n), users)
}

func TestGrantExperienceLevelsUpAndReclampsHP(t *testing.T) {
	l := newTestLedger(t)

	out, err := l.GrantExperience(101, 130)
	require.NoError(t, err)
	assert.Equal(t, 1, out.OldLevel)
	assert.Equal(t, 3, out.NewLevel)
	assert.True(t, out.LeveledUp)

	u := loadUser(t, l, 101)
	// No class at level 3: fallback formula.
	assert.Equal(t, 30, u.MaxHP)
	assert.Equal(t, 30, u.HP)
}

func TestGrantExperienceClampsAtZero(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.GrantExperience(101, 50)
	require.NoError(t, err)

	out, err := l.GrantExperience(101, -200)
	require.NoError(t, err)
	assert.Equal(t, 0, out.NewXP)
	assert.Equal(t, 1, out.NewLevel)
}

func TestGrantCoinsClampsAtZero(t *testing.T) {
	l := newTestLedger(t)

	out, err := l.GrantCoins(101, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, out.NewTotal)

	out, err = l.GrantCoins(101, -100)
	require.NoError(t, err)
	assert.Equal(t, 0, out.NewTotal)
}

func TestDamageAndHealing(t *testing.T) {
	l := newTestLedger(t)

	out, err := l.ApplyDamage(101, 40)
	require.NoError(t, err)
	assert.Equal(t, 60, out.NewHP)
	assert.False(t, out.Died)

	out, err = l.ApplyDamage(101, 500)
	require.NoError(t, err)
	assert.Equal(t, 0, out.NewHP)
	assert.True(t, out.Died)

	out, err = l.ApplyHealing(101, 500)
	require.NoError(t, err)
	assert.Equal(t, 100, out.NewHP)
	assert.Equal(t, 100, out.Healed)
}

func TestAssignClass(t *testing.T) {
	l := newTestLedger(t)

	// Below the unlock level.
	_, err := l.AssignClass(101, "rogue")
	assert.ErrorIs(t, err, ErrClassLocked)

	_, err = l.GrantExperience(101, ExperienceForLevel(5))
	require.NoError(t, err)

	_, err = l.ApplyDamage(101, 20)
	require.NoError(t, err)

	out, err := l.AssignClass(101, "rogue")
	require.NoError(t, err)
	assert.Equal(t, "rogue", out.Class)
	assert.Equal(t, 96, out.MaxHP)
	// Class switch fully heals.
	assert.Equal(t, 96, out.HP)
	assert.Equal(t, "Cutpurse", out.TierName)
}

func TestAssignClassUnknown(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.AssignClass(101, "bard")
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestClaimDailyOncePerDay(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.GrantExperience(101, ExperienceForLevel(4))
	require.NoError(t, err)

	out, err := l.ClaimDaily(101, today)
	require.NoError(t, err)
	assert.Equal(t, 4, out.CoinsEarned)

	_, err = l.ClaimDaily(101, today)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	out, err = l.ClaimDaily(101, today.AddDays(1))
	require.NoError(t, err)
	assert.Equal(t, 8, out.NewTotal)
}

func TestResetUser(t *testing.T) {
	l := newTestLedger(t)

	for i := 6; i >= 0; i-- {
		_, err := l.ApplyQualifyingEvent(101, "alice", today.AddDays(-i))
		require.NoError(t, err)
	}

	require.NoError(t, l.ResetUser(101))

	var count int64
	require.NoError(t, l.db.Model(&models.User{}).Where("discord_id = ?", 101).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	require.NoError(t, l.db.Model(&models.Achievement{}).Where("discord_id = ?", 101).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	require.NoError(t, l.db.Model(&models.DailySender{}).Where("discord_id = ?", 101).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// Next contact recreates the defaults.
	u, err := l.GetOrCreateUser(101, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, u.Level)
	assert.Equal(t, 0, u.Streak)
}

func TestResetAll(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.ApplyQualifyingEvent(101, "alice", today)
	require.NoError(t, err)
	_, err = l.ApplyQualifyingEvent(102, "bob", today)
	require.NoError(t, err)

	require.NoError(t, l.ResetAll())

	var users int64
	require.NoError(t, l.db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(0), users)

	var stats models.ServerStats
	require.NoError(t, l.db.First(&stats, models.ServerStatsID).Error)
	assert.Equal(t, 0, stats.ServerStreak)
	assert.Equal(t, "", stats.LastJoyDay)
}

func TestForceNewDayAllowsResubmissionAndReclaim(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.ApplyQualifyingEvent(101, "alice", today)
	require.NoError(t, err)
	_, err = l.ClaimDaily(101, today)
	require.NoError(t, err)

	require.NoError(t, l.ForceNewDay())

	// Same day submits again and is accepted: the sender row is gone.
	// LastJoyDay still equals today, which is not a break.
	out, err := l.ApplyQualifyingEvent(101, "alice", today)
	require.NoError(t, err)
	assert.True(t, out.Accepted)
	assert.Equal(t, 2, out.NewStreak)

	_, err = l.ClaimDaily(101, today)
	require.NoError(t, err)
}

func TestPruneDailySenders(t *testing.T) {
	l := newTestLedger(t)

	for i := 9; i >= 0; i-- {
		_, err := l.ApplyQualifyingEvent(101, "alice", today.AddDays(-i))
		require.NoError(t, err)
	}

	removed, err := l.PruneDailySenders(today.AddDays(-7))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	var remaining int64
	require.NoError(t, l.db.Model(&models.DailySender{}).Count(&remaining).Error)
	assert.Equal(t, int64(8), remaining)
}

func TestGetOrCreateUserRefreshesUsername(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.GetOrCreateUser(101, "alice")
	require.NoError(t, err)

	u, err := l.GetOrCreateUser(101, "alice2")
	require.NoError(t, err)
	assert.Equal(t, "alice2", u.Username)

	u, err = l.GetOrCreateUser(101, "")
	require.NoError(t, err)
	assert.Equal(t, "alice2", u.Username)
}
