package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const today = Day("2026-06-10")

func TestAdvanceStreakFirstEver(t *testing.T) {
	rules := testRules()

	d := AdvanceStreak(StreakState{}, today, rules)

	assert.True(t, d.Accepted)
	assert.False(t, d.Broken)
	assert.Equal(t, 1, d.NewStreak)
	assert.Equal(t, rules.JoyBaseXP, d.XPDelta)
	assert.False(t, d.MilestoneHit)
}

func TestAdvanceStreakContinuation(t *testing.T) {
	rules := testRules()

	d := AdvanceStreak(StreakState{Streak: 4, LastDay: today.Yesterday()}, today, rules)

	assert.True(t, d.Accepted)
	assert.False(t, d.Broken)
	assert.Equal(t, 5, d.NewStreak)
	assert.Equal(t, rules.JoyBaseXP, d.XPDelta)
}

func TestAdvanceStreakDoubleSubmission(t *testing.T) {
	rules := testRules()

	d := AdvanceStreak(StreakState{Streak: 9, LastDay: today, SentToday: true}, today, rules)

	assert.False(t, d.Accepted)
	assert.True(t, d.Broken)
	assert.Equal(t, BreakDoubleSubmission, d.BreakReason)
	assert.Equal(t, 0, d.NewStreak)
	assert.Equal(t, 0, d.XPDelta)
	assert.False(t, d.MilestoneHit)
}

func TestAdvanceStreakMissedDay(t *testing.T) {
	rules := testRules()

	d := AdvanceStreak(StreakState{Streak: 12, LastDay: today.AddDays(-3)}, today, rules)

	assert.True(t, d.Accepted)
	assert.True(t, d.Broken)
	assert.Equal(t, BreakMissedDay, d.BreakReason)
	// Fresh start after the break, in the same event.
	assert.Equal(t, 1, d.NewStreak)
	assert.Equal(t, rules.JoyBaseXP-rules.MissedDayXPLoss, d.XPDelta)
}

func TestAdvanceStreakMilestone(t *testing.T) {
	rules := testRules()

	d := AdvanceStreak(StreakState{Streak: 6, LastDay: today.Yesterday()}, today, rules)

	assert.Equal(t, 7, d.NewStreak)
	assert.True(t, d.MilestoneHit)
}

func TestAdvanceStreakMilestoneNotReachedAfterBreak(t *testing.T) {
	rules := testRules()

	// Streak 6 with a gap restarts at 1, not 7.
	d := AdvanceStreak(StreakState{Streak: 6, LastDay: today.AddDays(-2)}, today, rules)

	assert.Equal(t, 1, d.NewStreak)
	assert.False(t, d.MilestoneHit)
}

func TestAdvanceServerStreakFirstOfDay(t *testing.T) {
	d := AdvanceServerStreak(5, today.Yesterday(), today)

	assert.True(t, d.Advanced)
	assert.False(t, d.Broken)
	assert.Equal(t, 6, d.NewStreak)
	assert.Equal(t, today, d.LastDay)
}

func TestAdvanceServerStreakAlreadyMovedToday(t *testing.T) {
	d := AdvanceServerStreak(6, today, today)

	assert.False(t, d.Advanced)
	assert.Equal(t, 6, d.NewStreak)
}

func TestAdvanceServerStreakGapBreaks(t *testing.T) {
	d := AdvanceServerStreak(41, today.AddDays(-2), today)

	assert.True(t, d.Advanced)
	assert.True(t, d.Broken)
	assert.Equal(t, 1, d.NewStreak)
}

func TestAdvanceServerStreakFirstEver(t *testing.T) {
	d := AdvanceServerStreak(0, "", today)

	assert.True(t, d.Advanced)
	assert.False(t, d.Broken)
	assert.Equal(t, 1, d.NewStreak)
}
