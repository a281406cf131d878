package progression

// Community-wide streak tracker. Like AdvanceStreak this is pure; the
// ledger runs it inside its own aggregate critical section so that only the
// first accepted event of a day can move the counter.

// ServerStreakDecision describes the aggregate transition for one event.
type ServerStreakDecision struct {
	// Advanced is true when this event was the first of the day and the
	// counter moved (increment or fresh start). When false the stats row
	// must not be written at all.
	Advanced  bool
	Broken    bool
	OldStreak int
	NewStreak int
	LastDay   Day
}

// AdvanceServerStreak decides how the community streak evolves when a
// qualifying event is accepted on today. lastDay is the last day the
// counter moved; streak is its current value.
func AdvanceServerStreak(streak int, lastDay Day, today Day) ServerStreakDecision {
	d := ServerStreakDecision{OldStreak: streak, NewStreak: streak, LastDay: lastDay}

	if lastDay == today {
		// Another user already advanced it today.
		return d
	}

	d.Advanced = true
	d.LastDay = today
	if lastDay == today.Yesterday() {
		d.NewStreak = streak + 1
		return d
	}

	// Gap, or first event ever. Only report a break when there was a streak
	// to lose.
	d.Broken = streak > 0
	d.NewStreak = 1
	return d
}
