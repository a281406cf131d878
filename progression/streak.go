package progression

// Per-user streak state machine. AdvanceStreak is a pure decision function:
// it never touches storage, so the ledger can call it inside a transaction
// and commit (or discard) the resulting deltas atomically.

// Break reasons reported on a streak reset.
const (
	BreakDoubleSubmission = "double_submission"
	BreakMissedDay        = "missed_day"
)

// StreakState is the user's streak situation at the moment an event arrives.
// SentToday comes from the daily sender ledger, not from LastDay: the
// storage uniqueness row is the authoritative "already sent" signal.
type StreakState struct {
	Streak    int
	LastDay   Day
	SentToday bool
}

// StreakDecision is what the ledger must persist and report after a
// qualifying event.
type StreakDecision struct {
	OldStreak    int
	NewStreak    int
	XPDelta      int
	Broken       bool
	BreakReason  string
	MilestoneHit bool
	// Accepted is false only for double submissions: the event produced a
	// reset but no new ledger day and no experience change.
	Accepted bool
}

// AdvanceStreak applies the transition policy for one qualifying event,
// evaluated strictly in order: double submission, then gap break, then the
// normal continuation / fresh start.
func AdvanceStreak(st StreakState, today Day, rules Rules) StreakDecision {
	d := StreakDecision{OldStreak: st.Streak}

	if st.SentToday {
		d.Broken = true
		d.BreakReason = BreakDoubleSubmission
		d.NewStreak = 0
		return d
	}

	streak := st.Streak
	if !st.LastDay.IsZero() && st.LastDay != today.Yesterday() && st.LastDay != today {
		// Missed at least one full day. A first-ever event (unset LastDay)
		// is never a break. The "equals today" arm cannot fire after the
		// SentToday check, but the policy is stated over all three values
		// so it stays explicit here.
		d.Broken = true
		d.BreakReason = BreakMissedDay
		d.XPDelta -= rules.MissedDayXPLoss
		streak = 0
	}

	d.Accepted = true
	d.NewStreak = streak + 1
	d.XPDelta += rules.JoyBaseXP
	d.MilestoneHit = rules.IsMilestone(d.NewStreak)
	return d
}
