package progression

// Experience curve and hit point formulas. These are pure: all inputs are
// clamped, nothing here can fail or touch storage.

// Per-level step costs. The total for a level is the running sum of the
// steps below it, not a closed form: steps 2..16 cost 60, 17..36 cost 90,
// and everything past 36 costs 120.
const (
	earlyStepXP  = 60
	midStepXP    = 90
	lateStepXP   = 120
	midStepFrom  = 17
	lateStepFrom = 37
)

// ExperienceForLevel returns the total experience required to reach level.
// Level 1 (and below) requires 0.
func ExperienceForLevel(level int) int {
	total := 0
	for step := 2; step <= level; step++ {
		switch {
		case step < midStepFrom:
			total += earlyStepXP
		case step < lateStepFrom:
			total += midStepXP
		default:
			total += lateStepXP
		}
	}
	return total
}

// LevelForExperience returns the largest level whose total requirement does
// not exceed xp. Negative totals floor at level 1.
func LevelForExperience(xp int) int {
	if xp < 0 {
		xp = 0
	}
	level := 1
	for ExperienceForLevel(level+1) <= xp {
		level++
	}
	return level
}

// MaxHP computes maximum hit points for a level under a class. Below the
// class unlock level, with no class, with the default class, or with an
// identifier missing from the table, the fallback is level*10.
func MaxHP(level int, classID string, rules Rules) int {
	if level < rules.ClassUnlockLevel || classID == "" || classID == DefaultClassName {
		return level * 10
	}
	cr, ok := rules.Classes[classID]
	if !ok {
		return level * 10
	}
	return cr.HP.Base + (level-rules.ClassUnlockLevel)*cr.HP.PerLevel
}

// TierFor resolves the display name and 1-based tier index for a class at a
// level. Users below the unlock level, without a class, or with an unknown
// class identifier are tier-1 peasants.
func TierFor(level int, classID string, rules Rules) (string, int) {
	if level < rules.ClassUnlockLevel || classID == "" || classID == DefaultClassName {
		return "Peasant", 1
	}
	cr, ok := rules.Classes[classID]
	if !ok {
		return "Peasant", 1
	}
	name, tier := cr.Name, 1
	for i, t := range cr.Tiers {
		if level >= t.Level {
			name, tier = t.Name, i+1
		}
	}
	return name, tier
}
