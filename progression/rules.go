package progression

// HPFormula is a class's (base, per-level) hit point pair. Max HP at a
// given level is base + (level - ClassUnlockLevel) * per_level.
type HPFormula struct {
	Base     int `json:"base"`
	PerLevel int `json:"per_level"`
}

// ClassTier is one evolution stage of a class. A user holds the highest
// tier whose Level threshold they have reached.
type ClassTier struct {
	Level int    `json:"level"`
	Name  string `json:"name"`
}

// ClassRules bundles everything the ledger needs to know about one class.
type ClassRules struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	HP          HPFormula  `json:"hp_formula"`
	Tiers       []ClassTier `json:"tiers"`
}

// Rules are the immutable tuning inputs for a ledger instance: rewards,
// penalties, milestone thresholds and the class table. Reloading is a
// caller concern; the ledger never mutates them.
type Rules struct {
	JoyBaseXP          int
	MissedDayXPLoss    int
	DailyCoinsPerLevel int
	Milestones         []int
	ClassUnlockLevel   int
	Classes            map[string]ClassRules
}

// DefaultClassName is the class every user starts with. It always uses the
// level*10 fallback HP formula regardless of the class table.
const DefaultClassName = "peasant"

// IsMilestone reports whether a streak value is one of the notable ones.
func (r Rules) IsMilestone(streak int) bool {
	for _, m := range r.Milestones {
		if streak == m {
			return true
		}
	}
	return false
}

// KnownClass reports whether classID is selectable, i.e. present in the
// class table.
func (r Rules) KnownClass(classID string) bool {
	_, ok := r.Classes[classID]
	return ok
}
