package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRules() Rules {
	return Rules{
		JoyBaseXP:          10,
		MissedDayXPLoss:    5,
		DailyCoinsPerLevel: 1,
		Milestones:         []int{7, 30, 100, 365},
		ClassUnlockLevel:   3,
		Classes: map[string]ClassRules{
			"rogue": {
				Name: "Rogue",
				HP:   HPFormula{Base: 80, PerLevel: 8},
				Tiers: []ClassTier{
					{Level: 3, Name: "Cutpurse"},
					{Level: 16, Name: "Assassin"},
					{Level: 36, Name: "Shadowmaster"},
				},
			},
			"warrior": {
				Name: "Warrior",
				HP:   HPFormula{Base: 120, PerLevel: 12},
				Tiers: []ClassTier{
					{Level: 3, Name: "Squire"},
					{Level: 16, Name: "Knight"},
					{Level: 36, Name: "Warlord"},
				},
			},
		},
	}
}

func TestExperienceForLevel(t *testing.T) {
	assert.Equal(t, 0, ExperienceForLevel(0))
	assert.Equal(t, 0, ExperienceForLevel(1))
	assert.Equal(t, 60, ExperienceForLevel(2))
	assert.Equal(t, 120, ExperienceForLevel(3))
	// Levels 2..16 are fifteen steps of 60.
	assert.Equal(t, 900, ExperienceForLevel(16))
	assert.Equal(t, 990, ExperienceForLevel(17))
	// Levels 17..36 add twenty steps of 90.
	assert.Equal(t, 2700, ExperienceForLevel(36))
	assert.Equal(t, 2820, ExperienceForLevel(37))
	assert.Equal(t, 2940, ExperienceForLevel(38))
}

func TestLevelForExperience(t *testing.T) {
	assert.Equal(t, 1, LevelForExperience(0))
	assert.Equal(t, 1, LevelForExperience(59))
	assert.Equal(t, 2, LevelForExperience(60))
	assert.Equal(t, 2, LevelForExperience(119))
	assert.Equal(t, 3, LevelForExperience(120))
	assert.Equal(t, 16, LevelForExperience(989))
	assert.Equal(t, 17, LevelForExperience(990))
	assert.Equal(t, 36, LevelForExperience(2819))
	assert.Equal(t, 37, LevelForExperience(2820))
	assert.Equal(t, 1, LevelForExperience(-50))
}

func TestLevelRoundTrip(t *testing.T) {
	for level := 1; level <= 60; level++ {
		req := ExperienceForLevel(level)
		assert.Equal(t, level, LevelForExperience(req), "exact requirement for level %d", level)
		if level > 1 {
			assert.Equal(t, level-1, LevelForExperience(req-1), "one short of level %d", level)
		}
	}
}

func TestMaxHPFallback(t *testing.T) {
	rules := testRules()

	// Below unlock level the class never matters.
	assert.Equal(t, 10, MaxHP(1, "rogue", rules))
	assert.Equal(t, 20, MaxHP(2, "warrior", rules))
	// No class, default class and unknown class all fall back.
	assert.Equal(t, 50, MaxHP(5, "", rules))
	assert.Equal(t, 50, MaxHP(5, DefaultClassName, rules))
	assert.Equal(t, 50, MaxHP(5, "bard", rules))
}

func TestMaxHPClassFormula(t *testing.T) {
	rules := testRules()

	assert.Equal(t, 80, MaxHP(3, "rogue", rules))
	assert.Equal(t, 96, MaxHP(5, "rogue", rules))
	assert.Equal(t, 120, MaxHP(3, "warrior", rules))
	assert.Equal(t, 144, MaxHP(5, "warrior", rules))
}

func TestTierFor(t *testing.T) {
	rules := testRules()

	name, tier := TierFor(2, "rogue", rules)
	assert.Equal(t, "Peasant", name)
	assert.Equal(t, 1, tier)

	name, tier = TierFor(3, "rogue", rules)
	assert.Equal(t, "Cutpurse", name)
	assert.Equal(t, 1, tier)

	name, tier = TierFor(16, "rogue", rules)
	assert.Equal(t, "Assassin", name)
	assert.Equal(t, 2, tier)

	name, tier = TierFor(40, "rogue", rules)
	assert.Equal(t, "Shadowmaster", name)
	assert.Equal(t, 3, tier)
}
