package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cppla/joystreak/progression"
)

// LoadGameRules assembles the progression rules from the app config plus the
// class table on disk. Called once at boot; the resulting value is treated
// as immutable afterwards.
func LoadGameRules() (progression.Rules, error) {
	cfg := Get()

	classes, err := loadClassTable(cfg.ClassesPath)
	if err != nil {
		return progression.Rules{}, err
	}

	return progression.Rules{
		JoyBaseXP:          cfg.JoyBaseXP,
		MissedDayXPLoss:    cfg.MissedDayXPLoss,
		DailyCoinsPerLevel: cfg.DailyCoinsPerLevel,
		Milestones:         cfg.Milestones,
		ClassUnlockLevel:   cfg.ClassUnlockLevel,
		Classes:            classes,
	}, nil
}

func loadClassTable(path string) (map[string]progression.ClassRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class table %s: %w", path, err)
	}

	var classes map[string]progression.ClassRules
	if err := json.Unmarshal(data, &classes); err != nil {
		return nil, fmt.Errorf("parse class table %s: %w", path, err)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("class table %s is empty", path)
	}

	for id, c := range classes {
		if c.HP.Base <= 0 || c.HP.PerLevel <= 0 {
			return nil, fmt.Errorf("class %s has invalid hp formula", id)
		}
	}

	return classes, nil
}
