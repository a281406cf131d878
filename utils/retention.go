package utils

import (
	"time"

	"github.com/cppla/joystreak/progression"
)

// StartRetentionCleaner launches a background goroutine that periodically
// prunes daily sender rows older than the retention window. Rows for today
// and yesterday are always kept because the streak machine reads them; the
// rest only serve audits. Best-effort, failures are logged and retried on
// the next tick.
func StartRetentionCleaner(ledger *progression.Ledger, retentionDays int, tz *time.Location, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	if retentionDays < 2 {
		retentionDays = 2
	}
	go func() {
		for {
			time.Sleep(interval)
			cutoff := progression.DayOf(time.Now().In(tz)).AddDays(-retentionDays)
			removed, err := ledger.PruneDailySenders(cutoff)
			if err != nil {
				Sugar.Warnf("daily sender prune failed: %v", err)
				continue
			}
			if removed > 0 {
				Sugar.Infof("pruned %d daily sender rows older than %s", removed, cutoff)
			}
		}
	}()
}
