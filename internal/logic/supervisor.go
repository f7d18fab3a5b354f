package logic

import "time"

// DefaultStaleAfter is how long the receiver may stay silent before the fix
// is considered lost.
const DefaultStaleAfter = time.Second

// NeedsReacquisition reports whether the last fix is too old. The comparison
// is inclusive: exactly staleAfter since the last fix is already stale.
func NeedsReacquisition(now, lastFix time.Time, staleAfter time.Duration) bool {
	return now.Sub(lastFix) >= staleAfter
}
