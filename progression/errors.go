package progression

import "errors"

// Typed failures surfaced by the ledger. The pure calculators never fail;
// only orchestration and the storage boundary can. Callers are expected to
// match these with errors.Is and render their own messaging.
var (
	// ErrStaleEvent rejects an event whose date precedes the user's
	// recorded last qualifying day (replays, delayed retries).
	ErrStaleEvent = errors.New("event date precedes last recorded qualifying day")

	// ErrAlreadyClaimed gates the daily coin claim to once per day.
	ErrAlreadyClaimed = errors.New("daily coins already claimed today")

	// ErrClassLocked is returned when a class is assigned below the unlock
	// level.
	ErrClassLocked = errors.New("class selection locked below unlock level")

	// ErrUnknownClass rejects a class identifier missing from the table.
	ErrUnknownClass = errors.New("unknown class identifier")

	// ErrTransientConflict is surfaced after bounded retries on concurrent
	// write conflicts.
	ErrTransientConflict = errors.New("transient storage conflict")

	// ErrStorageUnavailable wraps durability failures; entity state is
	// unchanged when it is returned.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
