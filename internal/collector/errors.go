package collector

import "errors"

var (
	// ErrBackfillRunning is returned when a backfill is triggered while one
	// is already active.
	ErrBackfillRunning = errors.New("a backfill run is already in progress")

	// ErrFutureData means the newest stored item is implausibly in the
	// future. Automatic backfill refuses to run until the store is
	// administratively cleared.
	ErrFutureData = errors.New("store contains future-dated items")
)
