/*
staleness.go - Per-kind freshness policy

The sole backpressure against redundant fetches: the crawl driver skips a
listing's calendar cycle while its current month is fresh. Advisory, not a
hard deadline - a false negative only costs an extra fetch, never data.
*/
package calendar

import (
	"time"

	"github.com/diatche/airbnb-scraper/item"
)

const (
	// ListingStaleInterval is how long a listing stays fresh after an
	// update.
	ListingStaleInterval = 24 * time.Hour

	// MonthStaleInterval is how long a month (and with it, its days) stays
	// fresh after an update.
	MonthStaleInterval = time.Hour
)

// StaleInterval returns the freshness window for an entity kind. Days are
// only ever refreshed as part of a month fetch, so they inherit the month
// cadence.
func StaleInterval(kind item.Kind) time.Duration {
	switch kind {
	case item.KindListing:
		return ListingStaleInterval
	default:
		return MonthStaleInterval
	}
}

// IsStale reports whether an entity of the given kind, last updated at
// updateDate, is due for re-observation at now. Pure function of persisted
// state and the current time.
func IsStale(updateDate time.Time, kind item.Kind, now time.Time) bool {
	return now.Sub(updateDate) > StaleInterval(kind)
}
