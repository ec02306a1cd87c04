/*
types.go - The inbound interface from the crawling collaborator

The network crawler is an external collaborator: it fetches raw JSON,
paginates search results, and resolves time zones from coordinates. What
it hands this package is one fetch cycle's worth of raw day facts for one
listing, grouped by month, plus the single instant the cycle was observed
at. Everything downstream of that boundary is the inference core's job.
*/
package crawl

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayObservation is one poll's raw reading for one calendar day, as
// scraped.
type DayObservation struct {
	Date      time.Time // calendar date, listing-local
	TimeZone  string    // IANA-style zone name
	Currency  string
	Available bool
	Price     *decimal.Decimal // nil when no usable price was scraped
}

// MonthBucket groups one month's observations, in date order.
type MonthBucket struct {
	Year  int
	Month time.Month
	Days  []DayObservation
}

// Fetch is one crawl cycle's calendar payload for one listing. Now is the
// as-of instant for the whole cycle: every day in the batch is stamped
// with it, so one cycle's entities are consistently timestamped.
type Fetch struct {
	ListingID string
	Now       time.Time
	Months    []MonthBucket
}
