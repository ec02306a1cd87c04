/*
time.go - Identity keys and local-time boundaries

PURPOSE:
  Pure helpers for the calendar domain: composite identity keys, the
  listing-local "is this day past" boundary, and the midpoint estimator
  the inference engine uses for booking/cancellation instants.

IDENTITY KEYS:
  Day:   {listing_id}/day/{YYYY-MM-DD}
  Month: {listing_id}/month/{YYYY-MM}
  A composite key guarantees at most one Day per listing per calendar
  date and makes upserts identity-preserving without surrogate keys.

PAST BOUNDARY:
  A day is past once "now" is later than the day's local end-of-day plus
  a 2-hour grace margin. The margin absorbs host-side cutoff timing near
  midnight: hosts close out a night a little after it ends, and treating
  the night as past too early would misread the final availability flip.
*/
package calendar

import (
	"fmt"
	"time"

	"github.com/diatche/airbnb-scraper/item"
)

// PastGraceMargin delays the past boundary beyond local end-of-day.
const PastGraceMargin = 2 * time.Hour

// DayID computes a Day's composite identity key.
func DayID(listingID string, date time.Time) (string, error) {
	if listingID == "" || date.IsZero() {
		return "", fmt.Errorf("day key needs listing id and date: %w", item.ErrMissingIdentity)
	}
	return fmt.Sprintf("%s/day/%s", listingID, date.Format("2006-01-02")), nil
}

// MonthID computes a Month's composite identity key from any date within
// the month.
func MonthID(listingID string, date time.Time) (string, error) {
	if listingID == "" || date.IsZero() {
		return "", fmt.Errorf("month key needs listing id and date: %w", item.ErrMissingIdentity)
	}
	return fmt.Sprintf("%s/month/%s", listingID, date.Format("2006-01")), nil
}

// LoadZone resolves an IANA zone name, defaulting empty to UTC.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("time zone %q: %w", name, err)
	}
	return loc, nil
}

// EndOfLocalDay returns the first instant after the calendar date in loc.
func EndOfLocalDay(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// IsPastDay reports whether the calendar date is closed at now: later than
// the local end-of-day boundary plus the grace margin.
func IsPastDay(date time.Time, loc *time.Location, now time.Time) bool {
	return now.After(EndOfLocalDay(date, loc).Add(PastGraceMargin))
}

// Midpoint returns the arithmetic mean of two instants. The inference
// engine uses it as the best estimate for an event known only to have
// happened between two sightings.
func Midpoint(a, b time.Time) time.Time {
	return a.Add(b.Sub(a) / 2)
}

// MonthRange returns the first and last calendar days of a year-month.
func MonthRange(year int, month time.Month) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end
}
