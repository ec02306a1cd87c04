/*
day.go - The Day entity and the inference engine

PURPOSE:
  A Day is one calendar night for one listing, carrying the raw facts of
  the latest poll plus the accumulated first/last-seen markers that booking
  and cancellation estimates are inferred from.

INFERENCE MODEL:
  The calendar is only ever observed through noisy, infrequent snapshots.
  Bookings and cancellations are never observed directly; they are inferred
  from availability flips:

    available -> unavailable   a booking happened somewhere in between;
                               best estimate is the midpoint of the two
                               sightings
    unavailable -> available   only a cancellation explains the flip;
                               again estimated at the midpoint

  UpdateInferred is a pure transition: previous Day in, observation plus
  poll instant in, next Day out. No store access, no shared state.

DEGRADATION:
  Estimates degrade explicitly. A past day never once seen available has an
  ambiguous history (always booked? never polled while open?) and reports
  itself data-incomplete rather than guessing.

SEE ALSO:
  - reclassify.go: post-pass that overrides runs of days as host blocks
  - month.go: aggregation over a month's finalized day set
*/
package calendar

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/diatche/airbnb-scraper/item"
)

// Observation is one poll's raw reading for one calendar day.
type Observation struct {
	Available bool
	Price     *decimal.Decimal // nil when the scraped price was unusable
}

// Day is one calendar night for one listing.
type Day struct {
	item.Record

	ListingID string
	TimeZone  string
	Currency  string
	Date      time.Time // calendar day, listing-local
	MonthID   string

	// Raw facts from the latest poll.
	Price     *decimal.Decimal
	Available bool

	// Accumulated sighting markers.
	LastAvailableSeen    *time.Time
	FirstUnavailableSeen *time.Time

	// Inferred state.
	BookingDate      *time.Time
	CancellationDate *time.Time
	Cancellations    int
	Blocked          bool
}

// NewDay creates a fresh Day entity for a listing-local calendar date.
func NewDay(listingID, timeZone string, date time.Time, now time.Time) *Day {
	return &Day{
		Record:    item.NewRecord(now),
		ListingID: listingID,
		TimeZone:  timeZone,
		Date:      date,
	}
}

func (d *Day) ID() (string, error) { return DayID(d.ListingID, d.Date) }
func (d *Day) Kind() item.Kind     { return item.KindDay }

// IsPast reports whether the night is closed at now, per the listing-local
// boundary rule.
func (d *Day) IsPast(now time.Time) (bool, error) {
	loc, err := LoadZone(d.TimeZone)
	if err != nil {
		return false, err
	}
	return IsPastDay(d.Date, loc, now), nil
}

// IsBooked reports whether the night currently reads as guest-booked:
// unavailable and not classified as a host block.
func (d *Day) IsBooked() bool { return !d.Available && !d.Blocked }

// IsDataComplete reports whether the day's booking status is trustworthy.
// A future day always is; a past day only if it was observed available at
// least once before the boundary passed it.
func (d *Day) IsDataComplete(now time.Time) (bool, error) {
	past, err := d.IsPast(now)
	if err != nil {
		return false, err
	}
	return !past || d.LastAvailableSeen != nil, nil
}

// =============================================================================
// INFERENCE - Pure transition over one observation
// =============================================================================

// UpdateInferred applies one poll's observation to a day and returns the
// day's next state. now is the as-of instant of the whole poll, not the
// calendar date.
//
// Applying the same observation at the same instant twice is a no-op on
// the second application.
func UpdateInferred(prev Day, obs Observation, now time.Time) (Day, error) {
	d := prev
	if d.TimeZone == "" {
		return d, ErrMissingTimeZone
	}
	loc, err := LoadZone(d.TimeZone)
	if err != nil {
		return d, err
	}
	past := IsPastDay(d.Date, loc, now)

	d.UpdateDate = now
	d.Available = obs.Available
	if obs.Price != nil {
		p := *obs.Price
		d.Price = &p
	}

	if obs.Available {
		// An available sighting always overrides a prior block
		// classification.
		t := now
		d.LastAvailableSeen = &t
		d.Blocked = false
	} else if !past && d.FirstUnavailableSeen == nil {
		// Past days never seed a fresh unavailable window: their
		// availability history is already closed.
		t := now
		d.FirstUnavailableSeen = &t
	}

	if d.LastAvailableSeen != nil && d.FirstUnavailableSeen != nil {
		mid := Midpoint(*d.LastAvailableSeen, *d.FirstUnavailableSeen)
		if d.LastAvailableSeen.Before(*d.FirstUnavailableSeen) {
			// Seen available, then later unavailable: a fresh booking
			// window. Only recorded while the day is still in the future;
			// a past day's booking either resolved through the
			// cancellation branch or stays permanently estimated.
			if !past {
				d.BookingDate = &mid
			}
		} else {
			// The unavailable sighting preceded the available one: the
			// night went from booked back to open, which only a
			// cancellation explains. The midpoint guard keeps repeated
			// polls with unchanged state from re-counting it.
			if d.CancellationDate == nil || !d.CancellationDate.Equal(mid) {
				d.CancellationDate = &mid
				d.Cancellations++
			}
			// The fresh available sighting closes the unavailable window
			// either way; the next unavailable poll opens a new one.
			d.FirstUnavailableSeen = nil
		}
	}

	monthID, err := MonthID(d.ListingID, d.Date)
	if err != nil {
		return d, err
	}
	d.MonthID = monthID

	return d, nil
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Document serializes the day, omitting fields never set.
func (d *Day) Document() (item.Document, error) {
	id, err := d.ID()
	if err != nil {
		return nil, err
	}
	doc := d.MetaDocument(id, item.KindDay)
	doc["listing_id"] = d.ListingID
	doc["time_zone"] = d.TimeZone
	doc["date"] = d.Date.Format("2006-01-02")
	doc["available"] = d.Available
	doc["blocked"] = d.Blocked
	doc["cancellations"] = d.Cancellations
	if d.MonthID != "" {
		doc["month_id"] = d.MonthID
	}
	if d.Currency != "" {
		doc["currency"] = d.Currency
	}
	if d.Price != nil {
		doc["price"] = *d.Price
	}
	putTime(doc, "last_available_seen_date", d.LastAvailableSeen)
	putTime(doc, "first_unavailable_seen_date", d.FirstUnavailableSeen)
	putTime(doc, "booking_date", d.BookingDate)
	putTime(doc, "cancellation_date", d.CancellationDate)
	return doc, nil
}

// Validate asserts that no sighting marker precedes the entity's own
// creation time. A marker earlier than creation means a later-arriving
// observation was misattributed - a clock-skew or replay defect.
func (d *Day) Validate() error {
	if _, err := d.ID(); err != nil {
		return err
	}
	for field, t := range map[string]*time.Time{
		"last_available_seen_date":    d.LastAvailableSeen,
		"first_unavailable_seen_date": d.FirstUnavailableSeen,
	} {
		if t != nil && t.Before(d.CreationDate) {
			return &item.TemporalInconsistencyError{
				Field:        field,
				Observed:     *t,
				CreationDate: d.CreationDate,
			}
		}
	}
	return nil
}

// DayFromDocument rebuilds a Day from its persisted form. The loaded
// document becomes the day's shadow.
func DayFromDocument(doc item.Document) (*Day, error) {
	d := &Day{}
	d.HydrateMeta(doc)
	d.ListingID, _ = doc.String("listing_id")
	d.TimeZone, _ = doc.String("time_zone")
	d.Currency, _ = doc.String("currency")
	d.MonthID, _ = doc.String("month_id")
	if s, ok := doc.String("date"); ok {
		date, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, err
		}
		d.Date = date
	}
	d.Available, _ = doc.Bool("available")
	d.Blocked, _ = doc.Bool("blocked")
	d.Cancellations, _ = doc.Int("cancellations")
	if p, ok := doc.Decimal("price"); ok {
		d.Price = &p
	}
	d.LastAvailableSeen = getTime(doc, "last_available_seen_date")
	d.FirstUnavailableSeen = getTime(doc, "first_unavailable_seen_date")
	d.BookingDate = getTime(doc, "booking_date")
	d.CancellationDate = getTime(doc, "cancellation_date")
	if _, err := d.ID(); err != nil {
		return nil, err
	}
	return d, nil
}

func putTime(doc item.Document, key string, t *time.Time) {
	if t != nil {
		doc[key] = *t
	}
}

func getTime(doc item.Document, key string) *time.Time {
	if t, ok := doc.Time(key); ok {
		return &t
	}
	return nil
}
