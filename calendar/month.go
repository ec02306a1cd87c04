/*
month.go - The Month entity and rollup aggregation

PURPOSE:
  A Month rolls one listing-month's finalized day set into occupancy,
  cancellation, block and revenue statistics. The aggregator's one rule is
  to propagate incompleteness instead of fabricating precision: a month
  with any missing-price day nulls out its financial statistics, keeping
  only the figures that are partial by name and definition.

ROUNDING:
  Rates round half-to-even to two decimal places on the percentage scale,
  then rescale to [0,1]. Money rounds half-to-even to two decimal places.

ORDERING:
  update_with_days must run on an already-inference-updated and
  already-reclassified day set; see crawl for the pipeline ordering.
*/
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diatche/airbnb-scraper/item"
)

// MaxDaysPerMonth bounds a month's day set; more is a data-integrity bug.
const MaxDaysPerMonth = 31

// Month aggregates all Days of one listing-month.
type Month struct {
	item.Record

	ListingID   string
	TimeZone    string
	Currency    string
	Year        int
	MonthOfYear time.Month
	StartDate   time.Time
	EndDate     time.Time

	// Rates in [0,1]. Always populated; a zero denominator yields zero.
	Availability     decimal.Decimal
	CancellationRate decimal.Decimal
	BlockRate        decimal.Decimal

	// Financial statistics. The nullable ones are nil whenever the month's
	// data is known incomplete.
	Revenue        *decimal.Decimal
	PartialRevenue decimal.Decimal
	FutureRevenue  decimal.Decimal
	AveragePrice   *decimal.Decimal
	MedianPrice    *decimal.Decimal
	LowestPrice    *decimal.Decimal
	HighestPrice   *decimal.Decimal

	// Diagnostics from the latest aggregation pass.
	Errors []string

	DataStartDate *time.Time
	DataComplete  bool
}

// NewMonth creates a fresh Month entity for a listing and year-month.
func NewMonth(listingID, timeZone, currency string, year int, month time.Month, now time.Time) *Month {
	start, end := MonthRange(year, month)
	return &Month{
		Record:      item.NewRecord(now),
		ListingID:   listingID,
		TimeZone:    timeZone,
		Currency:    currency,
		Year:        year,
		MonthOfYear: month,
		StartDate:   start,
		EndDate:     end,
	}
}

func (m *Month) ID() (string, error) { return MonthID(m.ListingID, m.StartDate) }
func (m *Month) Kind() item.Kind     { return item.KindMonth }

// =============================================================================
// AGGREGATION - Pure rollup over a finalized day set
// =============================================================================

// UpdateWithDays recomputes the month's statistics from its finalized day
// set and returns the month's next state. Every day must reference this
// month; a mismatch or an oversized day set is a fatal consistency error
// that aborts the listing's cycle.
func UpdateWithDays(prev Month, days []*Day, now time.Time) (Month, error) {
	m := prev
	id, err := m.ID()
	if err != nil {
		return m, err
	}
	if len(days) > MaxDaysPerMonth {
		return m, &MonthConsistencyError{
			MonthID: id,
			Detail:  fmt.Sprintf("%d days exceeds %d", len(days), MaxDaysPerMonth),
		}
	}

	var (
		totalDays           = len(days)
		futureDays          int
		availableFutureDays int
		bookedOrCancelled   int
		cancelledDays       int
		blockedDays         int
		prices              []decimal.Decimal
		revenue             = decimal.Zero
		futureRevenue       = decimal.Zero
		errs                []string
		dataStart           *time.Time
		dataComplete        = true
	)

	for _, d := range days {
		if d.MonthID != id {
			return m, &MonthConsistencyError{
				MonthID: id,
				Detail:  fmt.Sprintf("day %s references month %q", d.Date.Format("2006-01-02"), d.MonthID),
			}
		}
		past, err := d.IsPast(now)
		if err != nil {
			return m, err
		}

		if !past {
			futureDays++
			if d.Available {
				availableFutureDays++
			}
		}
		if d.IsBooked() || d.Cancellations > 0 {
			bookedOrCancelled++
		}
		if d.Cancellations > 0 {
			cancelledDays++
		}
		if d.Blocked {
			blockedDays++
		}

		// Prices. A zero price is as unusable as a missing one. Blocked
		// days legitimately carry no price and produce no diagnostic.
		priced := d.Price != nil && d.Price.IsPositive()
		if priced {
			prices = append(prices, *d.Price)
		} else if !d.Blocked {
			errs = append(errs, fmt.Sprintf("price missing at %s", d.Date.Format("2006-01-02")))
		}

		// Revenue accumulates unconditionally; it is exposed as
		// partial_revenue even when diagnostics exist.
		if priced && d.IsBooked() {
			if past {
				revenue = revenue.Add(*d.Price)
			} else {
				futureRevenue = futureRevenue.Add(*d.Price)
			}
		}

		complete, err := d.IsDataComplete(now)
		if err != nil {
			return m, err
		}
		if complete && dataStart == nil {
			t := d.Date
			dataStart = &t
		}
		dataComplete = dataComplete && complete
	}

	m.UpdateDate = now
	m.Availability = roundRate(availableFutureDays, futureDays)
	m.CancellationRate = roundRate(cancelledDays, bookedOrCancelled)
	m.BlockRate = roundRate(blockedDays, totalDays)
	m.PartialRevenue = roundMoney(revenue)
	m.FutureRevenue = roundMoney(futureRevenue)
	m.Errors = errs
	m.DataStartDate = dataStart
	m.DataComplete = dataComplete && totalDays > 0

	if len(errs) > 0 {
		// Data is known incomplete; any figure here would misrepresent
		// confidence.
		m.Revenue = nil
		m.AveragePrice = nil
		m.MedianPrice = nil
		m.LowestPrice = nil
		m.HighestPrice = nil
		return m, nil
	}

	// The absence of price diagnostics does not by itself guarantee
	// booking-history completeness for past days.
	if m.DataComplete {
		r := roundMoney(revenue)
		m.Revenue = &r
	} else {
		m.Revenue = nil
	}

	if len(prices) > 0 && totalDays > 0 {
		sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })

		sum := decimal.Zero
		for _, p := range prices {
			sum = sum.Add(p)
		}
		avg := roundMoney(sum.Div(decimal.NewFromInt(int64(totalDays))))
		m.AveragePrice = &avg

		// Element at floor(n/2) of the sorted list, deliberately not the
		// two-middle average for even counts.
		median := prices[len(prices)/2]
		m.MedianPrice = &median
		lowest := prices[0]
		m.LowestPrice = &lowest
		highest := prices[len(prices)-1]
		m.HighestPrice = &highest
	} else {
		m.AveragePrice = nil
		m.MedianPrice = nil
		m.LowestPrice = nil
		m.HighestPrice = nil
	}

	return m, nil
}

// roundRate divides, rounds half-to-even to two decimals on the percentage
// scale, and rescales to [0,1]. A zero denominator yields zero.
func roundRate(num, den int) decimal.Decimal {
	if den == 0 {
		return decimal.Zero
	}
	ratio := decimal.NewFromInt(int64(num)).Div(decimal.NewFromInt(int64(den)))
	return ratio.Mul(decimal.NewFromInt(100)).RoundBank(2).Div(decimal.NewFromInt(100))
}

func roundMoney(d decimal.Decimal) decimal.Decimal { return d.RoundBank(2) }

// =============================================================================
// PERSISTENCE
// =============================================================================

// Document serializes the month. Nulled statistics are written as explicit
// nulls: downstream consumers must see that the figure was withheld, not
// that it was never computed.
func (m *Month) Document() (item.Document, error) {
	id, err := m.ID()
	if err != nil {
		return nil, err
	}
	doc := m.MetaDocument(id, item.KindMonth)
	doc["listing_id"] = m.ListingID
	doc["time_zone"] = m.TimeZone
	doc["year"] = m.Year
	doc["month"] = int(m.MonthOfYear)
	doc["start_date"] = m.StartDate
	doc["end_date"] = m.EndDate
	doc["availability"] = m.Availability
	doc["cancellation_rate"] = m.CancellationRate
	doc["block_rate"] = m.BlockRate
	doc["partial_revenue"] = m.PartialRevenue
	doc["future_revenue"] = m.FutureRevenue
	doc["is_data_complete"] = m.DataComplete
	errs := make([]string, 0, len(m.Errors))
	doc["errors"] = append(errs, m.Errors...)
	if m.Currency != "" {
		doc["currency"] = m.Currency
	}
	putDecimal(doc, "revenue", m.Revenue)
	putDecimal(doc, "average_price", m.AveragePrice)
	putDecimal(doc, "median_price", m.MedianPrice)
	putDecimal(doc, "lowest_price", m.LowestPrice)
	putDecimal(doc, "highest_price", m.HighestPrice)
	putTime(doc, "data_start_date", m.DataStartDate)
	return doc, nil
}

func (m *Month) Validate() error {
	_, err := m.ID()
	return err
}

// MonthFromDocument rebuilds a Month from its persisted form.
func MonthFromDocument(doc item.Document) (*Month, error) {
	m := &Month{}
	m.HydrateMeta(doc)
	m.ListingID, _ = doc.String("listing_id")
	m.TimeZone, _ = doc.String("time_zone")
	m.Currency, _ = doc.String("currency")
	m.Year, _ = doc.Int("year")
	if n, ok := doc.Int("month"); ok {
		m.MonthOfYear = time.Month(n)
	}
	if t, ok := doc.Time("start_date"); ok {
		m.StartDate = t
	}
	if t, ok := doc.Time("end_date"); ok {
		m.EndDate = t
	}
	if d, ok := doc.Decimal("availability"); ok {
		m.Availability = d
	}
	if d, ok := doc.Decimal("cancellation_rate"); ok {
		m.CancellationRate = d
	}
	if d, ok := doc.Decimal("block_rate"); ok {
		m.BlockRate = d
	}
	if d, ok := doc.Decimal("partial_revenue"); ok {
		m.PartialRevenue = d
	}
	if d, ok := doc.Decimal("future_revenue"); ok {
		m.FutureRevenue = d
	}
	m.Revenue = getDecimal(doc, "revenue")
	m.AveragePrice = getDecimal(doc, "average_price")
	m.MedianPrice = getDecimal(doc, "median_price")
	m.LowestPrice = getDecimal(doc, "lowest_price")
	m.HighestPrice = getDecimal(doc, "highest_price")
	m.Errors, _ = doc.StringList("errors")
	m.DataStartDate = getTime(doc, "data_start_date")
	m.DataComplete, _ = doc.Bool("is_data_complete")
	if _, err := m.ID(); err != nil {
		return nil, err
	}
	return m, nil
}

func putDecimal(doc item.Document, key string, d *decimal.Decimal) {
	if d != nil {
		doc[key] = *d
	} else {
		doc[key] = nil
	}
}

func getDecimal(doc item.Document, key string) *decimal.Decimal {
	if d, ok := doc.Decimal(key); ok {
		return &d
	}
	return nil
}
