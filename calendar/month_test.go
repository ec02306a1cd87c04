package calendar_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diatche/airbnb-scraper/calendar"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// monthDay builds a day with the post-pipeline fields aggregation reads.
// Past days get an available sighting so their history reads as complete.
func monthDay(t *testing.T, date time.Time, priceStr string, available, blocked bool, now time.Time) *calendar.Day {
	t.Helper()
	day := calendar.NewDay("l-1", "UTC", date, now)
	day.Available = available
	day.Blocked = blocked
	if priceStr != "" {
		day.Price = price(priceStr)
	}
	seen := now.Add(-time.Hour)
	day.LastAvailableSeen = &seen

	monthID, err := calendar.MonthID("l-1", date)
	require.NoError(t, err)
	day.MonthID = monthID
	return day
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// FINANCIAL ROLLUP
// =============================================================================

func TestUpdateWithDays_CompletePastMonth(t *testing.T) {
	// GIVEN: A fully-priced past month: two booked nights (100, 120) and one
	//        that stayed open (90)
	// WHEN: The month aggregates its day set
	// THEN: Revenue 220, average 103.33, median 100, extremes 90/120

	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	month := calendar.NewMonth("l-1", "UTC", "USD", 2025, time.May, now)
	days := []*calendar.Day{
		monthDay(t, date(2025, time.May, 1), "100", false, false, now),
		monthDay(t, date(2025, time.May, 2), "120", false, false, now),
		monthDay(t, date(2025, time.May, 3), "90", true, false, now),
	}

	next, err := calendar.UpdateWithDays(*month, days, now)
	require.NoError(t, err)

	assert.True(t, next.DataComplete)
	assert.Empty(t, next.Errors)
	require.NotNil(t, next.Revenue)
	assert.True(t, next.Revenue.Equal(decimal.RequireFromString("220")))
	assert.True(t, next.PartialRevenue.Equal(decimal.RequireFromString("220")))
	assert.True(t, next.FutureRevenue.IsZero())
	require.NotNil(t, next.AveragePrice)
	assert.True(t, next.AveragePrice.Equal(decimal.RequireFromString("103.33")), "310/3 rounds half-to-even to 103.33, got %s", next.AveragePrice)
	require.NotNil(t, next.MedianPrice)
	assert.True(t, next.MedianPrice.Equal(decimal.RequireFromString("100")))
	require.NotNil(t, next.LowestPrice)
	assert.True(t, next.LowestPrice.Equal(decimal.RequireFromString("90")))
	require.NotNil(t, next.HighestPrice)
	assert.True(t, next.HighestPrice.Equal(decimal.RequireFromString("120")))

	// No future days: the occupancy rates all sit at zero denominators or
	// zero counts.
	assert.True(t, next.Availability.IsZero())
	assert.True(t, next.CancellationRate.IsZero())
	assert.True(t, next.BlockRate.IsZero())
	require.NotNil(t, next.DataStartDate)
	assert.True(t, next.DataStartDate.Equal(date(2025, time.May, 1)))
}

func TestUpdateWithDays_MissingPriceNullsStatistics(t *testing.T) {
	// GIVEN: The same month, but one unblocked day carries no usable price
	// WHEN: The month aggregates
	// THEN: Every nullable figure is withheld; partial revenue survives

	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	month := calendar.NewMonth("l-1", "UTC", "USD", 2025, time.May, now)
	days := []*calendar.Day{
		monthDay(t, date(2025, time.May, 1), "100", false, false, now),
		monthDay(t, date(2025, time.May, 2), "120", false, false, now),
		monthDay(t, date(2025, time.May, 3), "", true, false, now),
	}

	next, err := calendar.UpdateWithDays(*month, days, now)
	require.NoError(t, err)

	require.Len(t, next.Errors, 1)
	assert.Equal(t, "price missing at 2025-05-03", next.Errors[0])
	assert.Nil(t, next.Revenue)
	assert.Nil(t, next.AveragePrice)
	assert.Nil(t, next.MedianPrice)
	assert.Nil(t, next.LowestPrice)
	assert.Nil(t, next.HighestPrice)
	assert.True(t, next.PartialRevenue.Equal(decimal.RequireFromString("220")),
		"partial revenue is partial by definition and never withheld")
}

func TestUpdateWithDays_ZeroPriceIsMissing(t *testing.T) {
	// GIVEN: A day priced at exactly zero
	// WHEN: The month aggregates
	// THEN: It is diagnosed like a missing price

	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	month := calendar.NewMonth("l-1", "UTC", "USD", 2025, time.May, now)
	days := []*calendar.Day{
		monthDay(t, date(2025, time.May, 1), "0", true, false, now),
	}

	next, err := calendar.UpdateWithDays(*month, days, now)
	require.NoError(t, err)
	require.Len(t, next.Errors, 1)
	assert.Nil(t, next.AveragePrice)
}

func TestUpdateWithDays_BlockedDayNeedsNoPrice(t *testing.T) {
	// GIVEN: A priceless day classified as a host block
	// WHEN: The month aggregates
	// THEN: No diagnostic; the block only moves the block rate

	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	month := calendar.NewMonth("l-1", "UTC", "USD", 2025, time.May, now)
	days := []*calendar.Day{
		monthDay(t, date(2025, time.May, 1), "100", false, false, now),
		monthDay(t, date(2025, time.May, 2), "", false, true, now),
	}

	next, err := calendar.UpdateWithDays(*month, days, now)
	require.NoError(t, err)

	assert.Empty(t, next.Errors)
	assert.True(t, next.BlockRate.Equal(decimal.RequireFromString("0.5")))
	require.NotNil(t, next.Revenue)
	assert.True(t, next.Revenue.Equal(decimal.RequireFromString("100")),
		"the blocked day is never counted as booked")
}

// =============================================================================
// OCCUPANCY RATES
// =============================================================================

func TestUpdateWithDays_FutureAvailabilityRate(t *testing.T) {
	// GIVEN: Four future days, three open and one blocked
	// WHEN: The month aggregates
	// THEN: Availability 0.75 over future days, block rate 0.25 over all

	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	month := calendar.NewMonth("l-1", "UTC", "USD", 2025, time.July, now)
	days := []*calendar.Day{
		monthDay(t, date(2025, time.July, 1), "100", true, false, now),
		monthDay(t, date(2025, time.July, 2), "100", true, false, now),
		monthDay(t, date(2025, time.July, 3), "110", true, false, now),
		monthDay(t, date(2025, time.July, 4), "", false, true, now),
	}

	next, err := calendar.UpdateWithDays(*month, days, now)
	require.NoError(t, err)

	assert.True(t, next.Availability.Equal(decimal.RequireFromString("0.75")), "got %s", next.Availability)
	assert.True(t, next.BlockRate.Equal(decimal.RequireFromString("0.25")))
	assert.True(t, next.FutureRevenue.IsZero(), "open future nights earn nothing yet")
}

func TestUpdateWithDays_CancellationRate(t *testing.T) {
	// GIVEN: Two booked-or-cancelled days, one of which saw a cancellation
	// WHEN: The month aggregates
	// THEN: Cancellation rate is 0.5 of the booked-or-cancelled set

	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	month := calendar.NewMonth("l-1", "UTC", "USD", 2025, time.July, now)
	booked := monthDay(t, date(2025, time.July, 1), "100", false, false, now)
	cancelled := monthDay(t, date(2025, time.July, 2), "100", true, false, now)
	cancelled.Cancellations = 1
	open := monthDay(t, date(2025, time.July, 3), "100", true, false, now)

	next, err := calendar.UpdateWithDays(*month, []*calendar.Day{booked, cancelled, open}, now)
	require.NoError(t, err)
	assert.True(t, next.CancellationRate.Equal(decimal.RequireFromString("0.5")), "got %s", next.CancellationRate)
}

func TestUpdateWithDays_FutureBookedRevenue(t *testing.T) {
	// GIVEN: A booked future night
	// WHEN: The month aggregates
	// THEN: Its price lands in future revenue, not realized revenue

	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	month := calendar.NewMonth("l-1", "UTC", "USD", 2025, time.July, now)
	days := []*calendar.Day{
		monthDay(t, date(2025, time.July, 1), "150", false, false, now),
	}

	next, err := calendar.UpdateWithDays(*month, days, now)
	require.NoError(t, err)
	assert.True(t, next.FutureRevenue.Equal(decimal.RequireFromString("150")))
	require.NotNil(t, next.Revenue)
	assert.True(t, next.Revenue.IsZero())
}

// =============================================================================
// CONSISTENCY ERRORS
// =============================================================================

func TestUpdateWithDays_ForeignDayRejected(t *testing.T) {
	// GIVEN: A day referencing a different month
	// WHEN: The month aggregates
	// THEN: The cycle aborts with a month consistency error

	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	month := calendar.NewMonth("l-1", "UTC", "USD", 2025, time.May, now)
	stray := monthDay(t, date(2025, time.June, 1), "100", true, false, now)

	_, err := calendar.UpdateWithDays(*month, []*calendar.Day{stray}, now)
	assert.Error(t, err)
	var mErr *calendar.MonthConsistencyError
	assert.ErrorAs(t, err, &mErr)
	assert.ErrorIs(t, err, calendar.ErrMonthConsistency)
}

func TestUpdateWithDays_OversizedDaySetRejected(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	month := calendar.NewMonth("l-1", "UTC", "USD", 2025, time.May, now)

	days := make([]*calendar.Day, calendar.MaxDaysPerMonth+1)
	for i := range days {
		days[i] = monthDay(t, date(2025, time.May, 1), "100", true, false, now)
	}

	_, err := calendar.UpdateWithDays(*month, days, now)
	assert.ErrorIs(t, err, calendar.ErrMonthConsistency)
}

func TestUpdateWithDays_EmptyDaySetIsIncomplete(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	month := calendar.NewMonth("l-1", "UTC", "USD", 2025, time.May, now)

	next, err := calendar.UpdateWithDays(*month, nil, now)
	require.NoError(t, err)
	assert.False(t, next.DataComplete)
	assert.Nil(t, next.Revenue)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestMonth_DocumentWritesExplicitNulls(t *testing.T) {
	// GIVEN: A month whose statistics were withheld
	// WHEN: It serializes
	// THEN: The withheld figures appear as explicit nulls

	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	month := calendar.NewMonth("l-1", "UTC", "USD", 2025, time.May, now)
	days := []*calendar.Day{
		monthDay(t, date(2025, time.May, 1), "", true, false, now),
	}
	next, err := calendar.UpdateWithDays(*month, days, now)
	require.NoError(t, err)

	doc, err := next.Document()
	require.NoError(t, err)
	for _, key := range []string{"revenue", "average_price", "median_price", "lowest_price", "highest_price"} {
		v, present := doc[key]
		assert.True(t, present, fmt.Sprintf("%s must be present", key))
		assert.Nil(t, v, fmt.Sprintf("%s must be an explicit null", key))
	}
}

func TestMonth_DocumentRoundTrip(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	month := calendar.NewMonth("l-1", "UTC", "USD", 2025, time.May, now)
	days := []*calendar.Day{
		monthDay(t, date(2025, time.May, 1), "100", false, false, now),
		monthDay(t, date(2025, time.May, 2), "90", true, false, now),
	}
	next, err := calendar.UpdateWithDays(*month, days, now)
	require.NoError(t, err)

	doc, err := next.Document()
	require.NoError(t, err)
	loaded, err := calendar.MonthFromDocument(doc)
	require.NoError(t, err)

	assert.Equal(t, next.Year, loaded.Year)
	assert.Equal(t, next.MonthOfYear, loaded.MonthOfYear)
	require.NotNil(t, loaded.Revenue)
	assert.True(t, loaded.Revenue.Equal(*next.Revenue))
	assert.Equal(t, next.DataComplete, loaded.DataComplete)
	assert.True(t, loaded.StartDate.Equal(next.StartDate))
}
