/*
processor.go - The per-listing fetch cycle

PURPOSE:
  Drives one listing's cycle end to end: staleness gate, day inference,
  trailing-run reclassification, month aggregation, change-tracked
  persistence. The pipeline order is load-bearing:

    Day Inference -> Trailing-Run Reclassifier -> Month Aggregator -> Save

  Later days in the batch influence the reclassifier's verdict on earlier
  days, and the aggregator requires a fully-reclassified day set, so no
  stage may be reordered within a cycle.

  Days are never deleted, and a month aggregates over ALL of its days, not
  just the ones the current fetch happened to observe. Each cycle therefore
  overlays its updates onto the listing's persisted day set before the
  reclassifier and aggregator run; days that scrolled out of the crawl
  window keep their weight in the statistics.

CONCURRENCY:
  One cycle is logically single-threaded. Across listings, cycles are
  independent (identity keys are listing-scoped) and may run with
  unbounded parallelism against the shared store.

ERRORS:
  Fatal conditions (identity problems, month consistency, immutable-field
  mutation) abort this listing's cycle only. Recoverable conditions
  (missing prices, incomplete history) never surface here; they ride along
  as nulled statistics and diagnostics on the Month entities.
*/
package crawl

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/diatche/airbnb-scraper/calendar"
	"github.com/diatche/airbnb-scraper/item"
	"github.com/diatche/airbnb-scraper/logger"
)

// Processor applies fetch cycles to the document store.
type Processor struct {
	store item.Store
	log   *logger.Entry
}

// NewProcessor creates a processor over the shared store.
func NewProcessor(store item.Store, log *logger.Log) *Processor {
	return &Processor{
		store: store,
		log:   log.WithComponent("crawl"),
	}
}

// Result summarizes what one applied fetch cycle changed.
type Result struct {
	Months        []*calendar.Month
	DaysWritten   int
	MonthsWritten int
	Reclassified  int
}

// NeedsCalendar reports whether a listing's calendar is due for
// re-observation: true when the listing-local current month is absent or
// stale. This is the crawl driver's only backpressure against redundant
// fetches.
func (p *Processor) NeedsCalendar(ctx context.Context, listingID, timeZone string, now time.Time) (bool, error) {
	loc, err := calendar.LoadZone(timeZone)
	if err != nil {
		return false, err
	}
	monthID, err := calendar.MonthID(listingID, now.In(loc))
	if err != nil {
		return false, err
	}
	doc, err := p.store.Load(ctx, monthID)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return true, nil
	}
	month, err := calendar.MonthFromDocument(doc)
	if err != nil {
		return false, err
	}
	return calendar.IsStale(month.UpdateDate, item.KindMonth, now), nil
}

// ApplyFetch runs one listing's full cycle and persists every entity that
// changed. The batch is applied as a unit: nothing is saved until every
// day has absorbed its observation, the trailing run has been
// reclassified over the full day set, and every affected month has been
// re-aggregated.
func (p *Processor) ApplyFetch(ctx context.Context, f Fetch) (*Result, error) {
	if f.ListingID == "" {
		return nil, item.ErrMissingIdentity
	}

	months := make(map[string]*calendar.Month)
	updated := make(map[string]*calendar.Day)

	for _, bucket := range f.Months {
		month, err := p.loadOrCreateMonth(ctx, f, bucket)
		if err != nil {
			return nil, err
		}
		monthID, err := month.ID()
		if err != nil {
			return nil, err
		}
		months[monthID] = month

		for _, obs := range bucket.Days {
			day, err := p.loadOrCreateDay(ctx, f, obs)
			if err != nil {
				return nil, err
			}
			next, err := calendar.UpdateInferred(*day, calendar.Observation{
				Available: obs.Available,
				Price:     obs.Price,
			}, f.Now)
			if err != nil {
				return nil, fmt.Errorf("listing %s day %s: %w",
					f.ListingID, obs.Date.Format("2006-01-02"), err)
			}
			*day = next
			dayID, err := day.ID()
			if err != nil {
				return nil, err
			}
			updated[dayID] = day
		}
	}

	// Overlay this cycle's updates onto the listing's persisted day set:
	// the reclassifier answers only for the full ordered sequence, and a
	// month counts days this fetch never observed.
	allDays, err := p.mergeListingDays(ctx, f.ListingID, updated)
	if err != nil {
		return nil, err
	}
	sort.Slice(allDays, func(i, j int) bool { return allDays[i].Date.Before(allDays[j].Date) })
	reclassified := calendar.ReclassifyTrailing(allDays)

	byMonth := make(map[string][]*calendar.Day)
	for _, d := range allDays {
		byMonth[d.MonthID] = append(byMonth[d.MonthID], d)
	}

	// Reclassification can reach into months this fetch never delivered a
	// bucket for; those months changed too and must be recomputed.
	for _, d := range reclassified {
		if _, ok := months[d.MonthID]; ok {
			continue
		}
		month, err := p.loadOrCreateDayMonth(ctx, d, f.Now)
		if err != nil {
			return nil, err
		}
		months[d.MonthID] = month
	}

	monthList := make([]*calendar.Month, 0, len(months))
	for id, month := range months {
		next, err := calendar.UpdateWithDays(*month, byMonth[id], f.Now)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", f.ListingID, err)
		}
		*month = next
		monthList = append(monthList, month)
	}
	sort.Slice(monthList, func(i, j int) bool { return monthList[i].StartDate.Before(monthList[j].StartDate) })

	entities := make([]item.Entity, 0, len(allDays))
	for _, d := range allDays {
		entities = append(entities, d)
	}
	daysWritten, err := item.SaveMany(ctx, p.store, entities, item.SaveOptions{})
	if err != nil {
		return nil, err
	}
	monthEntities := make([]item.Entity, 0, len(monthList))
	for _, m := range monthList {
		monthEntities = append(monthEntities, m)
	}
	monthsWritten, err := item.SaveMany(ctx, p.store, monthEntities, item.SaveOptions{})
	if err != nil {
		return nil, err
	}

	p.log.WithFields(logger.Fields{
		"listing_id":     f.ListingID,
		"days_written":   daysWritten,
		"months_written": monthsWritten,
		"reclassified":   len(reclassified),
	}).Debug("applied fetch cycle")

	return &Result{
		Months:        monthList,
		DaysWritten:   daysWritten,
		MonthsWritten: monthsWritten,
		Reclassified:  len(reclassified),
	}, nil
}

// UpsertListing applies one search-crawl observation of a listing:
// load-or-create, overlay the observed fields, stamp the cycle instant,
// save if changed.
func (p *Processor) UpsertListing(ctx context.Context, observed *calendar.Listing, now time.Time) (*calendar.Listing, error) {
	id, err := observed.ID()
	if err != nil {
		return nil, err
	}

	doc, err := p.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	listing := calendar.NewListing(id, now)
	if doc != nil {
		listing, err = calendar.ListingFromDocument(doc)
		if err != nil {
			return nil, err
		}
	}
	listing.ApplyObserved(observed)
	listing.UpdateDate = now

	if _, err := item.Save(ctx, p.store, listing, item.SaveOptions{}); err != nil {
		return nil, err
	}
	return listing, nil
}

// mergeListingDays returns the listing's full persisted day set with this
// cycle's updated days overlaid, plus any updated days never persisted
// before. Untouched persisted days hydrate with their shadow intact, so
// saving them later is a no-op.
func (p *Processor) mergeListingDays(ctx context.Context, listingID string, updated map[string]*calendar.Day) ([]*calendar.Day, error) {
	docs, err := p.store.Find(ctx, item.Query{
		item.FieldItemType: string(item.KindDay),
		"listing_id":       listingID,
	}, "date")
	if err != nil {
		return nil, err
	}

	days := make([]*calendar.Day, 0, len(docs)+len(updated))
	persisted := make(map[string]bool, len(docs))
	for _, doc := range docs {
		id, _ := doc.String(item.FieldID)
		persisted[id] = true
		if day, ok := updated[id]; ok {
			days = append(days, day)
			continue
		}
		day, err := calendar.DayFromDocument(doc)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	for id, day := range updated {
		if !persisted[id] {
			days = append(days, day)
		}
	}
	return days, nil
}

func (p *Processor) loadOrCreateMonth(ctx context.Context, f Fetch, bucket MonthBucket) (*calendar.Month, error) {
	start, _ := calendar.MonthRange(bucket.Year, bucket.Month)
	monthID, err := calendar.MonthID(f.ListingID, start)
	if err != nil {
		return nil, err
	}
	doc, err := p.store.Load(ctx, monthID)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		return calendar.MonthFromDocument(doc)
	}
	timeZone, currency := bucketZone(bucket)
	return calendar.NewMonth(f.ListingID, timeZone, currency, bucket.Year, bucket.Month, f.Now), nil
}

// loadOrCreateDayMonth resolves the month a reclassified day belongs to.
// The month normally exists already (its days were created through a
// bucket); the create path only covers stores seeded by hand.
func (p *Processor) loadOrCreateDayMonth(ctx context.Context, d *calendar.Day, now time.Time) (*calendar.Month, error) {
	doc, err := p.store.Load(ctx, d.MonthID)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		return calendar.MonthFromDocument(doc)
	}
	return calendar.NewMonth(d.ListingID, d.TimeZone, d.Currency, d.Date.Year(), d.Date.Month(), now), nil
}

func (p *Processor) loadOrCreateDay(ctx context.Context, f Fetch, obs DayObservation) (*calendar.Day, error) {
	dayID, err := calendar.DayID(f.ListingID, obs.Date)
	if err != nil {
		return nil, err
	}
	doc, err := p.store.Load(ctx, dayID)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		day, err := calendar.DayFromDocument(doc)
		if err != nil {
			return nil, err
		}
		day.TimeZone = obs.TimeZone
		day.Currency = obs.Currency
		return day, nil
	}
	day := calendar.NewDay(f.ListingID, obs.TimeZone, obs.Date, f.Now)
	day.Currency = obs.Currency
	return day, nil
}

// bucketZone picks the bucket's zone and currency off its first
// observation; the crawler stamps them uniformly within one listing.
func bucketZone(bucket MonthBucket) (timeZone, currency string) {
	if len(bucket.Days) > 0 {
		return bucket.Days[0].TimeZone, bucket.Days[0].Currency
	}
	return "", ""
}
