/*
listing.go - The Listing entity

One rentable unit, refreshed once per crawl pass that observes it and never
deleted. The field set mirrors what the search crawler can read off a
result card; everything here is raw observed fact, nothing inferred.
*/
package calendar

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/diatche/airbnb-scraper/item"
)

// Listing is one rentable unit.
type Listing struct {
	item.Record

	ListingID string
	URL       string
	Name      string
	TimeZone  string
	Currency  string

	Lat float64
	Lng float64

	LocalizedCity         string
	LocalizedNeighborhood string

	PersonCapacity int
	ReviewsCount   int
	StarRating     *decimal.Decimal

	// Nightly rate as displayed, with and without the service fee.
	Rate               *decimal.Decimal
	RateWithServiceFee *decimal.Decimal

	IsSuperhost bool
	HostID      string
}

// NewListing creates a fresh Listing entity.
func NewListing(listingID string, now time.Time) *Listing {
	return &Listing{Record: item.NewRecord(now), ListingID: listingID}
}

// ApplyObserved overlays freshly crawled fields onto the listing, leaving
// the meta block and shadow untouched.
func (l *Listing) ApplyObserved(obs *Listing) {
	l.ListingID = obs.ListingID
	l.URL = obs.URL
	l.Name = obs.Name
	l.TimeZone = obs.TimeZone
	l.Currency = obs.Currency
	l.Lat = obs.Lat
	l.Lng = obs.Lng
	l.LocalizedCity = obs.LocalizedCity
	l.LocalizedNeighborhood = obs.LocalizedNeighborhood
	l.PersonCapacity = obs.PersonCapacity
	l.ReviewsCount = obs.ReviewsCount
	l.StarRating = obs.StarRating
	l.Rate = obs.Rate
	l.RateWithServiceFee = obs.RateWithServiceFee
	l.IsSuperhost = obs.IsSuperhost
	l.HostID = obs.HostID
}

// ID returns the listing identifier; listings use it directly as their
// identity key.
func (l *Listing) ID() (string, error) {
	if l.ListingID == "" {
		return "", item.ErrMissingIdentity
	}
	return l.ListingID, nil
}

func (l *Listing) Kind() item.Kind { return item.KindListing }

func (l *Listing) Validate() error {
	_, err := l.ID()
	return err
}

// Document serializes the listing, omitting fields never set.
func (l *Listing) Document() (item.Document, error) {
	id, err := l.ID()
	if err != nil {
		return nil, err
	}
	doc := l.MetaDocument(id, item.KindListing)
	doc["listing_id"] = l.ListingID
	doc["is_superhost"] = l.IsSuperhost
	putString(doc, "url", l.URL)
	putString(doc, "listing_name", l.Name)
	putString(doc, "time_zone", l.TimeZone)
	putString(doc, "currency", l.Currency)
	putString(doc, "localized_city", l.LocalizedCity)
	putString(doc, "localized_neighborhood", l.LocalizedNeighborhood)
	putString(doc, "host_id", l.HostID)
	if l.Lat != 0 || l.Lng != 0 {
		doc["lat"] = l.Lat
		doc["lng"] = l.Lng
	}
	if l.PersonCapacity != 0 {
		doc["person_capacity"] = l.PersonCapacity
	}
	if l.ReviewsCount != 0 {
		doc["reviews_count"] = l.ReviewsCount
	}
	putDecimal2(doc, "star_rating", l.StarRating)
	putDecimal2(doc, "rate", l.Rate)
	putDecimal2(doc, "rate_with_service_fee", l.RateWithServiceFee)
	return doc, nil
}

// ListingFromDocument rebuilds a Listing from its persisted form.
func ListingFromDocument(doc item.Document) (*Listing, error) {
	l := &Listing{}
	l.HydrateMeta(doc)
	l.ListingID, _ = doc.String("listing_id")
	l.URL, _ = doc.String("url")
	l.Name, _ = doc.String("listing_name")
	l.TimeZone, _ = doc.String("time_zone")
	l.Currency, _ = doc.String("currency")
	l.LocalizedCity, _ = doc.String("localized_city")
	l.LocalizedNeighborhood, _ = doc.String("localized_neighborhood")
	l.HostID, _ = doc.String("host_id")
	l.IsSuperhost, _ = doc.Bool("is_superhost")
	if d, ok := doc.Decimal("lat"); ok {
		l.Lat, _ = d.Float64()
	}
	if d, ok := doc.Decimal("lng"); ok {
		l.Lng, _ = d.Float64()
	}
	l.PersonCapacity, _ = doc.Int("person_capacity")
	l.ReviewsCount, _ = doc.Int("reviews_count")
	l.StarRating = getDecimal(doc, "star_rating")
	l.Rate = getDecimal(doc, "rate")
	l.RateWithServiceFee = getDecimal(doc, "rate_with_service_fee")
	if _, err := l.ID(); err != nil {
		return nil, err
	}
	return l, nil
}

func putString(doc item.Document, key, val string) {
	if val != "" {
		doc[key] = val
	}
}

// putDecimal2 omits unset decimals entirely; listings have no explicit
// null semantics, unlike month statistics.
func putDecimal2(doc item.Document, key string, d *decimal.Decimal) {
	if d != nil {
		doc[key] = *d
	}
}
