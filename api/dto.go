/*
dto.go - Data Transfer Objects for API responses

PURPOSE:
  JSON shapes returned to clients, decoupled from the internal entities.
  Nullable statistics stay nullable in the DTO: a null means the figure
  was withheld for confidence reasons, and clients must be able to see
  that distinction.

SEE ALSO:
  - handlers.go: builds these from loaded entities
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/diatche/airbnb-scraper/calendar"
)

// ListingDTO represents a listing in API responses.
type ListingDTO struct {
	ID           string           `json:"id"`
	URL          string           `json:"url,omitempty"`
	Name         string           `json:"name,omitempty"`
	TimeZone     string           `json:"time_zone,omitempty"`
	Currency     string           `json:"currency,omitempty"`
	City         string           `json:"city,omitempty"`
	Neighborhood string           `json:"neighborhood,omitempty"`
	StarRating   *decimal.Decimal `json:"star_rating,omitempty"`
	Rate         *decimal.Decimal `json:"rate,omitempty"`
	IsSuperhost  bool             `json:"is_superhost"`
	UpdatedAt    string           `json:"updated_at"`
}

// MonthDTO represents one listing-month's rollup statistics.
type MonthDTO struct {
	ID               string           `json:"id"`
	ListingID        string           `json:"listing_id"`
	Year             int              `json:"year"`
	Month            int              `json:"month"`
	Currency         string           `json:"currency,omitempty"`
	Availability     decimal.Decimal  `json:"availability"`
	CancellationRate decimal.Decimal  `json:"cancellation_rate"`
	BlockRate        decimal.Decimal  `json:"block_rate"`
	Revenue          *decimal.Decimal `json:"revenue"`
	PartialRevenue   decimal.Decimal  `json:"partial_revenue"`
	FutureRevenue    decimal.Decimal  `json:"future_revenue"`
	AveragePrice     *decimal.Decimal `json:"average_price"`
	MedianPrice      *decimal.Decimal `json:"median_price"`
	LowestPrice      *decimal.Decimal `json:"lowest_price"`
	HighestPrice     *decimal.Decimal `json:"highest_price"`
	Errors           []string         `json:"errors"`
	IsDataComplete   bool             `json:"is_data_complete"`
	UpdatedAt        string           `json:"updated_at"`
}

// DayDTO represents one calendar night.
type DayDTO struct {
	ID               string           `json:"id"`
	Date             string           `json:"date"`
	Available        bool             `json:"available"`
	Blocked          bool             `json:"blocked"`
	Price            *decimal.Decimal `json:"price"`
	BookingDate      *time.Time       `json:"booking_date"`
	CancellationDate *time.Time       `json:"cancellation_date"`
	Cancellations    int              `json:"cancellations"`
}

func toListingDTO(l *calendar.Listing) ListingDTO {
	id, _ := l.ID()
	return ListingDTO{
		ID:           id,
		URL:          l.URL,
		Name:         l.Name,
		TimeZone:     l.TimeZone,
		Currency:     l.Currency,
		City:         l.LocalizedCity,
		Neighborhood: l.LocalizedNeighborhood,
		StarRating:   l.StarRating,
		Rate:         l.Rate,
		IsSuperhost:  l.IsSuperhost,
		UpdatedAt:    l.UpdateDate.Format(time.RFC3339),
	}
}

func toMonthDTO(m *calendar.Month) MonthDTO {
	id, _ := m.ID()
	errs := m.Errors
	if errs == nil {
		errs = []string{}
	}
	return MonthDTO{
		ID:               id,
		ListingID:        m.ListingID,
		Year:             m.Year,
		Month:            int(m.MonthOfYear),
		Currency:         m.Currency,
		Availability:     m.Availability,
		CancellationRate: m.CancellationRate,
		BlockRate:        m.BlockRate,
		Revenue:          m.Revenue,
		PartialRevenue:   m.PartialRevenue,
		FutureRevenue:    m.FutureRevenue,
		AveragePrice:     m.AveragePrice,
		MedianPrice:      m.MedianPrice,
		LowestPrice:      m.LowestPrice,
		HighestPrice:     m.HighestPrice,
		Errors:           errs,
		IsDataComplete:   m.DataComplete,
		UpdatedAt:        m.UpdateDate.Format(time.RFC3339),
	}
}

func toDayDTO(d *calendar.Day) DayDTO {
	id, _ := d.ID()
	return DayDTO{
		ID:               id,
		Date:             d.Date.Format("2006-01-02"),
		Available:        d.Available,
		Blocked:          d.Blocked,
		Price:            d.Price,
		BookingDate:      d.BookingDate,
		CancellationDate: d.CancellationDate,
		Cancellations:    d.Cancellations,
	}
}
