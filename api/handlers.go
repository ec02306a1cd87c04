/*
handlers.go - Read-only HTTP handlers over the document store

PURPOSE:
  Operational inspection surface for crawled data. Strictly read-only:
  the crawl pipeline is the sole writer, and these handlers never touch
  an entity's persisted state.

ENDPOINTS:
  GET /api/listings                     List crawled listings
  GET /api/listings/{id}                One listing
  GET /api/listings/{id}/months         Month statistics, chronological
  GET /api/listings/{id}/calendar       Day set, ?month=YYYY-MM to filter
  GET /api/health                       Liveness probe

ERROR HANDLING:
  400 for malformed input, 404 for unknown identities, 500 for store
  failures. Errors are returned as {"error": "..."} JSON.

SEE ALSO:
  - dto.go: response shapes
  - server.go: router and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diatche/airbnb-scraper/calendar"
	"github.com/diatche/airbnb-scraper/item"
	"github.com/diatche/airbnb-scraper/logger"
)

// Handler serves the read-only API over the shared store.
type Handler struct {
	store item.Store
	log   *logger.Entry
}

// NewHandler creates a handler over the shared store.
func NewHandler(store item.Store, log *logger.Log) *Handler {
	return &Handler{store: store, log: log.WithComponent("api")}
}

func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.Find(r.Context(),
		item.Query{item.FieldItemType: string(item.KindListing)}, "listing_id")
	if err != nil {
		h.internalError(w, err)
		return
	}

	dtos := make([]ListingDTO, 0, len(docs))
	for _, doc := range docs {
		listing, err := calendar.ListingFromDocument(doc)
		if err != nil {
			h.internalError(w, err)
			return
		}
		dtos = append(dtos, toListingDTO(listing))
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.store.Load(r.Context(), id)
	if err != nil {
		h.internalError(w, err)
		return
	}
	if doc == nil {
		respondError(w, http.StatusNotFound, "listing not found")
		return
	}
	listing, err := calendar.ListingFromDocument(doc)
	if err != nil {
		h.internalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toListingDTO(listing))
}

func (h *Handler) ListMonths(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	docs, err := h.store.Find(r.Context(), item.Query{
		item.FieldItemType: string(item.KindMonth),
		"listing_id":       id,
	}, "start_date")
	if err != nil {
		h.internalError(w, err)
		return
	}

	dtos := make([]MonthDTO, 0, len(docs))
	for _, doc := range docs {
		month, err := calendar.MonthFromDocument(doc)
		if err != nil {
			h.internalError(w, err)
			return
		}
		dtos = append(dtos, toMonthDTO(month))
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ListCalendar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	query := item.Query{
		item.FieldItemType: string(item.KindDay),
		"listing_id":       id,
	}

	if monthParam := r.URL.Query().Get("month"); monthParam != "" {
		monthDate, err := time.Parse("2006-01", monthParam)
		if err != nil {
			respondError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		monthID, err := calendar.MonthID(id, monthDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		query["month_id"] = monthID
	}

	docs, err := h.store.Find(r.Context(), query, "date")
	if err != nil {
		h.internalError(w, err)
		return
	}

	dtos := make([]DayDTO, 0, len(docs))
	for _, doc := range docs {
		day, err := calendar.DayFromDocument(doc)
		if err != nil {
			h.internalError(w, err)
			return
		}
		dtos = append(dtos, toDayDTO(day))
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) internalError(w http.ResponseWriter, err error) {
	h.log.WithFields(logger.Fields{"error": err.Error()}).Error("request failed")
	respondError(w, http.StatusInternalServerError, "internal error")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
