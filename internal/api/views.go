package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pbxwatch/backend/internal/query"
	"github.com/rs/zerolog"
)

// ViewsHandler serves the derived analytics views
type ViewsHandler struct {
	facade *query.Facade
	logger zerolog.Logger
}

// NewViewsHandler creates a new ViewsHandler
func NewViewsHandler(facade *query.Facade, logger zerolog.Logger) *ViewsHandler {
	return &ViewsHandler{
		facade: facade,
		logger: logger.With().Str("component", "views_handler").Logger(),
	}
}

// GetThreads returns reconstructed call threads
// GET /api/threads?page=N&q=filter
func (h *ViewsHandler) GetThreads(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)
	result, err := h.facade.Threads(r.URL.Query().Get("q"), page)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build call threads")
		http.Error(w, "failed to build call threads", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// GetBilling returns the billing correlation view
// GET /api/billing?page=N&q=filter
func (h *ViewsHandler) GetBilling(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)
	result, err := h.facade.Billing(r.URL.Query().Get("q"), page)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build billing view")
		http.Error(w, "failed to build billing view", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// GetCountries returns the per-country call breakdown
// GET /api/countries
func (h *ViewsHandler) GetCountries(w http.ResponseWriter, r *http.Request) {
	counts, err := h.facade.Countries()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build country breakdown")
		http.Error(w, "failed to build country breakdown", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(counts)
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
