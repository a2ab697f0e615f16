package api

import (
	"encoding/json"
	"net/http"

	"github.com/pbxwatch/backend/internal/query"
	"github.com/pbxwatch/backend/internal/storage"
	"github.com/rs/zerolog"
)

// DataHandler provides the aggregate read endpoint and the destructive
// clear endpoint over the record store
type DataHandler struct {
	store  storage.Store
	facade *query.Facade
	logger zerolog.Logger
}

// NewDataHandler creates a new DataHandler
func NewDataHandler(store storage.Store, facade *query.Facade, logger zerolog.Logger) *DataHandler {
	return &DataHandler{
		store:  store,
		facade: facade,
		logger: logger.With().Str("component", "data_handler").Logger(),
	}
}

// GetData returns the full current contents of all four streams
// GET /api/data
func (h *DataHandler) GetData(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.facade.Snapshot()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read data snapshot")
		http.Error(w, "failed to fetch data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

// DeleteData clears all stored records across every stream
// POST /api/data/delete
func (h *DataHandler) DeleteData(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearAll(); err != nil {
		h.logger.Error().Err(err).Msg("failed to clear data")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": err.Error()})
		return
	}

	h.facade.Invalidate()
	h.logger.Info().Msg("all stream data cleared")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "all data has been deleted"})
}
