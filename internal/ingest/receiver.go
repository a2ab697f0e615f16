// Package ingest is the boundary between the PBX push feed and the record
// store: it validates and normalizes inbound payloads per stream, tolerating
// malformed elements inside batches.
package ingest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pbxwatch/backend/internal/metrics"
	"github.com/pbxwatch/backend/internal/storage"
	"github.com/rs/zerolog"
)

// maxBodySize bounds one ingestion request body.
const maxBodySize = 10 << 20

// Receiver handles incoming telemetry pushed by the PBX
type Receiver struct {
	store           storage.Store
	logger          zerolog.Logger
	recordsAccepted int64
	recordsSkipped  int64
	lastReceived    time.Time
	mu              sync.RWMutex
}

// NewReceiver creates a new telemetry receiver
func NewReceiver(store storage.Store, logger zerolog.Logger) *Receiver {
	return &Receiver{
		store:  store,
		logger: logger.With().Str("component", "ingest").Logger(),
	}
}

// HandleCalls ingests CallRecord payloads (POST /stream)
func (r *Receiver) HandleCalls(w http.ResponseWriter, req *http.Request) {
	ingestStream(r, w, req, storage.StreamCalls,
		ValidateCall, ValidateCallBatch, r.store.AppendCall)
}

// HandleAdvancedCalls ingests AdvancedCallEvent payloads (POST /stream/advanced-calls)
func (r *Receiver) HandleAdvancedCalls(w http.ResponseWriter, req *http.Request) {
	ingestStream(r, w, req, storage.StreamAdvancedCalls,
		ValidateAdvancedCall, ValidateAdvancedCallBatch, r.store.AppendAdvancedCall)
}

// HandleAgentStatus ingests AgentStatusRecord payloads (POST /stream/agent-status)
func (r *Receiver) HandleAgentStatus(w http.ResponseWriter, req *http.Request) {
	ingestStream(r, w, req, storage.StreamAgentStatus,
		ValidateAgentStatus, ValidateAgentStatus, r.store.AppendAgentStatus)
}

// HandleProfileAvailability ingests ProfileAvailabilityRecord payloads
// (POST /stream/profile-availability)
func (r *Receiver) HandleProfileAvailability(w http.ResponseWriter, req *http.Request) {
	ingestStream(r, w, req, storage.StreamProfileAvailability,
		ValidateProfileAvailability, ValidateProfileAvailability, r.store.AppendProfileAvailability)
}

// ingestStream decodes a request body that is either a single record object
// or an array of record objects. Single objects are validated strictly and
// rejected whole; inside an array a malformed element is skipped and the
// rest of the batch still lands. Every accepted record is one append.
func ingestStream[T any](
	r *Receiver,
	w http.ResponseWriter,
	req *http.Request,
	stream storage.Stream,
	validateSingle func(T) error,
	validateBatch func(T) error,
	appendRecord func(T) error,
) {
	m := metrics.Get()

	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodySize))
	if err != nil {
		r.logger.Error().Err(err).Str("stream", string(stream)).Msg("failed to read request body")
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	switch trimmed[0] {
	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			r.logger.Warn().Err(err).Str("stream", string(stream)).Msg("malformed batch payload")
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		accepted, skipped := 0, 0
		for i, raw := range elements {
			var rec T
			if err := json.Unmarshal(raw, &rec); err != nil {
				r.recordSkip(m, stream, i, err)
				skipped++
				continue
			}
			if err := validateBatch(rec); err != nil {
				r.recordSkip(m, stream, i, err)
				skipped++
				continue
			}
			if err := appendRecord(rec); err != nil {
				r.logger.Error().Err(err).Str("stream", string(stream)).Msg("failed to append record")
				m.RecordStorageError()
				http.Error(w, "storage failure", http.StatusInternalServerError)
				return
			}
			m.RecordAccepted(string(stream))
			accepted++
		}

		r.recordBatch(accepted, skipped)
		r.logger.Info().
			Str("stream", string(stream)).
			Int("accepted", accepted).
			Int("skipped", skipped).
			Msg("batch ingested")
		writeConfirmation(w)

	case '{':
		var rec T
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			r.logger.Warn().Err(err).Str("stream", string(stream)).Msg("malformed record payload")
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		if err := validateSingle(rec); err != nil {
			r.logger.Warn().Err(err).Str("stream", string(stream)).Msg("rejected record")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := appendRecord(rec); err != nil {
			r.logger.Error().Err(err).Str("stream", string(stream)).Msg("failed to append record")
			m.RecordStorageError()
			http.Error(w, "storage failure", http.StatusInternalServerError)
			return
		}

		m.RecordAccepted(string(stream))
		r.recordBatch(1, 0)
		writeConfirmation(w)

	default:
		http.Error(w, "invalid payload", http.StatusBadRequest)
	}
}

func (r *Receiver) recordSkip(m *metrics.Metrics, stream storage.Stream, index int, err error) {
	m.RecordSkipped(string(stream))
	r.logger.Warn().
		Err(err).
		Str("stream", string(stream)).
		Int("element", index).
		Msg("skipping malformed batch element")
}

func (r *Receiver) recordBatch(accepted, skipped int) {
	atomic.AddInt64(&r.recordsAccepted, int64(accepted))
	atomic.AddInt64(&r.recordsSkipped, int64(skipped))
	if accepted > 0 {
		r.mu.Lock()
		r.lastReceived = time.Now()
		r.mu.Unlock()
	}
}

func writeConfirmation(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"data received"}`))
}

// GetStats returns receiver statistics
func (r *Receiver) GetStats(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	lastReceived := r.lastReceived
	r.mu.RUnlock()

	stats := map[string]interface{}{
		"records_accepted": atomic.LoadInt64(&r.recordsAccepted),
		"records_skipped":  atomic.LoadInt64(&r.recordsSkipped),
		"last_received":    lastReceived,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
