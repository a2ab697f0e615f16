package storage

import (
	"fmt"

	"github.com/pbxwatch/backend/internal/types"
	"github.com/rs/zerolog"
)

// Stream identifies one of the four independent record streams.
type Stream string

const (
	StreamCalls               Stream = "calls"
	StreamAdvancedCalls       Stream = "advanced-calls"
	StreamAgentStatus         Stream = "agent-status"
	StreamProfileAvailability Stream = "profile-availability"
)

// Streams lists all record streams in a stable order.
var Streams = []Stream{
	StreamCalls,
	StreamAdvancedCalls,
	StreamAgentStatus,
	StreamProfileAvailability,
}

// Store defines the record store interface. Reads on a missing or unparsable
// stream return an empty sequence, never an error; append failures surface
// as errors. Records are immutable once appended.
type Store interface {
	ReadCalls() ([]types.CallRecord, error)
	AppendCall(record types.CallRecord) error
	ReadAdvancedCalls() ([]types.AdvancedCallEvent, error)
	AppendAdvancedCall(event types.AdvancedCallEvent) error
	ReadAgentStatus() ([]types.AgentStatusRecord, error)
	AppendAgentStatus(record types.AgentStatusRecord) error
	ReadProfileAvailability() ([]types.ProfileAvailabilityRecord, error)
	AppendProfileAvailability(record types.ProfileAvailabilityRecord) error
	// ClearAll resets every stream. Streams are cleared independently: a
	// failure on one stream does not stop the others.
	ClearAll() error
}

// NewStore creates the appropriate store based on configuration
func NewStore(logger zerolog.Logger) (Store, error) {
	cfg := LoadStoreConfig(logger)

	switch cfg.Backend {
	case BackendJSONL:
		return NewJSONLStore(cfg.DataDir, logger)
	case BackendSnapshot:
		return NewSnapshotStore(cfg.DataDir, logger)
	default:
		logger.Info().Msg("persistence disabled (STORE_BACKEND=none)")
		return NewNoopStore(), nil
	}
}

// NoopStore is a no-op implementation when persistence is disabled
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) ReadCalls() ([]types.CallRecord, error)             { return nil, nil }
func (s *NoopStore) AppendCall(_ types.CallRecord) error                { return nil }
func (s *NoopStore) ReadAdvancedCalls() ([]types.AdvancedCallEvent, error) {
	return nil, nil
}
func (s *NoopStore) AppendAdvancedCall(_ types.AdvancedCallEvent) error { return nil }
func (s *NoopStore) ReadAgentStatus() ([]types.AgentStatusRecord, error) {
	return nil, nil
}
func (s *NoopStore) AppendAgentStatus(_ types.AgentStatusRecord) error { return nil }
func (s *NoopStore) ReadProfileAvailability() ([]types.ProfileAvailabilityRecord, error) {
	return nil, nil
}
func (s *NoopStore) AppendProfileAvailability(_ types.ProfileAvailabilityRecord) error {
	return nil
}
func (s *NoopStore) ClearAll() error { return nil }

// clearError aggregates per-stream clear failures while letting every
// stream get its chance to reset.
func clearError(failed map[Stream]error) error {
	if len(failed) == 0 {
		return nil
	}
	msg := ""
	for _, stream := range Streams {
		if err, ok := failed[stream]; ok {
			if msg != "" {
				msg += "; "
			}
			msg += fmt.Sprintf("%s: %v", stream, err)
		}
	}
	return fmt.Errorf("failed to clear streams: %s", msg)
}
