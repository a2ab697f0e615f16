package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pbxwatch/backend/internal/metrics"
	"github.com/pbxwatch/backend/internal/types"
	"github.com/rs/zerolog"
)

// SnapshotStore persists each stream as a single JSON array, rewritten whole
// on every append. The historical PBX layout. The read-modify-write cycle is
// held under a per-stream mutex and the new snapshot lands via rename, so
// in-process appenders cannot lose each other's records.
type SnapshotStore struct {
	dir    string
	logger zerolog.Logger
	locks  map[Stream]*sync.Mutex
}

// NewSnapshotStore creates a snapshot store rooted at dir.
func NewSnapshotStore(dir string, logger zerolog.Logger) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}

	locks := make(map[Stream]*sync.Mutex, len(Streams))
	for _, stream := range Streams {
		locks[stream] = &sync.Mutex{}
	}

	logger.Info().Str("dir", dir).Msg("snapshot store initialized")

	return &SnapshotStore{
		dir:    dir,
		logger: logger.With().Str("component", "snapshot_store").Logger(),
		locks:  locks,
	}, nil
}

func (s *SnapshotStore) path(stream Stream) string {
	return filepath.Join(s.dir, string(stream)+".json")
}

// readSnapshot loads a stream's array. A missing file is an empty stream; an
// unparsable file is treated as empty too, with a warning and a metric, so
// the read path never blocks on corruption.
func readSnapshot[T any](s *SnapshotStore, stream Stream) ([]T, error) {
	data, err := os.ReadFile(s.path(stream))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s snapshot: %w", stream, err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		metrics.Get().RecordCorruptLine(string(stream))
		s.logger.Warn().
			Err(err).
			Str("stream", string(stream)).
			Msg("corrupt snapshot, treating stream as empty")
		return nil, nil
	}
	return records, nil
}

// appendSnapshot reads the current array, pushes the record and writes the
// whole array back through a temp file and rename.
func appendSnapshot[T any](s *SnapshotStore, stream Stream, record T) error {
	lock := s.locks[stream]
	lock.Lock()
	defer lock.Unlock()

	records, err := readSnapshot[T](s, stream)
	if err != nil {
		return err
	}
	records = append(records, record)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s snapshot: %w", stream, err)
	}

	tmp := s.path(stream) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s snapshot: %w", stream, err)
	}
	if err := os.Rename(tmp, s.path(stream)); err != nil {
		return fmt.Errorf("failed to replace %s snapshot: %w", stream, err)
	}
	return nil
}

func (s *SnapshotStore) ReadCalls() ([]types.CallRecord, error) {
	return readSnapshot[types.CallRecord](s, StreamCalls)
}

func (s *SnapshotStore) AppendCall(record types.CallRecord) error {
	return appendSnapshot(s, StreamCalls, record)
}

func (s *SnapshotStore) ReadAdvancedCalls() ([]types.AdvancedCallEvent, error) {
	return readSnapshot[types.AdvancedCallEvent](s, StreamAdvancedCalls)
}

func (s *SnapshotStore) AppendAdvancedCall(event types.AdvancedCallEvent) error {
	return appendSnapshot(s, StreamAdvancedCalls, event)
}

func (s *SnapshotStore) ReadAgentStatus() ([]types.AgentStatusRecord, error) {
	return readSnapshot[types.AgentStatusRecord](s, StreamAgentStatus)
}

func (s *SnapshotStore) AppendAgentStatus(record types.AgentStatusRecord) error {
	return appendSnapshot(s, StreamAgentStatus, record)
}

func (s *SnapshotStore) ReadProfileAvailability() ([]types.ProfileAvailabilityRecord, error) {
	return readSnapshot[types.ProfileAvailabilityRecord](s, StreamProfileAvailability)
}

func (s *SnapshotStore) AppendProfileAvailability(record types.ProfileAvailabilityRecord) error {
	return appendSnapshot(s, StreamProfileAvailability, record)
}

// ClearAll removes every stream snapshot independently.
func (s *SnapshotStore) ClearAll() error {
	failed := make(map[Stream]error)
	for _, stream := range Streams {
		lock := s.locks[stream]
		lock.Lock()
		err := os.Remove(s.path(stream))
		lock.Unlock()
		if err != nil && !os.IsNotExist(err) {
			s.logger.Error().Err(err).Str("stream", string(stream)).Msg("failed to clear stream")
			failed[stream] = err
			continue
		}
		s.logger.Info().Str("stream", string(stream)).Msg("stream cleared")
	}
	return clearError(failed)
}
