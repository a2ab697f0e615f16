package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pbxwatch/backend/internal/metrics"
	"github.com/pbxwatch/backend/internal/types"
	"github.com/rs/zerolog"
)

// maxLineSize bounds a single record line when scanning the log.
const maxLineSize = 1 << 20

// JSONLStore persists each stream as an append-only log with one JSON
// document per line. Appends are single O_APPEND writes, so concurrent
// writers never overwrite each other's records; a per-stream mutex
// additionally serializes in-process appenders.
type JSONLStore struct {
	dir    string
	logger zerolog.Logger
	logs   map[Stream]*streamLog
}

type streamLog struct {
	path string
	mu   sync.Mutex
}

// NewJSONLStore creates a JSONL store rooted at dir, creating it if needed.
func NewJSONLStore(dir string, logger zerolog.Logger) (*JSONLStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}

	logs := make(map[Stream]*streamLog, len(Streams))
	for _, stream := range Streams {
		logs[stream] = &streamLog{path: filepath.Join(dir, string(stream)+".jsonl")}
	}

	logger.Info().Str("dir", dir).Msg("JSONL store initialized")

	return &JSONLStore{
		dir:    dir,
		logger: logger.With().Str("component", "jsonl_store").Logger(),
		logs:   logs,
	}, nil
}

// append marshals the record and writes it as one line in a single write
// call. The file is opened per append so log rotation or deletion between
// requests is harmless.
func (s *JSONLStore) append(stream Stream, record interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", stream, err)
	}
	data = append(data, '\n')

	l := s.logs[stream]
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s log: %w", stream, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to append %s record: %w", stream, err)
	}
	return nil
}

// readLines returns the raw record lines of a stream. A missing file reads
// as an empty stream.
func (s *JSONLStore) readLines(stream Stream) ([][]byte, error) {
	f, err := os.Open(s.logs[stream].path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s log: %w", stream, err)
	}
	defer f.Close()

	var lines [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		// Scanner reuses its buffer, copy the line out
		lines = append(lines, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s log: %w", stream, err)
	}
	return lines, nil
}

// readRecords decodes every line of a stream log, skipping lines that do
// not parse. Corruption is logged and counted rather than surfaced so the
// read path keeps serving dashboards.
func readRecords[T any](s *JSONLStore, stream Stream) ([]T, error) {
	lines, err := s.readLines(stream)
	if err != nil {
		return nil, err
	}

	records := make([]T, 0, len(lines))
	for i, line := range lines {
		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			metrics.Get().RecordCorruptLine(string(stream))
			s.logger.Warn().
				Err(err).
				Str("stream", string(stream)).
				Int("line", i+1).
				Msg("skipping corrupt record line")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *JSONLStore) ReadCalls() ([]types.CallRecord, error) {
	return readRecords[types.CallRecord](s, StreamCalls)
}

func (s *JSONLStore) AppendCall(record types.CallRecord) error {
	return s.append(StreamCalls, record)
}

func (s *JSONLStore) ReadAdvancedCalls() ([]types.AdvancedCallEvent, error) {
	return readRecords[types.AdvancedCallEvent](s, StreamAdvancedCalls)
}

func (s *JSONLStore) AppendAdvancedCall(event types.AdvancedCallEvent) error {
	return s.append(StreamAdvancedCalls, event)
}

func (s *JSONLStore) ReadAgentStatus() ([]types.AgentStatusRecord, error) {
	return readRecords[types.AgentStatusRecord](s, StreamAgentStatus)
}

func (s *JSONLStore) AppendAgentStatus(record types.AgentStatusRecord) error {
	return s.append(StreamAgentStatus, record)
}

func (s *JSONLStore) ReadProfileAvailability() ([]types.ProfileAvailabilityRecord, error) {
	return readRecords[types.ProfileAvailabilityRecord](s, StreamProfileAvailability)
}

func (s *JSONLStore) AppendProfileAvailability(record types.ProfileAvailabilityRecord) error {
	return s.append(StreamProfileAvailability, record)
}

// ClearAll removes every stream log. Each stream is cleared independently;
// failures are collected and reported together.
func (s *JSONLStore) ClearAll() error {
	failed := make(map[Stream]error)
	for _, stream := range Streams {
		l := s.logs[stream]
		l.mu.Lock()
		err := os.Remove(l.path)
		l.mu.Unlock()
		if err != nil && !os.IsNotExist(err) {
			s.logger.Error().Err(err).Str("stream", string(stream)).Msg("failed to clear stream")
			failed[stream] = err
			continue
		}
		s.logger.Info().Str("stream", string(stream)).Msg("stream cleared")
	}
	return clearError(failed)
}
