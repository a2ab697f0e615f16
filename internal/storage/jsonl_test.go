package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pbxwatch/backend/internal/types"
	"github.com/rs/zerolog"
)

func newTestJSONLStore(t *testing.T) *JSONLStore {
	t.Helper()
	store, err := NewJSONLStore(t.TempDir(), zerolog.New(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestJSONLReadMissingStreamReturnsEmpty(t *testing.T) {
	store := newTestJSONLStore(t)

	calls, err := store.ReadCalls()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("expected empty stream, got %d records", len(calls))
	}

	// Append still succeeds after the empty read
	err = store.AppendCall(types.CallRecord{
		CallID:        "c1",
		EnterDatetime: "2024-05-01T10:00:00Z",
		Status:        "Completed",
		QueueName:     "Sales",
	})
	if err != nil {
		t.Fatalf("append after empty read failed: %v", err)
	}

	calls, err = store.ReadCalls()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 1 || calls[0].CallID != "c1" {
		t.Errorf("expected one record c1, got %+v", calls)
	}
}

func TestJSONLAppendReadRoundTrip(t *testing.T) {
	store := newTestJSONLStore(t)

	events := []types.AdvancedCallEvent{
		{CallID: "c1", EnterDatetime: "2024-05-01T10:00:00Z", Status: "Completed", StatusDetail: "Outgoing", AgentID: "a1"},
		{CallID: "c2", ParentCallID: "c1", EnterDatetime: "2024-05-01T10:00:30Z", Status: "Completed", StatusDetail: "Transfer"},
	}
	for _, e := range events {
		if err := store.AppendAdvancedCall(e); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	got, err := store.ReadAdvancedCalls()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].CallID != "c1" || got[1].ParentCallID != "c1" {
		t.Errorf("records not preserved in append order: %+v", got)
	}
}

func TestJSONLSkipsCorruptLines(t *testing.T) {
	store := newTestJSONLStore(t)

	if err := store.AppendCall(types.CallRecord{CallID: "c1", EnterDatetime: "2024-05-01T10:00:00Z", Status: "Completed", QueueName: "Sales"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	// Inject a corrupt line between two valid ones
	f, err := os.OpenFile(store.logs[StreamCalls].path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	f.WriteString("{not json\n")
	f.Close()

	if err := store.AppendCall(types.CallRecord{CallID: "c2", EnterDatetime: "2024-05-01T11:00:00Z", Status: "Missed", QueueName: "Sales"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	calls, err := store.ReadCalls()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected corrupt line to be skipped, got %d records", len(calls))
	}
	if calls[0].CallID != "c1" || calls[1].CallID != "c2" {
		t.Errorf("unexpected records: %+v", calls)
	}
}

func TestJSONLConcurrentAppendsLoseNothing(t *testing.T) {
	store := newTestJSONLStore(t)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := store.AppendAgentStatus(types.AgentStatusRecord{
				UserID: "u1", User: "Alice", Date: "2024-05-01", Hour: n % 24, LoggedIn: 60,
			})
			if err != nil {
				t.Errorf("append failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	records, err := store.ReadAgentStatus()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(records) != writers {
		t.Errorf("expected %d records, got %d (lost update)", writers, len(records))
	}
}

func TestJSONLClearAllIndependentPerStream(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONLStore(dir, zerolog.New(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := store.AppendCall(types.CallRecord{CallID: "c1", EnterDatetime: "2024-05-01T10:00:00Z", Status: "Completed", QueueName: "Sales"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := store.AppendAgentStatus(types.AgentStatusRecord{UserID: "u1", User: "Alice", Date: "2024-05-01"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	// Make the advanced-calls log unremovable: replace it with a non-empty
	// directory so os.Remove fails.
	advPath := store.logs[StreamAdvancedCalls].path
	if err := os.MkdirAll(filepath.Join(advPath, "blocker"), 0o755); err != nil {
		t.Fatalf("failed to set up blocker: %v", err)
	}

	err = store.ClearAll()
	if err == nil {
		t.Fatal("expected ClearAll to report the failing stream")
	}

	// The other streams must still be cleared
	if _, statErr := os.Stat(store.logs[StreamCalls].path); !os.IsNotExist(statErr) {
		t.Error("calls stream was not cleared")
	}
	if _, statErr := os.Stat(store.logs[StreamAgentStatus].path); !os.IsNotExist(statErr) {
		t.Error("agent-status stream was not cleared")
	}
}
