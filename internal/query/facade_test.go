package query

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/pbxwatch/backend/internal/storage"
	"github.com/pbxwatch/backend/internal/types"
	"github.com/rs/zerolog"
)

func newTestFacade(t *testing.T) (*Facade, storage.Store) {
	t.Helper()
	store, err := storage.NewJSONLStore(t.TempDir(), zerolog.New(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return New(store, zerolog.New(&bytes.Buffer{})), store
}

func TestSnapshotEmptyStoreReturnsEmptySlices(t *testing.T) {
	facade, _ := newTestFacade(t)

	snap, err := facade.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snap.Calls == nil || snap.AdvancedCalls == nil || snap.AgentStatus == nil || snap.ProfileAvailability == nil {
		t.Error("snapshot slices must be non-nil for JSON serialization")
	}
	if len(snap.Calls) != 0 {
		t.Errorf("expected empty calls, got %d", len(snap.Calls))
	}
}

func TestSnapshotReturnsAllStreams(t *testing.T) {
	facade, store := newTestFacade(t)

	store.AppendCall(types.CallRecord{CallID: "c1", EnterDatetime: "2024-05-01T10:00:00Z", Status: "Completed", QueueName: "Sales"})
	store.AppendAdvancedCall(types.AdvancedCallEvent{CallID: "c1", EnterDatetime: "2024-05-01T10:00:00Z", Status: "Completed"})
	store.AppendAgentStatus(types.AgentStatusRecord{UserID: "u1", User: "Alice", Date: "2024-05-01", Hour: 10})
	store.AppendProfileAvailability(types.ProfileAvailabilityRecord{UserID: "u1", User: "Alice", Date: "2024-05-01", Hour: 10})

	snap, err := facade.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(snap.Calls) != 1 || len(snap.AdvancedCalls) != 1 || len(snap.AgentStatus) != 1 || len(snap.ProfileAvailability) != 1 {
		t.Errorf("expected one record per stream, got %+v", snap)
	}
}

func TestThreadsFilterAndPagination(t *testing.T) {
	facade, store := newTestFacade(t)

	for i := 0; i < 25; i++ {
		store.AppendAdvancedCall(types.AdvancedCallEvent{
			CallID:        fmt.Sprintf("c%02d", i),
			EnterDatetime: fmt.Sprintf("2024-05-01T10:%02d:00Z", i),
			Status:        "Completed",
			QueueName:     "Sales",
		})
	}
	store.AppendAdvancedCall(types.AdvancedCallEvent{
		CallID:        "special",
		EnterDatetime: "2024-05-01T11:00:00Z",
		Status:        "Completed",
		QueueName:     "Support",
	})

	// 26 threads, page size 20
	page1, err := facade.Threads("", 1)
	if err != nil {
		t.Fatalf("threads failed: %v", err)
	}
	if page1.Total != 26 || page1.TotalPages != 2 || len(page1.Threads) != 20 {
		t.Errorf("page 1: total=%d totalPages=%d len=%d", page1.Total, page1.TotalPages, len(page1.Threads))
	}

	page2, err := facade.Threads("", 2)
	if err != nil {
		t.Fatalf("threads failed: %v", err)
	}
	if len(page2.Threads) != 6 {
		t.Errorf("page 2: expected 6 threads, got %d", len(page2.Threads))
	}

	// Most recent thread first
	if page1.Threads[0].RootID != "special" {
		t.Errorf("expected most recent thread first, got %s", page1.Threads[0].RootID)
	}

	// Filter matches across fields, case-insensitively
	filtered, err := facade.Threads("SUPPORT", 1)
	if err != nil {
		t.Fatalf("threads failed: %v", err)
	}
	if filtered.Total != 1 || filtered.Threads[0].RootID != "special" {
		t.Errorf("expected only the Support thread, got %+v", filtered)
	}
}

func TestThreadsPageBeyondRangeIsEmpty(t *testing.T) {
	facade, store := newTestFacade(t)
	store.AppendAdvancedCall(types.AdvancedCallEvent{CallID: "c1", EnterDatetime: "2024-05-01T10:00:00Z", Status: "Completed"})

	page, err := facade.Threads("", 9)
	if err != nil {
		t.Fatalf("threads failed: %v", err)
	}
	if len(page.Threads) != 0 {
		t.Errorf("expected empty page, got %d threads", len(page.Threads))
	}
	if page.Total != 1 {
		t.Errorf("expected total 1, got %d", page.Total)
	}
}

func TestBillingViewJoinsAvailability(t *testing.T) {
	facade, store := newTestFacade(t)

	store.AppendAdvancedCall(types.AdvancedCallEvent{
		CallID: "c1", AgentID: "a1", Agent: "Alice",
		EnterDatetime: "2024-05-01T09:15:00Z",
		Status:        "Completed", StatusDetail: "Outgoing",
		CallingNumber: "003228829609", ProcessingTimeSeconds: 42,
	})
	store.AppendProfileAvailability(types.ProfileAvailabilityRecord{
		UserID: "a1", User: "Alice", Date: "2024-05-01", Hour: 9,
		Profiles: []types.ProfileMinutes{{Name: "Lunch", Minutes: 60}},
	})

	page, err := facade.Billing("", 1)
	if err != nil {
		t.Fatalf("billing failed: %v", err)
	}
	if len(page.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(page.Entries))
	}
	if page.Entries[0].Profile != "Lunch" {
		t.Errorf("expected Lunch profile, got %s", page.Entries[0].Profile)
	}

	// Filter by profile name
	filtered, err := facade.Billing("lunch", 1)
	if err != nil {
		t.Fatalf("billing failed: %v", err)
	}
	if filtered.Total != 1 {
		t.Errorf("expected filter to match profile, got %d", filtered.Total)
	}

	none, err := facade.Billing("meeting", 1)
	if err != nil {
		t.Fatalf("billing failed: %v", err)
	}
	if none.Total != 0 {
		t.Errorf("expected no match, got %d", none.Total)
	}
}

func TestInvalidateDropsCachedViews(t *testing.T) {
	facade, store := newTestFacade(t)

	store.AppendAdvancedCall(types.AdvancedCallEvent{CallID: "c1", EnterDatetime: "2024-05-01T10:00:00Z", Status: "Completed"})

	page, err := facade.Threads("", 1)
	if err != nil {
		t.Fatalf("threads failed: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected 1 thread, got %d", page.Total)
	}

	// A second append within the cache TTL is only visible after Invalidate
	store.AppendAdvancedCall(types.AdvancedCallEvent{CallID: "c2", EnterDatetime: "2024-05-01T10:01:00Z", Status: "Completed"})
	facade.Invalidate()

	page, err = facade.Threads("", 1)
	if err != nil {
		t.Fatalf("threads failed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("expected 2 threads after invalidate, got %d", page.Total)
	}
}

func TestCountriesBreakdown(t *testing.T) {
	facade, store := newTestFacade(t)

	numbers := []string{
		"003228829609", "+3221112233", // Belgium x2
		"0033123456789",  // France
		"0021612345678",  // Tunisia
		"00999123456789", // unknown
	}
	for i, n := range numbers {
		store.AppendCall(types.CallRecord{
			CallID:        fmt.Sprintf("c%d", i),
			EnterDatetime: "2024-05-01T10:00:00Z",
			Status:        "Completed",
			QueueName:     "Sales",
			CallingNumber: n,
		})
	}

	counts, err := facade.Countries()
	if err != nil {
		t.Fatalf("countries failed: %v", err)
	}
	if len(counts) != 4 {
		t.Fatalf("expected 4 buckets, got %d: %+v", len(counts), counts)
	}
	if counts[0].Code != "BEL" || counts[0].Count != 2 {
		t.Errorf("expected Belgium first with 2 calls, got %+v", counts[0])
	}

	found := map[string]int{}
	for _, c := range counts {
		found[c.Code] = c.Count
	}
	if found["FRA"] != 1 || found["TUN"] != 1 || found["unknown"] != 1 {
		t.Errorf("unexpected breakdown: %+v", found)
	}
}
