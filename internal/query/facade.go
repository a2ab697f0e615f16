// Package query is the read-side composition layer: it pulls the record
// streams out of the store and feeds the derivation logic to produce the
// filtered, paginated views the dashboard consumes. Derived views are never
// persisted; a short-lived in-memory cache avoids rescanning the streams on
// every request.
package query

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pbxwatch/backend/internal/billing"
	"github.com/pbxwatch/backend/internal/cache"
	"github.com/pbxwatch/backend/internal/callthread"
	"github.com/pbxwatch/backend/internal/country"
	"github.com/pbxwatch/backend/internal/storage"
	"github.com/pbxwatch/backend/internal/types"
	"github.com/rs/zerolog"
)

const (
	threadsPerPage = 20
	billingPerPage = 10

	viewCacheTTL = 2 * time.Second

	cacheKeyThreads   = "threads"
	cacheKeyBilling   = "billing"
	cacheKeyCountries = "countries"
)

// Facade exposes read-side views over the record store
type Facade struct {
	store  storage.Store
	views  *cache.ViewCache
	logger zerolog.Logger
}

// New creates a query facade
func New(store storage.Store, logger zerolog.Logger) *Facade {
	return &Facade{
		store:  store,
		views:  cache.NewViewCache(viewCacheTTL),
		logger: logger.With().Str("component", "query").Logger(),
	}
}

// Invalidate drops all cached views. Called after the streams are cleared so
// the next read reflects the empty store immediately.
func (f *Facade) Invalidate() {
	f.views.Invalidate()
}

// Snapshot returns the full current contents of all four streams
func (f *Facade) Snapshot() (types.DataSnapshot, error) {
	calls, err := f.store.ReadCalls()
	if err != nil {
		return types.DataSnapshot{}, err
	}
	advancedCalls, err := f.store.ReadAdvancedCalls()
	if err != nil {
		return types.DataSnapshot{}, err
	}
	agentStatus, err := f.store.ReadAgentStatus()
	if err != nil {
		return types.DataSnapshot{}, err
	}
	profileAvailability, err := f.store.ReadProfileAvailability()
	if err != nil {
		return types.DataSnapshot{}, err
	}

	snapshot := types.DataSnapshot{
		Calls:               calls,
		AdvancedCalls:       advancedCalls,
		AgentStatus:         agentStatus,
		ProfileAvailability: profileAvailability,
	}
	// Empty streams serialize as [] rather than null
	if snapshot.Calls == nil {
		snapshot.Calls = []types.CallRecord{}
	}
	if snapshot.AdvancedCalls == nil {
		snapshot.AdvancedCalls = []types.AdvancedCallEvent{}
	}
	if snapshot.AgentStatus == nil {
		snapshot.AgentStatus = []types.AgentStatusRecord{}
	}
	if snapshot.ProfileAvailability == nil {
		snapshot.ProfileAvailability = []types.ProfileAvailabilityRecord{}
	}
	return snapshot, nil
}

// ThreadsPage is one page of reconstructed call threads
type ThreadsPage struct {
	Threads    []types.Thread `json:"threads"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
	Total      int            `json:"total"`
}

// Threads reconstructs call threads, filters them by a case-insensitive
// substring across every event field and returns the requested page.
func (f *Facade) Threads(filter string, page int) (ThreadsPage, error) {
	threads, err := f.allThreads()
	if err != nil {
		return ThreadsPage{}, err
	}

	if filter != "" {
		filtered := make([]types.Thread, 0, len(threads))
		for _, thread := range threads {
			if threadMatches(thread, filter) {
				filtered = append(filtered, thread)
			}
		}
		threads = filtered
	}

	page, totalPages := clampPage(page, len(threads), threadsPerPage)
	return ThreadsPage{
		Threads:    pageSlice(threads, page, threadsPerPage),
		Page:       page,
		TotalPages: totalPages,
		Total:      len(threads),
	}, nil
}

// BillingPage is one page of billing correlation entries
type BillingPage struct {
	Entries    []types.BillingEntry `json:"entries"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"totalPages"`
	Total      int                  `json:"total"`
}

// Billing correlates outgoing calls with agent availability, filters by
// agent, calling number or profile and returns the requested page.
func (f *Facade) Billing(filter string, page int) (BillingPage, error) {
	entries, err := f.allBillingEntries()
	if err != nil {
		return BillingPage{}, err
	}

	if filter != "" {
		q := strings.ToLower(filter)
		filtered := make([]types.BillingEntry, 0, len(entries))
		for _, entry := range entries {
			if strings.Contains(strings.ToLower(entry.Agent), q) ||
				strings.Contains(strings.ToLower(entry.CallingNumber), q) ||
				strings.Contains(strings.ToLower(entry.Profile), q) {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}

	page, totalPages := clampPage(page, len(entries), billingPerPage)
	result := BillingPage{
		Entries:    pageSlice(entries, page, billingPerPage),
		Page:       page,
		TotalPages: totalPages,
		Total:      len(entries),
	}
	if result.Entries == nil {
		result.Entries = []types.BillingEntry{}
	}
	return result, nil
}

// Countries attributes every call's calling number to a country and returns
// the per-country call counts, largest first.
func (f *Facade) Countries() ([]types.CountryCount, error) {
	if v, ok := f.views.Get(cacheKeyCountries); ok {
		return v.([]types.CountryCount), nil
	}

	calls, err := f.store.ReadCalls()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]*types.CountryCount)
	for _, call := range calls {
		info, ok := country.Attribute(call.CallingNumber)
		if !ok {
			info = types.CountryInfo{Code: "unknown", Name: "Unknown"}
		}
		if c, exists := counts[info.Code]; exists {
			c.Count++
		} else {
			counts[info.Code] = &types.CountryCount{CountryInfo: info, Count: 1}
		}
	}

	result := make([]types.CountryCount, 0, len(counts))
	for _, c := range counts {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})
	f.views.Set(cacheKeyCountries, result)
	return result, nil
}

// allThreads returns the reconstructed threads for every advanced call
// event, serving from the view cache when fresh.
func (f *Facade) allThreads() ([]types.Thread, error) {
	if v, ok := f.views.Get(cacheKeyThreads); ok {
		return v.([]types.Thread), nil
	}

	events, err := f.store.ReadAdvancedCalls()
	if err != nil {
		return nil, err
	}
	threads := callthread.BuildThreads(events)
	f.views.Set(cacheKeyThreads, threads)
	return threads, nil
}

// allBillingEntries returns the unfiltered billing correlation, serving from
// the view cache when fresh.
func (f *Facade) allBillingEntries() ([]types.BillingEntry, error) {
	if v, ok := f.views.Get(cacheKeyBilling); ok {
		return v.([]types.BillingEntry), nil
	}

	events, err := f.store.ReadAdvancedCalls()
	if err != nil {
		return nil, err
	}
	availability, err := f.store.ReadProfileAvailability()
	if err != nil {
		return nil, err
	}
	entries := billing.Correlate(events, availability)
	f.views.Set(cacheKeyBilling, entries)
	return entries, nil
}

// threadMatches reports whether any field of any event in the thread
// contains the filter, case-insensitively.
func threadMatches(thread types.Thread, filter string) bool {
	q := strings.ToLower(filter)
	for _, e := range thread.Events {
		values := []string{
			e.CallID, e.ParentCallID, e.EnterDatetime, e.Status, e.StatusDetail,
			e.QueueName, e.CallingNumber, e.Agent, e.AgentID, e.AgentNumber,
			strconv.Itoa(e.TimeInQueueSeconds), strconv.Itoa(e.TalkTimeSeconds),
			strconv.Itoa(e.ProcessingTimeSeconds),
		}
		for _, v := range values {
			if v != "" && strings.Contains(strings.ToLower(v), q) {
				return true
			}
		}
	}
	return false
}

func clampPage(page, total, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	totalPages := (total + perPage - 1) / perPage
	return page, totalPages
}

func pageSlice[T any](items []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
