// Package billing joins outgoing calls against the hourly agent availability
// timeline to determine which named profile was active when each call was
// placed.
package billing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pbxwatch/backend/internal/types"
)

// Profile labels used when no availability record resolves the call.
const (
	ProfileUnknown = "Unknown"
	// ProfileDefault is assumed when a matching availability record exists
	// but none of its profile buckets carries minutes.
	ProfileDefault = "Available"
)

// Correlate produces one billing entry per outgoing call that carries an
// agent id. The availability record is looked up by (agent_id, date, hour),
// with date and hour both derived from the call's enter_datetime. Entries
// are ordered descending by enter_datetime.
func Correlate(events []types.AdvancedCallEvent, availability []types.ProfileAvailabilityRecord) []types.BillingEntry {
	index := make(map[string]types.ProfileAvailabilityRecord, len(availability))
	for _, rec := range availability {
		index[hourKey(rec.UserID, rec.Date, rec.Hour)] = rec
	}

	var entries []types.BillingEntry
	for _, e := range events {
		if !strings.Contains(strings.ToLower(e.StatusDetail), "outgoing") || e.AgentID == "" {
			continue
		}

		profile := ProfileUnknown
		if ts, ok := types.ParseTimestamp(e.EnterDatetime); ok {
			key := hourKey(e.AgentID, ts.Format("2006-01-02"), ts.Hour())
			if rec, found := index[key]; found {
				profile = activeProfile(rec)
			}
		}

		entries = append(entries, types.BillingEntry{
			CallID:                e.CallID,
			Agent:                 e.Agent,
			AgentID:               e.AgentID,
			AgentNumber:           e.AgentNumber,
			EnterDatetime:         e.EnterDatetime,
			CallingNumber:         e.CallingNumber,
			ProcessingTimeSeconds: e.ProcessingTimeSeconds,
			Profile:               profile,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ti, _ := types.ParseTimestamp(entries[i].EnterDatetime)
		tj, _ := types.ParseTimestamp(entries[j].EnterDatetime)
		return ti.After(tj)
	})
	return entries
}

// activeProfile picks the first profile bucket with minutes on the clock, in
// the record's stored key order. Identity fields are already excluded at
// decode time.
func activeProfile(rec types.ProfileAvailabilityRecord) string {
	for _, p := range rec.Profiles {
		if p.Minutes > 0 {
			return p.Name
		}
	}
	return ProfileDefault
}

func hourKey(userID, date string, hour int) string {
	return fmt.Sprintf("%s-%s-%d", userID, date, hour)
}
