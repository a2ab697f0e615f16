// Package callthread reconstructs call threads from the flat advanced call
// event stream: the original call plus its transfers and redirects, grouped
// and ordered for forensic review.
package callthread

import (
	"sort"
	"strings"
	"time"

	"github.com/pbxwatch/backend/internal/types"
)

// BuildThreads partitions events into threads and orders them for display.
//
// Grouping is one-hop: an event belongs to the group keyed by its
// parent_call_id when present, else by its own call_id. The key is matched
// by plain string equality, never by walking the full ancestor chain, so an
// event whose parent is absent from the data set still forms its own group
// under that key. Within a thread events are ascending by enter_datetime;
// threads themselves are descending by their earliest event (most recent
// interaction first).
func BuildThreads(events []types.AdvancedCallEvent) []types.Thread {
	if len(events) == 0 {
		return nil
	}

	groups := make(map[string][]types.AdvancedCallEvent)
	var rootOrder []string
	for _, e := range events {
		root := e.ParentCallID
		if root == "" {
			root = e.CallID
		}
		if _, ok := groups[root]; !ok {
			rootOrder = append(rootOrder, root)
		}
		groups[root] = append(groups[root], e)
	}

	threads := make([]types.Thread, 0, len(rootOrder))
	for _, root := range rootOrder {
		group := groups[root]
		sort.SliceStable(group, func(i, j int) bool {
			return eventTime(group[i]).Before(eventTime(group[j]))
		})
		threads = append(threads, types.Thread{RootID: root, Events: group})
	}

	sort.SliceStable(threads, func(i, j int) bool {
		return eventTime(threads[i].Events[0]).After(eventTime(threads[j].Events[0]))
	})
	return threads
}

// eventTime parses the event timestamp; events with unparsable timestamps
// order at the zero time so they sink to the end of the thread list.
func eventTime(e types.AdvancedCallEvent) time.Time {
	t, ok := types.ParseTimestamp(e.EnterDatetime)
	if !ok {
		return time.Time{}
	}
	return t
}

// IsIncoming reports whether the event's status detail marks an incoming leg.
func IsIncoming(e types.AdvancedCallEvent) bool {
	return strings.Contains(strings.ToLower(e.StatusDetail), "incoming")
}

// IsOutgoing reports whether the event's status detail marks an outgoing leg.
func IsOutgoing(e types.AdvancedCallEvent) bool {
	return strings.Contains(strings.ToLower(e.StatusDetail), "outgoing")
}

// IsLinkedTransfer reports whether the event is a non-root leg created by a
// transfer.
func IsLinkedTransfer(e types.AdvancedCallEvent) bool {
	return e.ParentCallID != "" && strings.Contains(strings.ToLower(e.StatusDetail), "transfer")
}
