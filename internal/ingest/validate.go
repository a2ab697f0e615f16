package ingest

import (
	"fmt"
	"strings"

	"github.com/pbxwatch/backend/internal/types"
)

type field struct {
	name  string
	value string
}

// requireFields returns an error naming every empty mandatory field.
func requireFields(fields ...field) error {
	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing mandatory fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateCall checks the mandatory identity fields of a single call record.
func ValidateCall(rec types.CallRecord) error {
	return requireFields(
		field{"call_id", rec.CallID},
		field{"enter_datetime", rec.EnterDatetime},
		field{"status", rec.Status},
		field{"queue_name", rec.QueueName},
	)
}

// ValidateCallBatch is the permissive batch-mode check: only the call id is
// required, the PBX omits the rest on some event types.
func ValidateCallBatch(rec types.CallRecord) error {
	return requireFields(field{"call_id", rec.CallID})
}

// ValidateAdvancedCall checks a single advanced call event.
func ValidateAdvancedCall(rec types.AdvancedCallEvent) error {
	return requireFields(
		field{"call_id", rec.CallID},
		field{"enter_datetime", rec.EnterDatetime},
	)
}

// ValidateAdvancedCallBatch is the permissive batch-mode check.
func ValidateAdvancedCallBatch(rec types.AdvancedCallEvent) error {
	return requireFields(field{"call_id", rec.CallID})
}

// ValidateAgentStatus checks an agent status record, both modes.
func ValidateAgentStatus(rec types.AgentStatusRecord) error {
	return requireFields(
		field{"user_id", rec.UserID},
		field{"date", rec.Date},
		field{"user", rec.User},
	)
}

// ValidateProfileAvailability checks a profile availability record, both
// modes.
func ValidateProfileAvailability(rec types.ProfileAvailabilityRecord) error {
	return requireFields(
		field{"user_id", rec.UserID},
		field{"date", rec.Date},
		field{"user", rec.User},
	)
}
