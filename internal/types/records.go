package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CallRecord represents one call pushed by the PBX on the basic call stream.
// Records are producer-assigned and immutable once appended.
type CallRecord struct {
	CallID                string `json:"call_id"`
	EnterDatetime         string `json:"enter_datetime"` // RFC3339
	Status                string `json:"status"`         // Abandoned|Answered|Completed|Missed|Redirected|Direct call|...
	StatusDetail          string `json:"status_detail,omitempty"`
	QueueName             string `json:"queue_name"`
	CallingNumber         string `json:"calling_number,omitempty"`
	TimeInQueueSeconds    int    `json:"time_in_queue_seconds,omitempty"`
	TalkTimeSeconds       int    `json:"talk_time_seconds,omitempty"`
	Agent                 string `json:"agent,omitempty"`
	AgentID               string `json:"agent_id,omitempty"`
	ProcessingTimeSeconds int    `json:"processing_time_seconds,omitempty"`
}

// AdvancedCallEvent carries the same core fields as CallRecord plus the
// parent back-reference that models transfers and redirects. Events sharing
// a parent_call_id lineage form a call thread.
type AdvancedCallEvent struct {
	CallID                string `json:"call_id"`
	ParentCallID          string `json:"parent_call_id,omitempty"` // relation only, may dangle
	EnterDatetime         string `json:"enter_datetime"`
	Status                string `json:"status"`
	StatusDetail          string `json:"status_detail,omitempty"`
	QueueName             string `json:"queue_name,omitempty"`
	CallingNumber         string `json:"calling_number,omitempty"`
	TimeInQueueSeconds    int    `json:"time_in_queue_seconds,omitempty"`
	TalkTimeSeconds       int    `json:"talk_time_seconds,omitempty"`
	Agent                 string `json:"agent,omitempty"`
	AgentID               string `json:"agent_id,omitempty"`
	AgentNumber           string `json:"agent_number,omitempty"`
	ProcessingTimeSeconds int    `json:"processing_time_seconds,omitempty"`
}

// AgentStatusRecord is one hourly agent status tick.
type AgentStatusRecord struct {
	UserID    string `json:"user_id"`
	User      string `json:"user"`
	Email     string `json:"email,omitempty"`
	Date      string `json:"date"` // YYYY-MM-DD
	Hour      int    `json:"hour"` // 0-23
	QueueName string `json:"queuename,omitempty"`
	QueueID   string `json:"queue_id,omitempty"`
	LoggedIn  int    `json:"loggedIn"`  // minutes
	Idle      int    `json:"idle"`      // minutes
	LoggedOut int    `json:"loggedOut"` // minutes
}

// ProfileMinutes is one named profile bucket inside a
// ProfileAvailabilityRecord, e.g. {"Available", 60}.
type ProfileMinutes struct {
	Name    string
	Minutes int
}

// ProfileAvailabilityRecord is one hourly availability tick. The PBX sends a
// flat JSON object whose non-identity keys are profile names with minute
// values; the set of profile names is open, and billing correlation depends
// on their stored order, so they are kept as an ordered slice rather than a
// map.
type ProfileAvailabilityRecord struct {
	UserID   string
	User     string
	Email    string
	Date     string // YYYY-MM-DD
	Hour     int    // 0-23
	Profiles []ProfileMinutes
}

// identityKeys are the fixed fields of a profile availability object; every
// other key is treated as a profile name.
var identityKeys = map[string]bool{
	"user_id": true,
	"user":    true,
	"email":   true,
	"date":    true,
	"hour":    true,
}

// UnmarshalJSON decodes the flat PBX object, preserving the order in which
// profile keys appear.
func (r *ProfileAvailabilityRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("profile availability record: expected JSON object")
	}

	*r = ProfileAvailabilityRecord{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("profile availability record: non-string key")
		}

		valTok, err := dec.Token()
		if err != nil {
			return err
		}

		switch key {
		case "user_id":
			r.UserID, _ = valTok.(string)
		case "user":
			r.User, _ = valTok.(string)
		case "email":
			r.Email, _ = valTok.(string)
		case "date":
			r.Date, _ = valTok.(string)
		case "hour":
			if n, ok := valTok.(json.Number); ok {
				hour, err := n.Int64()
				if err != nil {
					return fmt.Errorf("profile availability record: invalid hour: %w", err)
				}
				r.Hour = int(hour)
			}
		default:
			// Open profile bag: numeric values are minute counts, anything
			// else is ignored.
			n, ok := valTok.(json.Number)
			if !ok {
				continue
			}
			minutes, err := n.Int64()
			if err != nil {
				f, ferr := n.Float64()
				if ferr != nil {
					continue
				}
				minutes = int64(f)
			}
			r.Profiles = append(r.Profiles, ProfileMinutes{Name: key, Minutes: int(minutes)})
		}
	}

	// Consume the closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON re-emits the flat object shape with identity fields first and
// profile keys in their stored order.
func (r ProfileAvailabilityRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeField := func(key string, value interface{}) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	if err := writeField("user_id", r.UserID); err != nil {
		return nil, err
	}
	if err := writeField("user", r.User); err != nil {
		return nil, err
	}
	if r.Email != "" {
		if err := writeField("email", r.Email); err != nil {
			return nil, err
		}
	}
	if err := writeField("date", r.Date); err != nil {
		return nil, err
	}
	if err := writeField("hour", r.Hour); err != nil {
		return nil, err
	}
	for _, p := range r.Profiles {
		if identityKeys[p.Name] {
			continue
		}
		if err := writeField(p.Name, p.Minutes); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
