package types

// CountryInfo identifies a country resolved from a dialing-code prefix.
type CountryInfo struct {
	Code string `json:"code"` // ISO 3166-1 alpha-3
	Name string `json:"name"`
}

// CountryCount is one slice of the per-country call breakdown.
type CountryCount struct {
	CountryInfo
	Count int `json:"count"`
}

// Thread is a reconstructed call interaction: the root call plus its
// transfers and redirects, chronologically ordered. Derived on every read,
// never persisted.
type Thread struct {
	RootID string              `json:"root_id"`
	Events []AdvancedCallEvent `json:"events"`
}

// BillingEntry is one outgoing call joined against the agent's availability
// timeline, carrying the profile that was active when the call was placed.
type BillingEntry struct {
	CallID                string `json:"call_id"`
	Agent                 string `json:"agent"`
	AgentID               string `json:"agent_id"`
	AgentNumber           string `json:"agent_number,omitempty"`
	EnterDatetime         string `json:"enter_datetime"`
	CallingNumber         string `json:"calling_number"`
	ProcessingTimeSeconds int    `json:"processing_time_seconds"`
	Profile               string `json:"profile"`
}

// DataSnapshot is the full current contents of all four streams.
type DataSnapshot struct {
	Calls               []CallRecord                `json:"calls"`
	AdvancedCalls       []AdvancedCallEvent         `json:"advancedCalls"`
	AgentStatus         []AgentStatusRecord         `json:"agentStatus"`
	ProfileAvailability []ProfileAvailabilityRecord `json:"profileAvailability"`
}
