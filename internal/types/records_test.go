package types

import (
	"encoding/json"
	"testing"
)

func TestProfileAvailabilityUnmarshalPreservesKeyOrder(t *testing.T) {
	payload := `{
		"user_id": "u1",
		"user": "Alice",
		"email": "alice@example.com",
		"date": "2024-05-01",
		"hour": 9,
		"Lunch": 0,
		"Available": 45,
		"Meeting": 15,
		"Coaching": 0
	}`

	var rec ProfileAvailabilityRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if rec.UserID != "u1" || rec.User != "Alice" || rec.Date != "2024-05-01" || rec.Hour != 9 {
		t.Errorf("identity fields not decoded: %+v", rec)
	}

	want := []ProfileMinutes{
		{"Lunch", 0},
		{"Available", 45},
		{"Meeting", 15},
		{"Coaching", 0},
	}
	if len(rec.Profiles) != len(want) {
		t.Fatalf("expected %d profiles, got %d: %+v", len(want), len(rec.Profiles), rec.Profiles)
	}
	for i, p := range want {
		if rec.Profiles[i] != p {
			t.Errorf("profile %d: expected %+v, got %+v", i, p, rec.Profiles[i])
		}
	}
}

func TestProfileAvailabilityUnmarshalIgnoresNonNumericExtras(t *testing.T) {
	payload := `{"user_id":"u1","user":"Alice","date":"2024-05-01","hour":9,"note":"on site","Available":30}`

	var rec ProfileAvailabilityRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if len(rec.Profiles) != 1 || rec.Profiles[0].Name != "Available" {
		t.Errorf("expected only Available profile, got %+v", rec.Profiles)
	}
}

func TestProfileAvailabilityUnmarshalRejectsNonObject(t *testing.T) {
	var rec ProfileAvailabilityRecord
	if err := json.Unmarshal([]byte(`[1,2,3]`), &rec); err == nil {
		t.Error("expected error for non-object payload")
	}
}

func TestProfileAvailabilityMarshalRoundTrip(t *testing.T) {
	rec := ProfileAvailabilityRecord{
		UserID: "u2",
		User:   "Bob",
		Date:   "2024-05-02",
		Hour:   14,
		Profiles: []ProfileMinutes{
			{"Available", 20},
			{"Lunch", 40},
		},
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded ProfileAvailabilityRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.UserID != rec.UserID || decoded.Hour != rec.Hour {
		t.Errorf("identity fields lost in round trip: %+v", decoded)
	}
	if len(decoded.Profiles) != 2 || decoded.Profiles[0].Name != "Available" || decoded.Profiles[1].Name != "Lunch" {
		t.Errorf("profile order lost in round trip: %+v", decoded.Profiles)
	}
}
