package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCheckResult_Up(t *testing.T) {
	cases := []struct {
		o    Outcome
		want bool
	}{
		{OutcomeSuccess, true},
		{OutcomeDegraded, true},
		{OutcomeFailure, false},
		{Outcome(""), false},
	}
	for _, c := range cases {
		if got := (CheckResult{Outcome: c.o}).Up(); got != c.want {
			t.Fatalf("Up(%q)=%v want %v", c.o, got, c.want)
		}
	}
}

func TestOutcome_Valid(t *testing.T) {
	if !OutcomeDegraded.Valid() || Outcome("up").Valid() {
		t.Fatalf("unexpected Valid() results")
	}
}

func TestTarget_JSONOmitsEmptyOverrides(t *testing.T) {
	b, err := json.Marshal(Target{
		ID:        TargetID("T1"),
		URL:       "https://todo.example.com",
		CreatedAt: time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["label"]; ok {
		t.Fatalf("empty label should be omitted: %s", b)
	}
	if m["url"] != "https://todo.example.com" {
		t.Fatalf("url wrong: %s", b)
	}
}
