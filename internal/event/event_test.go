package event

import "testing"

func TestValidRequiresSource(t *testing.T) {
	if (SecurityEvent{}).Valid() {
		t.Fatalf("zero-value event should be invalid")
	}
	if !(SecurityEvent{Source: "auditd"}).Valid() {
		t.Fatalf("event with source should be valid")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	e := SecurityEvent{
		Timestamp: "2026-07-30T12:00:00Z",
		Hostname:  "box1",
		Source:    "syslog",
		EventType: "failed_login",
		Severity:  "high",
		User:      "root",
		Process:   "sshd",
		Command:   "",
		RawLog:    `contains "quotes" and\nnewline-ish text`,
		AgentID:   "agent-1",
	}
	got, err := FromJSON(e.ToJSON())
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got != e {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, e)
	}
}
