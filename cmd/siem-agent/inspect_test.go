package main

import (
	"strings"
	"testing"

	"github.com/cairnwatch/siemguard/internal/event"
)

func TestFormatEventIncludesAllFields(t *testing.T) {
	e := event.SecurityEvent{
		Timestamp: "2026-01-01T00:00:00Z",
		Source:    "syslog",
		EventType: "auth_failure",
		Severity:  "high",
		User:      "root",
		Process:   "sshd",
		Command:   "",
		RawLog:    "Failed password for root",
	}
	out := formatEvent(e)
	for _, want := range []string{"syslog", "auth_failure", "high", "root", "sshd", "Failed password"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatEvent output missing %q:\n%s", want, out)
		}
	}
}

func TestTruncateShortensLongStrings(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("truncate should not alter short strings, got %q", got)
	}
	if got := truncate("0123456789abcdef", 5); got != "01234..." {
		t.Errorf("truncate(16,5) = %q", got)
	}
}

func TestWatchDirHandlesNoSlash(t *testing.T) {
	if got := watchDir("buffer.jsonl"); got != "." {
		t.Errorf("watchDir(no slash) = %q, want .", got)
	}
	if got := watchDir("/var/lib/siem_agent/buffer.jsonl"); got != "/var/lib/siem_agent" {
		t.Errorf("watchDir = %q", got)
	}
}
