// Package event defines the normalized SecurityEvent record produced by
// the log tailer and normalizer, and its flat JSON serialization.
package event

import (
	"github.com/cairnwatch/siemguard/internal/jsondoc"
)

// SecurityEvent is the uniform record every log source is normalized
// into before it reaches the spill buffer and the collector.
type SecurityEvent struct {
	Timestamp string
	Hostname  string
	Source    string
	EventType string
	Severity  string
	User      string
	Process   string
	Command   string
	RawLog    string
	AgentID   string
}

// Valid reports whether e has a non-empty Source, the sole validity rule
// an event must satisfy before it is enqueued.
func (e SecurityEvent) Valid() bool {
	return e.Source != ""
}

// ToJSON serializes e as a flat JSON document.
func (e SecurityEvent) ToJSON() string {
	return jsondoc.Serialize(e.toMap())
}

func (e SecurityEvent) toMap() jsondoc.Map {
	return jsondoc.Map{
		"timestamp":  e.Timestamp,
		"hostname":   e.Hostname,
		"source":     e.Source,
		"event_type": e.EventType,
		"severity":   e.Severity,
		"user":       e.User,
		"process":    e.Process,
		"command":    e.Command,
		"raw_log":    e.RawLog,
		"agent_id":   e.AgentID,
	}
}

// FromJSON parses a flat JSON document into a SecurityEvent.
func FromJSON(s string) (SecurityEvent, error) {
	m, err := jsondoc.Parse(s)
	if err != nil {
		return SecurityEvent{}, err
	}
	return fromMap(m), nil
}

func fromMap(m jsondoc.Map) SecurityEvent {
	return SecurityEvent{
		Timestamp: m["timestamp"],
		Hostname:  m["hostname"],
		Source:    m["source"],
		EventType: m["event_type"],
		Severity:  m["severity"],
		User:      m["user"],
		Process:   m["process"],
		Command:   m["command"],
		RawLog:    m["raw_log"],
		AgentID:   m["agent_id"],
	}
}
