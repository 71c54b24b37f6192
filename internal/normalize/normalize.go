// Package normalize turns raw log lines from auditd, syslog/auth, and
// bash_history sources into uniform event.SecurityEvent records.
package normalize

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cairnwatch/siemguard/internal/event"
)

// Normalizer dispatches raw log lines to a source-specific parser and
// filters out lines matching any configured exclude pattern.
type Normalizer struct {
	excludePatterns []string
	hostname        string
}

// New returns a Normalizer that drops any line containing one of
// excludePatterns as a substring.
func New(excludePatterns []string) *Normalizer {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &Normalizer{excludePatterns: excludePatterns, hostname: hostname}
}

// Process normalizes one raw log line from source into a SecurityEvent.
// username is only consulted for the bash_history source; callers derive
// it from the containing path (the parent directory of the history file).
// A line matching an exclude pattern yields the zero SecurityEvent, which
// is invalid and must be dropped by the caller.
func (n *Normalizer) Process(source, logLine, agentID, username string) event.SecurityEvent {
	if n.shouldExclude(logLine) {
		return event.SecurityEvent{}
	}

	switch source {
	case "auditd":
		return n.processAuditd(logLine, agentID)
	case "syslog", "auth":
		return n.processSyslog(source, logLine, agentID)
	case "bash_history":
		return n.processBashHistory(logLine, agentID, username)
	default:
		return event.SecurityEvent{
			Source:    source,
			AgentID:   agentID,
			RawLog:    logLine,
			Hostname:  n.hostname,
			Timestamp: nowISO(),
			EventType: n.determineEventType(source, logLine),
			Severity:  n.determineSeverity(n.determineEventType(source, logLine), logLine),
			User:      extractUser(logLine),
			Process:   extractProcess(logLine),
			Command:   extractCommand(logLine),
		}
	}
}

func (n *Normalizer) shouldExclude(logLine string) bool {
	for _, pat := range n.excludePatterns {
		if strings.Contains(logLine, pat) {
			return true
		}
	}
	return false
}

var auditMsgTimeRe = regexp.MustCompile(`msg=audit\(([^:)]*)(?::[^)]*)?\):`)

func (n *Normalizer) processAuditd(logLine, agentID string) event.SecurityEvent {
	e := event.SecurityEvent{
		Source:   "auditd",
		AgentID:  agentID,
		RawLog:   logLine,
		Hostname: n.hostname,
	}

	if m := auditMsgTimeRe.FindStringSubmatch(logLine); m != nil {
		e.Timestamp = normalizeTimestamp(m[1])
	}
	if e.Timestamp == "" {
		e.Timestamp = nowISO()
	}

	auditType := extractAuditdField(logLine, "type")
	if auditType == "" {
		auditType = logLine
	}
	e.EventType = n.determineEventType("auditd", auditType)

	e.User = extractAuditdField(logLine, "auid")
	if e.User == "" || e.User == "unset" {
		e.User = extractAuditdField(logLine, "uid")
	}
	if e.User == "" {
		e.User = "unknown"
	}

	e.Process = extractAuditdField(logLine, "exe")
	if e.Process == "" {
		e.Process = "unknown"
	}
	e.Command = extractAuditdField(logLine, "cmd")

	e.Severity = n.determineSeverity(e.EventType, logLine)
	return e
}

var syslogRe = regexp.MustCompile(`^(\w+\s+\d+\s+\d+:\d+:\d+)\s+(\S+)\s+(\S+?)\[(\d+)\]:\s+(.*)$`)

func (n *Normalizer) processSyslog(source, logLine, agentID string) event.SecurityEvent {
	e := event.SecurityEvent{
		Source:   source,
		AgentID:  agentID,
		RawLog:   logLine,
		Hostname: n.hostname,
	}

	m := syslogRe.FindStringSubmatch(logLine)
	if m == nil {
		e.Timestamp = nowISO()
		e.EventType = n.determineEventType(source, logLine)
		e.Severity = n.determineSeverity(e.EventType, logLine)
		e.User = "unknown"
		e.Process = "unknown"
		return e
	}

	logTimestamp, process, message := m[1], m[3], m[5]
	e.Timestamp = normalizeTimestamp(logTimestamp)
	e.Process = process
	e.EventType = n.determineEventType(source, message)
	e.Severity = n.determineSeverity(e.EventType, message)
	e.User = extractUser(message)
	e.Command = extractCommand(message)
	if e.User == "" {
		e.User = "unknown"
	}
	return e
}

func (n *Normalizer) processBashHistory(logLine, agentID, username string) event.SecurityEvent {
	if username == "" {
		username = "unknown"
	}
	return event.SecurityEvent{
		Source:    "bash_history",
		AgentID:   agentID,
		RawLog:    logLine,
		Hostname:  n.hostname,
		Timestamp: nowISO(),
		EventType: "shell_command",
		Severity:  "low",
		User:      username,
		Process:   "bash",
		Command:   logLine,
	}
}

// UsernameFromPath derives the owning username from a bash_history path of
// the form ".../<username>/.bash_history", mirroring the two-levels-up
// extraction the agent performs before dispatch.
func UsernameFromPath(path string) string {
	dir := path
	if idx := strings.LastIndexByte(dir, '/'); idx >= 0 {
		dir = dir[:idx]
	} else {
		return "unknown"
	}
	if idx := strings.LastIndexByte(dir, '/'); idx >= 0 {
		return dir[idx+1:]
	}
	return "unknown"
}

func (n *Normalizer) determineEventType(source, logLine string) string {
	switch source {
	case "auditd":
		switch {
		case strings.Contains(logLine, "USER_LOGIN"):
			return "user_login"
		case strings.Contains(logLine, "USER_CMD"):
			return "command_execution"
		case strings.Contains(logLine, "SYSCALL"):
			return "system_call"
		case strings.Contains(logLine, "EXECVE"):
			return "process_execution"
		case strings.Contains(logLine, "PROCTITLE"):
			return "process_title"
		case strings.Contains(logLine, "PATH"):
			return "file_access"
		default:
			return "audit_event"
		}
	case "syslog", "auth":
		lower := strings.ToLower(logLine)
		switch {
		case strings.Contains(lower, "failed password"):
			return "failed_login"
		case strings.Contains(lower, "accepted password"):
			return "successful_login"
		case strings.Contains(lower, "invalid user"):
			return "invalid_user"
		case strings.Contains(lower, "sudo"):
			return "sudo_command"
		case strings.Contains(lower, "session opened"):
			return "session_opened"
		case strings.Contains(lower, "session closed"):
			return "session_closed"
		case strings.Contains(lower, "authentication failure"):
			return "auth_failure"
		default:
			return "system_event"
		}
	case "bash_history":
		return "shell_command"
	default:
		return "unknown"
	}
}

func (n *Normalizer) determineSeverity(eventType, logLine string) string {
	switch eventType {
	case "failed_login", "auth_failure", "invalid_user":
		return "high"
	case "sudo_command", "user_login", "command_execution", "system_call":
		return "medium"
	default:
		return "low"
	}
}

var (
	auditdUserRe = regexp.MustCompile(`\b(?:auid|uid)=(\S+)`)
	syslogUserRe = regexp.MustCompile(`user=(\S+)`)
	sudoUserRe   = regexp.MustCompile(`sudo:\s+(\S+)`)
)

func extractUser(logLine string) string {
	if m := auditdUserRe.FindStringSubmatch(logLine); m != nil {
		if m[1] != "unset" && m[1] != "-1" {
			return m[1]
		}
	}
	if m := syslogUserRe.FindStringSubmatch(logLine); m != nil {
		return m[1]
	}
	if strings.Contains(logLine, "sudo:") {
		if m := sudoUserRe.FindStringSubmatch(logLine); m != nil {
			return m[1]
		}
	}
	return "unknown"
}

var (
	auditdExeRe     = regexp.MustCompile(`\bexe="([^"]+)"`)
	syslogProcessRe = regexp.MustCompile(`(\S+?)\[\d+\]:`)
)

func extractProcess(logLine string) string {
	if m := auditdExeRe.FindStringSubmatch(logLine); m != nil {
		exe := m[1]
		if idx := strings.LastIndexByte(exe, '/'); idx >= 0 {
			return exe[idx+1:]
		}
		return exe
	}
	if m := syslogProcessRe.FindStringSubmatch(logLine); m != nil {
		return m[1]
	}
	return "unknown"
}

var auditdCmdRe = regexp.MustCompile(`\bcmd="([^"]+)"`)

func extractCommand(logLine string) string {
	if m := auditdCmdRe.FindStringSubmatch(logLine); m != nil {
		return m[1]
	}
	if strings.Contains(logLine, "/.bash_history") {
		return logLine
	}
	if idx := strings.Index(logLine, "COMMAND="); idx >= 0 {
		start := idx + len("COMMAND=")
		end := strings.IndexByte(logLine[start:], ' ')
		if end < 0 {
			return logLine[start:]
		}
		return logLine[start : start+end]
	}
	return ""
}

func extractAuditdField(logLine, field string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(field) + `=([^\s"]+|"[^"]+")`)
	m := re.FindStringSubmatch(logLine)
	if m == nil {
		return ""
	}
	value := m[1]
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return value[1 : len(value)-1]
	}
	return value
}

func nowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}

// normalizeTimestamp converts an auditd epoch-with-fraction timestamp or a
// syslog "Mon _2 15:04:05"-style timestamp into ISO-8601 UTC. Anything it
// cannot parse falls back to the current time, matching the original
// agent's never-fail contract.
func normalizeTimestamp(ts string) string {
	if ts == "" {
		return nowISO()
	}

	if strings.Contains(ts, ".") {
		if secs, err := strconv.ParseFloat(ts, 64); err == nil {
			return time.Unix(int64(secs), 0).UTC().Format("2006-01-02T15:04:05Z")
		}
	}

	if t, err := time.Parse("Jan _2 15:04:05", ts); err == nil {
		now := time.Now().UTC()
		t = t.AddDate(now.Year()-t.Year(), 0, 0)
		return t.UTC().Format("2006-01-02T15:04:05Z")
	}

	if ts[0] >= '0' && ts[0] <= '9' {
		if secs, err := strconv.ParseInt(ts, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC().Format("2006-01-02T15:04:05Z")
		}
	}

	return nowISO()
}
