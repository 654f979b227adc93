package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// QueryEngine answers read-only questions over a session's audit log by
// scanning the file end-to-end on each query. Events are append-only and a
// session's whole history is typically small, so eager indexing is not
// worth the staleness risk of an in-memory structure that would need
// updating on every append from a concurrently running manager.
type QueryEngine struct {
	root string
}

// NewQueryEngine returns a QueryEngine reading session logs from root.
func NewQueryEngine(root string) *QueryEngine { return &QueryEngine{root: root} }

// ReadSession returns every event recorded for sessionID, in sequence order.
func (q *QueryEngine) ReadSession(sessionID string) ([]*AuditEvent, error) {
	path := filepath.Join(q.root, fmt.Sprintf("audit-%s.ndjson", sessionID))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: open session log: %w", err)
	}
	defer f.Close()

	var events []*AuditEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev AuditEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("audit: parse session log line: %w", err)
		}
		events = append(events, &ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan session log: %w", err)
	}
	return events, nil
}

// CommandTrail returns, in sequence order, every event tagged with
// commandID within a session.
func (q *QueryEngine) CommandTrail(sessionID, commandID string) ([]*AuditEvent, error) {
	events, err := q.ReadSession(sessionID)
	if err != nil {
		return nil, err
	}
	trail := make([]*AuditEvent, 0, len(events))
	for _, ev := range events {
		if ev.CommandID == commandID {
			trail = append(trail, ev)
		}
	}
	return trail, nil
}

// SessionSummary is an aggregate view over a session's full event history.
type SessionSummary struct {
	SessionID     string
	EventCount    int
	CommandCount  int
	ErrorCount    int
	ViolationCount int
}

// SessionSummary computes aggregate counters by scanning the full session
// log once.
func (q *QueryEngine) SessionSummary(sessionID string) (*SessionSummary, error) {
	events, err := q.ReadSession(sessionID)
	if err != nil {
		return nil, err
	}
	summary := &SessionSummary{SessionID: sessionID, EventCount: len(events)}
	seenCommands := make(map[string]struct{})
	for _, ev := range events {
		switch ev.Data.(type) {
		case *CommandRequested:
			if ev.CommandID != "" {
				seenCommands[ev.CommandID] = struct{}{}
			}
		case *CommandError, *SystemError:
			summary.ErrorCount++
		case *SandboxViolation:
			summary.ViolationCount++
		case *CommandCompleted:
			if c, ok := ev.Data.(*CommandCompleted); ok && !c.Success {
				summary.ErrorCount++
			}
		}
	}
	summary.CommandCount = len(seenCommands)
	return summary, nil
}
