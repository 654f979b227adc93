// Package audit implements the tamper-evident, per-session command
// journal: an append-only NDJSON log of AuditEvents with a gap-free
// monotonic sequence number, independent of the ambient diagnostic logger
// in pkg/logging.
package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// AuditEvent is one record in a session's append-only journal.
type AuditEvent struct {
	SequenceNumber uint64
	EventID        string
	SessionID      string
	Timestamp      time.Time
	CommandID      string
	Data           AuditEventData
}

// MarshalJSON renders the event with the fixed key order sequence_number,
// event_id, session_id, timestamp, command_id, data required by the log
// format.
func (e AuditEvent) MarshalJSON() ([]byte, error) {
	dataRaw, err := marshalData(e.Data)
	if err != nil {
		return nil, fmt.Errorf("audit: marshal data: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeField(&buf, "sequence_number", e.SequenceNumber, true); err != nil {
		return nil, err
	}
	if err := writeField(&buf, "event_id", e.EventID, false); err != nil {
		return nil, err
	}
	if err := writeField(&buf, "session_id", e.SessionID, false); err != nil {
		return nil, err
	}
	if err := writeField(&buf, "timestamp", e.Timestamp, false); err != nil {
		return nil, err
	}
	if err := writeField(&buf, "command_id", e.CommandID, false); err != nil {
		return nil, err
	}
	buf.WriteString(`,"data":`)
	buf.Write(dataRaw)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, value any, first bool) error {
	if !first {
		buf.WriteByte(',')
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("audit: marshal %s: %w", key, err)
	}
	buf.WriteByte('"')
	buf.WriteString(key)
	buf.WriteString(`":`)
	buf.Write(raw)
	return nil
}

type rawEvent struct {
	SequenceNumber uint64          `json:"sequence_number"`
	EventID        string          `json:"event_id"`
	SessionID      string          `json:"session_id"`
	Timestamp      time.Time       `json:"timestamp"`
	CommandID      string          `json:"command_id"`
	Data           json.RawMessage `json:"data"`
}

// UnmarshalJSON reconstructs an event, dispatching its "data" object to the
// concrete AuditEventData type named by its "kind" field.
func (e *AuditEvent) UnmarshalJSON(b []byte) error {
	var raw rawEvent
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("audit: unmarshal event: %w", err)
	}
	data, err := unmarshalData(raw.Data)
	if err != nil {
		return err
	}
	*e = AuditEvent{
		SequenceNumber: raw.SequenceNumber,
		EventID:        raw.EventID,
		SessionID:      raw.SessionID,
		Timestamp:      raw.Timestamp,
		CommandID:      raw.CommandID,
		Data:           data,
	}
	return nil
}

func marshalData(data AuditEventData) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	m["kind"] = data.Kind()
	return json.Marshal(m)
}

func unmarshalData(raw json.RawMessage) (AuditEventData, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("audit: probe event kind: %w", err)
	}
	ctor, ok := dataConstructors[probe.Kind]
	if !ok {
		return nil, fmt.Errorf("audit: unknown event kind %q", probe.Kind)
	}
	v := ctor()
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("audit: unmarshal %s: %w", probe.Kind, err)
	}
	return v, nil
}

// SessionAuditManager owns exclusive write access to one session's
// append-only log file. Every append assigns the next sequence number
// atomically under a mutex and fsyncs before returning, so a crash never
// leaves a partially-written record visible to readers.
type SessionAuditManager struct {
	mu        sync.Mutex
	sessionID string
	path      string
	file      *os.File
	writer    *bufio.Writer
	seq       uint64
}

// NewSessionAuditManager opens (creating if necessary) the append-only log
// file for sessionID under root.
func NewSessionAuditManager(root, sessionID string) (*SessionAuditManager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("audit: create log root: %w", err)
	}
	path := filepath.Join(root, fmt.Sprintf("audit-%s.ndjson", sessionID))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit: open log file: %w", err)
	}
	seq, err := lastSequenceNumber(path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &SessionAuditManager{
		sessionID: sessionID,
		path:      path,
		file:      f,
		writer:    bufio.NewWriter(f),
		seq:       seq,
	}, nil
}

// lastSequenceNumber scans an existing log file to resume numbering after a
// process restart, rather than starting back at zero and violating the
// gap-free invariant.
func lastSequenceNumber(path string) (uint64, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("audit: reopen log for recovery: %w", err)
	}
	defer f.Close()

	var last uint64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev AuditEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		if ev.SequenceNumber > last {
			last = ev.SequenceNumber
		}
	}
	return last, scanner.Err()
}

// Append records a new event with the given optional command id, assigning
// it the next sequence number in the session.
func (m *SessionAuditManager) Append(data AuditEventData, commandID string) (*AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	event := &AuditEvent{
		SequenceNumber: m.seq,
		EventID:        ulid.Make().String(),
		SessionID:      m.sessionID,
		Timestamp:      time.Now().UTC(),
		CommandID:      commandID,
		Data:           data,
	}

	line, err := json.Marshal(event)
	if err != nil {
		m.seq--
		return nil, fmt.Errorf("audit: marshal event: %w", err)
	}
	if _, err := m.writer.Write(line); err != nil {
		m.seq--
		return nil, fmt.Errorf("audit: write event: %w", err)
	}
	if err := m.writer.WriteByte('\n'); err != nil {
		m.seq--
		return nil, fmt.Errorf("audit: write newline: %w", err)
	}
	if err := m.writer.Flush(); err != nil {
		m.seq--
		return nil, fmt.Errorf("audit: flush event: %w", err)
	}
	if err := m.file.Sync(); err != nil {
		return nil, fmt.Errorf("audit: sync event: %w", err)
	}
	return event, nil
}

// Path returns the log file's path on disk.
func (m *SessionAuditManager) Path() string { return m.path }

// Close flushes and closes the underlying log file.
func (m *SessionAuditManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writer.Flush(); err != nil {
		return err
	}
	return m.file.Close()
}
