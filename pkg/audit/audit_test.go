package audit

import (
	"encoding/json"
	"testing"
)

func TestAppendAssignsGapFreeSequenceNumbers(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewSessionAuditManager(dir, "sess-1")
	if err != nil {
		t.Fatalf("NewSessionAuditManager() error = %v", err)
	}
	defer mgr.Close()

	ev1, err := mgr.Append(&SessionStart{}, "")
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	ev2, err := mgr.Append(&CommandRequested{Name: "create"}, "cmd-1")
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if ev1.SequenceNumber != 1 || ev2.SequenceNumber != 2 {
		t.Errorf("sequence numbers = %d, %d, want 1, 2", ev1.SequenceNumber, ev2.SequenceNumber)
	}
}

func TestSessionAuditManagerResumesSequenceAfterReopen(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewSessionAuditManager(dir, "sess-2")
	if err != nil {
		t.Fatalf("NewSessionAuditManager() error = %v", err)
	}
	if _, err := mgr.Append(&SessionStart{}, ""); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := mgr.Append(&SessionPause{}, ""); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSessionAuditManager(dir, "sess-2")
	if err != nil {
		t.Fatalf("reopen NewSessionAuditManager() error = %v", err)
	}
	defer reopened.Close()
	ev, err := reopened.Append(&SessionResume{}, "")
	if err != nil {
		t.Fatalf("Append() after reopen error = %v", err)
	}
	if ev.SequenceNumber != 3 {
		t.Errorf("SequenceNumber after reopen = %d, want 3", ev.SequenceNumber)
	}
}

func TestAuditEventRoundTripsThroughJSON(t *testing.T) {
	original := AuditEvent{
		SequenceNumber: 5,
		EventID:        "01J000000000000000000000",
		SessionID:      "sess-3",
		CommandID:      "cmd-1",
		Data: &FileWrite{
			Path:          "a.txt",
			Size:          12,
			ChecksumAfter: "deadbeef",
			BackupCreated: true,
		},
	}
	raw, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		t.Fatalf("Unmarshal into map error = %v", err)
	}
	for _, key := range []string{"sequence_number", "event_id", "session_id", "timestamp", "command_id", "data"} {
		if _, ok := keys[key]; !ok {
			t.Errorf("marshaled event missing key %q", key)
		}
	}

	var decoded AuditEvent
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	fw, ok := decoded.Data.(*FileWrite)
	if !ok {
		t.Fatalf("decoded.Data type = %T, want *FileWrite", decoded.Data)
	}
	if fw.Path != "a.txt" || fw.Size != 12 || !fw.BackupCreated {
		t.Errorf("decoded FileWrite = %+v, want matching original", fw)
	}
}

func TestQueryEngineReadSessionAndCommandTrail(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewSessionAuditManager(dir, "sess-4")
	if err != nil {
		t.Fatalf("NewSessionAuditManager() error = %v", err)
	}
	if _, err := mgr.Append(&SessionStart{}, ""); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := mgr.Append(&CommandRequested{Name: "create"}, "cmd-a"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := mgr.Append(&CommandCompleted{ExecutionID: "exec-a", Success: true}, "cmd-a"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := mgr.Append(&CommandRequested{Name: "delete"}, "cmd-b"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := mgr.Append(&CommandCompleted{ExecutionID: "exec-b", Success: false}, "cmd-b"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	q := NewQueryEngine(dir)
	events, err := q.ReadSession("sess-4")
	if err != nil {
		t.Fatalf("ReadSession() error = %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("len(events) = %d, want 5", len(events))
	}

	trail, err := q.CommandTrail("sess-4", "cmd-b")
	if err != nil {
		t.Fatalf("CommandTrail() error = %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("len(trail) = %d, want 2", len(trail))
	}

	summary, err := q.SessionSummary("sess-4")
	if err != nil {
		t.Fatalf("SessionSummary() error = %v", err)
	}
	if summary.CommandCount != 2 {
		t.Errorf("CommandCount = %d, want 2", summary.CommandCount)
	}
	if summary.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", summary.ErrorCount)
	}
}

func TestHashJSONIsStableAcrossFieldOrder(t *testing.T) {
	type a struct {
		X int    `json:"x"`
		Y string `json:"y"`
	}
	type b struct {
		Y string `json:"y"`
		X int    `json:"x"`
	}
	h1, err := HashJSON(a{X: 1, Y: "z"})
	if err != nil {
		t.Fatalf("HashJSON() error = %v", err)
	}
	h2, err := HashJSON(b{Y: "z", X: 1})
	if err != nil {
		t.Fatalf("HashJSON() error = %v", err)
	}
	if h1 != h2 {
		t.Errorf("hashes differ across struct field order: %s != %s", h1, h2)
	}
}
