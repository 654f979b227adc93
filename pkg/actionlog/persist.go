package actionlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func timeFromUnixNano(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

// record is the on-disk shape of an Action: StateVariant is an interface,
// so each side is stored as a kind tag plus its JSON payload and decoded
// back through decodeVariant.
type record struct {
	ID          string          `json:"id"`
	Command     string          `json:"command"`
	Description string          `json:"description"`
	BeforeKind  string          `json:"before_kind"`
	Before      json.RawMessage `json:"before"`
	AfterKind   string          `json:"after_kind"`
	After       json.RawMessage `json:"after"`
	Timestamp   int64           `json:"timestamp"`
}

type file struct {
	Cursor  int      `json:"cursor"`
	History []record `json:"history"`
}

func encodeVariant(v StateVariant) (string, json.RawMessage, error) {
	if v == nil {
		return "", nil, nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("actionlog: encode %s: %w", v.Kind(), err)
	}
	return v.Kind(), payload, nil
}

func decodeVariant(kind string, payload json.RawMessage) (StateVariant, error) {
	if kind == "" {
		return nil, nil
	}
	var v StateVariant
	switch kind {
	case "FileCreated":
		v = &FileCreated{}
	case "FileDeleted":
		v = &FileDeleted{}
	case "FileModified":
		v = &FileModified{}
	case "FileMoved":
		v = &FileMoved{}
	case "DirectoryCreated":
		v = &DirectoryCreated{}
	case "DirectoryDeleted":
		v = &DirectoryDeleted{}
	default:
		return nil, fmt.Errorf("actionlog: unknown state variant kind %q", kind)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return nil, fmt.Errorf("actionlog: decode %s: %w", kind, err)
	}
	// StateVariant methods are defined on value receivers; dereference
	// back out of the pointer used only to make Unmarshal addressable.
	switch p := v.(type) {
	case *FileCreated:
		return *p, nil
	case *FileDeleted:
		return *p, nil
	case *FileModified:
		return *p, nil
	case *FileMoved:
		return *p, nil
	case *DirectoryCreated:
		return *p, nil
	case *DirectoryDeleted:
		return *p, nil
	}
	return v, nil
}

// SaveTo writes the full history and cursor to path as JSON, so a later
// process can resume undo/redo for the same session.
func (l *ActionLog) SaveTo(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f := file{Cursor: l.cursor}
	for _, a := range l.history {
		beforeKind, before, err := encodeVariant(a.StateBefore)
		if err != nil {
			return err
		}
		afterKind, after, err := encodeVariant(a.StateAfter)
		if err != nil {
			return err
		}
		f.History = append(f.History, record{
			ID:          a.ID,
			Command:     a.Command,
			Description: a.Description,
			BeforeKind:  beforeKind,
			Before:      before,
			AfterKind:   afterKind,
			After:       after,
			Timestamp:   a.Timestamp.UnixNano(),
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("actionlog: create %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("actionlog: marshal history: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("actionlog: write %s: %w", path, err)
	}
	return nil
}

// LoadFrom replaces the in-memory history and cursor with the contents of
// path. A missing file is treated as an empty history, since the first
// run in a session has nothing to resume.
func (l *ActionLog) LoadFrom(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("actionlog: read %s: %w", path, err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("actionlog: unmarshal %s: %w", path, err)
	}

	history := make([]*Action, 0, len(f.History))
	for _, r := range f.History {
		before, err := decodeVariant(r.BeforeKind, r.Before)
		if err != nil {
			return err
		}
		after, err := decodeVariant(r.AfterKind, r.After)
		if err != nil {
			return err
		}
		history = append(history, &Action{
			ID:          r.ID,
			Command:     r.Command,
			Description: r.Description,
			StateBefore: before,
			StateAfter:  after,
			Timestamp:   timeFromUnixNano(r.Timestamp),
		})
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = history
	l.cursor = f.Cursor
	return nil
}
