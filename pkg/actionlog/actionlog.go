// Package actionlog implements the reversible undo/redo action history:
// a cursor over a recorded sequence of Actions, each carrying a pre- and
// post-execution filesystem snapshot sufficient to reverse or replay it.
//
// Convention: StateBefore is always the variant whose Apply reverses the
// command (used by Undo); StateAfter is always the variant whose Apply
// replays it (used by Redo). For a file creation this means StateBefore is
// FileCreated{path} (applying it removes the file) and StateAfter is
// FileDeleted{path, content} (applying it restores the file) — the variant
// kind names the reversal, not the literal pre/post state. Commands in
// pkg/commands are responsible for constructing both sides correctly; each
// variant's doc comment says what its Apply does.
package actionlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVariant is a tagged filesystem snapshot an Action can apply during
// undo or redo.
type StateVariant interface {
	Kind() string
	Apply() error
}

// FileCreated's Apply removes Path — the reversal of having created it.
type FileCreated struct {
	Path string
}

func (FileCreated) Kind() string { return "FileCreated" }
func (v FileCreated) Apply() error {
	if err := os.Remove(v.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("actionlog: remove %s: %w", v.Path, err)
	}
	return nil
}

// FileDeleted's Apply restores Content to Path, creating parent
// directories as needed — the reversal of having deleted it.
type FileDeleted struct {
	Path    string
	Content []byte
}

func (FileDeleted) Kind() string { return "FileDeleted" }
func (v FileDeleted) Apply() error {
	if err := os.MkdirAll(filepath.Dir(v.Path), 0o755); err != nil {
		return fmt.Errorf("actionlog: create parents for %s: %w", v.Path, err)
	}
	if err := os.WriteFile(v.Path, v.Content, 0o644); err != nil {
		return fmt.Errorf("actionlog: restore %s: %w", v.Path, err)
	}
	return nil
}

// FileModified's Apply overwrites Path with Content. Checksum is advisory,
// recorded for audit cross-referencing.
type FileModified struct {
	Path     string
	Content  []byte
	Checksum string
}

func (FileModified) Kind() string { return "FileModified" }
func (v FileModified) Apply() error {
	if err := os.WriteFile(v.Path, v.Content, 0o644); err != nil {
		return fmt.Errorf("actionlog: overwrite %s: %w", v.Path, err)
	}
	return nil
}

// FileMoved's Apply renames To back to From.
type FileMoved struct {
	From string
	To   string
}

func (FileMoved) Kind() string { return "FileMoved" }
func (v FileMoved) Apply() error {
	if err := os.MkdirAll(filepath.Dir(v.From), 0o755); err != nil {
		return fmt.Errorf("actionlog: create parents for %s: %w", v.From, err)
	}
	if err := os.Rename(v.To, v.From); err != nil {
		return fmt.Errorf("actionlog: rename %s to %s: %w", v.To, v.From, err)
	}
	return nil
}

// DirectoryCreated's Apply recursively removes Path.
type DirectoryCreated struct {
	Path string
}

func (DirectoryCreated) Kind() string { return "DirectoryCreated" }
func (v DirectoryCreated) Apply() error {
	if err := os.RemoveAll(v.Path); err != nil {
		return fmt.Errorf("actionlog: remove directory %s: %w", v.Path, err)
	}
	return nil
}

// DirEntry is one file restored as part of a DirectoryDeleted reversal.
type DirEntry struct {
	Path    string
	Content []byte
}

// DirectoryDeleted's Apply recreates Path and restores every entry in
// Contents.
type DirectoryDeleted struct {
	Path     string
	Contents []DirEntry
}

func (DirectoryDeleted) Kind() string { return "DirectoryDeleted" }
func (v DirectoryDeleted) Apply() error {
	if err := os.MkdirAll(v.Path, 0o755); err != nil {
		return fmt.Errorf("actionlog: recreate directory %s: %w", v.Path, err)
	}
	for _, entry := range v.Contents {
		if err := os.MkdirAll(filepath.Dir(entry.Path), 0o755); err != nil {
			return fmt.Errorf("actionlog: create parents for %s: %w", entry.Path, err)
		}
		if err := os.WriteFile(entry.Path, entry.Content, 0o644); err != nil {
			return fmt.Errorf("actionlog: restore %s: %w", entry.Path, err)
		}
	}
	return nil
}

// Action is one undo/redo unit.
type Action struct {
	ID          string
	Command     string
	Description string
	StateBefore StateVariant
	StateAfter  StateVariant
	Timestamp   time.Time
}

var (
	// ErrNothingToUndo is returned by Undo when the cursor is already at
	// the start of history.
	ErrNothingToUndo = errors.New("actionlog: nothing to undo")
	// ErrNothingToRedo is returned by Redo when the cursor is already at
	// the end of history.
	ErrNothingToRedo = errors.New("actionlog: nothing to redo")
)

// ActionLog is a classical undo stack: a history of Actions and a cursor
// into it. Recording truncates any redo-able tail before appending.
type ActionLog struct {
	mu      sync.Mutex
	history []*Action
	cursor  int
}

// New returns an empty ActionLog.
func New() *ActionLog { return &ActionLog{} }

// Record truncates history to the cursor, appends a, and advances the
// cursor past it.
func (l *ActionLog) Record(a *Action) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history = append(l.history[:l.cursor], a)
	l.cursor = len(l.history)
}

// CanUndo reports whether there is an action to undo.
func (l *ActionLog) CanUndo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor > 0
}

// CanRedo reports whether there is an action to redo.
func (l *ActionLog) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor < len(l.history)
}

// CanUndoCount returns how many actions are available to undo.
func (l *ActionLog) CanUndoCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor
}

// CanRedoCount returns how many actions are available to redo.
func (l *ActionLog) CanRedoCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.history) - l.cursor
}

// Undo applies the action immediately before the cursor's StateBefore and
// moves the cursor back over it. The cursor is not moved if the reversal
// fails, leaving the action eligible for a retried Undo.
func (l *ActionLog) Undo() (*Action, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cursor == 0 {
		return nil, ErrNothingToUndo
	}
	action := l.history[l.cursor-1]
	if err := action.StateBefore.Apply(); err != nil {
		return nil, fmt.Errorf("actionlog: undo %s: %w", action.ID, err)
	}
	l.cursor--
	return action, nil
}

// Redo applies the action at the cursor's StateAfter and advances the
// cursor past it. The cursor is not advanced if the replay fails.
func (l *ActionLog) Redo() (*Action, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cursor >= len(l.history) {
		return nil, ErrNothingToRedo
	}
	action := l.history[l.cursor]
	if err := action.StateAfter.Apply(); err != nil {
		return nil, fmt.Errorf("actionlog: redo %s: %w", action.ID, err)
	}
	l.cursor++
	return action, nil
}

// History returns a snapshot of the full recorded history and the current
// cursor position, for diagnostics and testing.
func (l *ActionLog) History() ([]*Action, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Action, len(l.history))
	copy(out, l.history)
	return out, l.cursor
}
