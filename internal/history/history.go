// Package history keeps a local log of submitted generation tasks so they
// can be listed, inspected and resumed by task ID.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/everstacklabs/kai/internal/task"
)

// MaxEntries caps the log; the oldest entries are dropped first.
const MaxEntries = 1000

// ErrNotFound is returned when no entry has the requested task ID.
var ErrNotFound = errors.New("history: entry not found")

// Command names recorded with each entry.
const (
	CmdImageGenerate = "image:generate"
	CmdVideoGenerate = "video:generate"
	CmdMusicGenerate = "music:generate"
	CmdMusicLyrics   = "music:lyrics"
	CmdMusicVideo    = "music:video"
)

// Status is the coarse outcome stored for an entry.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFail    Status = "fail"
)

// Entry is one submitted task.
type Entry struct {
	ID          string         `json:"id"`
	TaskID      string         `json:"task_id"`
	Provider    string         `json:"provider"`
	Family      task.Family    `json:"family"`
	Command     string         `json:"command"`
	Model       string         `json:"model"`
	Prompt      string         `json:"prompt,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
	Status      Status         `json:"status"`
	Outputs     []task.Output  `json:"outputs,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// Ref returns the remote reference of the entry's task.
func (e *Entry) Ref() task.Ref {
	return task.Ref{ID: e.TaskID, Family: e.Family}
}

// Query filters entries. Zero fields match everything.
type Query struct {
	// Type matches the command prefix, e.g. "image" for "image:generate".
	Type   string
	Status Status
	Limit  int
}

// Store is a JSON file of entries in insertion order.
type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New creates a store backed by the file at path. The file is created on
// first write.
func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Add appends e, assigning an ID and creation time when unset.
func (s *Store) Add(e Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return Entry{}, err
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	if e.Status == "" {
		e.Status = StatusPending
	}

	entries = append(entries, e)
	if len(entries) > MaxEntries {
		entries = entries[len(entries)-MaxEntries:]
	}
	return e, s.write(entries)
}

// Update applies fn to the newest entry for taskID.
func (s *Store) Update(taskID string, fn func(*Entry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].TaskID == taskID {
			fn(&entries[i])
			return s.write(entries)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, taskID)
}

// Complete records the terminal result of a task.
func (s *Store) Complete(res *task.Result) error {
	return s.Update(res.ID, func(e *Entry) {
		now := s.now().UTC()
		e.CompletedAt = &now
		e.Outputs = res.Outputs
		e.Error = res.Error
		if res.State == task.StateSuccess {
			e.Status = StatusSuccess
		} else {
			e.Status = StatusFail
		}
	})
}

// Find returns the newest entry for taskID.
func (s *Store) Find(taskID string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].TaskID == taskID {
			e := entries[i]
			return &e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, taskID)
}

// List returns matching entries, newest first.
func (s *Store) List(q Query) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return nil, err
	}

	prefix := ""
	if q.Type != "" {
		prefix = q.Type + ":"
	}

	var out []Entry
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if prefix != "" && !strings.HasPrefix(e.Command, prefix) {
			continue
		}
		if q.Status != "" && e.Status != q.Status {
			continue
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write([]Entry{})
}

func (s *Store) read() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing history %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *Store) write(entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return os.Rename(tmp, s.path)
}
