// Package session persists per-session behavioral state across hook
// invocations: tool history, read/write sets, edit snapshots, rule
// effectiveness counters, correction attempts, and the verification
// token budget. State lives in one JSON file per session under the
// audit directory and is bounded on every write.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/customgpt/quadverify/internal/constants"
	"github.com/customgpt/quadverify/internal/logger"
)

// Bounds keep the state file small no matter how long a session runs.
const (
	MaxHistory           = 50
	MaxSnapshots         = 10
	SnapshotChars        = 500
	MaxRetryHistory      = 20
	MaxCorrectionHistory = 10
)

// Entry is one recorded tool call.
type Entry struct {
	TS              time.Time `json:"ts"`
	Tool            string    `json:"tool"`
	FilePath        string    `json:"filePath,omitempty"`
	Command         string    `json:"command,omitempty"`
	URL             string    `json:"url,omitempty"`
	PermChangedPath string    `json:"permChangedPath,omitempty"`
}

// Snapshot is a truncated copy of one edit's content, kept for churn
// detection.
type Snapshot struct {
	TS      time.Time `json:"ts"`
	Content string    `json:"content"`
}

// RuleStats tracks how the agent responds to one rule over a session.
type RuleStats struct {
	Fixed   int `json:"fixed"`
	Ignored int `json:"ignored"`
	Total   int `json:"total"`
}

// CorrectionAttempt is one blocked attempt against a target.
type CorrectionAttempt struct {
	TS      time.Time `json:"ts"`
	RuleIDs []string  `json:"ruleIds"`
}

// Correction accumulates blocked attempts for one target so repeat
// offenses can escalate.
type Correction struct {
	Attempts int                 `json:"attempts"`
	History  []CorrectionAttempt `json:"history"`
}

// SourceUsage is the token spend attributed to one feedback source.
type SourceUsage struct {
	Tokens int `json:"tokens"`
	Count  int `json:"count"`
}

// Budget is the session-wide verification token ledger.
type Budget struct {
	Total     int                     `json:"total"`
	PerSource map[string]*SourceUsage `json:"perSource,omitempty"`
}

// State is everything persisted for one session.
type State struct {
	SessionID     string                 `json:"sessionId"`
	History       []Entry                `json:"history,omitempty"`
	FilesRead     map[string]bool        `json:"filesRead,omitempty"`
	FilesWritten  map[string]bool        `json:"filesWritten,omitempty"`
	EditHistory   map[string][]Snapshot  `json:"editHistory,omitempty"`
	RetryHistory  []Entry                `json:"retryHistory,omitempty"`
	Effectiveness map[string]*RuleStats  `json:"effectiveness,omitempty"`
	Correction    map[string]*Correction `json:"correction,omitempty"`
	Budget        Budget                 `json:"budget"`
}

// New returns an empty state for sessionID with all maps initialized.
func New(sessionID string) *State {
	return &State{
		SessionID:     sessionID,
		FilesRead:     make(map[string]bool),
		FilesWritten:  make(map[string]bool),
		EditHistory:   make(map[string][]Snapshot),
		Effectiveness: make(map[string]*RuleStats),
		Correction:    make(map[string]*Correction),
		Budget:        Budget{PerSource: make(map[string]*SourceUsage)},
	}
}

// Path returns the state file location for a session.
func Path(dir, sessionID string) string {
	return filepath.Join(dir, sessionID+".behavior.json")
}

// Load reads the session state, returning a fresh state when the file
// is missing or unreadable. A corrupt file is never fatal.
func Load(dir, sessionID string) *State {
	data, err := os.ReadFile(Path(dir, sessionID))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debug("session state unreadable, starting fresh", "error", err)
		}
		return New(sessionID)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		logger.Debug("session state corrupt, starting fresh", "error", err)
		return New(sessionID)
	}
	st.SessionID = sessionID
	st.ensureMaps()
	return &st
}

func (s *State) ensureMaps() {
	if s.FilesRead == nil {
		s.FilesRead = make(map[string]bool)
	}
	if s.FilesWritten == nil {
		s.FilesWritten = make(map[string]bool)
	}
	if s.EditHistory == nil {
		s.EditHistory = make(map[string][]Snapshot)
	}
	if s.Effectiveness == nil {
		s.Effectiveness = make(map[string]*RuleStats)
	}
	if s.Correction == nil {
		s.Correction = make(map[string]*Correction)
	}
	if s.Budget.PerSource == nil {
		s.Budget.PerSource = make(map[string]*SourceUsage)
	}
}

// Save writes the state atomically: temp file in the same directory,
// then rename. A failed save is reported but must never fail a hook.
func (s *State) Save(dir string) error {
	if err := os.MkdirAll(dir, constants.DirMode); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".behavior-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session state: %w", err)
	}
	if err := tmp.Chmod(constants.FileMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod session state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close session state: %w", err)
	}
	if err := os.Rename(tmpName, Path(dir, s.SessionID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace session state: %w", err)
	}
	return nil
}
