// Package audit appends one JSONL record per hook decision to a
// per-session file under the project audit directory. Audit failures
// never fail a hook: the first failure prints a single diagnostic and
// later ones are swallowed.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/customgpt/quadverify/internal/constants"
	"github.com/customgpt/quadverify/internal/logger"
	"github.com/customgpt/quadverify/internal/rules"
)

// Decisions recorded per entry.
const (
	DecisionApprove = "approve"
	DecisionBlock   = "block"
	DecisionLogOnly = "log-only"
)

// TimestampFormat is the audit log timestamp layout.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Entry is one audit record.
type Entry struct {
	Timestamp  string            `json:"timestamp"`
	SessionID  string            `json:"sessionId"`
	Event      string            `json:"event"`
	Tool       string            `json:"tool,omitempty"`
	Decision   string            `json:"decision"`
	DurationMs float64           `json:"durationMs"`
	Violations []rules.Violation `json:"violations,omitempty"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
}

var (
	auditFile *os.File
	mu        sync.Mutex
	enabled   bool
	warnOnce  sync.Once
)

// Path returns the audit log location for a session.
func Path(dir, sessionID string) string {
	return filepath.Join(dir, sessionID+".jsonl")
}

// Init opens the per-session audit log in append mode. With disable
// set it records nothing and Log becomes a no-op.
func Init(dir, sessionID string, disable bool) error {
	mu.Lock()
	defer mu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}

	if disable {
		enabled = false
		return nil
	}

	if err := os.MkdirAll(dir, constants.DirMode); err != nil {
		warn(err)
		return err
	}

	f, err := os.OpenFile(Path(dir, sessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FileMode)
	if err != nil {
		warn(err)
		return err
	}

	auditFile = f
	enabled = true
	logger.Debug("audit logging initialized", "path", f.Name())
	return nil
}

// Log appends one entry. Uninitialized or disabled logging is a no-op;
// write failures warn once and are otherwise ignored.
func Log(entry Entry) error {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || auditFile == nil {
		return nil
	}

	entry.Timestamp = time.Now().UTC().Format(TimestampFormat)

	data, err := json.Marshal(entry)
	if err != nil {
		warn(err)
		return err
	}
	if _, err := auditFile.Write(append(data, '\n')); err != nil {
		warn(err)
		return err
	}
	return nil
}

// Close closes the audit log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if auditFile != nil {
		err := auditFile.Close()
		auditFile = nil
		enabled = false
		return err
	}
	return nil
}

// IsEnabled reports whether audit logging is active.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Reset clears the audit state. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	if auditFile != nil {
		auditFile.Close()
	}
	auditFile = nil
	enabled = false
	warnOnce = sync.Once{}
}

func warn(err error) {
	warnOnce.Do(func() {
		logger.Stderr("audit logging degraded: %v", err)
	})
	logger.Debug("audit failure", "error", err)
}
