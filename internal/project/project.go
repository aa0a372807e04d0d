// Package project resolves the project root and session identity for a hook event.
package project

import (
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/customgpt/quadverify/internal/constants"
)

// rootMarkers identify a project root, checked at each directory while
// walking upward.
var rootMarkers = []string{".git", "package.json", "pyproject.toml", ".claude"}

// launch pins the process start time so anonymous session ids stay stable
// for the lifetime of one hook invocation.
var launch = time.Now()

// Root walks upward from start looking for a project marker and returns the
// first directory that carries one. It falls back to the absolute form of
// start when no marker is found.
func Root(start string) string {
	if start == "" {
		if wd, err := os.Getwd(); err == nil {
			start = wd
		} else {
			return "."
		}
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return start
	}

	dir := abs
	for {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs
		}
		dir = parent
	}
}

// AuditDir returns the per-project audit directory.
func AuditDir(root string) string {
	return filepath.Join(root, constants.ClaudeConfigDir, constants.AuditDirName)
}

// SessionID resolves the session identity: the event-provided id wins, then
// the host environment variable, then an anonymous id derived from the
// project root and process launch time.
func SessionID(eventID, root string) string {
	if id := sanitizeID(eventID); id != "" {
		return id
	}
	if id := sanitizeID(os.Getenv(constants.EnvSessionID)); id != "" {
		return id
	}
	h := fnv.New64a()
	h.Write([]byte(root))
	h.Write([]byte(launch.Format(time.RFC3339Nano)))
	return "anon-" + formatHash(h.Sum64())
}

func formatHash(v uint64) string {
	const hexdigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexdigits[v&0xf]
		v >>= 4
	}
	return string(buf)
}

// sanitizeID strips characters that are unsafe in file names. Session ids
// become audit and state file names, so anything outside a conservative set
// is replaced.
func sanitizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return ""
	}
	if len(out) > 128 {
		out = out[:128]
	}
	return out
}
