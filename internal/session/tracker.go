package session

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/customgpt/quadverify/internal/sensitive"
	"github.com/customgpt/quadverify/internal/shellparse"
)

// Detection windows and thresholds.
const (
	destructiveWindow    = 30 * time.Second
	destructiveThreshold = 3
	exfilWindow          = 60 * time.Second
	escalationWindow     = 60 * time.Second
	revertWindow         = 5
	revertThreshold      = 3
	revertSimilarity     = 0.8
	bruteForceThreshold  = 4
)

var (
	destructiveRe = regexp.MustCompile(`(?i)\brm\s+-[a-zA-Z]*r|\brmdir\b|\bgit\s+reset\s+--hard\b|\bgit\s+clean\s+-[a-zA-Z]*f|\bgit\s+checkout\s+\.|\btruncate\s|\bdd\s+[^|\n]*\bof=|\bmkfs\b|\bshred\b|>\s*/dev/sd`)
	egressRe      = regexp.MustCompile(`(?i)\b(?:curl|wget|nc|ncat|netcat|ssh|scp|rsync|sftp)\b`)
)

// Warning is one behavioral pattern detected during recording. Warnings
// surface as diagnostics and audit metadata, never as blocks.
type Warning struct {
	Pattern string
	Detail  string
}

// Record folds one tool call into the session state and returns any
// behavioral warnings it triggers. Detection runs against the history
// as it was before this call, so a pattern fires on the call that
// completes it.
func Record(st *State, e Entry, editContent string) []Warning {
	if e.Tool == "Bash" && e.PermChangedPath == "" {
		e.PermChangedPath = permTarget(e.Command)
	}

	var warnings []Warning
	switch e.Tool {
	case "Edit", "MultiEdit", "NotebookEdit":
		if e.FilePath != "" && !st.FilesRead[e.FilePath] && !st.FilesWritten[e.FilePath] {
			warnings = append(warnings, Warning{
				Pattern: "write-without-read",
				Detail:  fmt.Sprintf("%s modified %s without reading it first in this session", e.Tool, e.FilePath),
			})
		}
	case "Bash":
		warnings = append(warnings, detectBash(st, e)...)
	}

	st.History = append(st.History, e)
	if len(st.History) > MaxHistory {
		st.History = st.History[len(st.History)-MaxHistory:]
	}

	switch e.Tool {
	case "Read":
		if e.FilePath != "" {
			st.FilesRead[e.FilePath] = true
		}
	case "Write", "Edit", "MultiEdit", "NotebookEdit":
		if e.FilePath != "" {
			st.FilesWritten[e.FilePath] = true
			if w := recordSnapshot(st, e, editContent); w != nil {
				warnings = append(warnings, *w)
			}
		}
	case "Bash":
		st.RetryHistory = append(st.RetryHistory, e)
		if len(st.RetryHistory) > MaxRetryHistory {
			st.RetryHistory = st.RetryHistory[len(st.RetryHistory)-MaxRetryHistory:]
		}
	}

	return warnings
}

func detectBash(st *State, e Entry) []Warning {
	var warnings []Warning

	if destructiveRe.MatchString(e.Command) {
		n := 1
		for _, prev := range st.History {
			if prev.Tool == "Bash" && destructiveRe.MatchString(prev.Command) &&
				e.TS.Sub(prev.TS) <= destructiveWindow {
				n++
			}
		}
		if n >= destructiveThreshold {
			warnings = append(warnings, Warning{
				Pattern: "rapid-destructive",
				Detail:  fmt.Sprintf("%d destructive commands within %s", n, destructiveWindow),
			})
		}
	}

	if egressRe.MatchString(e.Command) {
		if sensitive.MatchesAny(e.Command) {
			warnings = append(warnings, Warning{
				Pattern: "exfiltration-sequence",
				Detail:  "single command reads sensitive data and reaches the network",
			})
		} else {
			for _, prev := range st.History {
				if e.TS.Sub(prev.TS) > exfilWindow {
					continue
				}
				if sensitive.MatchesAny(prev.Command) || sensitive.MatchesAny(prev.FilePath) {
					warnings = append(warnings, Warning{
						Pattern: "exfiltration-sequence",
						Detail:  fmt.Sprintf("network egress within %s of sensitive data access", exfilWindow),
					})
					break
				}
			}
		}
	}

	for _, prev := range st.History {
		if prev.PermChangedPath == "" || e.TS.Sub(prev.TS) > escalationWindow {
			continue
		}
		if strings.Contains(e.Command, prev.PermChangedPath) {
			warnings = append(warnings, Warning{
				Pattern: "permission-escalation",
				Detail:  fmt.Sprintf("command uses %s shortly after its permissions changed", prev.PermChangedPath),
			})
			break
		}
	}

	// Only an unbroken run counts as a retry loop; any different command
	// in between resets it.
	n := 1
	for i := len(st.RetryHistory) - 1; i >= 0; i-- {
		if st.RetryHistory[i].Command != e.Command {
			break
		}
		n++
	}
	if n >= bruteForceThreshold {
		warnings = append(warnings, Warning{
			Pattern: "brute-force-retry",
			Detail:  fmt.Sprintf("identical command repeated %d times", n),
		})
	}

	return warnings
}

// recordSnapshot appends a truncated copy of the edit and checks the
// recent window for revert churn: the same content reappearing again
// and again means the agent is thrashing, not progressing.
func recordSnapshot(st *State, e Entry, content string) *Warning {
	snap := Snapshot{TS: e.TS, Content: truncateRunes(content, SnapshotChars)}
	snaps := append(st.EditHistory[e.FilePath], snap)
	if len(snaps) > MaxSnapshots {
		snaps = snaps[len(snaps)-MaxSnapshots:]
	}
	st.EditHistory[e.FilePath] = snaps

	window := snaps
	if len(window) > revertWindow {
		window = window[len(window)-revertWindow:]
	}
	if len(window) < revertThreshold {
		return nil
	}
	for i := range window {
		similar := 0
		for j := range window {
			if BigramJaccard(window[i].Content, window[j].Content) > revertSimilarity {
				similar++
			}
		}
		if similar >= revertThreshold {
			return &Warning{
				Pattern: "edit-revert-loop",
				Detail:  fmt.Sprintf("%s rewritten to near-identical content %d times in the last %d edits", e.FilePath, similar, len(window)),
			}
		}
	}
	return nil
}

// permTarget returns the path whose permissions a chmod/chown command
// changes, or empty when the command is not a permission change.
func permTarget(cmd string) string {
	segments, err := shellparse.Segments(cmd)
	if err != nil {
		segments = []string{cmd}
	}
	for _, seg := range segments {
		fields := shellparse.Fields(seg)
		if len(fields) > 0 && fields[0] == "sudo" {
			fields = fields[1:]
		}
		if len(fields) < 2 || (fields[0] != "chmod" && fields[0] != "chown") {
			continue
		}
		for i := len(fields) - 1; i >= 1; i-- {
			if !strings.HasPrefix(fields[i], "-") {
				return fields[i]
			}
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
