package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/customgpt/quadverify/internal/rules"
)

// escalationAttempts is how many blocks on one target trigger the
// step-back escalation.
const escalationAttempts = 3

// NoteViolations bumps the per-rule total for every rule that fired.
func NoteViolations(st *State, ids []string) {
	for _, id := range ids {
		stats := st.Effectiveness[id]
		if stats == nil {
			stats = &RuleStats{}
			st.Effectiveness[id] = stats
		}
		stats.Total++
	}
}

// RecordBlock logs a blocked attempt against key. A rule that also
// fired on the previous attempt for the same key counts as ignored:
// the agent saw the feedback and repeated the mistake.
func RecordBlock(st *State, key string, ids []string, now time.Time) {
	c := st.Correction[key]
	if c == nil {
		c = &Correction{}
		st.Correction[key] = c
	}
	if len(c.History) > 0 {
		prev := c.History[len(c.History)-1]
		for _, id := range ids {
			for _, old := range prev.RuleIDs {
				if id == old {
					if stats := st.Effectiveness[id]; stats != nil {
						stats.Ignored++
					}
					break
				}
			}
		}
	}
	c.Attempts++
	c.History = append(c.History, CorrectionAttempt{TS: now, RuleIDs: ids})
	if len(c.History) > MaxCorrectionHistory {
		c.History = c.History[len(c.History)-MaxCorrectionHistory:]
	}
}

// RecordPass clears the correction counter for key after a clean pass
// and credits the rules from the last blocked attempt as fixed.
func RecordPass(st *State, key string) {
	c := st.Correction[key]
	if c == nil || c.Attempts == 0 {
		return
	}
	if len(c.History) > 0 {
		last := c.History[len(c.History)-1]
		for _, id := range last.RuleIDs {
			if stats := st.Effectiveness[id]; stats != nil {
				stats.Fixed++
			}
		}
	}
	c.Attempts = 0
}

// Hints renders numbered remediation steps for the violations that
// carry one.
func Hints(vs []rules.Violation) string {
	var b strings.Builder
	n := 0
	for _, v := range vs {
		if v.Remediation == "" {
			continue
		}
		n++
		fmt.Fprintf(&b, "%d. [%s] %s\n", n, v.RuleID, v.Remediation)
	}
	return strings.TrimRight(b.String(), "\n")
}

// EscalationNote returns the step-back message once a target has been
// blocked escalationAttempts times, or empty before that.
func EscalationNote(st *State, key string) string {
	c := st.Correction[key]
	if c == nil || c.Attempts < escalationAttempts {
		return ""
	}
	union := RuleUnion(c.History)
	return fmt.Sprintf("This operation has been blocked %d times for recurring issues (%s). Stop retrying variations and fix the underlying problem first.",
		c.Attempts, strings.Join(union, ", "))
}

// RuleUnion returns every rule id across history in first-seen order.
func RuleUnion(history []CorrectionAttempt) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, att := range history {
		for _, id := range att.RuleIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
