package hook

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/customgpt/quadverify/internal/audit"
	"github.com/customgpt/quadverify/internal/caps"
	"github.com/customgpt/quadverify/internal/config"
	"github.com/customgpt/quadverify/internal/logger"
	"github.com/customgpt/quadverify/internal/router"
	"github.com/customgpt/quadverify/internal/rules"
	"github.com/customgpt/quadverify/internal/session"
)

// preTool runs the enforcement pipeline: trust gate, capability gate,
// content extraction, routing, rule evaluation, and the correction and
// budget bookkeeping that shapes a blocking reason.
func preTool(e *env) Result {
	tool := e.event.ToolName

	if e.cfg.TrustLevel == config.TrustMinimal {
		logger.Debug("minimal trust, enforcement skipped", "tool", tool)
		e.logDecision(audit.DecisionApprove, tool, nil, map[string]any{"trustLevel": config.TrustMinimal})
		return approve(tool)
	}

	capDecision := caps.Check(tool, e.cfg.Capabilities)
	if !capDecision.Allowed {
		reason := caps.BlockReason(tool, capDecision)
		logger.Debug("capability gate blocked tool", "tool", tool, "missing", capDecision.Missing)
		v := capabilityViolation(tool, capDecision)
		e.logDecision(audit.DecisionBlock, tool, []rules.Violation{v}, nil)
		return Result{
			Decision:   DecisionBlock,
			Reason:     reason,
			Output:     FormatBlock(reason),
			Tool:       tool,
			Violations: 1,
		}
	}

	ext := Extract(tool, e.event.ToolInput, e.cfg.MCP.MaxInputSizeBytes)
	if ext.Truncated {
		logger.Stderr("oversized %s input truncated for scanning", tool)
	}

	if e.cfg.LeanMode {
		logger.Debug("lean mode, enforcement skipped", "tool", tool)
		e.logDecision(audit.DecisionApprove, tool, nil, map[string]any{"leanMode": true})
		return approve(tool)
	}
	if ext.Content == "" {
		e.logDecision(audit.DecisionApprove, tool, nil, nil)
		return approve(tool)
	}

	route := router.Classify(tool, ext.Command, ext.Content, e.cfg.ModelRouting.Enabled)
	logger.Debug("routed", "tool", tool, "level", route.Level)

	fileExt := strings.ToLower(filepath.Ext(ext.FilePath))
	req := rules.Request{
		Content:        ext.Content,
		Ext:            fileExt,
		Context:        ext.Context,
		Path:           ext.FilePath,
		Disabled:       e.cfg.DisabledSet(),
		OnlyCritical:   route.OnlyCritical,
		IgnoreDisabled: route.IgnoreDisabled || e.cfg.TrustLevel == config.TrustStrict,
	}

	catalog := rules.Enforcement()
	if e.cfg.Cycle4.Enabled && rules.IsResearchPath(ext.FilePath) {
		catalog = rules.Research()
	}

	violations := rules.Evaluate(catalog, req)
	strict := e.cfg.TrustLevel == config.TrustStrict

	if len(violations) == 0 || !rules.ShouldBlock(violations, strict) {
		if len(violations) > 0 {
			logger.Stderr("advisory findings for %s (not blocking): %s",
				tool, strings.Join(rules.IDs(violations), ", "))
			logger.Debug("informational violations only", "tool", tool, "count", len(violations))
		}
		e.passedEnforcement(ext.FilePath, violations)
		e.logDecision(audit.DecisionApprove, tool, violations, nil)
		return approve(tool)
	}

	reason := e.blockedEnforcement(correctionKey(tool, ext), violations)
	e.logDecision(audit.DecisionBlock, tool, violations, map[string]any{"route": string(route.Level)})
	return Result{
		Decision:   DecisionBlock,
		Reason:     reason,
		Output:     FormatBlock(reason),
		Tool:       tool,
		Violations: len(violations),
	}
}

// passedEnforcement clears any correction streak for the target and
// credits the previously blocking rules as fixed.
func (e *env) passedEnforcement(path string, violations []rules.Violation) {
	if path == "" {
		return
	}
	st := session.Load(e.stateDir, e.sessionID)
	if st.Correction[path] == nil || st.Correction[path].Attempts == 0 {
		return
	}
	session.RecordPass(st, path)
	session.NoteViolations(st, rules.IDs(violations))
	if err := st.Save(e.stateDir); err != nil {
		logger.Debug("session state save failed", "error", err)
	}
}

// blockedEnforcement records the block against the session state and
// renders the full reason: violations, remediation hints, an escalation
// note after repeated failures, all condensed when the verification
// budget runs out.
func (e *env) blockedEnforcement(key string, violations []rules.Violation) string {
	st := session.Load(e.stateDir, e.sessionID)

	ids := rules.IDs(violations)
	session.NoteViolations(st, ids)
	session.RecordBlock(st, key, ids, time.Now())

	reason := rules.FormatReason(violations)
	tokens := session.EstimateTokens(reason)
	if session.Over(st, tokens, e.cfg.MaxVerificationTokens) {
		violations = session.Condense(violations)
		reason = rules.FormatReason(violations)
		tokens = session.EstimateTokens(reason)
		logger.Debug("violation messages condensed", "budget", e.cfg.MaxVerificationTokens)
	}
	session.Charge(st, session.SourceBlockMessage, tokens)

	if hints := session.Hints(violations); hints != "" {
		reason += "\n\nHow to fix:\n" + hints
		session.Charge(st, session.SourceCorrectionHint, session.EstimateTokens(hints))
	}
	if note := session.EscalationNote(st, key); note != "" {
		reason += "\n\n" + note
	}

	if err := st.Save(e.stateDir); err != nil {
		logger.Debug("session state save failed", "error", err)
	}
	return reason
}

// correctionKey identifies the target of a block for attempt counting:
// the file path when there is one, otherwise the tool itself.
func correctionKey(tool string, ext Extracted) string {
	if ext.FilePath != "" {
		return ext.FilePath
	}
	return "tool:" + tool
}

func capabilityViolation(tool string, d caps.Decision) rules.Violation {
	return rules.Violation{
		RuleID:   "capability-denied",
		Priority: rules.PrioritySecurity,
		Severity: rules.SeverityCritical,
		Code:     "security.capability-denied",
		Message:  "tool " + tool + " requires disallowed capabilities: " + strings.Join(d.Missing, ", "),
	}
}

func approve(tool string) Result {
	return Result{Decision: DecisionApprove, Output: FormatApprove(), Tool: tool}
}

// logDecision writes one audit entry for this invocation.
func (e *env) logDecision(decision, tool string, violations []rules.Violation, metadata map[string]any) {
	audit.Log(audit.Entry{
		SessionID:  e.sessionID,
		Event:      e.point,
		Tool:       tool,
		Decision:   decision,
		DurationMs: e.elapsedMs(),
		Violations: violations,
		Metadata:   metadata,
	})
}
