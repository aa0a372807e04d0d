package hook

import (
	"context"
	"time"

	"github.com/customgpt/quadverify/internal/audit"
	"github.com/customgpt/quadverify/internal/boundary"
	"github.com/customgpt/quadverify/internal/logger"
	"github.com/customgpt/quadverify/internal/rules"
	"github.com/customgpt/quadverify/internal/sensitive"
	"github.com/customgpt/quadverify/internal/session"
)

// snapshotTimeout bounds the optional process snapshot so a wedged ps
// cannot stall the hook.
const snapshotTimeout = 2 * time.Second

// maxQuotedExternalBytes caps how much flagged external content is
// quoted into an audit record.
const maxQuotedExternalBytes = 2048

// postTool observes a completed tool call: it folds the call into the
// session history, runs the behavioral detectors, scans external
// content for injection phrases, and flags sensitive-path access.
// Post-tool never blocks; everything it finds becomes a warning and an
// audit record.
func postTool(e *env) Result {
	tool := e.event.ToolName
	ext := Extract(tool, e.event.ToolInput, e.cfg.MCP.MaxInputSizeBytes)

	st := session.Load(e.stateDir, e.sessionID)
	warnings := session.Record(st, session.Entry{
		TS:       time.Now(),
		Tool:     tool,
		FilePath: ext.FilePath,
		Command:  ext.Command,
		URL:      ext.URL,
	}, ext.Content)

	metadata := map[string]any{}

	for _, w := range warnings {
		logger.Stderr("behavioral warning [%s]: %s", w.Pattern, w.Detail)
	}
	if len(warnings) > 0 {
		patterns := make([]string, len(warnings))
		for i, w := range warnings {
			patterns[i] = w.Pattern
		}
		metadata["behavioralWarnings"] = patterns
	}

	if ext.Context == rules.ContextWeb || ext.Context == rules.ContextMCP {
		text := ResponseText(e.event.ToolResponse)
		if hits := boundary.DetectInjection(text); len(hits) > 0 {
			logger.Stderr("possible prompt injection in %s result: %v", tool, hits)
			metadata["injectionPatterns"] = hits
			// Quote the offending content inside boundary markers so the
			// audit record carries it as data, not instructions.
			metadata["externalContent"] = boundary.Wrap(truncateValidUTF8(text, maxQuotedExternalBytes))
		}
	}

	if tool == "Bash" && ext.Command != "" {
		if hits := sensitive.ScanCommand(ext.Command); len(hits) > 0 {
			ids := make([]string, len(hits))
			for i, p := range hits {
				ids[i] = p.ID
				logger.Stderr("sensitive access [%s]: %s", p.ID, p.Description)
			}
			metadata["sensitiveAccess"] = ids

			ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
			metadata["processSnapshot"] = sensitive.CaptureSnapshot(ctx)
			cancel()
		}
	}

	if len(warnings) > 0 {
		tokens := 0
		for _, w := range warnings {
			tokens += session.EstimateTokens(w.Detail)
		}
		session.Charge(st, session.SourceBehavioralWarning, tokens)
	}

	if err := st.Save(e.stateDir); err != nil {
		logger.Stderr("session state not saved: %v", err)
		logger.Debug("session state save failed", "error", err)
	}

	if len(metadata) == 0 {
		metadata = nil
	}
	audit.Log(audit.Entry{
		SessionID:  e.sessionID,
		Event:      PointPostTool,
		Tool:       tool,
		Decision:   audit.DecisionLogOnly,
		DurationMs: e.elapsedMs(),
		Metadata:   metadata,
	})

	// Post-tool emits nothing on stdout.
	return Result{Decision: DecisionApprove, Tool: tool}
}
