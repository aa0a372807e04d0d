// Package hook implements the verification pipelines for quadverify.
//
// One hook process handles one event: read stdin, decide, write stdout,
// exit zero. Everything runs under a fail-open supervisor: a verifier
// bug must degrade to approval, never stall the session.
package hook

import (
	"encoding/json"
	"io"
	"time"

	"github.com/customgpt/quadverify/internal/audit"
	"github.com/customgpt/quadverify/internal/config"
	"github.com/customgpt/quadverify/internal/logger"
	"github.com/customgpt/quadverify/internal/project"
)

// maxInputBytes caps how much stdin one hook invocation reads. The
// host sends kilobytes; anything beyond this is not a hook event.
const maxInputBytes = 10 << 20

// env carries the per-invocation context assembled by Process and
// shared by the three pipelines.
type env struct {
	event     *Event
	point     string
	cfg       *config.Config
	root      string
	sessionID string
	stateDir  string
	start     time.Time
	opts      Options
}

// Process reads one event from r and runs the pipeline for its hook
// point. The returned Result always carries a usable Output for
// pre-tool events; failures of any kind degrade to approval.
func Process(r io.Reader, opts Options) (result Result) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			logger.Stderr("internal error, approving: %v", rec)
			logger.Debug("pipeline panicked", "panic", rec)
			result = Result{Decision: DecisionApprove, Output: FormatApprove()}
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(r, maxInputBytes))
	if err != nil {
		logger.Debug("failed to read input", "error", err)
		return Result{Decision: DecisionApprove, Output: FormatApprove()}
	}
	if len(raw) == 0 {
		logger.Debug("empty input, approving")
		return Result{Decision: DecisionApprove, Output: FormatApprove()}
	}

	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		logger.Debug("failed to decode input", "error", err)
		return Result{Decision: DecisionApprove, Output: FormatApprove()}
	}

	point := event.Point()
	if opts.ForcePoint != "" {
		point = opts.ForcePoint
	}

	root := project.Root(event.Cwd)
	cfg := config.Resolve(root)

	auditDir := cfg.AuditDir
	if auditDir == "" {
		auditDir = project.AuditDir(root)
	}

	e := &env{
		event:     &event,
		point:     point,
		cfg:       cfg,
		root:      root,
		sessionID: project.SessionID(event.SessionID, root),
		stateDir:  auditDir,
		start:     start,
		opts:      opts,
	}
	audit.Init(auditDir, e.sessionID, opts.NoAuditLog)

	logger.Debug("processing event",
		"point", point, "tool", event.ToolName, "session", e.sessionID)

	switch point {
	case PointPreTool:
		return preTool(e)
	case PointPostTool:
		return postTool(e)
	case PointStop:
		return stopHook(e)
	}

	logger.Debug("unrecognized hook point, approving", "point", event.HookPoint)
	return Result{Decision: DecisionApprove, Output: FormatApprove()}
}

// elapsedMs returns the invocation duration for audit entries.
func (e *env) elapsedMs() float64 {
	return float64(time.Since(e.start).Microseconds()) / 1000.0
}
