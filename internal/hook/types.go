package hook

import (
	"encoding/json"
	"strings"
)

// Hook points.
const (
	PointPreTool  = "pre-tool"
	PointPostTool = "post-tool"
	PointStop     = "stop"
)

// Event is the JSON input received on stdin for every hook
// invocation. Field names follow the host protocol; hook_point is the
// native selector and hook_event_name is accepted as an alias.
//
// See: https://docs.anthropic.com/en/docs/claude-code/hooks
type Event struct {
	HookPoint      string          `json:"hook_point"`
	HookEventName  string          `json:"hook_event_name"`
	SessionID      string          `json:"session_id"`
	TranscriptPath string          `json:"transcript_path"`
	Cwd            string          `json:"cwd"`
	ToolName       string          `json:"tool_name"`
	ToolInput      json.RawMessage `json:"tool_input"`
	ToolResponse   json.RawMessage `json:"tool_response"`
	StopHookActive bool            `json:"stop_hook_active"`
}

// Point returns the normalized hook point. Host-style event names are
// accepted as aliases, and an event that names a tool but no point is
// treated as pre-tool. Empty means the point could not be determined.
func (e *Event) Point() string {
	switch strings.ToLower(strings.TrimSpace(e.HookPoint)) {
	case PointPreTool, "pretool", "pretooluse":
		return PointPreTool
	case PointPostTool, "posttool", "posttooluse":
		return PointPostTool
	case PointStop, "subagentstop":
		return PointStop
	}
	switch strings.ToLower(strings.TrimSpace(e.HookEventName)) {
	case "pretooluse", PointPreTool:
		return PointPreTool
	case "posttooluse", PointPostTool:
		return PointPostTool
	case "stop", "subagentstop":
		return PointStop
	}
	if e.ToolName != "" {
		return PointPreTool
	}
	return ""
}

// Result contains the outcome of processing one event. Output is the
// exact string written to stdout; empty means write nothing.
type Result struct {
	Decision   string
	Reason     string
	Output     string
	Tool       string
	Violations int
}

// Options carries CLI flags into event processing. ForcePoint pins the
// hook point when the binary is wired per-point instead of dispatching
// on the event.
type Options struct {
	ForcePoint string
	DryRun     bool
	NoAuditLog bool
}
