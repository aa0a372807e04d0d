// Package caps gates tools by declared capability before any content
// analysis runs. The mapping is static: a tool either has a known
// capability profile or it is unknown, and unknown tools are blocked
// whenever the gate is fail-closed.
package caps

import (
	"strings"

	"github.com/customgpt/quadverify/internal/config"
)

// CapUnknown marks a tool with no capability profile.
const CapUnknown = "unknown"

// toolCaps maps tool names to the capabilities they exercise. Bash is
// listed with everything a shell can reach, not just what a given
// command uses.
var toolCaps = map[string][]string{
	"Read":         {config.CapFilesystem},
	"Write":        {config.CapFilesystem},
	"Edit":         {config.CapFilesystem},
	"MultiEdit":    {config.CapFilesystem},
	"NotebookEdit": {config.CapFilesystem},
	"Glob":         {config.CapFilesystem},
	"Grep":         {config.CapFilesystem},
	"LS":           {config.CapFilesystem},
	"Bash":         {config.CapShell, config.CapFilesystem, config.CapNetwork},
	"WebFetch":     {config.CapNetwork},
	"WebSearch":    {config.CapNetwork},
	"Task":         {config.CapFilesystem, config.CapShell, config.CapNetwork},
	"TodoWrite":    {config.CapFilesystem},
}

// Required returns the capabilities a tool needs, or nil for a tool the
// gate has never heard of. MCP tools are recognized by prefix; both the
// double- and single-underscore naming conventions occur in the wild.
func Required(tool string) []string {
	if strings.HasPrefix(tool, "mcp_") {
		return []string{config.CapMCP}
	}
	if caps, ok := toolCaps[tool]; ok {
		return caps
	}
	return nil
}

// Decision is the outcome of a capability check.
type Decision struct {
	Allowed bool
	Missing []string
	Unknown bool
}

// Check evaluates tool against the configured capability allowlist.
// A known tool missing a capability is always blocked; an unknown tool
// is blocked only when the gate is fail-closed.
func Check(tool string, cfg config.CapabilityConfig) Decision {
	if !cfg.Enabled {
		return Decision{Allowed: true}
	}

	required := Required(tool)
	if required == nil {
		if cfg.FailClosed {
			return Decision{Missing: []string{CapUnknown}, Unknown: true}
		}
		return Decision{Allowed: true, Unknown: true}
	}

	allowed := make(map[string]bool, len(cfg.Allowed))
	for _, c := range cfg.Allowed {
		allowed[c] = true
	}

	var missing []string
	for _, c := range required {
		if !allowed[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return Decision{Missing: missing}
	}
	return Decision{Allowed: true}
}

// BlockReason renders a human-readable explanation for a blocked tool.
func BlockReason(tool string, d Decision) string {
	if d.Unknown {
		return "Tool " + tool + " has no capability profile and the capability gate is fail-closed. Add it to capabilities.allowed handling or disable failClosed."
	}
	return "Tool " + tool + " requires capabilities not in the allowlist: " + strings.Join(d.Missing, ", ") + "."
}
