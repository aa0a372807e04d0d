// Package constants defines shared constants used across the quadverify codebase.
package constants

import "os"

// File permissions
const (
	DirMode  os.FileMode = 0755
	FileMode os.FileMode = 0644
)

// Environment variables
const (
	EnvPluginRoot = "CLAUDE_PLUGIN_ROOT"
	EnvSessionID  = "CLAUDE_SESSION_ID"
	EnvDebug      = "QUADVERIFY_DEBUG"
	EnvAPIKey     = "QUADVERIFY_API_KEY"
)

// Application paths
const (
	AppName          = "quadverify"
	ClaudeConfigDir  = ".claude"
	UserConfigFile   = "quadruple-verify-config.json"
	AuditDirName     = "quadruple-verify-audit"
	DefaultRulesFile = "default-rules.json"
	DebugLogFile     = "quadverify-debug.log"
)

// DiagPrefix prefixes every diagnostic line written to stderr. stderr is
// shared with the host, so unprefixed writes are not allowed anywhere.
const DiagPrefix = "[quadruple-verify] "
