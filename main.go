// quadverify - quadruple-verification hooks for Claude Code tool use.
//
// One binary serves three lifecycle points. Each invocation reads a JSON
// event on stdin and answers on stdout:
//
//	PreToolUse  -> {"decision":"approve"} or {"decision":"block","reason":...}
//	PostToolUse -> no output (behavior tracking and audit only)
//	Stop        -> {"prompt": ...} carrying the self-review prompt
//
// Usage in ~/.claude/settings.json:
//
//	"hooks": {
//	  "PreToolUse":  [{"hooks": [{"type": "command", "command": "quadverify"}]}],
//	  "PostToolUse": [{"hooks": [{"type": "command", "command": "quadverify"}]}],
//	  "Stop":        [{"hooks": [{"type": "command", "command": "quadverify"}]}]
//	}
//
// Test:
//
//	echo '{"hook_point":"pre-tool","tool_name":"Bash","tool_input":{"command":"rm -rf /"}}' | quadverify
package main

import (
	"os"

	"github.com/customgpt/quadverify/cmd"
	"github.com/joho/godotenv"
)

func init() {
	// Pick up QUADVERIFY_API_KEY and friends from a local .env, if any.
	_ = godotenv.Load()
}

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
