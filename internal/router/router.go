// Package router picks a verification depth per tool call so trivial
// calls stay cheap and sensitive ones get the full treatment.
package router

import (
	"strings"

	"github.com/customgpt/quadverify/internal/sensitive"
)

// Level is a verification depth.
type Level string

const (
	// LevelLight runs only critical rules.
	LevelLight Level = "light"
	// LevelStandard runs the full catalog minus disabled rules.
	LevelStandard Level = "standard"
	// LevelStrict runs the full catalog including disabled rules.
	LevelStrict Level = "strict"
)

// Route is the routing outcome for one call.
type Route struct {
	Level          Level
	OnlyCritical   bool
	IgnoreDisabled bool
}

// shortCommand is the length under which a simple Bash command is
// considered trivial.
const shortCommand = 50

// shortContent is the length under which a file write is considered
// trivial.
const shortContent = 200

// Classify routes a tool call. Disabled routing pins everything to
// standard so behavior is predictable when the feature is off.
func Classify(tool, command, content string, enabled bool) Route {
	if !enabled {
		return Route{Level: LevelStandard}
	}

	switch tool {
	case "Bash":
		if sensitive.MatchesAny(command) {
			return Route{Level: LevelStrict, IgnoreDisabled: true}
		}
		if len(command) < shortCommand && !strings.ContainsAny(command, "|;&") {
			return Route{Level: LevelLight, OnlyCritical: true}
		}
		return Route{Level: LevelStandard}
	case "Write", "Edit", "MultiEdit", "NotebookEdit":
		if len(content) < shortContent {
			return Route{Level: LevelLight, OnlyCritical: true}
		}
		return Route{Level: LevelStandard}
	case "Read", "Glob", "Grep", "LS", "TodoWrite":
		return Route{Level: LevelLight, OnlyCritical: true}
	}
	return Route{Level: LevelStandard}
}
