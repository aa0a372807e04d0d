// Package testutil provides shared test utilities for quadverify tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/customgpt/quadverify/internal/constants"
)

// SetupProject creates a temporary project root with a .claude marker
// and, when configJSON is non-empty, a project-level config file. HOME
// is pointed at a second temp directory so the user layer stays empty.
// Cleanup is handled by t.TempDir and t.Setenv.
func SetupProject(t *testing.T, configJSON string) string {
	t.Helper()

	root := t.TempDir()
	claudeDir := filepath.Join(root, constants.ClaudeConfigDir)
	if err := os.MkdirAll(claudeDir, constants.DirMode); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HOME", t.TempDir())
	t.Setenv(constants.EnvPluginRoot, "")
	t.Setenv(constants.EnvSessionID, "")

	if configJSON != "" {
		path := filepath.Join(claudeDir, constants.UserConfigFile)
		if err := os.WriteFile(path, []byte(configJSON), constants.FileMode); err != nil {
			t.Fatal(err)
		}
	}

	return root
}

// WriteUserConfig writes a user-level config under the current HOME,
// which SetupProject points at a temp directory.
func WriteUserConfig(t *testing.T, configJSON string) {
	t.Helper()

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(home, constants.ClaudeConfigDir)
	if err := os.MkdirAll(dir, constants.DirMode); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, constants.UserConfigFile)
	if err := os.WriteFile(path, []byte(configJSON), constants.FileMode); err != nil {
		t.Fatal(err)
	}
}

// Event builds a hook event JSON document for piping into Process.
func Event(t *testing.T, fields map[string]any) string {
	t.Helper()

	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
