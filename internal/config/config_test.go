package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/customgpt/quadverify/internal/constants"
)

func TestMergeNestedMaps(t *testing.T) {
	base := map[string]any{
		"a": map[string]any{"x": 1, "y": 2},
		"b": "keep",
	}
	over := map[string]any{
		"a": map[string]any{"y": 3, "z": 4},
	}
	got := Merge(base, over)
	want := map[string]any{
		"a": map[string]any{"x": 1, "y": 3, "z": 4},
		"b": "keep",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge = %v, want %v", got, want)
	}
}

func TestMergeArraysReplace(t *testing.T) {
	base := map[string]any{"a": []any{1, 2}}
	over := map[string]any{"a": []any{3}}
	got := Merge(base, over)
	if !reflect.DeepEqual(got["a"], []any{3}) {
		t.Errorf("arrays must replace wholesale, got %v", got["a"])
	}
}

func TestMergeScalarOverMap(t *testing.T) {
	base := map[string]any{"a": map[string]any{"x": 1}}
	over := map[string]any{"a": "flat"}
	got := Merge(base, over)
	if got["a"] != "flat" {
		t.Errorf("scalar must replace map, got %v", got["a"])
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := map[string]any{"a": 1}
	over := map[string]any{"a": 2, "b": 3}
	Merge(base, over)
	if base["a"] != 1 {
		t.Error("base mutated")
	}
	if _, ok := base["b"]; ok {
		t.Error("base gained a key")
	}
}

func setupProject(t *testing.T, projectJSON string) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(constants.EnvPluginRoot, "")

	if projectJSON != "" {
		dir := filepath.Join(root, constants.ClaudeConfigDir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, constants.UserConfigFile), []byte(projectJSON), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func writeUserConfig(t *testing.T, userJSON string) {
	t.Helper()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(home, constants.ClaudeConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, constants.UserConfigFile), []byte(userJSON), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveDefaults(t *testing.T) {
	root := setupProject(t, "")
	cfg := Resolve(root)

	if cfg.TrustLevel != TrustStandard {
		t.Errorf("trust = %q, want standard", cfg.TrustLevel)
	}
	if cfg.MaxVerificationTokens != 500 {
		t.Errorf("budget = %d, want 500", cfg.MaxVerificationTokens)
	}
	if !cfg.Capabilities.Enabled || !cfg.Capabilities.FailClosed {
		t.Errorf("capability defaults wrong: %+v", cfg.Capabilities)
	}
	if cfg.Cycle5.Enabled {
		t.Error("cycle 5 must default off")
	}
	if !cfg.Cycle4.Enabled {
		t.Error("cycle 4 must default on")
	}
}

func TestResolveProjectOverridesUser(t *testing.T) {
	root := setupProject(t, `{"trustLevel": "strict", "maxVerificationTokens": 900}`)
	writeUserConfig(t, `{"trustLevel": "minimal", "leanMode": true}`)

	cfg := Resolve(root)
	if cfg.TrustLevel != TrustStrict {
		t.Errorf("project layer should win, trust = %q", cfg.TrustLevel)
	}
	if !cfg.LeanMode {
		t.Error("user-layer key not overridden by project should survive")
	}
	if cfg.MaxVerificationTokens != 900 {
		t.Errorf("budget = %d, want 900", cfg.MaxVerificationTokens)
	}
}

func TestResolveNestedOverride(t *testing.T) {
	root := setupProject(t, `{"capabilities": {"failClosed": false}}`)
	cfg := Resolve(root)
	if cfg.Capabilities.FailClosed {
		t.Error("nested key not overridden")
	}
	if !cfg.Capabilities.Enabled {
		t.Error("sibling nested key should keep its default")
	}
}

func TestResolveDisabledRulesReplace(t *testing.T) {
	writeUserConfigAndProject := func(t *testing.T) string {
		root := setupProject(t, `{"disabledRules": ["no-insecure-http"]}`)
		writeUserConfig(t, `{"disabledRules": ["no-any-type", "no-todo-comments"]}`)
		return root
	}
	cfg := Resolve(writeUserConfigAndProject(t))
	if len(cfg.DisabledRules) != 1 || cfg.DisabledRules[0] != "no-insecure-http" {
		t.Errorf("arrays must replace across layers, got %v", cfg.DisabledRules)
	}
}

func TestResolveMalformedLayerSkipped(t *testing.T) {
	root := setupProject(t, `{not valid json`)
	cfg := Resolve(root)
	if cfg.TrustLevel != TrustStandard {
		t.Errorf("malformed layer should fall back to defaults, trust = %q", cfg.TrustLevel)
	}
}

func TestStrictClearsDisabledRules(t *testing.T) {
	root := setupProject(t, `{"trustLevel": "strict", "disabledRules": ["no-eval"]}`)
	cfg := Resolve(root)
	if len(cfg.DisabledRules) != 0 {
		t.Errorf("strict trust must clear disabled rules, got %v", cfg.DisabledRules)
	}
}

func TestNormalizeUnknownTrust(t *testing.T) {
	root := setupProject(t, `{"trustLevel": "paranoid"}`)
	cfg := Resolve(root)
	if cfg.TrustLevel != TrustStandard {
		t.Errorf("unknown trust should normalize to standard, got %q", cfg.TrustLevel)
	}
}

func TestDisabledSet(t *testing.T) {
	cfg := Config{DisabledRules: []string{"a", "b"}}
	set := cfg.DisabledSet()
	if !set["a"] || !set["b"] || set["c"] {
		t.Errorf("DisabledSet = %v", set)
	}
	empty := Config{}
	if empty.DisabledSet() != nil {
		t.Error("empty disabled list should yield nil set")
	}
}

func TestDefaultJSONParses(t *testing.T) {
	root := setupProject(t, "")
	cfg := Resolve(root)
	def := Default()
	if cfg.TrustLevel != def.TrustLevel || cfg.MaxVerificationTokens != def.MaxVerificationTokens {
		t.Error("embedded defaults should agree with Default()")
	}
}
