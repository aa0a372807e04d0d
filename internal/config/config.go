// Package config resolves the layered quadverify configuration.
//
// Three JSON layers merge lowest to highest: plugin defaults, the user file
// under ~/.claude, and the project file under <root>/.claude. Maps merge
// recursively; arrays and scalars replace. Resolution never fails a hook:
// malformed layers are skipped with a diagnostic and defaults backfill the
// rest.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/customgpt/quadverify/internal/constants"
	"github.com/customgpt/quadverify/internal/logger"
)

//go:embed default-rules.json
var defaultRules []byte

// Trust levels
const (
	TrustMinimal  = "minimal"
	TrustStandard = "standard"
	TrustStrict   = "strict"
)

// Capability names understood by the gate.
const (
	CapFilesystem = "filesystem"
	CapShell      = "shell"
	CapNetwork    = "network"
	CapMCP        = "mcp"
)

// Config is the resolved configuration for one hook invocation.
type Config struct {
	TrustLevel            string           `json:"trustLevel"`
	LeanMode              bool             `json:"leanMode"`
	DisabledRules         []string         `json:"disabledRules"`
	Capabilities          CapabilityConfig `json:"capabilities"`
	ModelRouting          RoutingConfig    `json:"modelRouting"`
	MaxVerificationTokens int              `json:"maxVerificationTokens"`
	Cycle4                CycleConfig      `json:"cycle4"`
	Cycle5                Cycle5Config     `json:"cycle5"`
	AuditDir              string           `json:"auditDir"`
	MCP                   MCPConfig        `json:"mcp"`
}

// CapabilityConfig controls the capability gate.
type CapabilityConfig struct {
	Enabled    bool     `json:"enabled"`
	Allowed    []string `json:"allowed"`
	FailClosed bool     `json:"failClosed"`
}

// RoutingConfig controls the model router.
type RoutingConfig struct {
	Enabled bool `json:"enabled"`
}

// CycleConfig is the on/off switch shared by optional cycles.
type CycleConfig struct {
	Enabled bool `json:"enabled"`
}

// Cycle5Config configures the second-opinion inference verifier.
type Cycle5Config struct {
	Enabled           bool   `json:"enabled"`
	Model             string `json:"model"`
	APIKey            string `json:"apiKey"`
	MinResponseTokens int    `json:"minResponseTokens"`
}

// MCPConfig bounds MCP tool input handling.
type MCPConfig struct {
	MaxInputSizeBytes int `json:"maxInputSizeBytes"`
}

// Default returns the built-in configuration. It mirrors the embedded
// default-rules.json so a broken embed still yields a working config.
func Default() Config {
	return Config{
		TrustLevel:    TrustStandard,
		DisabledRules: []string{"no-any-type"},
		Capabilities: CapabilityConfig{
			Enabled:    true,
			Allowed:    []string{CapFilesystem, CapShell, CapNetwork, CapMCP},
			FailClosed: true,
		},
		ModelRouting:          RoutingConfig{Enabled: false},
		MaxVerificationTokens: 500,
		Cycle4:                CycleConfig{Enabled: true},
		Cycle5: Cycle5Config{
			Model:             "claude-3-5-haiku-latest",
			MinResponseTokens: 50,
		},
		MCP: MCPConfig{MaxInputSizeBytes: 1 << 20},
	}
}

// Layer identifies one config source, lowest precedence first.
type Layer struct {
	Name     string
	Path     string // empty for the embedded defaults
	Embedded bool
}

// Layers returns the config sources for a project, in merge order.
func Layers(projectRoot string) []Layer {
	layers := make([]Layer, 0, 3)

	if pluginRoot := os.Getenv(constants.EnvPluginRoot); pluginRoot != "" {
		layers = append(layers, Layer{
			Name: "plugin",
			Path: filepath.Join(pluginRoot, "config", constants.DefaultRulesFile),
		})
	} else {
		layers = append(layers, Layer{Name: "plugin", Embedded: true})
	}

	if userPath, err := UserConfigPath(); err == nil {
		layers = append(layers, Layer{Name: "user", Path: userPath})
	}

	if projectRoot != "" {
		layers = append(layers, Layer{
			Name: "project",
			Path: filepath.Join(projectRoot, constants.ClaudeConfigDir, constants.UserConfigFile),
		})
	}

	return layers
}

// UserConfigPath returns ~/.claude/quadruple-verify-config.json.
func UserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, constants.ClaudeConfigDir, constants.UserConfigFile), nil
}

// Load reads and parses one layer. A missing file returns (nil, nil).
func (l Layer) Load() (map[string]any, error) {
	var data []byte
	if l.Embedded {
		data = defaultRules
	} else {
		var err error
		data, err = os.ReadFile(l.Path)
		if os.IsNotExist(err) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s config: %w", l.Name, err)
		}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s config: %w", l.Name, err)
	}
	return m, nil
}

// Resolve merges all layers for the project and decodes the result. It
// always returns a usable config; broken layers are skipped with a stderr
// diagnostic.
func Resolve(projectRoot string) *Config {
	merged := map[string]any{}
	for _, layer := range Layers(projectRoot) {
		m, err := layer.Load()
		if err != nil {
			logger.Stderr("skipping %s config: %v", layer.Name, err)
			logger.Debug("config layer skipped", "layer", layer.Name, "error", err)
			continue
		}
		if m == nil {
			continue
		}
		merged = Merge(merged, m)
		logger.Debug("config layer merged", "layer", layer.Name, "keys", len(m))
	}
	return decode(merged)
}

// decode overlays the merged key set onto the defaults. Unknown keys are
// dropped by the struct decoding; absent keys keep their defaults.
func decode(merged map[string]any) *Config {
	cfg := Default()
	if len(merged) > 0 {
		data, err := json.Marshal(merged)
		if err == nil {
			if err := json.Unmarshal(data, &cfg); err != nil {
				logger.Debug("config decode failed, using defaults", "error", err)
				cfg = Default()
			}
		}
	}
	cfg.normalize()
	return &cfg
}

func (c *Config) normalize() {
	switch c.TrustLevel {
	case TrustMinimal, TrustStandard, TrustStrict:
	default:
		logger.Debug("unknown trust level, using standard", "trustLevel", c.TrustLevel)
		c.TrustLevel = TrustStandard
	}
	if c.TrustLevel == TrustStrict {
		c.DisabledRules = nil
	}
	if c.Capabilities.Allowed == nil {
		c.Capabilities.Allowed = Default().Capabilities.Allowed
	}
	if c.MaxVerificationTokens <= 0 {
		c.MaxVerificationTokens = Default().MaxVerificationTokens
	}
	if c.Cycle5.Model == "" {
		c.Cycle5.Model = Default().Cycle5.Model
	}
	if c.Cycle5.MinResponseTokens <= 0 {
		c.Cycle5.MinResponseTokens = Default().Cycle5.MinResponseTokens
	}
	if c.MCP.MaxInputSizeBytes <= 0 {
		c.MCP.MaxInputSizeBytes = Default().MCP.MaxInputSizeBytes
	}
}

// DisabledSet returns the disabled rule ids as a set.
func (c *Config) DisabledSet() map[string]bool {
	if len(c.DisabledRules) == 0 {
		return nil
	}
	set := make(map[string]bool, len(c.DisabledRules))
	for _, id := range c.DisabledRules {
		set[id] = true
	}
	return set
}

// DefaultJSON returns the embedded default configuration document.
func DefaultJSON() []byte {
	return defaultRules
}
