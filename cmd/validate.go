package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/customgpt/quadverify/internal/config"
	"github.com/customgpt/quadverify/internal/project"
	"github.com/customgpt/quadverify/internal/rules"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Show the effective configuration and compiled rule catalog",
	Long: `Validate resolves the layered configuration for the current project and
prints the effective settings together with every compiled rule.

This is useful for:
- Checking that your config files parse and merge the way you expect
- Seeing which rules are active, disabled, or dropped
- Debugging why a write was or was not blocked`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to determine working directory: %w", err)
	}
	root := project.Root(cwd)
	cfg := config.Resolve(root)

	fmt.Printf("Project root: %s\n", root)
	fmt.Println()
	fmt.Printf("Trust level:        %s\n", cfg.TrustLevel)
	fmt.Printf("Lean mode:          %v\n", cfg.LeanMode)
	fmt.Printf("Model routing:      %v\n", cfg.ModelRouting.Enabled)
	fmt.Printf("Verification budget: %d tokens\n", cfg.MaxVerificationTokens)
	fmt.Printf("Cycle 4 (research): %v\n", cfg.Cycle4.Enabled)
	fmt.Printf("Cycle 5 (inference): %v", cfg.Cycle5.Enabled)
	if cfg.Cycle5.Enabled {
		fmt.Printf(" (model %s)", cfg.Cycle5.Model)
	}
	fmt.Println()
	fmt.Printf("Capabilities:       enabled=%v failClosed=%v allowed=[%s]\n",
		cfg.Capabilities.Enabled, cfg.Capabilities.FailClosed, strings.Join(cfg.Capabilities.Allowed, ", "))
	if len(cfg.DisabledRules) > 0 {
		fmt.Printf("Disabled rules:     %s\n", strings.Join(cfg.DisabledRules, ", "))
	}

	disabled := cfg.DisabledSet()
	fmt.Println()
	fmt.Printf("Compiled rules: %d\n", len(rules.All()))
	for _, r := range rules.All() {
		status := ""
		if disabled[r.ID] {
			status = " (disabled)"
		}
		fmt.Printf("  - cycle %d [%s/%s] %s: %s%s\n", r.Cycle, r.Severity, r.Code, r.ID, r.Pattern, status)
	}

	return nil
}
