// Package cmd implements the CLI commands for quadverify.
package cmd

import (
	"fmt"
	"os"

	"github.com/customgpt/quadverify/internal/hook"
	"github.com/customgpt/quadverify/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	dryRun     bool
	noAuditLog bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quadverify",
	Short: "Quadruple-verification hooks for Claude Code tool use",
	Long: `quadverify is a policy layer for Claude Code tool use. It runs at three
lifecycle points (PreToolUse, PostToolUse, Stop), reads one JSON event on
stdin, and answers on stdout: approve, block with a reason, or inject a
self-review prompt.

Called without a subcommand it dispatches on the hook point carried in the
event, so one hooks entry covers all three points:

  "hooks": {
    "PreToolUse":  [{"hooks": [{"type": "command", "command": "quadverify"}]}],
    "PostToolUse": [{"hooks": [{"type": "command", "command": "quadverify"}]}],
    "Stop":        [{"hooks": [{"type": "command", "command": "quadverify"}]}]
  }`,
	Run: func(cmd *cobra.Command, args []string) {
		runHook("")
	},
	// Silence usage on errors
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initApp)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Describe the decision on stderr instead of emitting JSON")
	rootCmd.PersistentFlags().BoolVar(&noAuditLog, "no-audit-log", false, "Disable audit logging")
}

// initApp initializes the logger before any command runs. Config is
// resolved per event because the project root comes from the event's cwd.
func initApp() {
	logger.Init(logger.Options{Verbose: verbose})
}

// runHook processes one event from stdin. point pins the hook point for
// the per-point subcommands; empty dispatches on the event itself.
func runHook(point string) {
	defer logger.Sync()

	result := hook.Process(os.Stdin, hook.Options{
		ForcePoint: point,
		DryRun:     dryRun,
		NoAuditLog: noAuditLog,
	})

	if dryRun {
		if result.Decision == hook.DecisionBlock {
			fmt.Fprintf(os.Stderr, "BLOCK %s (%d violations)\n%s\n", result.Tool, result.Violations, result.Reason)
		} else {
			fmt.Fprintf(os.Stderr, "APPROVE %s\n", result.Tool)
		}
		return
	}

	if result.Output != "" {
		fmt.Print(result.Output)
	}
}

// IsVerbose returns whether verbose mode is enabled
func IsVerbose() bool {
	return verbose
}

// IsDryRun returns whether dry-run mode is enabled
func IsDryRun() bool {
	return dryRun
}
