package cmd

import (
	"github.com/customgpt/quadverify/internal/hook"
	"github.com/spf13/cobra"
)

// Per-point subcommands for hosts that wire each lifecycle point to its
// own command. They pin the hook point instead of trusting the event,
// so a mislabeled event still runs the intended pipeline.

var preToolCmd = &cobra.Command{
	Use:   "pre-tool",
	Short: "Run the PreToolUse verification pipeline",
	Long: `Pre-tool reads one PreToolUse event from stdin, runs the capability gate
and the quality, security, and research rule cycles against the tool input,
and writes an approve or block decision to stdout.`,
	Run: func(cmd *cobra.Command, args []string) {
		runHook(hook.PointPreTool)
	},
}

var postToolCmd = &cobra.Command{
	Use:   "post-tool",
	Short: "Run the PostToolUse observation pipeline",
	Long: `Post-tool reads one PostToolUse event from stdin, records the call in the
session behavior history, runs the behavioral-pattern, injection, and
sensitive-path detectors, and exits without output. Findings surface as
stderr warnings and audit records, never as blocks.`,
	Run: func(cmd *cobra.Command, args []string) {
		runHook(hook.PointPostTool)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Run the Stop self-review pipeline",
	Long: `Stop reads one Stop event from stdin and writes the self-review prompt to
stdout: the four-dimension checklist, unsourced claims remaining in research
documents written this session, and (when enabled) the second-opinion
verifier's finding.`,
	Run: func(cmd *cobra.Command, args []string) {
		runHook(hook.PointStop)
	},
}

func init() {
	rootCmd.AddCommand(preToolCmd)
	rootCmd.AddCommand(postToolCmd)
	rootCmd.AddCommand(stopCmd)
}
