package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/customgpt/quadverify/internal/config"
	"github.com/customgpt/quadverify/internal/constants"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a user configuration file",
	Long: `Init writes the default configuration to ~/.claude/quadruple-verify-config.json.

Edit the file to tune trust level, disabled rules, capabilities, and the
optional cycle-5 verifier. A project can override any setting with its own
.claude/quadruple-verify-config.json.

Use --force to overwrite an existing configuration file.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, err := config.UserConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), constants.DirMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, config.DefaultJSON(), constants.FileMode); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Configuration written to: %s\n", configPath)
	fmt.Println("Run 'quadverify validate' to see the effective settings.")

	return nil
}
