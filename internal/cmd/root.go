// Package cmd provides the engine binary's CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/engine-core/engine/internal/config"
)

var cfgFile string
var stateFilePath string

var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "engine - HLP log parsing and policy evaluation pipeline",
	Long: `engine ingests Wazuh-framed log events, parses them with a
human-readable log pattern (HLP) template, and evaluates them against
named policies and filters distributed across a pool of workers.

Configuration is loaded from engine.yaml in the current directory.
Environment variables can override config values with the ENGINE_ prefix.
Example: ENGINE_WORKER_COUNT=4

Commands:
  start     Start the orchestrator and worker pool
  reset     Remove persisted router/tester state
  version   Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./engine.yaml)")
	rootCmd.PersistentFlags().StringVar(&stateFilePath, "state", "", "path to the persisted state file (default: ./engine-state.json)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
