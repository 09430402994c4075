package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/engine-core/engine/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the effective configuration as YAML, after the config
file, environment overrides, and defaults have all been applied.

Useful for verifying what the engine would actually run with:
  engine config
  ENGINE_WORKER_COUNT=4 engine config`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if file := config.ConfigFileUsed(); file != "" {
		fmt.Fprintf(os.Stderr, "# source: %s\n", file)
	} else {
		fmt.Fprintln(os.Stderr, "# source: defaults and environment only")
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}
