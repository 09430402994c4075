package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove persisted router/tester state",
	Long: `Remove the persisted state file (and its backup).

On next start, the engine boots with router/tester entries seeded
from engine.yaml, or empty if none are configured.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "skip confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	statePath := stateFilePath
	if statePath == "" {
		statePath = os.Getenv("ENGINE_STATE_PATH")
	}
	if statePath == "" {
		statePath = "./engine-state.json"
	}

	targets := []string{statePath, statePath + ".bak"}
	var existing []string
	for _, t := range targets {
		if _, err := os.Stat(t); err == nil {
			existing = append(existing, t)
		}
	}
	if len(existing) == 0 {
		fmt.Fprintln(os.Stderr, "Nothing to reset — no state file found.")
		return nil
	}

	fmt.Fprintln(os.Stderr, "The following will be removed:")
	for _, t := range existing {
		fmt.Fprintf(os.Stderr, "  - %s\n", t)
	}

	if !resetForce {
		fmt.Fprint(os.Stderr, "\nProceed? [y/N] ")
		var answer string
		fmt.Scanln(&answer) //nolint:errcheck // interactive prompt, error irrelevant
		if answer != "y" && answer != "Y" {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return nil
		}
	}

	var failures int
	for _, t := range existing {
		if err := os.Remove(t); err != nil {
			fmt.Fprintf(os.Stderr, "  ERROR removing %s: %v\n", t, err)
			failures++
			continue
		}
		fmt.Fprintf(os.Stderr, "  Removed %s\n", t)
	}
	if failures > 0 {
		return fmt.Errorf("%d file(s) could not be removed", failures)
	}

	fmt.Fprintln(os.Stderr, "\nReset complete.")
	return nil
}
