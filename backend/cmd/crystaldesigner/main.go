// Command crystaldesigner is the batch entry point for the designer
// driver: it reads a run configuration (internal/config), fans a batch
// of design attempts out across the process's rank (internal/worker),
// records every attempt into a report tree (internal/report,
// internal/recorder/cif, internal/recorder/trajectory) using the
// module's own symmetry adapter (internal/symmetry/latreduce) by
// default, and can print a batch summary or serve a live progress
// endpoint over the results.
//
// One rootCmd in this file, one file per subcommand family.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags.
	configPath string
	outputRoot string
)

var rootCmd = &cobra.Command{
	Use:   "crystaldesigner",
	Short: "Constraint-driven crystal structure design engine",
	Long: `crystaldesigner generates candidate crystal structures satisfying a
declared ionic composition's coordination constraints, using a
force-based optimizer driven by a watchdog loop (global/local/precise
relaxation alternating with constraint re-derivation and perturbation).`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the run configuration JSON file (required)")
	rootCmd.PersistentFlags().StringVarP(&outputRoot, "output", "o", "", "Report tree root (overrides the config's output_directory)")

	rootCmd.AddCommand(designCmd, reportCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
