package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev" // Will be set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "focus-scheduler",
	Short: "Evolutionary traffic scheduler for 2D-mesh NoC accelerators",
	Long: `focus-scheduler searches for a low-contention packet schedule over a
2D-mesh network-on-chip: it mutates forced-routing waypoints across a
population of candidate schedules, simulates injection contention with the
harmonizer, and reports the best schedule found after a fixed number of
generations.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stopCmd)
}

// Commands are defined in separate files:
// - runCmd in run.go
// - stopCmd in run.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
