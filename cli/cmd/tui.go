// ABOUTME: TUI command for ai-capacity CLI
// ABOUTME: Launches the interactive fleet planner

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/keir-whitehead/setup-lab-3d/cli/internal/tui"
	"github.com/spf13/cobra"
)

var tuiDebugLog string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive fleet planner",
	Long: `Open an interactive view of the fleet. Toggle machines on and off and
watch runnable models and economics update. Planning always runs in-process.`,
	Run: func(cmd *cobra.Command, args []string) {
		if exitCode := runTUI(os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().StringVar(&tuiDebugLog, "debug-log", "", "Write debug logs to this file")
}

// runTUI loads the fleet and catalog and runs the TUI until the user quits
func runTUI(w io.Writer) int {
	spec, err := loadFleet()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	c, err := loadCatalog(catalogPath)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	// Machines given with --machine have no file to write back to
	path := fleetPath
	if len(machineFlags) > 0 {
		path = ""
	}

	if err := tui.Run(c, spec, path, tuiDebugLog); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}
