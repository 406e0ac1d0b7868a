// ABOUTME: Entry point for ai-capacity CLI
// ABOUTME: Command-line tool for model capacity planning and CI/CD gating

package main

import (
	"fmt"
	"os"

	"github.com/keir-whitehead/setup-lab-3d/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
