// ABOUTME: Root command for ai-capacity CLI
// ABOUTME: Handles global flags and configuration

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL      string
	jsonOutput  bool
	fleetPath   string
	catalogPath string
)

const (
	defaultAPIURL    = "http://localhost:8080"
	defaultFleetPath = "fleet.toml"
	apiURLEnv        = "AI_CAPACITY_API_URL"
)

// Exit codes shared by every command
const (
	exitOK     = 0
	exitFailed = 1
	exitError  = 2
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "ai-capacity",
	Short: "CLI for the AI Capacity Analyzer",
	Long: `ai-capacity estimates which AI models a fleet of local machines can run,
how fast, and what running them locally saves compared with cloud APIs.

Planning runs in-process against the embedded catalog unless a backend is
selected with --api-url or AI_CAPACITY_API_URL.

Environment Variables:
  AI_CAPACITY_API_URL  Backend API URL (health always uses it, default: http://localhost:8080)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides AI_CAPACITY_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&fleetPath, "fleet", defaultFleetPath, "Fleet TOML file")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Alternate catalog YAML (default: embedded)")
	rootCmd.PersistentFlags().StringArrayVar(&machineFlags, "machine", nil, "Machine as MEMORY[:CLASS[:NAME]] instead of the fleet file (repeatable)")
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	if envURL := os.Getenv(apiURLEnv); envURL != "" {
		return envURL
	}
	return defaultAPIURL
}

// UseRemote reports whether a backend was selected explicitly
func UseRemote() bool {
	return apiURL != "" || os.Getenv(apiURLEnv) != ""
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
