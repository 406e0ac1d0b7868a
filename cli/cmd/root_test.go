// ABOUTME: Tests for the root command and global flag handling
// ABOUTME: Verifies environment variable and flag configuration

package cmd

import (
	"testing"
)

func TestGetAPIURL_Default(t *testing.T) {
	t.Setenv(apiURLEnv, "")
	apiURL = "" // Reset flag

	url := GetAPIURL()
	if url != "http://localhost:8080" {
		t.Errorf("expected default URL http://localhost:8080, got %s", url)
	}
	if UseRemote() {
		t.Error("expected local engine when no backend is configured")
	}
}

func TestGetAPIURL_FromEnv(t *testing.T) {
	t.Setenv(apiURLEnv, "http://backend.example.com")
	apiURL = "" // Reset flag

	url := GetAPIURL()
	if url != "http://backend.example.com" {
		t.Errorf("expected http://backend.example.com, got %s", url)
	}
	if !UseRemote() {
		t.Error("expected remote engine when env is set")
	}
}

func TestGetAPIURL_FlagOverridesEnv(t *testing.T) {
	t.Setenv(apiURLEnv, "http://backend.example.com")
	apiURL = "http://flag-override.example.com"
	defer func() { apiURL = "" }()

	url := GetAPIURL()
	if url != "http://flag-override.example.com" {
		t.Errorf("expected flag to override env, got %s", url)
	}
}

func TestJSONOutput(t *testing.T) {
	jsonOutput = true
	defer func() { jsonOutput = false }()

	if !IsJSONOutput() {
		t.Error("expected IsJSONOutput to return true")
	}
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	want := []string{"health", "catalog", "cloud", "plan", "costs", "check", "fleet", "tui"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}
}
