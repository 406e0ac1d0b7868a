// ABOUTME: Environment isolation helpers for config tests
// ABOUTME: Each test runs in an empty temp directory with only the variables it sets

package config

import (
	"os"
	"strings"
	"testing"
)

// cleanEnv empties the process environment, applies env and moves into a
// fresh temp directory so no stray .env is read. Everything is restored when
// the test ends. Tests using it must not run in parallel.
func cleanEnv(t *testing.T, env map[string]string) {
	t.Helper()

	saved := os.Environ()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	t.Cleanup(func() {
		os.Clearenv()
		for _, kv := range saved {
			if k, v, ok := strings.Cut(kv, "="); ok {
				os.Setenv(k, v)
			}
		}
	})

	os.Clearenv()
	for k, v := range env {
		os.Setenv(k, v)
	}
}

// writeEnvFile writes a dotenv file and returns its path
func writeEnvFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
