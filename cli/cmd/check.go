// ABOUTME: Check command for ai-capacity CLI
// ABOUTME: Gates CI/CD pipelines on which models a fleet can run and its payback

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/keir-whitehead/setup-lab-3d/backend/models"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/client"
	"github.com/spf13/cobra"
)

var (
	requiredModels []string
	minRunnable    int
	maxBreakEven   int
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check fleet requirements",
	Long: `Check that the fleet can run required models and pays for itself in time,
and exit non-zero if any requirement is not met.

Exit codes:
  0 - All checks passed
  1 - One or more checks failed
  2 - Error (connectivity, missing fleet, invalid input)`,
	Example: `  ai-capacity check --require "Llama 3.3 70B" --require "Phi-4" --max-break-even 12`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runCheck(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringArrayVar(&requiredModels, "require", nil, "Model that must be runnable (repeatable)")
	checkCmd.Flags().IntVar(&minRunnable, "min-runnable", 0, "Minimum number of runnable models (0 disables)")
	checkCmd.Flags().IntVar(&maxBreakEven, "max-break-even", 0, "Maximum break-even in months (0 disables)")
}

// checkResult represents the result of a single requirement check
type checkResult struct {
	name     string
	actual   string
	expected string
	passed   bool
}

// runCheck executes the requirement checks and returns exit code
func runCheck(ctx context.Context, w io.Writer) int {
	if err := validateRequirements(requiredModels, minRunnable, maxBreakEven); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	spec, err := loadFleet()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	e, err := selectEngine(spec.Economics)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	plan, err := e.Plan(ctx, spec.Machines, client.PlanOptions{})
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	results, err := modelChecks(plan, requiredModels)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if minRunnable > 0 {
		results = append(results, runnableCheck(plan, minRunnable))
	}
	if maxBreakEven > 0 {
		projection, err := e.Costs(ctx, spec.Machines, spec.Economics.ElectricityRate, spec.Economics.HoursPerDay)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitError
		}
		results = append(results, breakEvenCheck(projection.BreakEven, maxBreakEven))
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatCheckJSON(results))
	} else {
		fmt.Fprintln(w, formatCheckHuman(results))
	}

	_, failed := countResults(results)
	if failed > 0 {
		return exitFailed
	}
	return exitOK
}

// validateRequirements ensures at least one valid check was requested
func validateRequirements(required []string, minRunnable, maxBreakEven int) error {
	if minRunnable < 0 {
		return fmt.Errorf("--min-runnable cannot be negative")
	}
	if maxBreakEven < 0 {
		return fmt.Errorf("--max-break-even cannot be negative")
	}
	if len(required) == 0 && minRunnable == 0 && maxBreakEven == 0 {
		return fmt.Errorf("nothing to check: pass --require, --min-runnable or --max-break-even")
	}
	return nil
}

// modelChecks verifies each required model is runnable. A name missing from
// the catalog is an input error rather than a failed check.
func modelChecks(plan *models.PlanResponse, required []string) ([]checkResult, error) {
	byName := make(map[string]models.ModelResult, len(plan.Results))
	for _, r := range plan.Results {
		byName[r.Name] = r
	}

	results := make([]checkResult, 0, len(required))
	for _, name := range required {
		r, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown model %q (see 'ai-capacity catalog')", name)
		}
		results = append(results, checkResult{
			name:     name,
			actual:   string(r.Status),
			expected: "runnable",
			passed:   r.Status.Runnable(),
		})
	}
	return results, nil
}

func runnableCheck(plan *models.PlanResponse, minimum int) checkResult {
	return checkResult{
		name:     "Runnable models",
		actual:   fmt.Sprintf("%d", plan.RunnableCount),
		expected: fmt.Sprintf("at least %d", minimum),
		passed:   plan.RunnableCount >= minimum,
	}
}

func breakEvenCheck(be models.BreakEven, maximum int) checkResult {
	return checkResult{
		name:     "Break-even",
		actual:   be.String(),
		expected: fmt.Sprintf("at most %d months", maximum),
		passed:   be.Reached && be.Months <= maximum,
	}
}

// countResults returns the count of passed and failed checks
func countResults(results []checkResult) (passed, failed int) {
	for _, r := range results {
		if r.passed {
			passed++
		} else {
			failed++
		}
	}
	return
}

// formatCheckHuman formats check results for human readability
func formatCheckHuman(results []checkResult) string {
	var output string

	for _, r := range results {
		symbol := "✓"
		if !r.passed {
			symbol = "✗"
		}
		output += fmt.Sprintf("%s %s: %s (required: %s)\n", symbol, r.name, r.actual, r.expected)
	}

	passed, failed := countResults(results)
	if failed > 0 {
		output += fmt.Sprintf("\nFAILED: %d check(s) not met", failed)
	} else {
		output += fmt.Sprintf("\nPASSED: All %d check(s) met", passed)
	}

	return output
}

// formatCheckJSON formats check results as JSON
func formatCheckJSON(results []checkResult) string {
	_, failed := countResults(results)

	checks := make([]map[string]interface{}, len(results))
	for i, r := range results {
		checks[i] = map[string]interface{}{
			"name":     r.name,
			"actual":   r.actual,
			"expected": r.expected,
			"passed":   r.passed,
		}
	}

	status := "passed"
	if failed > 0 {
		status = "failed"
	}

	output := map[string]interface{}{
		"status": status,
		"checks": checks,
	}

	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
