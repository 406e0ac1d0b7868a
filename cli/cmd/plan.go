// ABOUTME: Plan command for ai-capacity CLI
// ABOUTME: Classifies every catalog model against the fleet

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/keir-whitehead/setup-lab-3d/backend/models"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/client"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/tui/widgets"
	"github.com/spf13/cobra"
)

var (
	planCategory string
	planSearch   string
	planSort     bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show which models the fleet can run",
	Long: `Classify every catalog model against the active machines of the fleet.

Statuses:
  fast         fits on one machine with lots of headroom
  runs         fits on one machine
  distributed  only fits split across the fleet
  no           does not fit

Runs in-process unless --api-url or AI_CAPACITY_API_URL selects a backend.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runPlan(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVar(&planCategory, "category", "", "Filter by category")
	planCmd.Flags().StringVar(&planSearch, "search", "", "Filter by name or parameter count")
	planCmd.Flags().BoolVar(&planSort, "sort", false, "Order runnable models first, fastest first")
}

// runPlan plans the fleet and returns exit code
func runPlan(ctx context.Context, w io.Writer) int {
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

	resp, err := e.Plan(ctx, spec.Machines, client.PlanOptions{Category: planCategory, Query: planSearch, Sort: planSort})
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	if IsJSONOutput() {
		writeJSON(w, resp)
	} else {
		fmt.Fprintln(w, formatPlanHuman(resp))
	}
	return exitOK
}

// formatPlanHuman renders the fleet summary and a row per model
func formatPlanHuman(resp *models.PlanResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Fleet: %d active machine(s), %s total, largest %s\n",
		resp.MachineCount, formatGB(resp.TotalMemoryGB), formatGB(resp.MaxSingleMachineGB))

	if len(resp.Results) == 0 {
		b.WriteString("\nNo models match.")
		return b.String()
	}

	rows := make([][]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		savings := "-"
		if r.MonthlySavings != nil {
			savings = formatMoney(*r.MonthlySavings)
		}
		rows = append(rows, []string{
			widgets.StatusText(r.Status),
			r.Name,
			r.Params,
			formatGB(r.MemoryGB),
			r.Speed,
			r.RunsOn,
			r.RunMode,
			savings,
		})
	}
	b.WriteString(renderTable([]string{"Status", "Model", "Params", "Memory", "Speed", "Runs on", "Mode", "Savings/mo"}, rows))
	fmt.Fprintf(&b, "\nRunnable: %d of %d", resp.RunnableCount, len(resp.Results))
	return b.String()
}
