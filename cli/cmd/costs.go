// ABOUTME: Costs command for ai-capacity CLI
// ABOUTME: Projects hardware cost, monthly savings, break-even and ROI

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
	"github.com/keir-whitehead/setup-lab-3d/backend/services"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/tui/styles"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/tui/widgets"
	"github.com/spf13/cobra"
)

var (
	costsRate     float64
	costsHours    float64
	costsRateSet  bool
	costsHoursSet bool
)

// paybackHorizon is the horizon the payback bar is drawn over
const paybackHorizon = 12

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Project fleet economics",
	Long: `Project what running the fleet's models locally costs compared with cloud APIs.

Electricity rate and hours per day default to the fleet file's [economics]
table. Negative values are treated as zero and hours are capped at 24.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		costsRateSet = cmd.Flags().Changed("rate")
		costsHoursSet = cmd.Flags().Changed("hours")
		if exitCode := runCosts(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(costsCmd)
	costsCmd.Flags().Float64Var(&costsRate, "rate", services.DefaultElectricityRate, "Electricity rate per kWh")
	costsCmd.Flags().Float64Var(&costsHours, "hours", services.DefaultHoursPerDay, "Hours per day the machines run")
}

// costsEconomics applies explicitly set flags over the fleet's economics
func costsEconomics(fleet services.Economics) services.Economics {
	econ := fleet
	if costsRateSet {
		econ.ElectricityRate = costsRate
	}
	if costsHoursSet {
		econ.HoursPerDay = costsHours
	}
	return econ.Normalize()
}

// runCosts projects fleet costs and returns exit code
func runCosts(ctx context.Context, w io.Writer) int {
	spec, err := loadFleet()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	econ := costsEconomics(spec.Economics)

	e, err := selectEngine(econ)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	projection, err := e.Costs(ctx, spec.Machines, econ.ElectricityRate, econ.HoursPerDay)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	if IsJSONOutput() {
		writeJSON(w, projection)
	} else {
		fmt.Fprintln(w, formatCostsHuman(projection))
	}
	return exitOK
}

// formatCostsHuman renders a cost projection for human readability
func formatCostsHuman(p *models.CostProjection) string {
	var b strings.Builder

	hwRows := make([][]string, 0, len(p.Hardware))
	for _, line := range p.Hardware {
		cost := formatMoney(line.Cost)
		if !line.Priced {
			cost = "unpriced"
		}
		hwRows = append(hwRows, []string{line.MachineID, line.HardwareClass, cost})
	}
	if len(hwRows) > 0 {
		b.WriteString(renderTable([]string{"Machine", "Class", "Cost"}, hwRows))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, `Hardware:        %s
Monthly cloud:   %s
Monthly local:   %s
Monthly savings: %s
Break-even:      %s
Economics:       $%g/kWh, %gh/day
`, formatMoney(p.HardwareCost), formatMoney(p.MonthlyCloud), formatMoney(p.MonthlyLocal),
		styles.Money(formatMoney(p.MonthlySavings), p.MonthlySavings), p.BreakEven,
		p.ElectricityRate, p.HoursPerDay)

	roiRows := make([][]string, 0, len(p.ROI))
	for _, entry := range p.ROI {
		roiRows = append(roiRows, []string{
			fmt.Sprintf("%d months", entry.Months),
			styles.Money(formatMoney(entry.NetROI), entry.NetROI),
			fmt.Sprintf("%d%%", entry.ROIPercent),
		})
	}
	b.WriteString(renderTable([]string{"Horizon", "Net ROI", "ROI"}, roiRows))
	b.WriteString("\n")
	b.WriteString(widgets.PaybackBar(*p, paybackHorizon, widgets.DefaultProgressBarConfig()))
	return b.String()
}
