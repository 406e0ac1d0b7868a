// ABOUTME: Fleet commands for ai-capacity CLI
// ABOUTME: Creates, shows, lists samples of, and pushes fleet TOML files

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/keir-whitehead/setup-lab-3d/backend/catalog"
	"github.com/keir-whitehead/setup-lab-3d/backend/services"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/client"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/tui/fleetform"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/tui/icons"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/tui/samples"
	"github.com/spf13/cobra"
)

var (
	fleetInitForce bool
	fleetPushName  string
	fleetRmName    string
)

// runFleetForm collects a fleet interactively; replaced in tests
var runFleetForm = fleetform.Run

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Manage fleet files",
	Long:  `Create, inspect and publish the TOML file describing your machines.`,
}

var fleetInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a fleet file interactively",
	Run: func(cmd *cobra.Command, args []string) {
		if exitCode := runFleetInit(os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var fleetShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the machines in the fleet file",
	Run: func(cmd *cobra.Command, args []string) {
		if exitCode := runFleetShow(os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var fleetPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload the fleet file to the backend",
	Long: `Upload the fleet file to the backend as its default fleet, or as a named
fleet with --name. Named fleets need a backend with FLEET_DB_PATH set.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runFleetPush(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var fleetSamplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "List bundled sample fleets",
	Long:  `List sample fleet files from ./samples or AI_CAPACITY_SAMPLES_PATH. Use one with --fleet.`,
	Run: func(cmd *cobra.Command, args []string) {
		if exitCode := runFleetSamples(os.Stdout, "."); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var fleetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List fleets stored on the backend",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runFleetList(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var fleetRmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Remove a fleet from the backend",
	Long: `Remove a named fleet from the backend with --name. Without --name the
backend's default fleet is emptied.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runFleetRm(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(fleetCmd)
	fleetCmd.AddCommand(fleetInitCmd, fleetShowCmd, fleetPushCmd, fleetSamplesCmd, fleetListCmd, fleetRmCmd)
	fleetInitCmd.Flags().BoolVar(&fleetInitForce, "force", false, "Overwrite an existing fleet file")
	fleetPushCmd.Flags().StringVar(&fleetPushName, "name", "", "Store as a named fleet instead of the default")
	fleetRmCmd.Flags().StringVar(&fleetRmName, "name", "", "Named fleet to remove")
}

// runFleetInit builds a fleet with forms and writes it to the fleet path
func runFleetInit(w io.Writer) int {
	if _, err := os.Stat(fleetPath); err == nil && !fleetInitForce {
		fmt.Fprintf(w, "Error: %s already exists (use --force to overwrite)\n", fleetPath)
		return exitError
	}

	c, err := loadCatalog(catalogPath)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	spec, err := runFleetForm(c)
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Fprintln(w, "Cancelled.")
		return exitFailed
	}
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	if err := services.SaveFleetFile(fleetPath, spec); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	fmt.Fprintf(w, "Wrote %d machine(s) to %s\n", len(spec.Machines), fleetPath)
	return exitOK
}

// runFleetShow prints the fleet with bandwidth resolved from the catalog
func runFleetShow(w io.Writer) int {
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
	spec.Machines = services.ResolveBandwidth(c, spec.Machines)

	if IsJSONOutput() {
		writeJSON(w, spec)
	} else {
		fmt.Fprintln(w, formatFleetHuman(c, spec))
	}
	return exitOK
}

func formatFleetHuman(c *catalog.Catalog, spec services.FleetSpec) string {
	var b strings.Builder
	rows := make([][]string, 0, len(spec.Machines))
	for _, m := range spec.Machines {
		state := icons.Active(m.Active).String()
		bandwidth := "-"
		if m.BandwidthGBs > 0 {
			bandwidth = fmt.Sprintf("%g GB/s", m.BandwidthGBs)
		}
		price := "unpriced"
		if mid, ok := c.PriceMidpoint(m.HardwareClass); ok {
			price = formatMoney(mid)
		}
		rows = append(rows, []string{state, m.DisplayName(), m.HardwareClass, formatGB(m.MemoryGB), m.GPU, bandwidth, price})
	}
	b.WriteString(renderTable([]string{"", "Machine", "Class", "Memory", "GPU", "Bandwidth", "Price"}, rows))
	fmt.Fprintf(&b, "\nEconomics: $%g/kWh, %gh/day", spec.Economics.ElectricityRate, spec.Economics.HoursPerDay)
	return b.String()
}

// runFleetPush uploads the fleet file to the backend
func runFleetPush(ctx context.Context, w io.Writer) int {
	spec, err := loadFleet()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	url := GetAPIURL()
	stored, err := client.New(url).PutFleet(ctx, fleetPushName, spec)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	if IsJSONOutput() {
		writeJSON(w, stored)
		return exitOK
	}
	name := fleetPushName
	if name == "" {
		name = "default"
	}
	fmt.Fprintf(w, "Pushed %d machine(s) to %s as fleet %q\n", len(stored.Machines), url, name)
	return exitOK
}

// runFleetSamples lists sample fleets found relative to basePath
func runFleetSamples(w io.Writer, basePath string) int {
	dir := samples.FindSamplesDir(basePath)
	if dir == "" {
		fmt.Fprintln(w, "Error: no samples directory found (set AI_CAPACITY_SAMPLES_PATH)")
		return exitError
	}

	files, err := samples.Discover(dir)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	type sampleEntry struct {
		samples.SampleFile
		samples.Summary
		Valid bool `json:"valid"`
	}
	entries := make([]sampleEntry, 0, len(files))
	for _, f := range files {
		summary := f.Summarize()
		entries = append(entries, sampleEntry{SampleFile: f, Summary: summary, Valid: summary.Err == nil})
	}

	if IsJSONOutput() {
		writeJSON(w, entries)
		return exitOK
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Name, e.Summary.String(), e.Path})
	}
	fmt.Fprintln(w, renderTable([]string{"Sample", "Machines", "Path"}, rows))
	return exitOK
}

// runFleetList prints the fleets persisted by the backend
func runFleetList(ctx context.Context, w io.Writer) int {
	fleets, err := client.New(GetAPIURL()).ListFleets(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	if IsJSONOutput() {
		writeJSON(w, fleets)
		return exitOK
	}
	if len(fleets) == 0 {
		fmt.Fprintln(w, "No stored fleets.")
		return exitOK
	}

	rows := make([][]string, 0, len(fleets))
	for _, f := range fleets {
		rows = append(rows, []string{f.Name, fmt.Sprint(f.MachineCount), f.UpdatedAt.Format(time.DateTime)})
	}
	fmt.Fprintln(w, renderTable([]string{"Fleet", "Machines", "Updated"}, rows))
	return exitOK
}

// runFleetRm deletes a named fleet or empties the default one
func runFleetRm(ctx context.Context, w io.Writer) int {
	url := GetAPIURL()
	if err := client.New(url).DeleteFleet(ctx, fleetRmName); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	if fleetRmName == "" {
		fmt.Fprintf(w, "Emptied the default fleet on %s\n", url)
	} else {
		fmt.Fprintf(w, "Removed fleet %q from %s\n", fleetRmName, url)
	}
	return exitOK
}
