// ABOUTME: Catalog and cloud commands for ai-capacity CLI
// ABOUTME: Lists reference models and hosted cloud services

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/keir-whitehead/setup-lab-3d/backend/models"
	"github.com/keir-whitehead/setup-lab-3d/backend/services"
	"github.com/spf13/cobra"
)

var (
	catalogCategory string
	catalogSearch   string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List catalog models",
	Long: `List the models in the reference catalog.

Categories: general, reasoning, frontier, small, image, audio (or all).
Search matches model name or parameter descriptor, case-insensitively.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runCatalog(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var cloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "List cloud services",
	Long:  `List the hosted cloud services local models are compared against.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runCloud(ctx, os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(cloudCmd)
	catalogCmd.Flags().StringVar(&catalogCategory, "category", "", "Filter by category")
	catalogCmd.Flags().StringVar(&catalogSearch, "search", "", "Filter by name or parameter count")
}

// runCatalog lists catalog models and returns exit code
func runCatalog(ctx context.Context, w io.Writer) int {
	e, err := selectEngine(services.DefaultEconomics())
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	defs, err := e.Models(ctx, catalogCategory, catalogSearch)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	if IsJSONOutput() {
		writeJSON(w, defs)
	} else {
		fmt.Fprintln(w, formatCatalogHuman(defs))
	}
	return exitOK
}

// formatCatalogHuman renders models as a table
func formatCatalogHuman(defs []models.ModelDefinition) string {
	if len(defs) == 0 {
		return "No models match."
	}
	rows := make([][]string, 0, len(defs))
	for _, d := range defs {
		rows = append(rows, []string{
			d.Name,
			d.Params,
			d.Quant,
			formatGB(d.MemoryGB),
			string(d.Category),
			string(d.Type),
			cloudPrice(d.Pricing),
		})
	}
	return renderTable([]string{"Model", "Params", "Quant", "Memory", "Category", "Type", "Cloud price"}, rows)
}

// cloudPrice summarizes the cloud-equivalent price of a model
func cloudPrice(p models.Pricing) string {
	switch {
	case p.CostPerMTokenOutput != nil:
		return formatPrice(p.CostPerMTokenOutput, "/M out")
	case p.CostPerImage != nil:
		return formatPrice(p.CostPerImage, "/image")
	case p.CostPerAudioHour != nil:
		return formatPrice(p.CostPerAudioHour, "/audio hr")
	}
	return "-"
}

// runCloud lists cloud services and returns exit code
func runCloud(ctx context.Context, w io.Writer) int {
	e, err := selectEngine(services.DefaultEconomics())
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	cloud, err := e.CloudServices(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	if IsJSONOutput() {
		writeJSON(w, cloud)
	} else {
		fmt.Fprintln(w, formatCloudHuman(cloud))
	}
	return exitOK
}

func formatCloudHuman(cloud []models.CloudService) string {
	rows := make([][]string, 0, len(cloud))
	for _, s := range cloud {
		pricing := s.Pricing
		if pricing == "" {
			pricing = "-"
		}
		rows = append(rows, []string{s.Name, s.Tier, s.Model, s.Context, s.Latency, pricing})
	}
	return renderTable([]string{"Service", "Tier", "Model", "Context", "Latency", "Pricing"}, rows)
}
