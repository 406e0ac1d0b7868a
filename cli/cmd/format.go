// ABOUTME: Shared human and JSON output helpers for CLI commands
// ABOUTME: Renders lipgloss tables and money values consistently

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/tui/styles"
)

// writeJSON writes v as indented JSON
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// renderTable renders rows under headers with the shared table styles
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.TableBorder).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.TableHeader
			}
			return styles.TableCell
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func formatMoney(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func formatGB(v float64) string {
	return fmt.Sprintf("%gGB", v)
}

func formatPrice(p *float64, unit string) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("$%g%s", *p, unit)
}
