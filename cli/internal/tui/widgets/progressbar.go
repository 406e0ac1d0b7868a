// ABOUTME: Progress bars for fleet memory use and hardware payback
// ABOUTME: Payback bar fills as cumulative savings approach hardware cost

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/keir-whitehead/setup-lab-3d/backend/models"
)

// ProgressBarConfig holds configuration for the progress bar
type ProgressBarConfig struct {
	Width      int
	FullColor  lipgloss.Color
	FillColor  lipgloss.Color
	EmptyColor lipgloss.Color
}

// DefaultProgressBarConfig returns sensible defaults
func DefaultProgressBarConfig() ProgressBarConfig {
	return ProgressBarConfig{
		Width:      20,
		FullColor:  lipgloss.Color("#10B981"), // Green
		FillColor:  lipgloss.Color("#F59E0B"), // Amber
		EmptyColor: lipgloss.Color("#374151"), // Dark gray
	}
}

// ProgressBar renders a bar filled to percent, switching to the full color at 100
func ProgressBar(percent float64, config ProgressBarConfig) string {
	if config.Width <= 0 {
		config.Width = 20
	}

	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(percent / 100.0 * float64(config.Width))
	color := config.FillColor
	if percent >= 100 {
		color = config.FullColor
	}

	return "[" +
		lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(config.EmptyColor).Render(strings.Repeat("░", config.Width-filled)) +
		"]"
}

// PaybackPercent returns how much of the hardware cost horizonMonths of
// savings recover, capped at 100. Free hardware is paid back immediately.
func PaybackPercent(p models.CostProjection, horizonMonths int) float64 {
	if p.HardwareCost <= 0 {
		return 100
	}
	if p.MonthlySavings <= 0 {
		return 0
	}
	pct := p.MonthlySavings * float64(horizonMonths) / p.HardwareCost * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// PaybackBar renders the payback progress over a horizon with a label
func PaybackBar(p models.CostProjection, horizonMonths int, config ProgressBarConfig) string {
	pct := PaybackPercent(p, horizonMonths)
	return fmt.Sprintf("%s %3.0f%% in %d mo (break-even: %s)",
		ProgressBar(pct, config), pct, horizonMonths, p.BreakEven)
}
