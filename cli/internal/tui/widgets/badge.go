// ABOUTME: Status badge widgets for model runnability
// ABOUTME: Provides colored inline badges and status icons per planning status

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/keir-whitehead/setup-lab-3d/backend/models"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/tui/icons"
)

// Badge colors
var (
	BadgeFastBg = lipgloss.Color("#10B981")
	BadgeRunsBg = lipgloss.Color("#059669")
	BadgeDistBg = lipgloss.Color("#3B82F6")
	BadgeWarnBg = lipgloss.Color("#F59E0B")
	BadgeNoBg   = lipgloss.Color("#6B7280")
	BadgeFg     = lipgloss.Color("#FFFFFF")
	BadgeWarnFg = lipgloss.Color("#000000")
)

// statusColors returns the badge background and foreground for a status
func statusColors(status models.Status) (bg, fg lipgloss.Color) {
	switch status {
	case models.StatusFast:
		return BadgeFastBg, BadgeFg
	case models.StatusRuns:
		return BadgeRunsBg, BadgeFg
	case models.StatusDistributed:
		return BadgeDistBg, BadgeFg
	case models.StatusTight:
		return BadgeWarnBg, BadgeWarnFg
	default:
		return BadgeNoBg, BadgeFg
	}
}

// Badge renders text on a colored background
func Badge(text string, bg, fg lipgloss.Color) string {
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(fg).
		Padding(0, 1).
		Bold(true).
		Render(text)
}

// StatusBadge renders a model status as an upper-case badge
func StatusBadge(status models.Status) string {
	bg, fg := statusColors(status)
	return Badge(strings.ToUpper(string(status)), bg, fg)
}

// StatusIcon returns the icon for a model status
func StatusIcon(status models.Status) string {
	return icons.ForStatus(status).String()
}

// StatusText returns a colored icon followed by the status name
func StatusText(status models.Status) string {
	bg, _ := statusColors(status)
	style := lipgloss.NewStyle().Foreground(bg)
	return fmt.Sprintf("%s %s", style.Render(StatusIcon(status)), style.Render(string(status)))
}
