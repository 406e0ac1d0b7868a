// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Toggles fleet machines and re-plans models and costs on every change

package tui

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/keir-whitehead/setup-lab-3d/backend/catalog"
	"github.com/keir-whitehead/setup-lab-3d/backend/logger"
	"github.com/keir-whitehead/setup-lab-3d/backend/models"
	"github.com/keir-whitehead/setup-lab-3d/backend/services"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/tui/icons"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/tui/styles"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/tui/widgets"
)

// Pane identifies which pane receives navigation keys
type Pane int

const (
	PaneMachines Pane = iota
	PaneModels
)

// Layout constants
const (
	minTerminalWidth = 80 // Frame never renders narrower than this
	paybackHorizon   = 12 // Months the payback bar covers
	fixedRows        = 14 // Header, panels, help and footer around the table
	minTableHeight   = 3
)

// categoryCycle is the order the category filter steps through; "" shows all
var categoryCycle = append([]string{""}, categoryNames()...)

func categoryNames() []string {
	names := make([]string, 0, len(models.Categories))
	for _, c := range models.Categories {
		names = append(names, string(c))
	}
	return names
}

// savedMsg reports the outcome of writing the fleet file
type savedMsg struct {
	err error
}

// App is the root model for the TUI
type App struct {
	planner   *services.CapacityPlanner
	projector *services.CostProjector
	spec      services.FleetSpec
	fleetPath string

	results    []models.ModelResult
	shown      []models.ModelResult
	projection models.CostProjection
	lastUpdate time.Time

	pane      Pane
	cursor    int
	category  int
	sorted    bool
	dirty     bool
	status    string
	width     int
	height    int
	keys      keyMap
	help      help.Model
	modelView table.Model
}

// New creates the TUI for a fleet. fleetPath is where "write fleet" saves to.
func New(c *catalog.Catalog, spec services.FleetSpec, fleetPath string) *App {
	spec.Economics = spec.Economics.Normalize()
	spec.Machines = services.ResolveBandwidth(c, spec.Machines)

	a := &App{
		planner:   services.NewCapacityPlanner(c, spec.Economics),
		projector: services.NewCostProjector(c),
		spec:      spec,
		fleetPath: fleetPath,
		keys:      defaultKeyMap(),
		help:      help.New(),
		modelView: newModelTable(),
	}
	a.replan()
	return a
}

func newModelTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Status", Width: 14},
			{Title: "Model", Width: 24},
			{Title: "Memory", Width: 8},
			{Title: "Speed", Width: 14},
			{Title: "Runs on", Width: 22},
			{Title: "Savings/mo", Width: 11},
		}),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Foreground(styles.Accent).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(styles.Text).
		Background(styles.Primary).
		Bold(false)
	t.SetStyles(s)
	return t
}

// replan recomputes every result and the cost projection from the current fleet
func (a *App) replan() {
	econ := a.spec.Economics
	a.results = a.planner.Plan(a.spec.Machines)
	a.projection = a.projector.Project(a.spec.Machines, a.results, econ.ElectricityRate, econ.HoursPerDay)
	a.lastUpdate = time.Now()
	a.applyView()

	slog.Info("Replanned fleet",
		"active", len(models.ActiveMachines(a.spec.Machines)),
		"runnable", services.CountRunnable(a.results),
		"savings", a.projection.MonthlySavings)
}

// applyView filters and orders results into the model table
func (a *App) applyView() {
	shown := services.FilterResults(a.results, categoryCycle[a.category], "")
	if a.sorted {
		shown = services.SortResults(shown)
	}
	a.shown = shown

	rows := make([]table.Row, 0, len(shown))
	for _, r := range shown {
		savings := "-"
		if r.MonthlySavings != nil {
			savings = fmt.Sprintf("$%.2f", *r.MonthlySavings)
		}
		rows = append(rows, table.Row{
			widgets.StatusIcon(r.Status) + " " + string(r.Status),
			r.Name,
			fmt.Sprintf("%gGB", r.MemoryGB),
			r.Speed,
			r.RunsOn,
			savings,
		})
	}
	a.modelView.SetRows(rows)
	if a.modelView.Cursor() >= len(rows) {
		a.modelView.SetCursor(0)
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = a.frameWidth()
		a.modelView.SetHeight(a.tableHeight())
		return a, nil

	case savedMsg:
		if msg.err != nil {
			a.status = "Save failed: " + msg.err.Error()
			return a, nil
		}
		a.dirty = false
		a.status = "Saved " + a.fleetPath
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		a.modelView.SetHeight(a.tableHeight())
		return a, nil

	case key.Matches(msg, a.keys.Switch):
		if a.pane == PaneMachines {
			a.pane = PaneModels
			a.modelView.Focus()
		} else {
			a.pane = PaneMachines
			a.modelView.Blur()
		}
		return a, nil

	case key.Matches(msg, a.keys.Category):
		a.category = (a.category + 1) % len(categoryCycle)
		a.applyView()
		return a, nil

	case key.Matches(msg, a.keys.Sort):
		a.sorted = !a.sorted
		a.applyView()
		return a, nil

	case key.Matches(msg, a.keys.Save):
		return a, a.save()
	}

	if a.pane == PaneModels {
		var cmd tea.Cmd
		a.modelView, cmd = a.modelView.Update(msg)
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(a.spec.Machines)-1 {
			a.cursor++
		}
	case key.Matches(msg, a.keys.Toggle):
		a.toggle(a.cursor)
	}
	return a, nil
}

// toggle flips a machine's active flag and re-plans
func (a *App) toggle(i int) {
	if i < 0 || i >= len(a.spec.Machines) {
		return
	}
	machines := append([]models.Machine(nil), a.spec.Machines...)
	machines[i].Active = !machines[i].Active
	a.spec.Machines = machines
	a.dirty = true
	a.status = ""
	a.replan()
}

// save writes the fleet, including active flags, back to its file
func (a *App) save() tea.Cmd {
	if a.fleetPath == "" {
		a.status = "No fleet file to write"
		return nil
	}
	spec, path := a.spec, a.fleetPath
	return func() tea.Msg {
		return savedMsg{err: services.SaveFleetFile(path, spec)}
	}
}

// View implements tea.Model
func (a *App) View() string {
	width := a.frameWidth()
	half := (width - 4) / 2

	machines := styles.Panel
	if a.pane == PaneMachines {
		machines = styles.ActivePanel
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top,
		machines.Width(half).Render(a.viewMachines()),
		styles.Panel.Width(width-half-4).Render(a.viewCosts()),
	)

	modelPanel := styles.Panel
	if a.pane == PaneModels {
		modelPanel = styles.ActivePanel
	}
	bottom := modelPanel.Width(width - 2).Render(a.viewModels())

	content := lipgloss.JoinVertical(lipgloss.Left, top, bottom, a.help.View(a.keys))
	return a.wrapWithFrame(content)
}

func (a *App) viewMachines() string {
	var sb strings.Builder
	sb.WriteString(styles.ValueStyle.Render(icons.Machine.String()+" Machines") + "\n")
	if len(a.spec.Machines) == 0 {
		sb.WriteString(styles.Subtitle.Render("No machines in fleet"))
		return sb.String()
	}
	for i, m := range a.spec.Machines {
		pointer := "  "
		if i == a.cursor && a.pane == PaneMachines {
			pointer = styles.KeyStyle.Render("> ")
		}
		state := lipgloss.NewStyle().Foreground(styles.Secondary).Render(icons.On.String())
		if !m.Active {
			state = lipgloss.NewStyle().Foreground(styles.Muted).Render(icons.Off.String())
		}
		fmt.Fprintf(&sb, "%s%s %s  %s %gGB\n", pointer, state, m.DisplayName(), m.HardwareClass, m.MemoryGB)
	}
	fleet := models.NewFleet(models.ActiveMachines(a.spec.Machines))
	sb.WriteString(styles.Subtitle.Render(fmt.Sprintf("%d active, %gGB total, largest %gGB",
		fleet.MachineCount, fleet.TotalMemoryGB, fleet.MaxSingleMachine)))
	return sb.String()
}

func (a *App) viewCosts() string {
	p := a.projection
	var sb strings.Builder
	sb.WriteString(styles.ValueStyle.Render(icons.Money.String()+" Economics") + "\n")
	fmt.Fprintf(&sb, "Hardware:  $%.2f\n", p.HardwareCost)
	fmt.Fprintf(&sb, "Cloud/mo:  $%.2f\n", p.MonthlyCloud)
	fmt.Fprintf(&sb, "Local/mo:  $%.2f\n", p.MonthlyLocal)
	fmt.Fprintf(&sb, "Savings:   %s\n", styles.Money(fmt.Sprintf("$%.2f/mo", p.MonthlySavings), p.MonthlySavings))
	config := widgets.DefaultProgressBarConfig()
	config.Width = 16
	sb.WriteString(widgets.PaybackBar(p, paybackHorizon, config))
	return sb.String()
}

func (a *App) viewModels() string {
	category := categoryCycle[a.category]
	if category == "" {
		category = "all"
	}
	order := "catalog order"
	if a.sorted {
		order = "fastest first"
	}
	title := fmt.Sprintf("Models: %d of %d runnable  %s  %s",
		services.CountRunnable(a.shown), len(a.shown),
		styles.Subtitle.Render("category "+category), styles.Subtitle.Render(order))
	return title + "\n" + a.modelView.View()
}

// frameWidth is the rendered width of the frame, one less than the
// terminal to avoid wrapping, but never below the minimum
func (a *App) frameWidth() int {
	width := a.width - 1
	if width < minTerminalWidth {
		width = minTerminalWidth
	}
	return width
}

func (a *App) tableHeight() int {
	h := a.height - fixedRows - len(a.spec.Machines)
	if a.help.ShowAll {
		h -= 2
	}
	if h < minTableHeight {
		h = minTableHeight
	}
	return h
}

// renderHeader creates the header bar with app branding and the fleet source
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftRendered := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("AI Capacity Planner"))

	rightRendered := ""
	if a.fleetPath != "" {
		name := a.fleetPath
		if a.dirty {
			name += "*"
		}
		rightRendered = " " + contextStyle.Render(name) + " "
	}

	fillWidth := width - 4 - lipgloss.Width(leftRendered) - lipgloss.Width(rightRendered) // -4 for ╭─ and ─╮
	if fillWidth < 0 {
		fillWidth = 0
	}

	return borderStyle.Render("╭─" + leftRendered + strings.Repeat("─", fillWidth) + rightRendered + "─╮")
}

// renderFooter creates the footer with the status message and last replan time
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	left := ""
	if a.status != "" {
		left = " " + a.status + " "
	}

	right := ""
	if !a.lastUpdate.IsZero() {
		right = " " + statusStyle.Render("Planned "+a.formatTimeSince(a.lastUpdate)) + " "
	}

	fillWidth := width - 4 - lipgloss.Width(left) - lipgloss.Width(right) // -4 for ╰─ and ─╯
	if fillWidth < 0 {
		fillWidth = 0
	}

	return borderStyle.Render("╰─" + left + strings.Repeat("─", fillWidth) + right + "─╯")
}

// formatTimeSince formats a duration since the given time in human-readable form
func (a *App) formatTimeSince(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}

	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}

	return fmt.Sprintf("%dh ago", int(d.Hours()))
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Run starts the TUI. When debugPath is set, logs go to that file;
// otherwise they are discarded so they cannot corrupt the screen.
func Run(c *catalog.Catalog, spec services.FleetSpec, fleetPath, debugPath string) error {
	if debugPath != "" {
		f, err := tea.LogToFile(debugPath, "ai-capacity")
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		defer f.Close()
		slog.SetDefault(logger.New(logger.Options{Level: "debug", Output: f}))
	} else {
		log.SetOutput(io.Discard)
		slog.SetDefault(logger.New(logger.Options{}))
	}

	p := tea.NewProgram(
		New(c, spec, fleetPath),
		tea.WithAltScreen(),
		tea.WithOutput(os.Stdout),
	)
	_, err := p.Run()
	return err
}
