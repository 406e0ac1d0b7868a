// ABOUTME: Interactive fleet builder using huh forms
// ABOUTME: Collects economics and machines, then builds a validated fleet spec

package fleetform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/keir-whitehead/setup-lab-3d/backend/catalog"
	"github.com/keir-whitehead/setup-lab-3d/backend/models"
	"github.com/keir-whitehead/setup-lab-3d/backend/services"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/tui/styles"
)

// MachineValues holds the raw form answers for one machine
type MachineValues struct {
	Name   string
	Class  string
	Memory string
	GPU    string
}

// EconomicsValues holds the raw form answers for the economics table
type EconomicsValues struct {
	Rate  string
	Hours string
}

// DefaultEconomicsValues pre-fills the economics form
func DefaultEconomicsValues() EconomicsValues {
	return EconomicsValues{
		Rate:  strconv.FormatFloat(services.DefaultElectricityRate, 'f', -1, 64),
		Hours: strconv.Itoa(services.DefaultHoursPerDay),
	}
}

// Theme returns the huh theme matching the TUI palette
func Theme() *huh.Theme {
	t := huh.ThemeBase()

	gray := lipgloss.Color("#9CA3AF")
	grayLight := lipgloss.Color("#E5E7EB")
	red := lipgloss.Color("#F87171")

	t.Group.Title = lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		MarginBottom(1)
	t.Group.Description = lipgloss.NewStyle().
		Foreground(gray).
		MarginBottom(1)

	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(styles.Primary)
	t.Focused.Title = lipgloss.NewStyle().
		Foreground(styles.Accent).
		Bold(true)
	t.Focused.Description = lipgloss.NewStyle().
		Foreground(gray)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().
		Foreground(red).
		SetString(" *")
	t.Focused.ErrorMessage = lipgloss.NewStyle().
		Foreground(red)

	t.Focused.SelectSelector = lipgloss.NewStyle().
		Foreground(styles.Primary).
		SetString("> ")
	t.Focused.Option = lipgloss.NewStyle().
		Foreground(grayLight)
	t.Focused.SelectedOption = lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true)

	t.Focused.TextInput.Cursor = lipgloss.NewStyle().
		Foreground(styles.Primary)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().
		Foreground(gray)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().
		Foreground(styles.Primary)
	t.Focused.TextInput.Text = lipgloss.NewStyle().
		Foreground(grayLight)

	t.Focused.FocusedButton = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(styles.Primary).
		Padding(0, 2).
		MarginRight(1)
	t.Focused.BlurredButton = lipgloss.NewStyle().
		Foreground(gray).
		Background(styles.Surface).
		Padding(0, 2).
		MarginRight(1)

	t.Blurred = t.Focused
	t.Blurred.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true)
	t.Blurred.Title = lipgloss.NewStyle().
		Foreground(gray)
	t.Blurred.SelectSelector = lipgloss.NewStyle().
		Foreground(gray).
		SetString("  ")
	t.Blurred.Option = lipgloss.NewStyle().
		Foreground(gray)

	return t
}

// ClassOptions lists the catalog's hardware classes
func ClassOptions(hardware []models.HardwareProfile) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(hardware))
	for _, h := range hardware {
		label := fmt.Sprintf("%s ($%g-$%g)", h.Class, h.PriceRange.Min, h.PriceRange.Max)
		opts = append(opts, huh.NewOption(label, h.Class))
	}
	return opts
}

// MemoryOptions lists the RAM configurations of a hardware class
func MemoryOptions(c *catalog.Catalog, class string) []huh.Option[string] {
	h, ok := c.Profile(class)
	if !ok {
		return nil
	}
	opts := make([]huh.Option[string], 0, len(h.RAMOptions))
	for _, gb := range h.RAMOptions {
		v := strconv.FormatFloat(gb, 'f', -1, 64)
		opts = append(opts, huh.NewOption(v+" GB", v))
	}
	return opts
}

// GPUOptions lists the GPU configurations of a hardware class, with an
// empty choice for "default"
func GPUOptions(c *catalog.Catalog, class string) []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption("Default", "")}
	h, ok := c.Profile(class)
	if !ok {
		return opts
	}
	for _, gpu := range h.GPUOptions {
		opts = append(opts, huh.NewOption(gpu, gpu))
	}
	return opts
}

// EconomicsForm asks for the electricity rate and daily runtime
func EconomicsForm(v *EconomicsValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Electricity rate").
				Description("Price per kWh").
				Placeholder("0.30").
				Value(&v.Rate).
				Validate(ValidateRate),
			huh.NewInput().
				Title("Hours per day").
				Description("How long the machines run inference each day").
				Placeholder("12").
				Value(&v.Hours).
				Validate(ValidateHours),
		).Title("Economics").
			Description("Used to compare local running cost with cloud APIs"),
	).WithTheme(Theme())
}

// MachineForm asks for one machine. addAnother reports whether the user
// wants to describe another machine after this one.
func MachineForm(c *catalog.Catalog, index int, v *MachineValues, addAnother *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder(fmt.Sprintf("machine-%d", index+1)).
				Value(&v.Name),
			huh.NewSelect[string]().
				Title("Hardware class").
				Description("Use ↑/↓ to select, Enter to confirm").
				Options(ClassOptions(c.Hardware())...).
				Value(&v.Class),
			huh.NewSelect[string]().
				Title("Unified memory").
				OptionsFunc(func() []huh.Option[string] { return MemoryOptions(c, v.Class) }, &v.Class).
				Value(&v.Memory).
				Validate(ValidateMemory),
			huh.NewSelect[string]().
				Title("GPU").
				OptionsFunc(func() []huh.Option[string] { return GPUOptions(c, v.Class) }, &v.Class).
				Value(&v.GPU),
			huh.NewConfirm().
				Title("Add another machine?").
				Value(addAnother),
		).Title(fmt.Sprintf("Machine %d", index+1)).
			Description("Describe a machine in the fleet"),
	).WithTheme(Theme())
}

// ValidateMemory requires a positive number of gigabytes
func ValidateMemory(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return errors.New("must be a positive number")
	}
	return nil
}

// ValidateRate requires a non-negative number
func ValidateRate(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return errors.New("must be zero or more")
	}
	return nil
}

// ValidateHours requires a number between 0 and 24
func ValidateHours(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || v > 24 {
		return errors.New("must be between 0 and 24")
	}
	return nil
}

// BuildMachine converts form answers into a machine. Machines get
// generated IDs later, in BuildSpec.
func BuildMachine(v MachineValues) (models.Machine, error) {
	if err := ValidateMemory(v.Memory); err != nil {
		return models.Machine{}, fmt.Errorf("memory: %w", err)
	}
	memory, _ := strconv.ParseFloat(strings.TrimSpace(v.Memory), 64)
	return models.Machine{
		Name:          strings.TrimSpace(v.Name),
		MemoryGB:      memory,
		HardwareClass: v.Class,
		GPU:           v.GPU,
		Active:        true,
	}, nil
}

// BuildSpec assembles and validates a fleet from form answers, resolving
// memory bandwidth from the catalog.
func BuildSpec(c *catalog.Catalog, econ EconomicsValues, machines []MachineValues) (services.FleetSpec, error) {
	if err := ValidateRate(econ.Rate); err != nil {
		return services.FleetSpec{}, fmt.Errorf("electricity rate: %w", err)
	}
	if err := ValidateHours(econ.Hours); err != nil {
		return services.FleetSpec{}, fmt.Errorf("hours per day: %w", err)
	}
	rate, _ := strconv.ParseFloat(strings.TrimSpace(econ.Rate), 64)
	hours, _ := strconv.ParseFloat(strings.TrimSpace(econ.Hours), 64)

	built := make([]models.Machine, 0, len(machines))
	for i, v := range machines {
		m, err := BuildMachine(v)
		if err != nil {
			return services.FleetSpec{}, fmt.Errorf("machine %d: %w", i+1, err)
		}
		built = append(built, m)
	}
	built = services.ResolveBandwidth(c, services.AssignMachineIDs(built))
	if err := models.ValidateMachines(built); err != nil {
		return services.FleetSpec{}, err
	}

	return services.FleetSpec{
		Economics: services.Economics{ElectricityRate: rate, HoursPerDay: hours}.Normalize(),
		Machines:  built,
	}, nil
}

// Run walks the user through the economics and machine forms
func Run(c *catalog.Catalog) (services.FleetSpec, error) {
	econ := DefaultEconomicsValues()
	if err := EconomicsForm(&econ).Run(); err != nil {
		return services.FleetSpec{}, err
	}

	var machines []MachineValues
	for addAnother := true; addAnother; {
		v := MachineValues{}
		addAnother = false
		if err := MachineForm(c, len(machines), &v, &addAnother).Run(); err != nil {
			return services.FleetSpec{}, err
		}
		machines = append(machines, v)
	}

	return BuildSpec(c, econ, machines)
}
