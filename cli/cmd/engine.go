// ABOUTME: Planning engines used by CLI commands
// ABOUTME: Runs the capacity planner in-process or delegates to a backend

package cmd

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/keir-whitehead/setup-lab-3d/backend/catalog"
	"github.com/keir-whitehead/setup-lab-3d/backend/models"
	"github.com/keir-whitehead/setup-lab-3d/backend/services"
	"github.com/keir-whitehead/setup-lab-3d/cli/internal/client"
)

// engine answers catalog, planning and cost questions.
// *client.Client satisfies it for remote use.
type engine interface {
	Models(ctx context.Context, category, query string) ([]models.ModelDefinition, error)
	CloudServices(ctx context.Context) ([]models.CloudService, error)
	Plan(ctx context.Context, machines []models.Machine, opts client.PlanOptions) (*models.PlanResponse, error)
	Costs(ctx context.Context, machines []models.Machine, rate, hours float64) (*models.CostProjection, error)
}

// localEngine plans against a catalog loaded in-process
type localEngine struct {
	catalog   *catalog.Catalog
	planner   *services.CapacityPlanner
	projector *services.CostProjector
}

func newLocalEngine(path string, econ services.Economics) (*localEngine, error) {
	c, err := loadCatalog(path)
	if err != nil {
		return nil, err
	}
	return &localEngine{
		catalog:   c,
		planner:   services.NewCapacityPlanner(c, econ),
		projector: services.NewCostProjector(c),
	}, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// selectEngine returns the backend client when one was configured and the
// in-process planner otherwise
func selectEngine(econ services.Economics) (engine, error) {
	if UseRemote() {
		return client.New(GetAPIURL()), nil
	}
	return newLocalEngine(catalogPath, econ)
}

func (e *localEngine) Models(_ context.Context, category, query string) ([]models.ModelDefinition, error) {
	if !services.ValidCategoryFilter(category) {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	return services.FilterModels(e.catalog.Models(), category, query), nil
}

func (e *localEngine) CloudServices(_ context.Context) ([]models.CloudService, error) {
	return e.catalog.CloudServices(), nil
}

func (e *localEngine) Plan(_ context.Context, machines []models.Machine, opts client.PlanOptions) (*models.PlanResponse, error) {
	if !services.ValidCategoryFilter(opts.Category) {
		return nil, fmt.Errorf("unknown category %q", opts.Category)
	}
	if err := models.ValidateMachines(machines); err != nil {
		return nil, err
	}
	results := services.FilterResults(e.planner.Plan(machines), opts.Category, opts.Query)
	if opts.Sort {
		results = services.SortResults(results)
	}
	resp := services.NewPlanResponse(machines, results)
	return &resp, nil
}

func (e *localEngine) Costs(_ context.Context, machines []models.Machine, rate, hours float64) (*models.CostProjection, error) {
	if err := models.ValidateMachines(machines); err != nil {
		return nil, err
	}
	projection := e.projector.Project(machines, e.planner.Plan(machines), rate, hours)
	return &projection, nil
}

// machineFlags holds repeated --machine values
var machineFlags []string

// loadFleet returns the machines to plan: --machine values when given,
// otherwise the fleet file
func loadFleet() (services.FleetSpec, error) {
	if len(machineFlags) > 0 {
		machines := make([]models.Machine, 0, len(machineFlags))
		for i, raw := range machineFlags {
			m, err := parseMachineFlag(raw, i)
			if err != nil {
				return services.FleetSpec{}, err
			}
			machines = append(machines, m)
		}
		if err := models.ValidateMachines(machines); err != nil {
			return services.FleetSpec{}, err
		}
		return services.FleetSpec{Economics: services.DefaultEconomics(), Machines: machines}, nil
	}

	spec, err := services.LoadFleetFile(fleetPath)
	if err != nil {
		return services.FleetSpec{}, fmt.Errorf("%w (create one with 'ai-capacity fleet init' or pass --machine)", err)
	}
	return spec, nil
}

// parseMachineFlag reads MEMORY[:CLASS[:NAME]], e.g. "48:M4 Pro:Mini"
func parseMachineFlag(raw string, index int) (models.Machine, error) {
	parts := strings.SplitN(raw, ":", 3)
	memory, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || math.IsNaN(memory) || math.IsInf(memory, 0) {
		return models.Machine{}, fmt.Errorf("--machine %q: invalid memory %q", raw, parts[0])
	}
	m := models.Machine{
		ID:       fmt.Sprintf("machine-%d", index+1),
		MemoryGB: memory,
		Active:   true,
	}
	if len(parts) > 1 {
		m.HardwareClass = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		m.Name = strings.TrimSpace(parts[2])
	}
	return m, nil
}
