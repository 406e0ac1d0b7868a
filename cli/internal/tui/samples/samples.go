// ABOUTME: Discovers sample fleet TOML files and summarizes what each one holds
// ABOUTME: Looks in AI_CAPACITY_SAMPLES_PATH first, then ./samples under a base path

package samples

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/keir-whitehead/setup-lab-3d/backend/models"
	"github.com/keir-whitehead/setup-lab-3d/backend/services"
)

// PathEnv overrides where samples are looked up
const PathEnv = "AI_CAPACITY_SAMPLES_PATH"

// SampleFile is one fleet file in the samples directory
type SampleFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Summary describes a sample's fleet. Err is set when the file does not parse.
type Summary struct {
	Machines      int     `json:"machines"`
	Active        int     `json:"active"`
	TotalMemoryGB float64 `json:"total_memory_gb"`
	Err           error   `json:"-"`
}

// String renders the summary for a table cell
func (s Summary) String() string {
	if s.Err != nil {
		return "invalid"
	}
	if s.Active == s.Machines {
		return fmt.Sprintf("%d machine(s), %gGB", s.Machines, s.TotalMemoryGB)
	}
	return fmt.Sprintf("%d machine(s), %d active, %gGB", s.Machines, s.Active, s.TotalMemoryGB)
}

// Discover lists the .toml files in dir sorted by name. A missing dir yields
// no samples rather than an error.
func Discover(dir string) ([]SampleFile, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []SampleFile{}, nil
	}
	if err != nil {
		return nil, err
	}

	files := []SampleFile{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".toml") {
			continue
		}
		files = append(files, SampleFile{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
		})
	}
	slices.SortFunc(files, func(a, b SampleFile) int { return strings.Compare(a.Name, b.Name) })
	return files, nil
}

// Load parses the sample as a fleet
func (s SampleFile) Load() (services.FleetSpec, error) {
	return services.LoadFleetFile(s.Path)
}

// Summarize loads the sample and counts its machines. Total memory covers
// active machines only, matching what the planner sees.
func (s SampleFile) Summarize() Summary {
	spec, err := s.Load()
	if err != nil {
		return Summary{Err: err}
	}
	active := models.ActiveMachines(spec.Machines)
	return Summary{
		Machines:      len(spec.Machines),
		Active:        len(active),
		TotalMemoryGB: models.NewFleet(active).TotalMemoryGB,
	}
}

// FindSamplesDir returns the samples directory, or "" when there is none.
// An existing PathEnv directory wins over basePath/samples.
func FindSamplesDir(basePath string) string {
	candidates := []string{os.Getenv(PathEnv), filepath.Join(basePath, "samples")}
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}
