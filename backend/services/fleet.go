// ABOUTME: Fleet file codec and machine preparation for planning
// ABOUTME: Reads and writes TOML fleet files and resolves catalog bandwidth

package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/keir-whitehead/setup-lab-3d/backend/catalog"
	"github.com/keir-whitehead/setup-lab-3d/backend/models"
)

// FleetSpec is a machine fleet plus the economics it should be costed with
type FleetSpec struct {
	Economics Economics        `json:"economics"`
	Machines  []models.Machine `json:"machines"`
}

// fleetDocument is the on-disk TOML shape. Active is a pointer so an
// omitted key can default to true.
type fleetDocument struct {
	Economics *Economics     `toml:"economics,omitempty"`
	Machines  []fleetMachine `toml:"machines"`
}

type fleetMachine struct {
	ID            string  `toml:"id,omitempty"`
	Name          string  `toml:"name,omitempty"`
	MemoryGB      float64 `toml:"memory_gb"`
	HardwareClass string  `toml:"hardware_class"`
	GPU           string  `toml:"gpu,omitempty"`
	BandwidthGBs  float64 `toml:"bandwidth_gbs,omitempty"`
	Active        *bool   `toml:"active,omitempty"`
}

// ParseFleet decodes a TOML fleet document. Missing machine IDs are
// generated, missing active flags default to true and a missing
// [economics] table takes the defaults.
func ParseFleet(data []byte) (FleetSpec, error) {
	var doc fleetDocument
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return FleetSpec{}, fmt.Errorf("decoding fleet: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FleetSpec{}, fmt.Errorf("decoding fleet: unknown key %q", undecoded[0].String())
	}

	spec := FleetSpec{Economics: DefaultEconomics()}
	if doc.Economics != nil {
		if md.IsDefined("economics", "electricity_rate") {
			spec.Economics.ElectricityRate = doc.Economics.ElectricityRate
		}
		if md.IsDefined("economics", "hours_per_day") {
			spec.Economics.HoursPerDay = doc.Economics.HoursPerDay
		}
	}
	spec.Economics = spec.Economics.Normalize()

	spec.Machines = make([]models.Machine, 0, len(doc.Machines))
	for _, fm := range doc.Machines {
		m := models.Machine{
			ID:            fm.ID,
			Name:          fm.Name,
			MemoryGB:      fm.MemoryGB,
			HardwareClass: fm.HardwareClass,
			GPU:           fm.GPU,
			BandwidthGBs:  fm.BandwidthGBs,
			Active:        fm.Active == nil || *fm.Active,
		}
		spec.Machines = append(spec.Machines, m)
	}
	spec.Machines = AssignMachineIDs(spec.Machines)

	if err := models.ValidateMachines(spec.Machines); err != nil {
		return FleetSpec{}, err
	}
	return spec, nil
}

// AssignMachineIDs gives every machine without an ID a generated UUID.
// The input slice is not modified.
func AssignMachineIDs(machines []models.Machine) []models.Machine {
	assigned := make([]models.Machine, len(machines))
	for i, m := range machines {
		if strings.TrimSpace(m.ID) == "" {
			m.ID = uuid.NewString()
		}
		assigned[i] = m
	}
	return assigned
}

// LoadFleetFile reads and parses a TOML fleet file
func LoadFleetFile(path string) (FleetSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FleetSpec{}, fmt.Errorf("reading fleet file: %w", err)
	}
	spec, err := ParseFleet(data)
	if err != nil {
		return FleetSpec{}, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// EncodeFleet writes spec as a TOML document
func EncodeFleet(w io.Writer, spec FleetSpec) error {
	econ := spec.Economics
	doc := fleetDocument{Economics: &econ, Machines: make([]fleetMachine, 0, len(spec.Machines))}
	for _, m := range spec.Machines {
		active := m.Active
		doc.Machines = append(doc.Machines, fleetMachine{
			ID:            m.ID,
			Name:          m.Name,
			MemoryGB:      m.MemoryGB,
			HardwareClass: m.HardwareClass,
			GPU:           m.GPU,
			BandwidthGBs:  m.BandwidthGBs,
			Active:        &active,
		})
	}
	return toml.NewEncoder(w).Encode(doc)
}

// SaveFleetFile validates spec and writes it to path, replacing any existing
// file only once the new content is fully written.
func SaveFleetFile(path string, spec FleetSpec) error {
	if err := models.ValidateMachines(spec.Machines); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := EncodeFleet(&buf, spec); err != nil {
		return fmt.Errorf("encoding fleet: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating fleet directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".fleet-*.toml")
	if err != nil {
		return fmt.Errorf("creating temp fleet file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing fleet file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing fleet file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing fleet file: %w", err)
	}
	return nil
}

// ErrUnknownHardwareClass is returned when a machine names a class the
// catalog has no profile for.
var ErrUnknownHardwareClass = errors.New("unknown hardware class")

// ResolveBandwidth fills zero BandwidthGBs from the catalog's hardware
// profiles. Machines with an explicit bandwidth are left alone, as are
// machines whose class or configuration has no catalog entry.
func ResolveBandwidth(c *catalog.Catalog, machines []models.Machine) []models.Machine {
	resolved := make([]models.Machine, len(machines))
	for i, m := range machines {
		if m.BandwidthGBs == 0 {
			if bw, ok := c.Bandwidth(m.HardwareClass, m.MemoryGB, m.GPU); ok {
				m.BandwidthGBs = bw
			}
		}
		resolved[i] = m
	}
	return resolved
}

// CheckHardwareClasses reports machines whose hardware class is not in the
// catalog. Such machines still plan normally but are priced at zero.
func CheckHardwareClasses(c *catalog.Catalog, machines []models.Machine) error {
	var errs []error
	for _, m := range machines {
		if _, ok := c.Profile(m.HardwareClass); !ok {
			errs = append(errs, fmt.Errorf("machine %q: %w %q", m.ID, ErrUnknownHardwareClass, m.HardwareClass))
		}
	}
	return errors.Join(errs...)
}
