// ABOUTME: Read-only catalog of model definitions, cloud services, and hardware classes
// ABOUTME: Parsed once from embedded YAML, optionally overridden by a file on disk

package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/keir-whitehead/setup-lab-3d/backend/models"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Catalog holds the static reference tables. Order is declaration order.
type Catalog struct {
	models   []models.ModelDefinition
	cloud    []models.CloudService
	hardware []models.HardwareProfile
}

type document struct {
	Models        []models.ModelDefinition `yaml:"models"`
	CloudServices []models.CloudService    `yaml:"cloud_services"`
	Hardware      []models.HardwareProfile `yaml:"hardware"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog. It is parsed and validated once per process.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(embeddedCatalog)
	})
	return defaultCatalog, defaultErr
}

// MustDefault is like Default but panics if the embedded catalog is invalid
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic("catalog: invalid embedded catalog: " + err.Error())
	}
	return c
}

// Load returns the catalog at path, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalog document
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	c := &Catalog{
		models:   doc.Models,
		cloud:    doc.CloudServices,
		hardware: doc.Hardware,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// New builds a catalog from in-memory tables and validates it
func New(defs []models.ModelDefinition, cloud []models.CloudService, hardware []models.HardwareProfile) (*Catalog, error) {
	c := &Catalog{
		models:   append([]models.ModelDefinition(nil), defs...),
		cloud:    append([]models.CloudService(nil), cloud...),
		hardware: append([]models.HardwareProfile(nil), hardware...),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the data-quality rules every consumer relies on
func (c *Catalog) Validate() error {
	var errs []error

	names := make(map[string]bool, len(c.models))
	for i, m := range c.models {
		if strings.TrimSpace(m.Name) == "" {
			errs = append(errs, fmt.Errorf("models[%d]: name is required", i))
		} else if names[m.Name] {
			errs = append(errs, fmt.Errorf("models[%d]: duplicate name %q", i, m.Name))
		}
		names[m.Name] = true

		if !(m.MemoryGB > 0) || math.IsInf(m.MemoryGB, 0) {
			errs = append(errs, fmt.Errorf("model %q: memory_gb must be positive", m.Name))
		}
		if !m.Category.Valid() {
			errs = append(errs, fmt.Errorf("model %q: unknown category %q", m.Name, m.Category))
		}
		if !m.Type.Valid() {
			errs = append(errs, fmt.Errorf("model %q: unknown type %q", m.Name, m.Type))
		}
		if m.Unit == "" {
			errs = append(errs, fmt.Errorf("model %q: unit is required", m.Name))
		}
	}

	classes := make(map[string]bool, len(c.hardware))
	for i, h := range c.hardware {
		if h.Class == "" {
			errs = append(errs, fmt.Errorf("hardware[%d]: class is required", i))
		} else if classes[h.Class] {
			errs = append(errs, fmt.Errorf("hardware[%d]: duplicate class %q", i, h.Class))
		}
		classes[h.Class] = true

		if !(h.PriceRange.Min >= 0 && h.PriceRange.Min <= h.PriceRange.Max) || math.IsInf(h.PriceRange.Max, 0) {
			errs = append(errs, fmt.Errorf("hardware %q: invalid price range [%g, %g]", h.Class, h.PriceRange.Min, h.PriceRange.Max))
		}
	}

	for i, s := range c.cloud {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("cloud_services[%d]: name is required", i))
		}
	}

	return errors.Join(errs...)
}

// Models returns a copy of the model definitions in declaration order
func (c *Catalog) Models() []models.ModelDefinition {
	return append([]models.ModelDefinition(nil), c.models...)
}

// CloudServices returns a copy of the cloud service list
func (c *Catalog) CloudServices() []models.CloudService {
	return append([]models.CloudService(nil), c.cloud...)
}

// Hardware returns a copy of the hardware profiles
func (c *Catalog) Hardware() []models.HardwareProfile {
	return append([]models.HardwareProfile(nil), c.hardware...)
}

// Model looks up a definition by exact name
func (c *Catalog) Model(name string) (models.ModelDefinition, bool) {
	for _, m := range c.models {
		if m.Name == name {
			return m, true
		}
	}
	return models.ModelDefinition{}, false
}

// Profile looks up a hardware class
func (c *Catalog) Profile(class string) (models.HardwareProfile, bool) {
	for _, h := range c.hardware {
		if h.Class == class {
			return h, true
		}
	}
	return models.HardwareProfile{}, false
}

// PriceMidpoint returns round((min+max)/2) for a hardware class.
// Unknown classes report false.
func (c *Catalog) PriceMidpoint(class string) (float64, bool) {
	h, ok := c.Profile(class)
	if !ok {
		return 0, false
	}
	return math.Floor((h.PriceRange.Min+h.PriceRange.Max)/2 + 0.5), true
}

// Bandwidth resolves memory bandwidth for a machine configuration.
// A GPU-specific entry wins over the RAM table.
func (c *Catalog) Bandwidth(class string, ramGB float64, gpu string) (float64, bool) {
	h, ok := c.Profile(class)
	if !ok {
		return 0, false
	}
	if gpu != "" {
		if bw, ok := h.BandwidthByGPU[gpu]; ok {
			return bw, true
		}
	}
	bw, ok := h.BandwidthByRAM[strconv.FormatFloat(ramGB, 'f', -1, 64)]
	return bw, ok
}
