// ABOUTME: Catalog reference data types for models, cloud services, and hardware
// ABOUTME: Nullable coefficients use *float64 so "absent" never collapses to zero

package models

// Category groups models for filtering
type Category string

const (
	CategoryGeneral   Category = "general"
	CategoryReasoning Category = "reasoning"
	CategoryFrontier  Category = "frontier"
	CategorySmall     Category = "small"
	CategoryImage     Category = "image"
	CategoryAudio     Category = "audio"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryGeneral,
	CategoryReasoning,
	CategoryFrontier,
	CategorySmall,
	CategoryImage,
	CategoryAudio,
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// WorkloadType selects the throughput and pricing rules for a model
type WorkloadType string

const (
	WorkloadLLM   WorkloadType = "llm"
	WorkloadImage WorkloadType = "image"
	WorkloadAudio WorkloadType = "audio"
)

// Valid reports whether t is a known workload type
func (t WorkloadType) Valid() bool {
	switch t {
	case WorkloadLLM, WorkloadImage, WorkloadAudio:
		return true
	}
	return false
}

// Pricing holds cloud-equivalent prices and the assumed local running cost.
// A nil field means the price is unknown, not free.
type Pricing struct {
	CostPerMTokenInput  *float64 `json:"cost_per_mtoken_input,omitempty" yaml:"cost_per_mtoken_input,omitempty"`
	CostPerMTokenOutput *float64 `json:"cost_per_mtoken_output,omitempty" yaml:"cost_per_mtoken_output,omitempty"`
	CostPerImage        *float64 `json:"cost_per_image,omitempty" yaml:"cost_per_image,omitempty"`
	CostPerAudioHour    *float64 `json:"cost_per_audio_hour,omitempty" yaml:"cost_per_audio_hour,omitempty"`
	LocalCostPerHour    *float64 `json:"local_cost_per_hour,omitempty" yaml:"local_cost_per_hour,omitempty"`
}

// ModelDefinition is an immutable catalog entry
type ModelDefinition struct {
	Name         string       `json:"name" yaml:"name"`
	Params       string       `json:"params" yaml:"params"`
	Quant        string       `json:"quant" yaml:"quant"`
	MemoryGB     float64      `json:"memory_gb" yaml:"memory_gb"`
	Category     Category     `json:"category" yaml:"category"`
	Type         WorkloadType `json:"type" yaml:"type"`
	SingleMLX    *float64     `json:"single_mlx,omitempty" yaml:"single_mlx,omitempty"`
	SingleOllama *float64     `json:"single_ollama,omitempty" yaml:"single_ollama,omitempty"`
	ExoSpeed     *float64     `json:"exo_speed,omitempty" yaml:"exo_speed,omitempty"`
	ExoNote      string       `json:"exo_note" yaml:"exo_note"`
	Unit         string       `json:"unit" yaml:"unit"`
	RTFactor     *float64     `json:"rt_factor,omitempty" yaml:"rt_factor,omitempty"`
	ImageSeconds *float64     `json:"image_seconds,omitempty" yaml:"image_seconds,omitempty"`
	Description  string       `json:"description" yaml:"description"`
	Pricing      Pricing      `json:"pricing" yaml:"pricing"`
}

// SingleMachineCoefficients returns the single-machine throughput estimates
// in priority order. The first non-nil entry wins.
func (d ModelDefinition) SingleMachineCoefficients() []*float64 {
	return []*float64{d.SingleMLX, d.SingleOllama}
}

// CloudService is descriptive reference data for a hosted offering
type CloudService struct {
	Name    string `json:"name" yaml:"name"`
	Tier    string `json:"tier" yaml:"tier"`
	Use     string `json:"use" yaml:"use"`
	Model   string `json:"model" yaml:"model"`
	Context string `json:"context" yaml:"context"`
	Latency string `json:"latency" yaml:"latency"`
	Pricing string `json:"pricing,omitempty" yaml:"pricing,omitempty"`
}

// PriceRange is an acquisition price range in dollars
type PriceRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// HardwareProfile describes one hardware class (e.g. "M4 Pro")
type HardwareProfile struct {
	Class          string             `json:"class" yaml:"class"`
	PriceRange     PriceRange         `json:"price_range" yaml:"price_range"`
	RAMOptions     []float64          `json:"ram_options_gb" yaml:"ram_options_gb"`
	GPUOptions     []string           `json:"gpu_options,omitempty" yaml:"gpu_options,omitempty"`
	BandwidthByRAM map[string]float64 `json:"bandwidth_by_ram,omitempty" yaml:"bandwidth_by_ram,omitempty"`
	BandwidthByGPU map[string]float64 `json:"bandwidth_by_gpu,omitempty" yaml:"bandwidth_by_gpu,omitempty"`
}
