// ABOUTME: Filtering and ordering of planning results for presentation
// ABOUTME: Runnable models first, then by throughput, ties kept in catalog order

package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/keir-whitehead/setup-lab-3d/backend/models"
)

// CategoryAll matches every category in FilterResults
const CategoryAll = "all"

var speedPattern = regexp.MustCompile(`([\d.]+)`)

// ParseSpeed returns the leading number of a throughput string, or 0
func ParseSpeed(speed string) float64 {
	match := speedPattern.FindStringSubmatch(speed)
	if match == nil {
		return 0
	}
	v, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	return v
}

// ValidCategoryFilter reports whether category is usable as a filter:
// empty, "all", or a known category.
func ValidCategoryFilter(category string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	return category == "" || category == CategoryAll || models.Category(category).Valid()
}

// matcher applies the shared category and search rules
type matcher struct {
	category string
	query    string
}

func newMatcher(category, query string) matcher {
	return matcher{
		category: strings.ToLower(strings.TrimSpace(category)),
		query:    strings.ToLower(strings.TrimSpace(query)),
	}
}

func (m matcher) matches(name, params string, category models.Category) bool {
	if m.category != "" && m.category != CategoryAll && string(category) != m.category {
		return false
	}
	if m.query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), m.query) ||
		strings.Contains(strings.ToLower(params), m.query)
}

// FilterResults keeps results in the given category ("" or "all" for any)
// whose name or params contain query, case-insensitively.
func FilterResults(results []models.ModelResult, category, query string) []models.ModelResult {
	m := newMatcher(category, query)
	filtered := make([]models.ModelResult, 0, len(results))
	for _, r := range results {
		if m.matches(r.Name, r.Params, r.Category) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// FilterModels applies the FilterResults rules to catalog definitions
func FilterModels(defs []models.ModelDefinition, category, query string) []models.ModelDefinition {
	m := newMatcher(category, query)
	filtered := make([]models.ModelDefinition, 0, len(defs))
	for _, d := range defs {
		if m.matches(d.Name, d.Params, d.Category) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// SortResults returns a copy ordered runnable-first, then by throughput descending.
// The sort is stable so equal entries keep their input order.
func SortResults(results []models.ModelResult) []models.ModelResult {
	sorted := append([]models.ModelResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].Status.Runnable(), sorted[j].Status.Runnable()
		if ri != rj {
			return ri
		}
		return ParseSpeed(sorted[i].Speed) > ParseSpeed(sorted[j].Speed)
	})
	return sorted
}

// CountRunnable counts results whose status is not "no"
func CountRunnable(results []models.ModelResult) int {
	n := 0
	for _, r := range results {
		if r.Status.Runnable() {
			n++
		}
	}
	return n
}

// NewPlanResponse wraps results with the aggregates of the active machine set
func NewPlanResponse(machines []models.Machine, results []models.ModelResult) models.PlanResponse {
	fleet := models.NewFleet(models.ActiveMachines(machines))
	return models.PlanResponse{
		Results:            results,
		TotalMemoryGB:      fleet.TotalMemoryGB,
		MaxSingleMachineGB: fleet.MaxSingleMachine,
		MachineCount:       fleet.MachineCount,
		RunnableCount:      CountRunnable(results),
	}
}
