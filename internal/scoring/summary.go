package scoring

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scenarios"
)

// ScenarioSummary aggregates results for one scenario across all exposures
type ScenarioSummary struct {
	ScenarioName       string  `json:"scenario_name"`
	TemperaturePathway string  `json:"temperature_pathway"`
	CarbonPrice        float64 `json:"carbon_price"`
	TotalExposure      float64 `json:"total_exposure"`
	TransitionRisk     float64 `json:"transition_risk"`
	PhysicalRisk       float64 `json:"physical_risk"`
	ValueAtRisk        float64 `json:"value_at_risk"`
	VaRRatio           float64 `json:"var_ratio"` // ValueAtRisk / TotalExposure
	Rank               int     `json:"rank"`      // 1 = highest VaR
}

// Summarize totals results per scenario, keeping the order of defs.
// Rank orders scenarios by VaR descending; ties keep catalog order.
func Summarize(results []RiskResult, defs []scenarios.Definition) []ScenarioSummary {
	type columns struct {
		exposure, transition, physical, valueAtRisk []float64
	}

	byScenario := make(map[string]*columns, len(defs))
	for _, def := range defs {
		byScenario[def.Name] = &columns{}
	}

	for _, r := range results {
		col, ok := byScenario[r.ScenarioName]
		if !ok {
			continue
		}
		col.exposure = append(col.exposure, r.FinancialExposure)
		col.transition = append(col.transition, r.TransitionRisk)
		col.physical = append(col.physical, r.PhysicalRisk)
		col.valueAtRisk = append(col.valueAtRisk, r.ValueAtRisk)
	}

	summaries := make([]ScenarioSummary, len(defs))
	for i, def := range defs {
		col := byScenario[def.Name]
		s := ScenarioSummary{
			ScenarioName:       def.Name,
			TemperaturePathway: def.TemperaturePathway,
			CarbonPrice:        def.CarbonPrice,
			TotalExposure:      floats.Sum(col.exposure),
			TransitionRisk:     floats.Sum(col.transition),
			PhysicalRisk:       floats.Sum(col.physical),
			ValueAtRisk:        floats.Sum(col.valueAtRisk),
		}
		if s.TotalExposure > 0 {
			s.VaRRatio = s.ValueAtRisk / s.TotalExposure
		}
		summaries[i] = s
	}

	order := make([]int, len(summaries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return summaries[order[a]].ValueAtRisk > summaries[order[b]].ValueAtRisk
	})
	for rank, idx := range order {
		summaries[idx].Rank = rank + 1
	}

	return summaries
}
