// Package charts turns scoring output into plain chart series that any
// renderer (PDF, web front end) can draw.
package charts

import (
	"math"

	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scenarios"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scoring"
)

// RadarMax is the upper bound of the qualitative risk profile scale
const RadarMax = 10

// BarGroup is one scenario's bars in the transition vs physical chart
type BarGroup struct {
	Scenario       string  `json:"scenario"`
	TransitionRisk float64 `json:"transition_risk"`
	PhysicalRisk   float64 `json:"physical_risk"`
	ValueAtRisk    float64 `json:"value_at_risk"`
}

// BarChart compares transition and physical risk by scenario
type BarChart struct {
	Title      string     `json:"title"`
	YAxisLabel string     `json:"y_axis_label"`
	Series     []string   `json:"series"`
	Groups     []BarGroup `json:"groups"`
}

// MaxValue returns the largest bar height, used for axis scaling
func (b BarChart) MaxValue() float64 {
	max := 0.0
	for _, g := range b.Groups {
		max = math.Max(max, math.Max(g.TransitionRisk, g.PhysicalRisk))
	}
	return max
}

// RadarSeries is one scenario's polygon on the radar chart
type RadarSeries struct {
	Scenario string `json:"scenario"`
	Scores   []int  `json:"scores"`
}

// RadarChart compares qualitative scenario risk profiles
type RadarChart struct {
	Title  string        `json:"title"`
	Axes   []string      `json:"axes"`
	Max    int           `json:"max"`
	Series []RadarSeries `json:"series"`
}

// Set bundles the charts produced for one analysis
type Set struct {
	Bar   BarChart   `json:"bar"`
	Radar RadarChart `json:"radar"`
}

// Build creates the chart set from the selected scenarios and their summaries.
// Series follow the order of defs.
func Build(defs []scenarios.Definition, summaries []scoring.ScenarioSummary) Set {
	byName := make(map[string]scoring.ScenarioSummary, len(summaries))
	for _, s := range summaries {
		byName[s.ScenarioName] = s
	}

	bar := BarChart{
		Title:      "Transition vs Physical Risk by Scenario",
		YAxisLabel: "AUD",
		Series:     []string{"Transition Risk", "Physical Risk"},
		Groups:     make([]BarGroup, 0, len(defs)),
	}
	radar := RadarChart{
		Title:  "Climate Risk Profile Comparison",
		Axes:   append([]string(nil), scenarios.RiskProfileLabels[:]...),
		Max:    RadarMax,
		Series: make([]RadarSeries, 0, len(defs)),
	}

	for _, def := range defs {
		s := byName[def.Name]
		bar.Groups = append(bar.Groups, BarGroup{
			Scenario:       def.Name,
			TransitionRisk: s.TransitionRisk,
			PhysicalRisk:   s.PhysicalRisk,
			ValueAtRisk:    s.ValueAtRisk,
		})

		scores := make([]int, len(def.RiskProfile))
		copy(scores, def.RiskProfile[:])
		radar.Series = append(radar.Series, RadarSeries{Scenario: def.Name, Scores: scores})
	}

	return Set{Bar: bar, Radar: radar}
}

// Point is a 2D coordinate in drawing units
type Point struct {
	X float64
	Y float64
}

// RadarVertices places each score on its axis around (cx, cy). The first axis
// points straight up and axes proceed clockwise; y grows downwards as on a page.
func RadarVertices(cx, cy, radius float64, scores []int, max int) []Point {
	n := len(scores)
	points := make([]Point, n)
	if n == 0 || max <= 0 {
		return points
	}
	for i, score := range scores {
		angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		r := radius * float64(score) / float64(max)
		points[i] = Point{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)}
	}
	return points
}
