package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scenarios"
)

func TestSummarize(t *testing.T) {
	engine := NewEngine(nil)
	defs := scenarios.Default().List()
	records := sampleRecords()

	summaries := Summarize(engine.ScoreAll(records, defs), defs)
	require.Len(t, summaries, len(defs))

	ranks := make(map[int]bool)
	for i, s := range summaries {
		assert.Equal(t, defs[i].Name, s.ScenarioName)
		assert.Equal(t, defs[i].TemperaturePathway, s.TemperaturePathway)
		assert.InDelta(t, 3_500_000, s.TotalExposure, 1e-9)
		assert.InDelta(t, s.ValueAtRisk/s.TotalExposure, s.VaRRatio, 1e-12)
		ranks[s.Rank] = true
	}
	assert.Len(t, ranks, len(defs))

	// Delayed Transition carries the highest carbon price and twice the
	// physical multiplier of Net Zero, so it must rank above it.
	assert.Less(t, summaries[1].Rank, summaries[0].Rank)
}

func TestSummarizeTotalsMatchResults(t *testing.T) {
	engine := NewEngine(nil)
	def := mustScenario(t, "Net Zero 2050")
	results := engine.ScoreAll(sampleRecords(), []scenarios.Definition{def})

	summary := Summarize(results, []scenarios.Definition{def})[0]

	var transition, physical, valueAtRisk float64
	for _, r := range results {
		transition += r.TransitionRisk
		physical += r.PhysicalRisk
		valueAtRisk += r.ValueAtRisk
	}
	assert.InDelta(t, transition, summary.TransitionRisk, 1e-6)
	assert.InDelta(t, physical, summary.PhysicalRisk, 1e-6)
	assert.InDelta(t, valueAtRisk, summary.ValueAtRisk, 1e-6)
	assert.Equal(t, 1, summary.Rank)
}

func TestSummarizeTiesKeepCatalogOrder(t *testing.T) {
	defs := scenarios.Default().List()
	summaries := Summarize(nil, defs)

	for i, s := range summaries {
		assert.Equal(t, i+1, s.Rank)
		assert.Equal(t, 0.0, s.VaRRatio)
	}
}
