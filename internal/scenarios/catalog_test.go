package scenarios

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogOrder(t *testing.T) {
	names := Default().Names()

	assert.Equal(t, []string{
		"Net Zero 2050",
		"Delayed Transition",
		"Hot House World",
		"Immediate Disorderly Transition (2025 release)",
		"Current Policies Extension (2025 release)",
	}, names)
	assert.Equal(t, CatalogVersion, Default().Version())
}

func TestCatalogGet(t *testing.T) {
	hot, err := Default().Get("Hot House World")
	require.NoError(t, err)
	assert.Equal(t, 0.0, hot.CarbonPrice)
	assert.Equal(t, 0.7, hot.PhysicalRiskMultiplier)
	assert.Equal(t, ">3°C", hot.TemperaturePathway)

	_, err = Default().Get("Sunny Uplands")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrScenarioNotFound)
}

func TestCatalogListIsACopy(t *testing.T) {
	list := Default().List()
	list[0].CarbonPrice = 9999
	list[0].RiskProfile[0] = 0

	again, err := Default().Get(list[0].Name)
	require.NoError(t, err)
	assert.Equal(t, 130.0, again.CarbonPrice)
	assert.Equal(t, 8, again.RiskProfile[0])
}

func TestCatalogResolve(t *testing.T) {
	defs, err := Default().Resolve([]string{"Hot House World", "Net Zero 2050", "Hot House World"})
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "Net Zero 2050", defs[0].Name)
	assert.Equal(t, "Hot House World", defs[1].Name)

	_, err = Default().Resolve([]string{"Net Zero 2050", "Unknown"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewCatalogValidation(t *testing.T) {
	tests := []struct {
		name string
		defs []Definition
	}{
		{name: "empty", defs: nil},
		{name: "missing name", defs: []Definition{{CarbonPrice: 10}}},
		{name: "negative price", defs: []Definition{{Name: "a", CarbonPrice: -1}}},
		{name: "multiplier above one", defs: []Definition{{Name: "a", PhysicalRiskMultiplier: 1.2}}},
		{name: "duplicate", defs: []Definition{{Name: "a"}, {Name: "a"}}},
		{name: "profile out of range", defs: []Definition{{Name: "a", RiskProfile: [5]int{11}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog("test", tt.defs)
			assert.Error(t, err)
		})
	}
}
