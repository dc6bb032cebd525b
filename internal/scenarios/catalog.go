package scenarios

import (
	"errors"
	"fmt"
	"math"
)

// CatalogVersion identifies the built-in scenario table. It is reported with
// every analysis so figures can be reproduced against the same parameters.
const CatalogVersion = "ngfs-2025.1"

// RiskProfileLabels names the axes of Definition.RiskProfile, in order.
var RiskProfileLabels = [5]string{
	"Transition Risk",
	"Physical Risk",
	"Carbon Exposure",
	"Scenario Coverage",
	"Mitigation Maturity",
}

var (
	// ErrNotFound is returned for lookups of unknown scenarios or unmapped sectors
	ErrNotFound = errors.New("not found")

	// ErrScenarioNotFound is returned when a scenario name is not in the catalog
	ErrScenarioNotFound = fmt.Errorf("scenario %w", ErrNotFound)
)

// Definition describes a single named climate scenario
type Definition struct {
	Name                   string  `json:"name"`
	CarbonPrice            float64 `json:"carbon_price"`             // AUD per tCO2e
	PhysicalRiskMultiplier float64 `json:"physical_risk_multiplier"` // 0..1
	TemperaturePathway     string  `json:"temperature_pathway"`
	Description            string  `json:"description"`
	ASRSReference          string  `json:"asrs_reference"`
	RiskProfile            [5]int  `json:"risk_profile"` // 0..10 per RiskProfileLabels
}

// Catalog is an immutable, ordered set of scenario definitions
type Catalog struct {
	version string
	entries []Definition
	index   map[string]int
}

var builtinScenarios = []Definition{
	{
		Name:                   "Net Zero 2050",
		CarbonPrice:            130,
		PhysicalRiskMultiplier: 0.2,
		TemperaturePathway:     "1.5°C",
		Description:            "Immediate and ambitious mitigation aligned with 1.5°C.",
		ASRSReference:          "Strategy S2-6, Metrics M2-1",
		RiskProfile:            [5]int{8, 3, 9, 7, 6},
	},
	{
		Name:                   "Delayed Transition",
		CarbonPrice:            180,
		PhysicalRiskMultiplier: 0.4,
		TemperaturePathway:     "2.4°C",
		Description:            "Postponed mitigation leading to a sharper adjustment later.",
		ASRSReference:          "Strategy S2-6, Risk R2-2",
		RiskProfile:            [5]int{7, 5, 8, 6, 4},
	},
	{
		Name:                   "Hot House World",
		CarbonPrice:            0,
		PhysicalRiskMultiplier: 0.7,
		TemperaturePathway:     ">3°C",
		Description:            "No meaningful transition, resulting in >3°C warming.",
		ASRSReference:          "Risk R2-1, Metrics M2-2",
		RiskProfile:            [5]int{4, 9, 2, 5, 3},
	},
	{
		Name:                   "Immediate Disorderly Transition (2025 release)",
		CarbonPrice:            160,
		PhysicalRiskMultiplier: 0.3,
		TemperaturePathway:     "<2°C",
		Description:            "Aggressive action taken suddenly, creating short-term volatility.",
		ASRSReference:          "Strategy S2-6, Governance G2-3",
		RiskProfile:            [5]int{9, 6, 8, 8, 5},
	},
	{
		Name:                   "Current Policies Extension (2025 release)",
		CarbonPrice:            20,
		PhysicalRiskMultiplier: 0.8,
		TemperaturePathway:     ">3.5°C",
		Description:            "Continuation of current insufficient policies, high physical risks.",
		ASRSReference:          "Risk R2-1, Strategy S2-6",
		RiskProfile:            [5]int{3, 10, 1, 4, 2},
	},
}

var defaultCatalog = mustNewCatalog(CatalogVersion, builtinScenarios)

// Default returns the process-wide built-in catalog
func Default() *Catalog {
	return defaultCatalog
}

// NewCatalog builds a catalog from the given definitions, keeping their order
func NewCatalog(version string, defs []Definition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("catalog %q has no scenarios", version)
	}

	c := &Catalog{
		version: version,
		entries: make([]Definition, 0, len(defs)),
		index:   make(map[string]int, len(defs)),
	}

	for i, def := range defs {
		if err := validateDefinition(def); err != nil {
			return nil, fmt.Errorf("scenario %d: %w", i, err)
		}
		if _, dup := c.index[def.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario name %q", def.Name)
		}
		c.index[def.Name] = len(c.entries)
		c.entries = append(c.entries, def)
	}

	return c, nil
}

func mustNewCatalog(version string, defs []Definition) *Catalog {
	c, err := NewCatalog(version, defs)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in scenario catalog: %v", err))
	}
	return c
}

func validateDefinition(def Definition) error {
	if def.Name == "" {
		return errors.New("name is required")
	}
	if math.IsNaN(def.CarbonPrice) || math.IsInf(def.CarbonPrice, 0) || def.CarbonPrice < 0 {
		return fmt.Errorf("%s: carbon_price must be a non-negative number", def.Name)
	}
	m := def.PhysicalRiskMultiplier
	if math.IsNaN(m) || m < 0 || m > 1 {
		return fmt.Errorf("%s: physical_risk_multiplier must be between 0 and 1", def.Name)
	}
	for i, score := range def.RiskProfile {
		if score < 0 || score > 10 {
			return fmt.Errorf("%s: risk_profile[%d] must be between 0 and 10", def.Name, i)
		}
	}
	return nil
}

// Version returns the catalog version label
func (c *Catalog) Version() string {
	return c.version
}

// Get returns the scenario with the given name
func (c *Catalog) Get(name string) (Definition, error) {
	i, ok := c.index[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrScenarioNotFound, name)
	}
	return c.entries[i], nil
}

// List returns all scenarios in declaration order
func (c *Catalog) List() []Definition {
	out := make([]Definition, len(c.entries))
	copy(out, c.entries)
	return out
}

// Names returns scenario names in declaration order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, def := range c.entries {
		names[i] = def.Name
	}
	return names
}

// Resolve looks up the named scenarios and returns them in catalog order.
// Duplicates are collapsed; the first unknown name fails the whole call.
func (c *Catalog) Resolve(names []string) ([]Definition, error) {
	selected := make([]bool, len(c.entries))
	for _, name := range names {
		i, ok := c.index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrScenarioNotFound, name)
		}
		selected[i] = true
	}

	out := make([]Definition, 0, len(names))
	for i, def := range c.entries {
		if selected[i] {
			out = append(out, def)
		}
	}
	return out, nil
}
