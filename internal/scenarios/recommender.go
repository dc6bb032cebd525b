package scenarios

import (
	"fmt"
	"strings"
)

// RecommenderVersion identifies the built-in industry defaults table
const RecommenderVersion = "industry-defaults-2025.1"

// ErrSectorNotMapped is returned when no default scenario exists for a sector
var ErrSectorNotMapped = fmt.Errorf("sector %w", ErrNotFound)

var builtinIndustryDefaults = []industryDefault{
	{Sector: "Financial Services", Scenarios: []string{"Net Zero 2050", "Delayed Transition"}},
	{Sector: "Real Estate", Scenarios: []string{"Net Zero 2050", "Hot House World"}},
	{Sector: "Agriculture", Scenarios: []string{"Delayed Transition", "Hot House World"}},
	{Sector: "Energy", Scenarios: []string{"Immediate Disorderly Transition (2025 release)", "Net Zero 2050"}},
	{Sector: "Manufacturing", Scenarios: []string{"Current Policies Extension (2025 release)", "Delayed Transition"}},
}

type industryDefault struct {
	Sector    string
	Scenarios []string
}

// Recommender maps industry sectors to suggested default scenarios
type Recommender struct {
	version string
	sectors []string
	table   map[string][]string
}

var defaultRecommender = mustNewRecommender(RecommenderVersion, builtinIndustryDefaults, defaultCatalog)

// DefaultRecommender returns the process-wide built-in recommender
func DefaultRecommender() *Recommender {
	return defaultRecommender
}

func newRecommender(version string, defaults []industryDefault, catalog *Catalog) (*Recommender, error) {
	r := &Recommender{
		version: version,
		table:   make(map[string][]string, len(defaults)),
	}

	for _, d := range defaults {
		key := sectorKey(d.Sector)
		if key == "" {
			return nil, fmt.Errorf("empty sector label in recommender table")
		}
		if _, dup := r.table[key]; dup {
			return nil, fmt.Errorf("duplicate sector %q in recommender table", d.Sector)
		}
		if len(d.Scenarios) == 0 {
			return nil, fmt.Errorf("sector %q has no default scenarios", d.Sector)
		}
		for _, name := range d.Scenarios {
			if _, err := catalog.Get(name); err != nil {
				return nil, fmt.Errorf("sector %q: %w", d.Sector, err)
			}
		}
		r.table[key] = append([]string(nil), d.Scenarios...)
		r.sectors = append(r.sectors, d.Sector)
	}

	return r, nil
}

func mustNewRecommender(version string, defaults []industryDefault, catalog *Catalog) *Recommender {
	r, err := newRecommender(version, defaults, catalog)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in recommender table: %v", err))
	}
	return r
}

// Version returns the recommender table version
func (r *Recommender) Version() string {
	return r.version
}

// Sectors returns mapped sector labels in table order
func (r *Recommender) Sectors() []string {
	return append([]string(nil), r.sectors...)
}

// Suggest returns the primary default scenario name for a sector
func (r *Recommender) Suggest(sector string) (string, error) {
	defaults, err := r.Defaults(sector)
	if err != nil {
		return "", err
	}
	return defaults[0], nil
}

// Defaults returns the ordered default scenario names for a sector
func (r *Recommender) Defaults(sector string) ([]string, error) {
	names, ok := r.table[sectorKey(sector)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSectorNotMapped, sector)
	}
	return append([]string(nil), names...), nil
}

func sectorKey(sector string) string {
	return strings.ToLower(strings.Join(strings.Fields(sector), " "))
}
