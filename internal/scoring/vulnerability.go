package scoring

import "strings"

// VulnerabilityTableVersion identifies the sector default table below
const VulnerabilityTableVersion = "sector-vuln-2025.1"

// FallbackVulnerability applies to sectors missing from the table
const FallbackVulnerability = 0.35

var builtinVulnerabilities = []SectorVulnerability{
	{Sector: "Agriculture", Vulnerability: 0.8},
	{Sector: "Real Estate", Vulnerability: 0.6},
	{Sector: "Energy", Vulnerability: 0.5},
	{Sector: "Mining", Vulnerability: 0.5},
	{Sector: "Utilities", Vulnerability: 0.5},
	{Sector: "Manufacturing", Vulnerability: 0.4},
	{Sector: "Transport", Vulnerability: 0.4},
	{Sector: "Retail", Vulnerability: 0.3},
	{Sector: "Financial Services", Vulnerability: 0.2},
	{Sector: "Technology", Vulnerability: 0.15},
}

// SectorVulnerability is a default physical vulnerability for one sector
type SectorVulnerability struct {
	Sector        string  `json:"sector"`
	Vulnerability float64 `json:"vulnerability"`
}

// VulnerabilityTable is an immutable sector → default vulnerability mapping
type VulnerabilityTable struct {
	version  string
	entries  []SectorVulnerability
	bySector map[string]float64
	fallback float64
}

var defaultVulnerabilities = newVulnerabilityTable(VulnerabilityTableVersion, builtinVulnerabilities, FallbackVulnerability)

// DefaultVulnerabilities returns the built-in table
func DefaultVulnerabilities() *VulnerabilityTable {
	return defaultVulnerabilities
}

func newVulnerabilityTable(version string, entries []SectorVulnerability, fallback float64) *VulnerabilityTable {
	t := &VulnerabilityTable{
		version:  version,
		entries:  append([]SectorVulnerability(nil), entries...),
		bySector: make(map[string]float64, len(entries)),
		fallback: fallback,
	}
	for _, e := range entries {
		t.bySector[normalizeSector(e.Sector)] = e.Vulnerability
	}
	return t
}

// Lookup returns the default vulnerability for a sector label
func (t *VulnerabilityTable) Lookup(sector string) float64 {
	if v, ok := t.bySector[normalizeSector(sector)]; ok {
		return v
	}
	return t.fallback
}

// Entries returns the table rows in declaration order
func (t *VulnerabilityTable) Entries() []SectorVulnerability {
	return append([]SectorVulnerability(nil), t.entries...)
}

// Fallback returns the value used for unmapped sectors
func (t *VulnerabilityTable) Fallback() float64 {
	return t.fallback
}

// Version returns the table version
func (t *VulnerabilityTable) Version() string {
	return t.version
}

func normalizeSector(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
