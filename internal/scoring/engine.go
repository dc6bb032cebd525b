package scoring

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/exposure"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scenarios"
)

// FormulaVersion identifies the scoring formulas and constants below.
// Any change to a constant or to the order of operations requires a new version.
const FormulaVersion = "v1"

const (
	// TransitionSensitivity is the fraction of carbon cost that becomes a loss in exposure value
	TransitionSensitivity = 0.01

	// TransitionWeight and PhysicalWeight blend the two components into VaR
	TransitionWeight = 0.5
	PhysicalWeight   = 0.5
)

// VulnerabilitySource records where the physical vulnerability factor came from
type VulnerabilitySource string

const (
	VulnerabilitySupplied      VulnerabilitySource = "supplied"
	VulnerabilitySectorDefault VulnerabilitySource = "sector_default"
)

// RiskResult holds the scored metrics for one (exposure, scenario) pair
type RiskResult struct {
	ScenarioName          string              `json:"scenario_name"`
	Sector                string              `json:"sector"`
	FinancialExposure     float64             `json:"financial_exposure"`
	TransitionRisk        float64             `json:"transition_risk"`
	PhysicalRisk          float64             `json:"physical_risk"`
	ValueAtRisk           float64             `json:"value_at_risk"`
	PhysicalVulnerability float64             `json:"physical_vulnerability"`
	VulnerabilitySource   VulnerabilitySource `json:"vulnerability_source"`
	FormulaVersion        string              `json:"formula_version"`
}

// ContractViolation is the panic value raised when the engine receives a
// structurally invalid record or scenario. Such input should have been
// rejected by the loader or the catalog and is a programming error.
type ContractViolation struct {
	Subject string
	Reason  string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("scoring contract violation: %s: %s", e.Subject, e.Reason)
}

// Engine computes scenario risk metrics
type Engine struct {
	vulnerabilities *VulnerabilityTable
	logger          *zap.Logger
}

// NewEngine creates a new scoring engine using the built-in vulnerability defaults
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		vulnerabilities: DefaultVulnerabilities(),
		logger:          logger,
	}
}

// Vulnerabilities returns the sector default table used for missing values
func (e *Engine) Vulnerabilities() *VulnerabilityTable {
	return e.vulnerabilities
}

// Score computes transition risk, physical risk and VaR for one record
// under one scenario:
//
//	transition = exposure × intensity × carbon_price × TransitionSensitivity
//	physical   = exposure × multiplier × vulnerability
//	var        = TransitionWeight × transition + PhysicalWeight × physical
func (e *Engine) Score(rec exposure.Record, scenario scenarios.Definition) RiskResult {
	checkRecord(rec)
	checkScenario(scenario)

	vulnerability, source := e.resolveVulnerability(rec)

	transition := rec.FinancialExposure * rec.EmissionsIntensity * scenario.CarbonPrice * TransitionSensitivity
	physical := rec.FinancialExposure * scenario.PhysicalRiskMultiplier * vulnerability
	// explicit conversions keep the compiler from fusing into an FMA
	valueAtRisk := float64(TransitionWeight*transition) + float64(PhysicalWeight*physical)

	res := RiskResult{
		ScenarioName:          scenario.Name,
		Sector:                rec.Sector,
		FinancialExposure:     rec.FinancialExposure,
		TransitionRisk:        transition,
		PhysicalRisk:          physical,
		ValueAtRisk:           valueAtRisk,
		PhysicalVulnerability: vulnerability,
		VulnerabilitySource:   source,
		FormulaVersion:        FormulaVersion,
	}
	checkResult(res)
	return res
}

// ScoreAll scores every record under every scenario. Results are ordered
// scenario-major (in the given scenario order) and exposure-minor.
func (e *Engine) ScoreAll(records []exposure.Record, defs []scenarios.Definition) []RiskResult {
	results := make([]RiskResult, 0, len(records)*len(defs))
	for _, scenario := range defs {
		for _, rec := range records {
			results = append(results, e.Score(rec, scenario))
		}
	}
	return results
}

func (e *Engine) resolveVulnerability(rec exposure.Record) (float64, VulnerabilitySource) {
	if rec.PhysicalVulnerability != nil {
		return *rec.PhysicalVulnerability, VulnerabilitySupplied
	}

	v := e.vulnerabilities.Lookup(rec.Sector)
	e.logger.Debug("Substituted sector default physical vulnerability",
		zap.String("sector", rec.Sector),
		zap.Int("row", rec.Row),
		zap.Float64("vulnerability", v),
		zap.String("table_version", e.vulnerabilities.Version()))
	return v, VulnerabilitySectorDefault
}

func checkRecord(rec exposure.Record) {
	switch {
	case strings.TrimSpace(rec.Sector) == "":
		panic(&ContractViolation{Subject: "exposure record", Reason: "empty sector"})
	case !finiteNonNegative(rec.FinancialExposure):
		panic(&ContractViolation{Subject: rec.Sector, Reason: "financial_exposure must be finite and non-negative"})
	case !finiteNonNegative(rec.EmissionsIntensity):
		panic(&ContractViolation{Subject: rec.Sector, Reason: "emissions_intensity must be finite and non-negative"})
	case rec.PhysicalVulnerability != nil && !unitInterval(*rec.PhysicalVulnerability):
		panic(&ContractViolation{Subject: rec.Sector, Reason: "physical_vulnerability must be between 0 and 1"})
	}
}

func checkScenario(s scenarios.Definition) {
	switch {
	case s.Name == "":
		panic(&ContractViolation{Subject: "scenario", Reason: "empty name"})
	case !finiteNonNegative(s.CarbonPrice):
		panic(&ContractViolation{Subject: s.Name, Reason: "carbon_price must be finite and non-negative"})
	case !unitInterval(s.PhysicalRiskMultiplier):
		panic(&ContractViolation{Subject: s.Name, Reason: "physical_risk_multiplier must be between 0 and 1"})
	}
}

// checkResult catches overflow: inputs within range can still multiply out
// to +Inf, and +Inf × 0 under a zero carbon price gives NaN.
func checkResult(res RiskResult) {
	subject := res.Sector + " / " + res.ScenarioName
	switch {
	case !finiteNonNegative(res.TransitionRisk):
		panic(&ContractViolation{Subject: subject, Reason: "transition_risk is not finite and non-negative"})
	case !finiteNonNegative(res.PhysicalRisk):
		panic(&ContractViolation{Subject: subject, Reason: "physical_risk is not finite and non-negative"})
	case !finiteNonNegative(res.ValueAtRisk):
		panic(&ContractViolation{Subject: subject, Reason: "value_at_risk is not finite and non-negative"})
	}
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func unitInterval(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
