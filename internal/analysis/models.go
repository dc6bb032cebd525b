package analysis

import (
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/exposure"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/reports/export"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scenarios"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scoring"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/pkg/storage"
)

var (
	// ErrAnalysisNotFound is returned for unknown or expired session ids
	ErrAnalysisNotFound = errors.New("analysis not found")
	// ErrNoValidRecords is returned when every uploaded row was rejected
	ErrNoValidRecords = errors.New("upload contains no valid exposure rows")
)

// Selection records how the scenarios of an analysis were chosen
type Selection string

const (
	SelectionExplicit    Selection = "explicit"
	SelectionRecommended Selection = "recommended"
	SelectionCatalog     Selection = "catalog"
)

// Request is one upload to score
type Request struct {
	FileName  string
	Data      io.Reader
	Industry  string
	Scenarios []string
	Policy    exposure.Policy
}

// Analysis is a scored upload held in the session store
type Analysis struct {
	ID                 uuid.UUID                   `json:"id"`
	CreatedAt          time.Time                   `json:"created_at"`
	ExpiresAt          time.Time                   `json:"expires_at"`
	FileName           string                      `json:"file_name,omitempty"`
	Industry           string                      `json:"industry,omitempty"`
	Selection          Selection                   `json:"scenario_selection"`
	CatalogVersion     string                      `json:"catalog_version"`
	FormulaVersion     string                      `json:"formula_version"`
	VulnerabilityTable string                      `json:"vulnerability_table_version"`
	RecommenderVersion string                      `json:"recommender_version,omitempty"`
	Scenarios          []scenarios.Definition      `json:"scenarios"`
	Exposures          []exposure.Record           `json:"exposures"`
	Rejected           []*exposure.ValidationError `json:"rejected,omitempty"`
	Results            []scoring.RiskResult        `json:"results"`
	Summaries          []scoring.ScenarioSummary   `json:"summaries"`
	TotalExposure      float64                     `json:"total_exposure"`
}

// ScenarioNames lists the analysed scenarios in catalog order
func (a *Analysis) ScenarioNames() []string {
	names := make([]string, len(a.Scenarios))
	for i, s := range a.Scenarios {
		names[i] = s.Name
	}
	return names
}

// SectorDefaultCount counts results that used a sector default vulnerability
func (a *Analysis) SectorDefaultCount() int {
	n := 0
	for _, r := range a.Results {
		if r.VulnerabilitySource == scoring.VulnerabilitySectorDefault {
			n++
		}
	}
	return n
}

// Recommendation is the scenario suggestion for an industry
type Recommendation struct {
	Sector    string   `json:"sector"`
	Primary   string   `json:"primary"`
	Scenarios []string `json:"scenarios"`
	Version   string   `json:"version"`
}

// ExportResult is a rendered report
type ExportResult struct {
	FileName    string                  `json:"file_name"`
	ContentType string                  `json:"content_type"`
	Format      export.Format           `json:"format"`
	Data        []byte                  `json:"-"`
	Archive     *storage.ArchivedObject `json:"archive,omitempty"`
}
