package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVRenderer writes the scenario × sector results as a flat CSV table
type CSVRenderer struct {
	options CSVOptions
}

// CSVOptions configures CSV export behavior
type CSVOptions struct {
	Delimiter     rune   `json:"delimiter"`      // Field delimiter (default: comma)
	UseCRLF       bool   `json:"use_crlf"`       // Use \r\n for line terminator
	IncludeHeader bool   `json:"include_header"` // Include column headers
	NumberFormat  string `json:"number_format"`  // Format for numbers (e.g., "%.2f")
}

// DefaultCSVOptions returns default CSV export options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:     ',',
		IncludeHeader: true,
	}
}

// NewCSVRenderer creates a new CSV renderer
func NewCSVRenderer(options CSVOptions) *CSVRenderer {
	return &CSVRenderer{options: options}
}

func (r *CSVRenderer) Format() Format        { return FormatCSV }
func (r *CSVRenderer) ContentType() string   { return "text/csv" }
func (r *CSVRenderer) FileExtension() string { return "csv" }

var csvColumns = []string{
	"scenario_name", "temperature_pathway", "carbon_price", "sector", "financial_exposure",
	"transition_risk", "physical_risk", "value_at_risk",
	"physical_vulnerability", "vulnerability_source", "formula_version",
}

// Render writes one row per result, in result order
func (r *CSVRenderer) Render(w io.Writer, in *ReportInput) error {
	writer := csv.NewWriter(w)
	if r.options.Delimiter != 0 {
		writer.Comma = r.options.Delimiter
	}
	writer.UseCRLF = r.options.UseCRLF

	if r.options.IncludeHeader {
		if err := writer.Write(csvColumns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	pathways := make(map[string]string, len(in.Scenarios))
	prices := make(map[string]float64, len(in.Scenarios))
	for _, s := range in.Scenarios {
		pathways[s.Name] = s.TemperaturePathway
		prices[s.Name] = s.CarbonPrice
	}

	for _, res := range in.Results {
		record := []string{
			res.ScenarioName,
			pathways[res.ScenarioName],
			r.formatFloat(prices[res.ScenarioName]),
			res.Sector,
			r.formatFloat(res.FinancialExposure),
			r.formatFloat(res.TransitionRisk),
			r.formatFloat(res.PhysicalRisk),
			r.formatFloat(res.ValueAtRisk),
			r.formatFloat(res.PhysicalVulnerability),
			string(res.VulnerabilitySource),
			res.FormulaVersion,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func (r *CSVRenderer) formatFloat(v float64) string {
	if r.options.NumberFormat != "" {
		return fmt.Sprintf(r.options.NumberFormat, v)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
