package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/exposure"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/reports/charts"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scenarios"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scoring"
)

// Format is a report output format
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatExcel Format = "xlsx"
	FormatCSV   Format = "csv"
)

// ASRS disclosure section labels used by the renderers
const (
	SectionStrategy       = "Strategy: Climate Scenario Analysis (S2-6)"
	SectionRiskManagement = "Risk Management: Transition and Physical Risk (R2-1, R2-2)"
	SectionMetrics        = "Metrics and Targets: Value at Risk by Sector (M2-1, M2-2)"
	SectionMethodology    = "Basis of Preparation"
	SectionExposureData   = "Appendix: Uploaded Exposure Data"
)

// ReportInput is everything a renderer needs; it is assembled by the caller
// from an analysis and carries no engine state.
type ReportInput struct {
	Title        string
	Organisation string
	Industry     string
	GeneratedAt  time.Time
	Methodology  []string
	Scenarios    []scenarios.Definition
	Results      []scoring.RiskResult
	Summaries    []scoring.ScenarioSummary
	Exposures    []exposure.Record
	Rejected     []*exposure.ValidationError
	Charts       charts.Set
}

// Renderer writes a report in one format
type Renderer interface {
	Format() Format
	ContentType() string
	FileExtension() string
	Render(w io.Writer, in *ReportInput) error
}

// ParseFormat maps a user supplied format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatExcel, "excel":
		return FormatExcel, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// NewRenderer returns the renderer for a format with default options
func NewRenderer(format Format) (Renderer, error) {
	switch format {
	case FormatPDF:
		return NewPDFRenderer(DefaultPDFOptions()), nil
	case FormatExcel:
		return NewExcelRenderer(DefaultExcelOptions()), nil
	case FormatCSV:
		return NewCSVRenderer(DefaultCSVOptions()), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// FileName builds a download name for a rendered report
func FileName(r Renderer, generatedAt time.Time) string {
	return fmt.Sprintf("Climate_Scenario_Report_%s.%s", generatedAt.UTC().Format("20060102T150405Z"), r.FileExtension())
}

// FormatMoney renders an AUD amount with two decimals and thousands separators
func FormatMoney(v float64) string {
	return "AUD $" + groupThousands(decimal.NewFromFloat(v).StringFixed(2))
}

// FormatAmount renders a number with two decimals and no grouping
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}

func formatPercent(ratio float64) string {
	return decimal.NewFromFloat(ratio*100).StringFixed(2) + "%"
}
