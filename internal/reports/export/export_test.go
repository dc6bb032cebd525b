package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/exposure"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/reports/charts"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scenarios"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scoring"
)

func sampleInput(t *testing.T) *ReportInput {
	t.Helper()
	vuln := 0.55
	records := []exposure.Record{
		{Row: 2, Sector: "Retail", FinancialExposure: 1_000_000, EmissionsIntensity: 0.5},
		{Row: 3, Sector: "Energy", FinancialExposure: 2_500_000, EmissionsIntensity: 1.2, PhysicalVulnerability: &vuln},
	}
	defs, err := scenarios.Default().Resolve([]string{"Net Zero 2050", "Hot House World"})
	require.NoError(t, err)

	results := scoring.NewEngine(nil).ScoreAll(records, defs)
	summaries := scoring.Summarize(results, defs)

	return &ReportInput{
		Title:        "Climate Scenario Analysis",
		Organisation: "Acme Holdings",
		Industry:     "Retail",
		GeneratedAt:  time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Methodology:  []string{"Formula version " + scoring.FormulaVersion},
		Scenarios:    defs,
		Results:      results,
		Summaries:    summaries,
		Exposures:    records,
		Rejected:     []*exposure.ValidationError{{Row: 4, Field: "sector", Message: "sector is required"}},
		Charts:       charts.Build(defs, summaries),
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":      FormatPDF,
		"PDF":   FormatPDF,
		"xlsx":  FormatExcel,
		"excel": FormatExcel,
		" csv ": FormatCSV,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("docx")
	assert.Error(t, err)
}

func TestNewRendererMetadata(t *testing.T) {
	for _, f := range []Format{FormatPDF, FormatExcel, FormatCSV} {
		r, err := NewRenderer(f)
		require.NoError(t, err)
		assert.Equal(t, f, r.Format())
		assert.NotEmpty(t, r.ContentType())
		assert.Equal(t, string(f), r.FileExtension())
	}

	_, err := NewRenderer(Format("docx"))
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "Climate_Scenario_Report_20260301T093000Z.csv", FileName(NewCSVRenderer(DefaultCSVOptions()), at))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "AUD $1,234,567.89", FormatMoney(1234567.891))
	assert.Equal(t, "AUD $0.00", FormatMoney(0))
	assert.Equal(t, "AUD $999.50", FormatMoney(999.5))
	assert.Equal(t, "AUD $-1,500.00", FormatMoney(-1500))
	assert.Equal(t, "355000.00", FormatAmount(355000))
	assert.Equal(t, "12.35%", formatPercent(0.12345))
}

func TestPDFRenderer(t *testing.T) {
	var buf bytes.Buffer
	err := NewPDFRenderer(DefaultPDFOptions()).Render(&buf, sampleInput(t))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestPDFRendererEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	err := NewPDFRenderer(DefaultPDFOptions()).Render(&buf, &ReportInput{GeneratedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestExcelRenderer(t *testing.T) {
	in := sampleInput(t)
	var buf bytes.Buffer
	require.NoError(t, NewExcelRenderer(DefaultExcelOptions()).Render(&buf, in))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetResults, SheetScenarios, SheetExposures}, f.GetSheetList())

	results, err := f.GetRows(SheetResults)
	require.NoError(t, err)
	require.Len(t, results, len(in.Results)+1)
	assert.Equal(t, resultColumns, results[0])
	assert.Equal(t, "Net Zero 2050", results[1][0])
	assert.Equal(t, "Retail", results[1][1])

	raw, err := f.GetCellValue(SheetResults, "F2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "355000", raw)

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, "1", summary[1][0])

	exposures, err := f.GetRows(SheetExposures)
	require.NoError(t, err)
	require.Len(t, exposures, 3)
	assert.Equal(t, "Energy", exposures[2][1])
}

func TestCSVRenderer(t *testing.T) {
	in := sampleInput(t)
	var buf bytes.Buffer
	require.NoError(t, NewCSVRenderer(DefaultCSVOptions()).Render(&buf, in))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(in.Results)+1)
	assert.Equal(t, csvColumns, rows[0])

	first := rows[1]
	assert.Equal(t, "Net Zero 2050", first[0])
	assert.Equal(t, "1.5°C", first[1])
	assert.Equal(t, "130", first[2])
	assert.Equal(t, "Retail", first[3])
	assert.Equal(t, "650000", first[5])
	assert.Equal(t, "355000", first[7])
	assert.Equal(t, string(scoring.VulnerabilitySectorDefault), first[9])
	assert.Equal(t, scoring.FormulaVersion, first[10])
}

func TestCSVRendererOptions(t *testing.T) {
	in := sampleInput(t)
	var buf bytes.Buffer
	opts := CSVOptions{Delimiter: ';', NumberFormat: "%.2f"}
	require.NoError(t, NewCSVRenderer(opts).Render(&buf, in))

	reader := csv.NewReader(&buf)
	reader.Comma = ';'
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(in.Results))
	assert.Equal(t, "355000.00", rows[0][7])
}
