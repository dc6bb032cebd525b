package analysis

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/exposure"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/reports/export"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scenarios"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scoring"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/pkg/storage"
)

const holdingsCSV = `sector,financial_exposure,emissions_intensity,physical_vulnerability
Retail,1000000,0.5,
Energy,2500000,1.2,0.55
`

// MockArchive is a mock implementation of storage.ReportArchive
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockArchive) Archive(ctx context.Context, name, contentType string, body io.Reader) (*storage.ArchivedObject, error) {
	args := m.Called(ctx, name, contentType, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.ArchivedObject), args.Error(1)
}

func newTestService(archive storage.ReportArchive) *Service {
	svc := NewService(NewSessionStore(time.Hour, nil), archive, ServiceConfig{
		Title:        "Climate Scenario Analysis",
		Organisation: "Acme Holdings",
	}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	return svc
}

func runCSV(t *testing.T, svc *Service, req Request) *Analysis {
	t.Helper()
	if req.Data == nil {
		req.Data = strings.NewReader(holdingsCSV)
	}
	if req.FileName == "" {
		req.FileName = "holdings.csv"
	}
	a, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	return a
}

func TestRunExplicitScenarios(t *testing.T) {
	svc := newTestService(nil)
	a := runCSV(t, svc, Request{Scenarios: []string{"Hot House World", "Net Zero 2050", "Net Zero 2050"}})

	assert.Equal(t, SelectionExplicit, a.Selection)
	assert.Equal(t, []string{"Net Zero 2050", "Hot House World"}, a.ScenarioNames())
	assert.Len(t, a.Results, 4)
	assert.Len(t, a.Summaries, 2)
	assert.Equal(t, 3_500_000.0, a.TotalExposure)
	assert.Equal(t, scenarios.CatalogVersion, a.CatalogVersion)
	assert.Equal(t, scoring.FormulaVersion, a.FormulaVersion)
	assert.Empty(t, a.RecommenderVersion)
	assert.Equal(t, 2, a.SectorDefaultCount())

	retailNetZero := a.Results[0]
	assert.Equal(t, "Retail", retailNetZero.Sector)
	assert.InDelta(t, 355_000, retailNetZero.ValueAtRisk, 1e-6)

	stored, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Same(t, a, stored)
	assert.False(t, stored.ExpiresAt.IsZero())
}

func TestRunRecommendedScenarios(t *testing.T) {
	svc := newTestService(nil)
	a := runCSV(t, svc, Request{Industry: "energy"})

	assert.Equal(t, SelectionRecommended, a.Selection)
	assert.Equal(t, []string{"Net Zero 2050", "Immediate Disorderly Transition (2025 release)"}, a.ScenarioNames())
	assert.Equal(t, scenarios.RecommenderVersion, a.RecommenderVersion)
}

func TestRunUnmappedIndustryUsesCatalog(t *testing.T) {
	svc := newTestService(nil)
	a := runCSV(t, svc, Request{Industry: "Retail"})

	assert.Equal(t, SelectionCatalog, a.Selection)
	assert.Equal(t, scenarios.Default().Names(), a.ScenarioNames())
	assert.Len(t, a.Results, 10)
}

func TestRunUnknownScenario(t *testing.T) {
	svc := newTestService(nil)
	_, err := svc.Run(context.Background(), Request{
		FileName:  "holdings.csv",
		Data:      strings.NewReader(holdingsCSV),
		Scenarios: []string{"Paris Agreement"},
	})
	assert.ErrorIs(t, err, scenarios.ErrNotFound)
}

func TestRunRejectedRows(t *testing.T) {
	svc := newTestService(nil)
	body := holdingsCSV + "Mining,-5,1,\n"

	a := runCSV(t, svc, Request{Data: strings.NewReader(body)})
	require.Len(t, a.Rejected, 1)
	assert.Equal(t, 4, a.Rejected[0].Row)
	assert.Len(t, a.Exposures, 2)

	_, err := svc.Run(context.Background(), Request{
		FileName: "holdings.csv",
		Data:     strings.NewReader(body),
		Policy:   exposure.RejectUpload,
	})
	verr, ok := exposure.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, 4, verr.Row)
}

func TestRunNoValidRecords(t *testing.T) {
	svc := newTestService(nil)
	_, err := svc.Run(context.Background(), Request{
		FileName: "holdings.csv",
		Data:     strings.NewReader("sector,financial_exposure,emissions_intensity\n,100,1\n"),
	})
	assert.ErrorIs(t, err, ErrNoValidRecords)
}

func TestRunOverflowingRowNeverReachesReports(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.Run(context.Background(), Request{
		FileName: "holdings.csv",
		Data:     strings.NewReader("sector,financial_exposure,emissions_intensity\nRetail,1e200,1e200\n"),
	})
	assert.ErrorIs(t, err, ErrNoValidRecords)

	a := runCSV(t, svc, Request{
		Data:      strings.NewReader(holdingsCSV + "Retail,1e200,1e200,\n"),
		Scenarios: []string{"Net Zero 2050", "Hot House World"},
	})
	require.Len(t, a.Rejected, 1)
	assert.Equal(t, 4, a.Rejected[0].Row)
	for _, r := range a.Results {
		assert.False(t, math.IsInf(r.ValueAtRisk, 0) || math.IsNaN(r.ValueAtRisk), r.ScenarioName)
	}
	if hot := a.Results[len(a.Results)-1]; assert.Equal(t, "Hot House World", hot.ScenarioName) {
		assert.Equal(t, 0.0, hot.TransitionRisk)
	}

	for _, format := range []export.Format{export.FormatPDF, export.FormatExcel, export.FormatCSV} {
		_, err := svc.Render(context.Background(), a, format, false)
		assert.NoError(t, err, format)
	}
}

func TestRunCancelledContext(t *testing.T) {
	svc := newTestService(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx, Request{FileName: "holdings.csv", Data: strings.NewReader(holdingsCSV)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetUnknownAnalysis(t *testing.T) {
	svc := newTestService(nil)
	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAnalysisNotFound)

	_, err = svc.Charts(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAnalysisNotFound)
}

func TestDeleteAnalysis(t *testing.T) {
	svc := newTestService(nil)
	a := runCSV(t, svc, Request{})

	require.NoError(t, svc.Delete(context.Background(), a.ID))
	_, err := svc.Get(context.Background(), a.ID)
	assert.ErrorIs(t, err, ErrAnalysisNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), a.ID), ErrAnalysisNotFound)
}

func TestCharts(t *testing.T) {
	svc := newTestService(nil)
	a := runCSV(t, svc, Request{Industry: "Real Estate"})

	set, err := svc.Charts(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, set.Bar.Groups, 2)
	assert.Equal(t, "Net Zero 2050", set.Bar.Groups[0].Scenario)
	assert.Equal(t, a.Summaries[0].TransitionRisk, set.Bar.Groups[0].TransitionRisk)
	require.Len(t, set.Radar.Series, 2)
	assert.Equal(t, "Hot House World", set.Radar.Series[1].Scenario)
}

func TestExportFormats(t *testing.T) {
	svc := newTestService(nil)
	a := runCSV(t, svc, Request{Industry: "Energy"})

	pdf, err := svc.Export(context.Background(), a.ID, export.FormatPDF, false)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF")))
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.Equal(t, "Climate_Scenario_Report_20260301T093000Z.pdf", pdf.FileName)
	assert.Nil(t, pdf.Archive)

	csvOut, err := svc.Export(context.Background(), a.ID, export.FormatCSV, false)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvOut.Data)), "\n")
	assert.Len(t, lines, len(a.Results)+1)

	xlsx, err := svc.Export(context.Background(), a.ID, export.FormatExcel, false)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(xlsx.Data, []byte("PK")))
}

func TestExportArchiveDisabled(t *testing.T) {
	svc := newTestService(nil)
	a := runCSV(t, svc, Request{})

	_, err := svc.Export(context.Background(), a.ID, export.FormatCSV, true)
	assert.ErrorIs(t, err, storage.ErrArchiveDisabled)
}

func TestExportArchives(t *testing.T) {
	archive := &MockArchive{}
	archive.On("Enabled").Return(true)
	archive.On("Archive", mock.Anything, "Climate_Scenario_Report_20260301T093000Z.csv", "text/csv", mock.Anything).
		Return(&storage.ArchivedObject{Bucket: "reports", Key: "k", DownloadURL: "https://example.test/k"}, nil)

	svc := newTestService(archive)
	a := runCSV(t, svc, Request{})

	result, err := svc.Export(context.Background(), a.ID, export.FormatCSV, true)
	require.NoError(t, err)
	require.NotNil(t, result.Archive)
	assert.Equal(t, "https://example.test/k", result.Archive.DownloadURL)
	archive.AssertExpectations(t)
}

func TestExportArchiveFailure(t *testing.T) {
	archive := &MockArchive{}
	archive.On("Enabled").Return(true)
	archive.On("Archive", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("bucket missing"))

	svc := newTestService(archive)
	a := runCSV(t, svc, Request{})

	_, err := svc.Export(context.Background(), a.ID, export.FormatPDF, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket missing")
}

func TestRecommend(t *testing.T) {
	svc := newTestService(nil)
	rec, err := svc.Recommend("Financial Services")
	require.NoError(t, err)
	assert.Equal(t, "Net Zero 2050", rec.Primary)
	assert.Equal(t, []string{"Net Zero 2050", "Delayed Transition"}, rec.Scenarios)

	_, err = svc.Recommend("Retail")
	assert.ErrorIs(t, err, scenarios.ErrNotFound)
}

func TestMethodologyDisclosesVersions(t *testing.T) {
	svc := newTestService(nil)
	a := runCSV(t, svc, Request{Industry: "Energy"})

	joined := strings.Join(svc.ReportInput(a).Methodology, "\n")
	assert.Contains(t, joined, scenarios.CatalogVersion)
	assert.Contains(t, joined, "version "+scoring.FormulaVersion)
	assert.Contains(t, joined, scoring.VulnerabilityTableVersion)
	assert.Contains(t, joined, "fallback 0.35")
	assert.Contains(t, joined, scenarios.RecommenderVersion)
	assert.Contains(t, joined, "AUD $3,500,000.00")
}
