package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/exposure"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/reports/charts"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/reports/export"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scenarios"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scoring"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/pkg/storage"
)

// ServiceConfig holds report branding applied to every export
type ServiceConfig struct {
	Title        string
	Organisation string
}

// Service runs uploads through the loader and the engine and renders reports
type Service struct {
	catalog     *scenarios.Catalog
	recommender *scenarios.Recommender
	loader      *exposure.Loader
	engine      *scoring.Engine
	store       *SessionStore
	archive     storage.ReportArchive
	config      ServiceConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new analysis service with the built-in catalog and tables
func NewService(store *SessionStore, archive storage.ReportArchive, config ServiceConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if archive == nil {
		archive = storage.NewNoopArchive()
	}
	return &Service{
		catalog:     scenarios.Default(),
		recommender: scenarios.DefaultRecommender(),
		loader:      exposure.NewLoader(logger.Named("loader")),
		engine:      scoring.NewEngine(logger.Named("engine")),
		store:       store,
		archive:     archive,
		config:      config,
		logger:      logger,
		now:         time.Now,
	}
}

// Scenarios lists the catalog
func (s *Service) Scenarios() []scenarios.Definition {
	return s.catalog.List()
}

// CatalogVersion returns the version of the scenario catalog in use
func (s *Service) CatalogVersion() string {
	return s.catalog.Version()
}

// Scenario looks up one catalog entry
func (s *Service) Scenario(name string) (scenarios.Definition, error) {
	return s.catalog.Get(name)
}

// Recommend returns the default scenarios for an industry
func (s *Service) Recommend(sector string) (*Recommendation, error) {
	primary, err := s.recommender.Suggest(sector)
	if err != nil {
		return nil, err
	}
	defaults, err := s.recommender.Defaults(sector)
	if err != nil {
		return nil, err
	}
	return &Recommendation{
		Sector:    strings.TrimSpace(sector),
		Primary:   primary,
		Scenarios: defaults,
		Version:   s.recommender.Version(),
	}, nil
}

// Run loads, scores and summarises an upload and stores the session
func (s *Service) Run(ctx context.Context, req Request) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defs, selection, err := s.selectScenarios(req.Industry, req.Scenarios)
	if err != nil {
		return nil, err
	}

	loaded, err := s.loader.Load(req.FileName, req.Data, req.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to load exposures: %w", err)
	}
	if len(loaded.Records) == 0 {
		return nil, fmt.Errorf("%w (%d row(s) rejected)", ErrNoValidRecords, len(loaded.Rejected))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := s.engine.ScoreAll(loaded.Records, defs)

	a := &Analysis{
		ID:                 uuid.New(),
		CreatedAt:          s.now().UTC(),
		FileName:           req.FileName,
		Industry:           strings.TrimSpace(req.Industry),
		Selection:          selection,
		CatalogVersion:     s.catalog.Version(),
		FormulaVersion:     scoring.FormulaVersion,
		VulnerabilityTable: s.engine.Vulnerabilities().Version(),
		Scenarios:          defs,
		Exposures:          loaded.Records,
		Rejected:           loaded.Rejected,
		Results:            results,
		Summaries:          scoring.Summarize(results, defs),
		TotalExposure:      loaded.TotalExposure(),
	}
	if selection == SelectionRecommended {
		a.RecommenderVersion = s.recommender.Version()
	}

	s.store.Put(a)

	s.logger.Info("Analysis completed",
		zap.String("analysis_id", a.ID.String()),
		zap.Int("exposures", len(a.Exposures)),
		zap.Int("rejected", len(a.Rejected)),
		zap.Strings("scenarios", a.ScenarioNames()),
		zap.String("selection", string(selection)))

	return a, nil
}

// selectScenarios picks explicit names first, then the industry defaults,
// then the whole catalog
func (s *Service) selectScenarios(industry string, names []string) ([]scenarios.Definition, Selection, error) {
	requested := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			requested = append(requested, n)
		}
	}
	if len(requested) > 0 {
		defs, err := s.catalog.Resolve(requested)
		if err != nil {
			return nil, "", err
		}
		return defs, SelectionExplicit, nil
	}

	if strings.TrimSpace(industry) != "" {
		defaults, err := s.recommender.Defaults(industry)
		switch {
		case err == nil:
			defs, err := s.catalog.Resolve(defaults)
			if err != nil {
				return nil, "", fmt.Errorf("recommended scenarios unavailable: %w", err)
			}
			return defs, SelectionRecommended, nil
		case !errors.Is(err, scenarios.ErrSectorNotMapped):
			return nil, "", err
		}
		s.logger.Debug("Industry has no recommended scenarios, using full catalog", zap.String("industry", industry))
	}

	return s.catalog.List(), SelectionCatalog, nil
}

// Get returns a stored analysis
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	a, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAnalysisNotFound, id)
	}
	return a, nil
}

// Delete discards a stored analysis before its TTL elapses
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if !s.store.Delete(id) {
		return fmt.Errorf("%w: %s", ErrAnalysisNotFound, id)
	}
	s.logger.Info("Analysis deleted", zap.String("analysis_id", id.String()))
	return nil
}

// Charts builds the chart series for a stored analysis
func (s *Service) Charts(ctx context.Context, id uuid.UUID) (charts.Set, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return charts.Set{}, err
	}
	return charts.Build(a.Scenarios, a.Summaries), nil
}

// Export renders a stored analysis and optionally archives the result
func (s *Service) Export(ctx context.Context, id uuid.UUID, format export.Format, archive bool) (*ExportResult, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if archive && !s.archive.Enabled() {
		return nil, storage.ErrArchiveDisabled
	}
	return s.Render(ctx, a, format, archive)
}

// Render renders an analysis that need not be stored
func (s *Service) Render(ctx context.Context, a *Analysis, format export.Format, archive bool) (*ExportResult, error) {
	renderer, err := export.NewRenderer(format)
	if err != nil {
		return nil, err
	}

	in := s.ReportInput(a)
	var buf bytes.Buffer
	if err := renderer.Render(&buf, in); err != nil {
		return nil, fmt.Errorf("failed to render %s report: %w", format, err)
	}

	result := &ExportResult{
		FileName:    export.FileName(renderer, in.GeneratedAt),
		ContentType: renderer.ContentType(),
		Format:      renderer.Format(),
		Data:        buf.Bytes(),
	}

	if archive {
		obj, err := s.archive.Archive(ctx, result.FileName, result.ContentType, bytes.NewReader(result.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to archive report: %w", err)
		}
		result.Archive = obj
	}

	s.logger.Info("Report exported",
		zap.String("analysis_id", a.ID.String()),
		zap.String("format", string(result.Format)),
		zap.Int("bytes", len(result.Data)),
		zap.Bool("archived", result.Archive != nil))

	return result, nil
}

// ReportInput assembles the renderer input for an analysis
func (s *Service) ReportInput(a *Analysis) *export.ReportInput {
	return &export.ReportInput{
		Title:        s.config.Title,
		Organisation: s.config.Organisation,
		Industry:     a.Industry,
		GeneratedAt:  s.now().UTC(),
		Methodology:  s.methodology(a),
		Scenarios:    a.Scenarios,
		Results:      a.Results,
		Summaries:    a.Summaries,
		Exposures:    a.Exposures,
		Rejected:     a.Rejected,
		Charts:       charts.Build(a.Scenarios, a.Summaries),
	}
}

func (s *Service) methodology(a *Analysis) []string {
	lines := []string{
		fmt.Sprintf("Scenario parameters are taken from catalog %s (NGFS-aligned, 2030 carbon prices in AUD per tonne CO2e).", a.CatalogVersion),
		fmt.Sprintf("Risk formulas version %s: transition risk = exposure x emissions intensity x carbon price x %g; "+
			"physical risk = exposure x physical risk multiplier x vulnerability; "+
			"value at risk = %g x transition risk + %g x physical risk.",
			a.FormulaVersion, scoring.TransitionSensitivity, scoring.TransitionWeight, scoring.PhysicalWeight),
	}

	switch a.Selection {
	case SelectionExplicit:
		lines = append(lines, "Scenarios were selected by the preparer.")
	case SelectionRecommended:
		lines = append(lines, fmt.Sprintf("Scenarios are the %s industry defaults from table %s.", a.Industry, a.RecommenderVersion))
	default:
		lines = append(lines, "All catalog scenarios were assessed.")
	}

	if n := a.SectorDefaultCount(); n > 0 {
		lines = append(lines, fmt.Sprintf(
			"Physical vulnerability was not supplied for %d result(s); sector defaults from table %s were applied (fallback %g).",
			n, a.VulnerabilityTable, s.engine.Vulnerabilities().Fallback()))
	}

	lines = append(lines, fmt.Sprintf("%d exposure row(s) with a total financial exposure of %s were assessed.",
		len(a.Exposures), export.FormatMoney(a.TotalExposure)))

	return lines
}
