package exposure

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	colSector        = "sector"
	colExposure      = "financial_exposure"
	colIntensity     = "emissions_intensity"
	colVulnerability = "physical_vulnerability"
)

// headerAliases maps normalized header labels onto canonical column names
var headerAliases = map[string]string{
	"sector":                 colSector,
	"financial_exposure":     colExposure,
	"exposure":               colExposure,
	"exposure_m_aud":         colExposure,
	"emissions_intensity":    colIntensity,
	"intensity":              colIntensity,
	"physical_vulnerability": colVulnerability,
	"vulnerability":          colVulnerability,
}

var requiredColumns = []string{colSector, colExposure, colIntensity}

// Loader parses and validates uploaded exposure tables
type Loader struct {
	validator *Validator
	logger    *zap.Logger
}

// NewLoader creates a new exposure loader
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		validator: NewValidator(),
		logger:    logger,
	}
}

// LoadCSV reads a CSV upload
func (l *Loader) LoadCSV(r io.Reader, policy Policy) (*LoadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("malformed CSV: %v", err)}
	}
	return l.load(rows, policy)
}

// LoadXLSX reads the first worksheet of an Excel upload
func (l *Loader) LoadXLSX(r io.Reader, policy Policy) (*LoadResult, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("malformed workbook: %v", err)}
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ValidationError{Message: "workbook has no sheets"}
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("failed to read sheet %q: %v", sheets[0], err)}
	}
	return l.load(rows, policy)
}

// Load dispatches on the uploaded file name extension
func (l *Loader) Load(filename string, r io.Reader, policy Policy) (*LoadResult, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		return l.LoadXLSX(r, policy)
	case strings.HasSuffix(lower, ".csv"), !strings.Contains(lower, "."):
		return l.LoadCSV(r, policy)
	default:
		return nil, &ValidationError{Message: fmt.Sprintf("unsupported file type %q (expected .csv or .xlsx)", filename)}
	}
}

func (l *Loader) load(rows [][]string, policy Policy) (*LoadResult, error) {
	if policy == "" {
		policy = RejectRow
	}

	header, start := firstNonEmptyRow(rows)
	if header == nil {
		return nil, &ValidationError{Message: "file is empty"}
	}

	columns, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{Records: []Record{}}
	for i := start + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}

		rowNum := i + 1
		rec, verr := l.validator.ParseRow(rowNum, row, columns)
		if verr != nil {
			if policy == RejectUpload {
				return nil, verr
			}
			l.logger.Warn("Rejected exposure row",
				zap.Int("row", verr.Row),
				zap.String("field", verr.Field),
				zap.String("reason", verr.Message))
			result.Rejected = append(result.Rejected, verr)
			continue
		}
		result.Records = append(result.Records, *rec)
	}

	if len(result.Records) == 0 && len(result.Rejected) == 0 {
		return nil, &ValidationError{Message: "file has a header but no data rows"}
	}

	l.logger.Info("Exposure upload loaded",
		zap.Int("accepted", len(result.Records)),
		zap.Int("rejected", len(result.Rejected)),
		zap.String("policy", string(policy)))

	return result, nil
}

func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, label := range header {
		canonical, ok := headerAliases[normalizeHeader(label)]
		if !ok {
			continue
		}
		if _, dup := columns[canonical]; dup {
			return nil, &ValidationError{Field: canonical, Message: "column appears more than once"}
		}
		columns[canonical] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Message: "missing required columns: " + strings.Join(missing, ", ")}
	}
	return columns, nil
}

func normalizeHeader(label string) string {
	label = strings.TrimPrefix(label, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(label), "_"))
}

func firstNonEmptyRow(rows [][]string) ([]string, int) {
	for i, row := range rows {
		if !isBlank(row) {
			return row, i
		}
	}
	return nil, -1
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// AsValidationError unwraps a loader error
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
