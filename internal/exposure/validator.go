package exposure

import (
	"math"
	"strconv"
	"strings"
)

// MaxAmount bounds financial_exposure and emissions_intensity so that
// exposure × intensity × carbon price stays finite for any real carbon price.
const MaxAmount = 1e15

// Validator checks individual exposure rows
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ParseRow converts a raw row into a Record, or reports why it cannot
func (v *Validator) ParseRow(rowNum int, row []string, columns map[string]int) (*Record, *ValidationError) {
	cell := func(col string) (string, bool) {
		i, ok := columns[col]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	sector, _ := cell(colSector)
	if sector == "" {
		return nil, &ValidationError{Row: rowNum, Field: colSector, Message: "sector is required"}
	}

	exposure, verr := v.parseAmount(rowNum, colExposure, cell)
	if verr != nil {
		return nil, verr
	}

	intensity, verr := v.parseAmount(rowNum, colIntensity, cell)
	if verr != nil {
		return nil, verr
	}

	rec := &Record{
		Row:                rowNum,
		Sector:             sector,
		FinancialExposure:  exposure,
		EmissionsIntensity: intensity,
	}

	if raw, ok := cell(colVulnerability); ok && raw != "" {
		vuln, err := parseNumber(raw)
		if err != nil {
			return nil, &ValidationError{Row: rowNum, Field: colVulnerability, Message: "must be a number"}
		}
		rec.PhysicalVulnerability = &vuln
	}

	if verr := v.ValidateRecord(*rec); verr != nil {
		return nil, verr
	}
	return rec, nil
}

// ValidateRecord applies the range rules to a parsed record
func (v *Validator) ValidateRecord(rec Record) *ValidationError {
	if strings.TrimSpace(rec.Sector) == "" {
		return &ValidationError{Row: rec.Row, Field: colSector, Message: "sector is required"}
	}
	if verr := checkAmount(rec.Row, colExposure, rec.FinancialExposure); verr != nil {
		return verr
	}
	if verr := checkAmount(rec.Row, colIntensity, rec.EmissionsIntensity); verr != nil {
		return verr
	}
	if p := rec.PhysicalVulnerability; p != nil && (math.IsNaN(*p) || *p < 0 || *p > 1) {
		return &ValidationError{Row: rec.Row, Field: colVulnerability, Message: "must be between 0 and 1"}
	}
	return nil
}

func (v *Validator) parseAmount(rowNum int, col string, cell func(string) (string, bool)) (float64, *ValidationError) {
	raw, _ := cell(col)
	if raw == "" {
		return 0, &ValidationError{Row: rowNum, Field: col, Message: "value is required"}
	}
	val, err := parseNumber(raw)
	if err != nil {
		return 0, &ValidationError{Row: rowNum, Field: col, Message: "must be a number"}
	}
	return val, nil
}

func checkAmount(rowNum int, col string, val float64) *ValidationError {
	if !isNonNegative(val) {
		return &ValidationError{Row: rowNum, Field: col, Message: "must be a non-negative number"}
	}
	if val > MaxAmount {
		return &ValidationError{Row: rowNum, Field: col, Message: "exceeds the maximum supported value of 1e15"}
	}
	return nil
}

// parseNumber accepts plain numbers with optional thousands separators
func parseNumber(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "_", "")
	return strconv.ParseFloat(cleaned, 64)
}

func isNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
