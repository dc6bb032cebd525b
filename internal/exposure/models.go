package exposure

import "fmt"

// Record is one normalized sector-level exposure row
type Record struct {
	Row                   int      `json:"row"`
	Sector                string   `json:"sector"`
	FinancialExposure     float64  `json:"financial_exposure"`
	EmissionsIntensity    float64  `json:"emissions_intensity"`
	PhysicalVulnerability *float64 `json:"physical_vulnerability,omitempty"`
}

// Policy controls how the loader reacts to invalid rows
type Policy string

const (
	// RejectRow drops invalid rows and reports them alongside the valid ones
	RejectRow Policy = "reject_row"
	// RejectUpload fails the whole upload on the first invalid row
	RejectUpload Policy = "reject_upload"
)

// ParsePolicy maps a user supplied policy name, defaulting to RejectRow
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", RejectRow:
		return RejectRow, nil
	case RejectUpload:
		return RejectUpload, nil
	default:
		return "", fmt.Errorf("unknown loader policy %q", s)
	}
}

// ValidationError describes a malformed or out-of-range input row.
// Row is 1-based and counts the header; Row 0 means the upload as a whole.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("invalid upload: %s", e.Message)
	}
	if e.Field == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
}

// LoadResult holds the accepted records and any rejected rows
type LoadResult struct {
	Records  []Record           `json:"records"`
	Rejected []*ValidationError `json:"rejected,omitempty"`
}

// TotalExposure sums the financial exposure of accepted records in input order
func (r *LoadResult) TotalExposure() float64 {
	total := 0.0
	for _, rec := range r.Records {
		total += rec.FinancialExposure
	}
	return total
}
