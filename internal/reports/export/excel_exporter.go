package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet names written by ExcelRenderer
const (
	SheetSummary   = "Summary"
	SheetResults   = "Results"
	SheetScenarios = "Scenarios"
	SheetExposures = "Exposures"
)

// ExcelRenderer renders the analysis as a multi-sheet workbook
type ExcelRenderer struct {
	options ExcelOptions
}

// ExcelOptions configures Excel export behavior
type ExcelOptions struct {
	FreezeHeader bool              `json:"freeze_header"`
	AutoFilter   bool              `json:"auto_filter"`
	NumberFormat string            `json:"number_format"`
	HeaderStyle  *ExcelStyleConfig `json:"header_style,omitempty"`
	DataStyle    *ExcelStyleConfig `json:"data_style,omitempty"`
	AutoWidth    bool              `json:"auto_width"`
}

// ExcelStyleConfig defines style for cells
type ExcelStyleConfig struct {
	FontBold  bool   `json:"font_bold"`
	FontSize  int    `json:"font_size"`
	FontColor string `json:"font_color"`
	FillColor string `json:"fill_color"`
	Alignment string `json:"alignment"` // left, center, right
	Border    bool   `json:"border"`
	WrapText  bool   `json:"wrap_text"`
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		FreezeHeader: true,
		AutoFilter:   true,
		NumberFormat: "#,##0.00",
		AutoWidth:    true,
		HeaderStyle: &ExcelStyleConfig{
			FontBold:  true,
			FontSize:  11,
			FillColor: "4472C4",
			FontColor: "FFFFFF",
			Alignment: "center",
			Border:    true,
		},
		DataStyle: &ExcelStyleConfig{
			FontSize: 11,
			Border:   true,
		},
	}
}

// NewExcelRenderer creates a new Excel renderer
func NewExcelRenderer(options ExcelOptions) *ExcelRenderer {
	return &ExcelRenderer{options: options}
}

func (r *ExcelRenderer) Format() Format      { return FormatExcel }
func (r *ExcelRenderer) ContentType() string { return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" }
func (r *ExcelRenderer) FileExtension() string {
	return "xlsx"
}

// Render writes the workbook
func (r *ExcelRenderer) Render(w io.Writer, in *ReportInput) error {
	file := excelize.NewFile()
	defer file.Close()

	sheets := []struct {
		name    string
		columns []string
		rows    [][]interface{}
	}{
		{SheetSummary, summaryColumns, summaryRows(in)},
		{SheetResults, resultColumns, resultRows(in)},
		{SheetScenarios, scenarioColumns, scenarioRows(in)},
		{SheetExposures, exposureColumns, exposureRows(in)},
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := file.SetSheetName("Sheet1", sheet.name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := file.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}

		writer := &sheetWriter{file: file, sheet: sheet.name, options: r.options}
		if err := writer.writeHeader(sheet.columns); err != nil {
			return err
		}
		if err := writer.writeRows(sheet.columns, sheet.rows); err != nil {
			return err
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// sheetWriter writes one styled table into a sheet
type sheetWriter struct {
	file    *excelize.File
	sheet   string
	options ExcelOptions
}

func (s *sheetWriter) writeHeader(columns []string) error {
	headerStyleID := 0
	if s.options.HeaderStyle != nil {
		style, err := s.createStyle(s.options.HeaderStyle, "")
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		headerStyleID = style
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := s.file.SetCellValue(s.sheet, cell, col); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		if headerStyleID > 0 {
			s.file.SetCellStyle(s.sheet, cell, cell, headerStyleID)
		}
	}

	if s.options.FreezeHeader {
		s.file.SetPanes(s.sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}
	return nil
}

func (s *sheetWriter) writeRows(columns []string, rows [][]interface{}) error {
	var textStyleID, numberStyleID int
	if s.options.DataStyle != nil {
		var err error
		if textStyleID, err = s.createStyle(s.options.DataStyle, ""); err != nil {
			return fmt.Errorf("failed to create data style: %w", err)
		}
		if numberStyleID, err = s.createStyle(s.options.DataStyle, s.options.NumberFormat); err != nil {
			return fmt.Errorf("failed to create number style: %w", err)
		}
	}

	widths := make([]float64, len(columns))
	for i, col := range columns {
		widths[i] = estimateCellWidth(col)
	}

	for rowIdx, row := range rows {
		for colIdx, val := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := s.file.SetCellValue(s.sheet, cell, val); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}

			styleID := textStyleID
			if _, isFloat := val.(float64); isFloat {
				styleID = numberStyleID
			}
			if styleID > 0 {
				s.file.SetCellStyle(s.sheet, cell, cell, styleID)
			}

			if w := estimateCellWidth(val); w > widths[colIdx] {
				widths[colIdx] = w
			}
		}
	}

	if s.options.AutoFilter && len(rows) > 0 {
		lastCol, _ := excelize.CoordinatesToCellName(len(columns), len(rows)+1)
		s.file.AutoFilter(s.sheet, "A1:"+lastCol, nil)
	}

	if s.options.AutoWidth {
		for colIdx, width := range widths {
			colName, _ := excelize.ColumnNumberToName(colIdx + 1)
			// Min width 10, max width 60
			if width < 10 {
				width = 10
			}
			if width > 60 {
				width = 60
			}
			s.file.SetColWidth(s.sheet, colName, colName, width)
		}
	}

	return nil
}

// createStyle creates an Excel style from config
func (s *sheetWriter) createStyle(config *ExcelStyleConfig, numFmt string) (int, error) {
	style := &excelize.Style{
		Font: &excelize.Font{
			Bold:  config.FontBold,
			Size:  float64(config.FontSize),
			Color: config.FontColor,
		},
	}

	if config.FillColor != "" {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{config.FillColor},
		}
	}

	if config.Alignment != "" || config.WrapText {
		style.Alignment = &excelize.Alignment{
			Horizontal: config.Alignment,
			WrapText:   config.WrapText,
		}
	}

	if config.Border {
		style.Border = []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		}
	}

	if numFmt != "" {
		style.CustomNumFmt = &numFmt
	}

	return s.file.NewStyle(style)
}

// estimateCellWidth estimates the display width of a cell value
func estimateCellWidth(val interface{}) float64 {
	if val == nil {
		return 0
	}
	if f, ok := val.(float64); ok {
		return float64(len(groupThousands(FormatAmount(f)))) * 1.2
	}
	return float64(len(fmt.Sprintf("%v", val))) * 1.2
}

var summaryColumns = []string{
	"Rank", "Scenario", "Temperature Pathway", "Carbon Price (AUD/tCO2e)",
	"Total Exposure", "Transition Risk", "Physical Risk", "Value at Risk", "VaR / Exposure",
}

func summaryRows(in *ReportInput) [][]interface{} {
	rows := make([][]interface{}, 0, len(in.Summaries))
	for _, s := range in.Summaries {
		rows = append(rows, []interface{}{
			s.Rank, s.ScenarioName, s.TemperaturePathway, s.CarbonPrice,
			s.TotalExposure, s.TransitionRisk, s.PhysicalRisk, s.ValueAtRisk, s.VaRRatio,
		})
	}
	return rows
}

var resultColumns = []string{
	"Scenario", "Sector", "Financial Exposure", "Transition Risk", "Physical Risk",
	"Value at Risk", "Physical Vulnerability", "Vulnerability Source", "Formula Version",
}

func resultRows(in *ReportInput) [][]interface{} {
	rows := make([][]interface{}, 0, len(in.Results))
	for _, r := range in.Results {
		rows = append(rows, []interface{}{
			r.ScenarioName, r.Sector, r.FinancialExposure, r.TransitionRisk, r.PhysicalRisk,
			r.ValueAtRisk, r.PhysicalVulnerability, string(r.VulnerabilitySource), r.FormulaVersion,
		})
	}
	return rows
}

var scenarioColumns = []string{
	"Scenario", "Temperature Pathway", "Carbon Price (AUD/tCO2e)", "Physical Risk Multiplier",
	"Description", "ASRS Reference",
}

func scenarioRows(in *ReportInput) [][]interface{} {
	rows := make([][]interface{}, 0, len(in.Scenarios))
	for _, s := range in.Scenarios {
		rows = append(rows, []interface{}{
			s.Name, s.TemperaturePathway, s.CarbonPrice, s.PhysicalRiskMultiplier, s.Description, s.ASRSReference,
		})
	}
	return rows
}

var exposureColumns = []string{
	"Row", "Sector", "Financial Exposure", "Emissions Intensity", "Physical Vulnerability",
}

func exposureRows(in *ReportInput) [][]interface{} {
	rows := make([][]interface{}, 0, len(in.Exposures))
	for _, rec := range in.Exposures {
		var vuln interface{} = ""
		if rec.PhysicalVulnerability != nil {
			vuln = *rec.PhysicalVulnerability
		}
		rows = append(rows, []interface{}{
			rec.Row, rec.Sector, rec.FinancialExposure, rec.EmissionsIntensity, vuln,
		})
	}
	return rows
}
