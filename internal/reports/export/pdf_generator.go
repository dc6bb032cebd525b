package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/reports/charts"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scoring"
)

// PDFRenderer renders the ASRS-aligned PDF report
type PDFRenderer struct {
	options PDFOptions
}

// PDFOptions configures PDF generation
type PDFOptions struct {
	PageSize       string     `json:"page_size"`   // A4, Letter, Legal
	Orientation    string     `json:"orientation"` // portrait, landscape
	Title          string     `json:"title"`
	DateFormat     string     `json:"date_format"`
	IncludePageNum bool       `json:"include_page_num"`
	HeaderColor    PDFColor   `json:"header_color"`
	AlternateRows  bool       `json:"alternate_rows"`
	AlternateColor PDFColor   `json:"alternate_color"`
	SeriesColors   []PDFColor `json:"series_colors"`
	FontFamily     string     `json:"font_family"`
	FontSize       float64    `json:"font_size"`
	HeaderFontSize float64    `json:"header_font_size"`
	TitleFontSize  float64    `json:"title_font_size"`
	Margins        PDFMargins `json:"margins"`
}

// PDFColor represents an RGB color
type PDFColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// PDFMargins represents page margins
type PDFMargins struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// DefaultPDFOptions returns default PDF options
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:       "A4",
		Orientation:    "portrait",
		Title:          "ASRS Climate Scenario Analysis Report",
		DateFormat:     "2006-01-02 15:04 MST",
		IncludePageNum: true,
		HeaderColor:    PDFColor{R: 68, G: 114, B: 196},
		AlternateRows:  true,
		AlternateColor: PDFColor{R: 242, G: 242, B: 242},
		SeriesColors: []PDFColor{
			{R: 31, G: 119, B: 180},
			{R: 255, G: 127, B: 14},
			{R: 44, G: 160, B: 44},
			{R: 214, G: 39, B: 40},
			{R: 148, G: 103, B: 189},
		},
		FontFamily:     "Arial",
		FontSize:       9,
		HeaderFontSize: 9,
		TitleFontSize:  16,
		Margins: PDFMargins{
			Left:   15,
			Right:  15,
			Top:    20,
			Bottom: 20,
		},
	}
}

// NewPDFRenderer creates a new PDF renderer
func NewPDFRenderer(options PDFOptions) *PDFRenderer {
	return &PDFRenderer{options: options}
}

func (r *PDFRenderer) Format() Format        { return FormatPDF }
func (r *PDFRenderer) ContentType() string   { return "application/pdf" }
func (r *PDFRenderer) FileExtension() string { return "pdf" }

// Render writes the full report
func (r *PDFRenderer) Render(w io.Writer, in *ReportInput) error {
	doc := newPDFDocument(r.options)
	doc.pdf.SetCreationDate(in.GeneratedAt)
	doc.pdf.SetTitle(r.titleFor(in), true)
	doc.pdf.SetCreator("carbon-scribe scenario analysis", true)

	doc.pdf.AddPage()
	doc.addTitle(r.titleFor(in))
	if sub := subtitle(in); sub != "" {
		doc.addSubtitle(sub)
	}
	doc.addDate(in.GeneratedAt)

	r.strategySection(doc, in)
	r.riskManagementSection(doc, in)
	r.metricsSection(doc, in)
	r.methodologySection(doc, in)
	r.exposureAppendix(doc, in)

	if err := doc.pdf.Error(); err != nil {
		return fmt.Errorf("failed to build pdf: %w", err)
	}
	return doc.pdf.Output(w)
}

func (r *PDFRenderer) titleFor(in *ReportInput) string {
	if in.Title != "" {
		return in.Title
	}
	return r.options.Title
}

func subtitle(in *ReportInput) string {
	switch {
	case in.Organisation != "" && in.Industry != "":
		return in.Organisation + " | " + in.Industry
	case in.Organisation != "":
		return in.Organisation
	case in.Industry != "":
		return "Industry: " + in.Industry
	}
	return ""
}

func (r *PDFRenderer) strategySection(doc *pdfDocument, in *ReportInput) {
	doc.addSectionHeading(SectionStrategy)
	doc.addParagraph("The following climate scenarios were assessed. Carbon prices are 2030 estimates in AUD per tonne CO2e; " +
		"the physical multiplier scales hazard severity under each temperature pathway.")

	rows := make([][]string, 0, len(in.Scenarios))
	for _, s := range in.Scenarios {
		rows = append(rows, []string{
			s.Name,
			s.TemperaturePathway,
			FormatAmount(s.CarbonPrice),
			strconv.FormatFloat(s.PhysicalRiskMultiplier, 'f', 2, 64),
			s.ASRSReference,
		})
	}
	doc.addTable(
		[]string{"Scenario", "Pathway", "Carbon Price", "Physical Mult.", "ASRS Reference"},
		[]float64{0.36, 0.1, 0.14, 0.14, 0.26},
		[]string{"L", "C", "R", "R", "L"},
		rows,
	)

	for _, s := range in.Scenarios {
		doc.addLabelledLine(s.Name+":", s.Description)
	}

	doc.drawRadarChart(in.Charts.Radar)
}

func (r *PDFRenderer) riskManagementSection(doc *pdfDocument, in *ReportInput) {
	doc.addSectionHeading(SectionRiskManagement)

	rows := make([][]string, 0, len(in.Summaries))
	for _, s := range in.Summaries {
		rows = append(rows, []string{
			s.ScenarioName,
			FormatMoney(s.TransitionRisk),
			FormatMoney(s.PhysicalRisk),
			FormatMoney(s.ValueAtRisk),
			formatPercent(s.VaRRatio),
			strconv.Itoa(s.Rank),
		})
	}
	doc.addTable(
		[]string{"Scenario", "Transition Risk", "Physical Risk", "Value at Risk", "VaR / Exposure", "Rank"},
		[]float64{0.3, 0.17, 0.17, 0.17, 0.12, 0.07},
		[]string{"L", "R", "R", "R", "R", "C"},
		rows,
	)

	doc.drawBarChart(in.Charts.Bar)
}

func (r *PDFRenderer) metricsSection(doc *pdfDocument, in *ReportInput) {
	doc.addSectionHeading(SectionMetrics)

	rows := make([][]string, 0, len(in.Results))
	for _, res := range in.Results {
		vuln := strconv.FormatFloat(res.PhysicalVulnerability, 'f', 2, 64)
		if res.VulnerabilitySource == scoring.VulnerabilitySectorDefault {
			vuln += "*"
		}
		rows = append(rows, []string{
			res.ScenarioName,
			res.Sector,
			FormatMoney(res.FinancialExposure),
			FormatMoney(res.TransitionRisk),
			FormatMoney(res.PhysicalRisk),
			FormatMoney(res.ValueAtRisk),
			vuln,
		})
	}
	doc.addTable(
		[]string{"Scenario", "Sector", "Exposure", "Transition", "Physical", "VaR", "Vuln."},
		[]float64{0.22, 0.13, 0.14, 0.14, 0.14, 0.14, 0.09},
		[]string{"L", "L", "R", "R", "R", "R", "C"},
		rows,
	)
	doc.addNote("* physical vulnerability not supplied; sector default applied.")
}

func (r *PDFRenderer) methodologySection(doc *pdfDocument, in *ReportInput) {
	if len(in.Methodology) == 0 && len(in.Rejected) == 0 {
		return
	}
	doc.addSectionHeading(SectionMethodology)
	for _, line := range in.Methodology {
		doc.addParagraph(line)
	}
	if len(in.Rejected) > 0 {
		doc.addParagraph(fmt.Sprintf("%d uploaded row(s) failed validation and were excluded:", len(in.Rejected)))
		for _, verr := range in.Rejected {
			doc.addNote("- " + verr.Error())
		}
	}
}

func (r *PDFRenderer) exposureAppendix(doc *pdfDocument, in *ReportInput) {
	if len(in.Exposures) == 0 {
		return
	}
	doc.addSectionHeading(SectionExposureData)

	total := 0.0
	rows := make([][]string, 0, len(in.Exposures))
	for _, rec := range in.Exposures {
		vuln := "-"
		if rec.PhysicalVulnerability != nil {
			vuln = strconv.FormatFloat(*rec.PhysicalVulnerability, 'f', 2, 64)
		}
		rows = append(rows, []string{
			strconv.Itoa(rec.Row),
			rec.Sector,
			FormatMoney(rec.FinancialExposure),
			strconv.FormatFloat(rec.EmissionsIntensity, 'f', -1, 64),
			vuln,
		})
		total += rec.FinancialExposure
	}
	doc.addTable(
		[]string{"Row", "Sector", "Financial Exposure", "Emissions Intensity", "Vulnerability"},
		[]float64{0.08, 0.3, 0.24, 0.2, 0.18},
		[]string{"C", "L", "R", "R", "R"},
		rows,
	)
	doc.addLabelledLine("Total Exposure:", FormatMoney(total))
}

// pdfDocument wraps a gofpdf document with report layout helpers
type pdfDocument struct {
	pdf     *gofpdf.Fpdf
	tr      func(string) string
	options PDFOptions
}

func newPDFDocument(options PDFOptions) *pdfDocument {
	orientation := "P"
	if options.Orientation == "landscape" {
		orientation = "L"
	}

	pdf := gofpdf.New(orientation, "mm", options.PageSize, "")
	pdf.SetMargins(options.Margins.Left, options.Margins.Top, options.Margins.Right)
	pdf.SetAutoPageBreak(true, options.Margins.Bottom)

	doc := &pdfDocument{
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		options: options,
	}
	doc.setFooter()
	return doc
}

func (d *pdfDocument) contentWidth() float64 {
	pageWidth, _ := d.pdf.GetPageSize()
	return pageWidth - d.options.Margins.Left - d.options.Margins.Right
}

// ensureSpace starts a new page when fewer than h mm remain
func (d *pdfDocument) ensureSpace(h float64) {
	_, pageHeight := d.pdf.GetPageSize()
	if d.pdf.GetY()+h > pageHeight-d.options.Margins.Bottom {
		d.pdf.AddPage()
	}
}

func (d *pdfDocument) addTitle(title string) {
	d.pdf.SetFont(d.options.FontFamily, "B", d.options.TitleFontSize)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.CellFormat(0, 10, d.tr(title), "", 1, "C", false, 0, "")
}

func (d *pdfDocument) addSubtitle(subtitle string) {
	d.pdf.SetFont(d.options.FontFamily, "", d.options.FontSize+3)
	d.pdf.SetTextColor(100, 100, 100)
	d.pdf.CellFormat(0, 8, d.tr(subtitle), "", 1, "C", false, 0, "")
}

func (d *pdfDocument) addDate(generatedAt time.Time) {
	d.pdf.SetFont(d.options.FontFamily, "", d.options.FontSize-1)
	d.pdf.SetTextColor(128, 128, 128)
	dateStr := fmt.Sprintf("Generated: %s", generatedAt.Format(d.options.DateFormat))
	d.pdf.CellFormat(0, 6, dateStr, "", 1, "R", false, 0, "")
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *pdfDocument) addSectionHeading(title string) {
	d.ensureSpace(24)
	d.pdf.Ln(6)
	d.pdf.SetFont(d.options.FontFamily, "B", d.options.FontSize+4)
	d.pdf.SetTextColor(d.options.HeaderColor.R, d.options.HeaderColor.G, d.options.HeaderColor.B)
	d.pdf.CellFormat(0, 9, d.tr(title), "B", 1, "L", false, 0, "")
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.Ln(2)
}

func (d *pdfDocument) addSubheading(title string) {
	d.pdf.SetFont(d.options.FontFamily, "B", d.options.FontSize+1)
	d.pdf.CellFormat(0, 7, d.tr(title), "", 1, "L", false, 0, "")
}

func (d *pdfDocument) addParagraph(text string) {
	d.pdf.SetFont(d.options.FontFamily, "", d.options.FontSize)
	d.pdf.MultiCell(0, 5, d.tr(text), "", "L", false)
	d.pdf.Ln(1)
}

func (d *pdfDocument) addNote(text string) {
	d.pdf.SetFont(d.options.FontFamily, "I", d.options.FontSize-1)
	d.pdf.SetTextColor(90, 90, 90)
	d.pdf.MultiCell(0, 4.5, d.tr(text), "", "L", false)
	d.pdf.SetTextColor(0, 0, 0)
}

func (d *pdfDocument) addLabelledLine(label, value string) {
	d.pdf.SetFont(d.options.FontFamily, "B", d.options.FontSize)
	labelWidth := d.pdf.GetStringWidth(d.tr(label)) + 2
	if labelWidth > d.contentWidth()/2 {
		labelWidth = d.contentWidth() / 2
	}
	d.pdf.CellFormat(labelWidth, 5, d.fit(label, labelWidth), "", 0, "L", false, 0, "")
	d.pdf.SetFont(d.options.FontFamily, "", d.options.FontSize)
	d.pdf.MultiCell(0, 5, d.tr(value), "", "L", false)
}

// addTable draws a table; widths are fractions of the content width
func (d *pdfDocument) addTable(labels []string, widths []float64, aligns []string, rows [][]string) {
	abs := make([]float64, len(widths))
	for i, f := range widths {
		abs[i] = f * d.contentWidth()
	}

	const rowHeight = 6.0
	d.ensureSpace(rowHeight * 3)
	d.addTableHeader(labels, abs)

	d.pdf.SetFont(d.options.FontFamily, "", d.options.FontSize)
	for i, row := range rows {
		_, pageHeight := d.pdf.GetPageSize()
		if d.pdf.GetY()+rowHeight > pageHeight-d.options.Margins.Bottom {
			d.pdf.AddPage()
			d.addTableHeader(labels, abs)
			d.pdf.SetFont(d.options.FontFamily, "", d.options.FontSize)
		}

		if d.options.AlternateRows && i%2 == 1 {
			d.pdf.SetFillColor(d.options.AlternateColor.R, d.options.AlternateColor.G, d.options.AlternateColor.B)
		} else {
			d.pdf.SetFillColor(255, 255, 255)
		}
		d.pdf.SetTextColor(0, 0, 0)

		for j, val := range row {
			d.pdf.CellFormat(abs[j], rowHeight, d.fit(val, abs[j]), "1", 0, aligns[j], true, 0, "")
		}
		d.pdf.Ln(-1)
	}
	d.pdf.Ln(3)
}

func (d *pdfDocument) addTableHeader(labels []string, widths []float64) {
	d.pdf.SetFont(d.options.FontFamily, "B", d.options.HeaderFontSize)
	d.pdf.SetFillColor(d.options.HeaderColor.R, d.options.HeaderColor.G, d.options.HeaderColor.B)
	d.pdf.SetTextColor(255, 255, 255)
	for i, label := range labels {
		d.pdf.CellFormat(widths[i], 7, d.fit(label, widths[i]), "1", 0, "C", true, 0, "")
	}
	d.pdf.Ln(-1)
	d.pdf.SetTextColor(0, 0, 0)
}

// fit translates s and truncates it with an ellipsis to fit width w at the current font
func (d *pdfDocument) fit(s string, w float64) string {
	t := d.tr(s)
	limit := w - 2
	if d.pdf.GetStringWidth(t) <= limit {
		return t
	}
	for len(t) > 0 && d.pdf.GetStringWidth(t+"...") > limit {
		t = t[:len(t)-1]
	}
	return t + "..."
}

func (d *pdfDocument) seriesColor(i int) PDFColor {
	if len(d.options.SeriesColors) == 0 {
		return PDFColor{}
	}
	return d.options.SeriesColors[i%len(d.options.SeriesColors)]
}

func (d *pdfDocument) drawBarChart(chart charts.BarChart) {
	if len(chart.Groups) == 0 {
		return
	}

	const (
		plotHeight = 65.0
		axisGutter = 20.0
		ticks      = 4
	)

	d.ensureSpace(plotHeight + 35)
	d.pdf.Ln(2)
	d.addSubheading(chart.Title)

	x0 := d.options.Margins.Left + axisGutter
	width := d.contentWidth() - axisGutter
	top := d.pdf.GetY() + 3
	base := top + plotHeight

	maxValue := chart.MaxValue()
	if maxValue <= 0 {
		maxValue = 1
	}

	d.pdf.SetFont(d.options.FontFamily, "", 7)
	d.pdf.SetLineWidth(0.1)
	for i := 0; i <= ticks; i++ {
		v := maxValue * float64(i) / ticks
		y := base - plotHeight*float64(i)/ticks
		d.pdf.SetDrawColor(220, 220, 220)
		d.pdf.Line(x0, y, x0+width, y)
		d.pdf.SetXY(d.options.Margins.Left, y-2)
		d.pdf.CellFormat(axisGutter-2, 4, compactAmount(v), "", 0, "R", false, 0, "")
	}

	d.pdf.SetDrawColor(90, 90, 90)
	d.pdf.SetLineWidth(0.3)
	d.pdf.Line(x0, top, x0, base)
	d.pdf.Line(x0, base, x0+width, base)

	groupWidth := width / float64(len(chart.Groups))
	barWidth := groupWidth * 0.32
	transitionColor, physicalColor := d.seriesColor(0), d.seriesColor(1)

	for i, g := range chart.Groups {
		center := x0 + groupWidth*float64(i) + groupWidth/2

		h := plotHeight * g.TransitionRisk / maxValue
		d.pdf.SetFillColor(transitionColor.R, transitionColor.G, transitionColor.B)
		d.pdf.Rect(center-barWidth, base-h, barWidth, h, "F")

		h = plotHeight * g.PhysicalRisk / maxValue
		d.pdf.SetFillColor(physicalColor.R, physicalColor.G, physicalColor.B)
		d.pdf.Rect(center, base-h, barWidth, h, "F")

		d.pdf.SetFont(d.options.FontFamily, "", 6.5)
		d.pdf.SetXY(center-groupWidth/2, base+1)
		d.pdf.MultiCell(groupWidth, 3, d.tr(g.Scenario), "", "C", false)
	}

	d.pdf.SetY(base + 12)
	d.drawLegend(chart.Series)
	d.pdf.Ln(4)
}

func (d *pdfDocument) drawRadarChart(chart charts.RadarChart) {
	if len(chart.Series) == 0 || len(chart.Axes) == 0 {
		return
	}

	const radius = 32.0

	d.ensureSpace(2*radius + 40)
	d.pdf.Ln(2)
	d.addSubheading(chart.Title)

	cx := d.options.Margins.Left + d.contentWidth()/2
	cy := d.pdf.GetY() + radius + 8

	full := make([]int, len(chart.Axes))
	d.pdf.SetLineWidth(0.1)
	d.pdf.SetDrawColor(200, 200, 200)
	for level := 2; level <= chart.Max; level += 2 {
		for i := range full {
			full[i] = level
		}
		d.pdf.Polygon(toPointTypes(charts.RadarVertices(cx, cy, radius, full, chart.Max)), "D")
	}

	for i := range full {
		full[i] = chart.Max
	}
	outer := charts.RadarVertices(cx, cy, radius, full, chart.Max)
	d.pdf.SetFont(d.options.FontFamily, "", 7)
	for i, p := range outer {
		d.pdf.Line(cx, cy, p.X, p.Y)

		label := d.tr(chart.Axes[i])
		lw := d.pdf.GetStringWidth(label)
		lx := cx + (p.X-cx)*1.15 - lw/2
		ly := cy + (p.Y-cy)*1.15
		d.pdf.Text(lx, ly+1, label)
	}

	d.pdf.SetLineWidth(0.5)
	for i, series := range chart.Series {
		c := d.seriesColor(i)
		points := toPointTypes(charts.RadarVertices(cx, cy, radius, series.Scores, chart.Max))

		d.pdf.SetFillColor(c.R, c.G, c.B)
		d.pdf.SetAlpha(0.12, "Normal")
		d.pdf.Polygon(points, "F")
		d.pdf.SetAlpha(1, "Normal")

		d.pdf.SetDrawColor(c.R, c.G, c.B)
		d.pdf.Polygon(points, "D")
	}
	d.pdf.SetLineWidth(0.2)
	d.pdf.SetDrawColor(0, 0, 0)

	names := make([]string, len(chart.Series))
	for i, s := range chart.Series {
		names[i] = s.Scenario
	}
	d.pdf.SetY(cy + radius + 10)
	d.drawLegend(names)
	d.pdf.Ln(4)
}

func (d *pdfDocument) drawLegend(names []string) {
	d.pdf.SetFont(d.options.FontFamily, "", 7)
	x := d.options.Margins.Left
	for i, name := range names {
		label := d.tr(name)
		w := d.pdf.GetStringWidth(label) + 9
		if x+w > d.options.Margins.Left+d.contentWidth() {
			x = d.options.Margins.Left
			d.pdf.Ln(5)
		}
		y := d.pdf.GetY()
		c := d.seriesColor(i)
		d.pdf.SetFillColor(c.R, c.G, c.B)
		d.pdf.Rect(x, y+1, 3, 3, "F")
		d.pdf.SetXY(x+4, y)
		d.pdf.CellFormat(w-4, 5, label, "", 0, "L", false, 0, "")
		x += w
	}
	d.pdf.Ln(5)
}

func (d *pdfDocument) setFooter() {
	d.pdf.SetFooterFunc(func() {
		if !d.options.IncludePageNum {
			return
		}
		d.pdf.SetY(-15)
		d.pdf.SetFont(d.options.FontFamily, "", 8)
		d.pdf.SetTextColor(128, 128, 128)
		d.pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", d.pdf.PageNo()), "", 0, "C", false, 0, "")
		d.pdf.SetTextColor(0, 0, 0)
	})
}

func toPointTypes(points []charts.Point) []gofpdf.PointType {
	out := make([]gofpdf.PointType, len(points))
	for i, p := range points {
		out[i] = gofpdf.PointType{X: p.X, Y: p.Y}
	}
	return out
}

// compactAmount renders axis labels such as 1.5M or 250k
func compactAmount(v float64) string {
	switch {
	case v >= 1e9:
		return strconv.FormatFloat(v/1e9, 'f', 1, 64) + "B"
	case v >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case v >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 0, 64) + "k"
	default:
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
}
