/*
Package render draws a laid-out roster report into a PDF document.

PURPOSE:
  The ledger decides what goes on every page; this package decides how it
  looks. PDF replays ledger.Report instructions in order and never
  re-paginates: a page starts exactly where the layout says it does.

DRAWING:
  page_start:  New page, collection title, column captions
  row:         Index, name, paid amount and one bar per installment; the
               row background is HighlightColor when the participant is
               delinquent
  page_footer: "Página X de Y"
  summary:     Row, page and delinquent counts, plus collected totals when
               Options carries them

FONTS:
  Core PDF fonts only cover Windows-1252, which is enough for Spanish
  names. Text goes through gofpdf's cp1252 translator.

SEE ALSO:
  - ledger/layout.go: Produces the instructions
*/
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/warp/cuota-ledger/ledger"
)

// Options carries what the report shows besides the rows.
type Options struct {
	// Totals of the complete roster, printed in the summary when set.
	Totals *ledger.Totals

	CurrencySymbol string

	// Date the overdue set was evaluated at, printed in the header.
	Date time.Time

	// Filter describes the active query, printed under the title.
	Filter string
}

var (
	colorText    = [3]int{33, 37, 41}
	colorMuted   = [3]int{108, 117, 125}
	colorBarLine = [3]int{173, 181, 189}
	colorBarFill = [3]int{25, 135, 84}
	colorRule    = [3]int{222, 226, 230}
)

// PDF writes report to w as a PDF document.
func PDF(w io.Writer, report ledger.Report, opts Options) error {
	cfg := report.Config
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "$"
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: cfg.PageWidth, Ht: cfg.PageHeight},
	})
	pdf.SetMargins(cfg.MarginLeft, cfg.MarginTop, cfg.MarginRight)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(report.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	d := &drawer{pdf: pdf, tr: tr, cfg: cfg, opts: opts, plan: report.Installments}
	for _, in := range report.Instructions {
		switch in.Kind {
		case ledger.KindPageStart:
			d.pageStart(*in.Header)
		case ledger.KindRow:
			d.row(*in.Row)
		case ledger.KindPageFooter:
			d.footer(*in.Footer)
		case ledger.KindSummary:
			d.summary(*in.Summary)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to draw report: %w", err)
	}
	return pdf.Output(w)
}

type drawer struct {
	pdf     *gofpdf.Fpdf
	tr      func(string) string
	cfg     ledger.LayoutConfig
	opts    Options
	plan    int
	footerY float64
}

func (d *drawer) contentWidth() float64 {
	return d.cfg.PageWidth - d.cfg.MarginLeft - d.cfg.MarginRight
}

func (d *drawer) pageStart(h ledger.PageHeader) {
	pdf := d.pdf
	pdf.AddPage()

	setText(pdf, colorText)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetXY(d.cfg.MarginLeft, h.Y)
	pdf.CellFormat(d.contentWidth()*0.7, 6, d.tr(h.Title), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	setText(pdf, colorMuted)
	if !d.opts.Date.IsZero() {
		pdf.CellFormat(d.contentWidth()*0.3, 6, d.opts.Date.Format("02/01/2006"), "", 0, "R", false, 0, "")
	}
	if d.opts.Filter != "" {
		pdf.SetXY(d.cfg.MarginLeft, h.Y+6)
		pdf.CellFormat(d.contentWidth(), 4, d.tr(d.opts.Filter), "", 0, "L", false, 0, "")
	}

	// Column captions sit on the last line of the header band.
	y := h.Y + d.cfg.HeaderHeight - d.cfg.RowHeight
	pdf.SetFont("Helvetica", "B", 7.5)
	setText(pdf, colorMuted)
	pdf.SetXY(d.cfg.MarginLeft, y)
	pdf.CellFormat(d.cfg.IndexWidth, d.cfg.RowHeight, "#", "", 0, "L", false, 0, "")
	pdf.CellFormat(60, d.cfg.RowHeight, "Nombre", "", 0, "L", false, 0, "")

	x := d.barsLeft()
	for i := 0; i < d.plan; i++ {
		pdf.SetXY(x, y)
		pdf.CellFormat(d.cfg.FillWidth, d.cfg.RowHeight, "C"+strconv.Itoa(i+1), "", 0, "C", false, 0, "")
		x += d.cfg.FillWidth + d.cfg.FillGap
	}

	setDraw(pdf, colorRule)
	pdf.SetLineWidth(0.3)
	pdf.Line(d.cfg.MarginLeft, y+d.cfg.RowHeight, d.cfg.PageWidth-d.cfg.MarginRight, y+d.cfg.RowHeight)
}

func (d *drawer) barsLeft() float64 {
	return d.cfg.PageWidth - d.cfg.MarginRight - float64(d.plan)*(d.cfg.FillWidth+d.cfg.FillGap) + d.cfg.FillGap
}

func (d *drawer) row(r ledger.RowLine) {
	pdf := d.pdf

	if r.Highlight {
		setFill(pdf, hexColor(ledger.HighlightColor))
		pdf.Rect(r.X, r.Y, d.contentWidth(), r.Height, "F")
	}

	setText(pdf, colorText)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(r.X, r.Y)
	pdf.CellFormat(d.cfg.IndexWidth, r.Height, strconv.Itoa(r.Index), "", 0, "L", false, 0, "")

	amountW := 24.0
	nameW := d.barsLeft() - r.X - d.cfg.IndexWidth - amountW - 2
	pdf.CellFormat(nameW, r.Height, d.tr(truncate(pdf, d.tr, r.Name, nameW)), "", 0, "L", false, 0, "")
	pdf.CellFormat(amountW, r.Height, ledger.FormatAmount(r.PaidAmount, d.opts.CurrencySymbol), "", 0, "R", false, 0, "")

	pad := r.Height * 0.2
	for _, rect := range r.FillRects {
		h := rect.H - 2*pad
		if rect.Fraction > 0 {
			setFill(pdf, colorBarFill)
			pdf.Rect(rect.X, rect.Y+pad, rect.W*rect.Fraction, h, "F")
		}
		setDraw(pdf, colorBarLine)
		pdf.SetLineWidth(0.2)
		pdf.Rect(rect.X, rect.Y+pad, rect.W, h, "D")
	}
}

func (d *drawer) footer(f ledger.PageFooter) {
	d.footerY = f.Y
	setText(d.pdf, colorMuted)
	d.pdf.SetFont("Helvetica", "", 7.5)
	d.pdf.SetXY(d.cfg.MarginLeft, f.Y)
	d.pdf.CellFormat(d.contentWidth(), 4, d.tr(fmt.Sprintf("Página %d de %d", f.Page, f.Pages)), "", 0, "C", false, 0, "")
}

func (d *drawer) summary(s ledger.Summary) {
	pdf := d.pdf
	y := d.footerY + 5

	parts := []string{
		fmt.Sprintf("Filas: %d", s.Rows),
		fmt.Sprintf("Páginas: %d", s.Pages),
		fmt.Sprintf("Morosos: %d", s.Delinquent),
	}
	if t := d.opts.Totals; t != nil {
		parts = append(parts,
			fmt.Sprintf("Recaudado: %s de %s", ledger.FormatAmount(t.Collected, d.opts.CurrencySymbol), ledger.FormatAmount(t.Obligation, d.opts.CurrencySymbol)),
			fmt.Sprintf("Inscriptos: %d", t.Registered),
		)
	}

	setText(pdf, colorText)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(d.cfg.MarginLeft, y)
	pdf.CellFormat(d.contentWidth(), 4, d.tr(strings.Join(parts, "  |  ")), "", 0, "L", false, 0, "")
}

// =============================================================================
// HELPERS
// =============================================================================

// DescribeQuery captions the active search and filter for the report header.
// It is empty when neither narrows the roster.
func DescribeQuery(query string, filter ledger.InstallmentFilter) string {
	var parts []string
	if query != "" {
		parts = append(parts, fmt.Sprintf("Búsqueda: %q", query))
	}
	if t := filter.Threshold(); t > 0 {
		parts = append(parts, fmt.Sprintf("Cuotas pagas: %d o más", t))
	}
	return strings.Join(parts, " · ")
}

// truncate shortens s with an ellipsis until it fits in width.
func truncate(pdf *gofpdf.Fpdf, tr func(string) string, s string, width float64) string {
	if pdf.GetStringWidth(tr(s)) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(tr(string(r)+"...")) > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

// hexColor parses "#RRGGBB"; anything else is white.
func hexColor(s string) [3]int {
	s = strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if len(s) != 6 || err != nil {
		return [3]int{255, 255, 255}
	}
	return [3]int{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}
}

func setFill(pdf *gofpdf.Fpdf, c [3]int) { pdf.SetFillColor(c[0], c[1], c[2]) }
func setText(pdf *gofpdf.Fpdf, c [3]int) { pdf.SetTextColor(c[0], c[1], c[2]) }
func setDraw(pdf *gofpdf.Fpdf, c [3]int) { pdf.SetDrawColor(c[0], c[1], c[2]) }
