/*
layout.go - Printable report pagination

PURPOSE:
  Decides what goes on every page of the printable roster report without
  drawing anything. The output is a flat, ordered list of instructions that
  a document renderer replays: start a page, draw a row, close the page
  with its footer, and finally print the summary line.

KEY INSIGHT:
  Pagination is pure arithmetic on positions. Row i of the filtered roster
  lands on page i/RowsPerPage + 1 at slot i%RowsPerPage, so the same
  filtered roster and overdue set always produce the same instructions.
  The wall clock only matters upstream, where the overdue set is computed.

GEOMETRY:
  All positions are millimetres on an A4 portrait page by default. Each row
  carries its own Y coordinate and one rectangle per installment; the
  renderer fills Fraction of each rectangle's width.

EXAMPLE:
  120 rows, 50 per page:
    page 1: rows 1-50, page 2: rows 51-100, page 3: rows 101-120

SEE ALSO:
  - installment.go: Fill fractions per row
  - delinquency.go: Highlight flag per row
  - render/pdf.go: Replays the instructions into a PDF
*/
package ledger

// =============================================================================
// LAYOUT CONFIG - Page capacity and geometry
// =============================================================================

// LayoutConfig fixes the page capacity and the geometry of a report.
type LayoutConfig struct {
	RowsPerPage int `json:"rows_per_page"`

	PageWidth    float64 `json:"page_width"`
	PageHeight   float64 `json:"page_height"`
	MarginLeft   float64 `json:"margin_left"`
	MarginRight  float64 `json:"margin_right"`
	MarginTop    float64 `json:"margin_top"`
	HeaderHeight float64 `json:"header_height"`
	RowHeight    float64 `json:"row_height"`
	FillWidth    float64 `json:"fill_width"`
	FillGap      float64 `json:"fill_gap"`
	IndexWidth   float64 `json:"index_width"`
}

// DefaultRowsPerPage is the page capacity of the printed roster.
const DefaultRowsPerPage = 50

// HighlightColor is the background of delinquent rows.
const HighlightColor = "#F8D7DA"

// DefaultLayoutConfig returns 50 rows on an A4 portrait page.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		RowsPerPage:  DefaultRowsPerPage,
		PageWidth:    210,
		PageHeight:   297,
		MarginLeft:   15,
		MarginRight:  15,
		MarginTop:    12,
		HeaderHeight: 18,
		RowHeight:    4.8,
		FillWidth:    12,
		FillGap:      2,
		IndexWidth:   12,
	}
}

func (c LayoutConfig) normalized() LayoutConfig {
	d := DefaultLayoutConfig()
	if c.RowsPerPage <= 0 {
		c.RowsPerPage = d.RowsPerPage
	}
	if c.PageWidth <= 0 || c.PageHeight <= 0 {
		c.PageWidth, c.PageHeight = d.PageWidth, d.PageHeight
	}
	if c.RowHeight <= 0 {
		c.RowHeight = d.RowHeight
	}
	if c.FillWidth <= 0 {
		c.FillWidth = d.FillWidth
	}
	if c.IndexWidth <= 0 {
		c.IndexWidth = d.IndexWidth
	}
	return c
}

// =============================================================================
// INSTRUCTIONS
// =============================================================================

// InstructionKind tells the renderer what to draw.
type InstructionKind string

const (
	KindPageStart  InstructionKind = "page_start"
	KindRow        InstructionKind = "row"
	KindPageFooter InstructionKind = "page_footer"
	KindSummary    InstructionKind = "summary"
)

// Rect is an axis-aligned rectangle; Fraction of its width is filled.
type Rect struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	Fraction float64 `json:"fraction"`
}

// RowLine is one participant line on a page.
type RowLine struct {
	Index         int           `json:"index"`
	ParticipantID ParticipantID `json:"participant_id"`
	Name          string        `json:"name"`
	PaidAmount    Amount        `json:"paid_amount"`
	Fills         []float64     `json:"fills"`
	FillRects     []Rect        `json:"fill_rects"`
	Highlight     bool          `json:"highlight"`
	X             float64       `json:"x"`
	Y             float64       `json:"y"`
	Height        float64       `json:"height"`
}

// PageHeader opens a page.
type PageHeader struct {
	Title string  `json:"title"`
	Page  int     `json:"page"`
	Pages int     `json:"pages"`
	Y     float64 `json:"y"`
}

// PageFooter closes a page with its number.
type PageFooter struct {
	Page  int     `json:"page"`
	Pages int     `json:"pages"`
	Y     float64 `json:"y"`
}

// Summary is the final line of the report.
type Summary struct {
	Pages      int `json:"pages"`
	Rows       int `json:"rows"`
	Delinquent int `json:"delinquent"`
}

// Instruction is one step of the report. Exactly one payload is set, matching Kind.
type Instruction struct {
	Kind    InstructionKind `json:"kind"`
	Page    int             `json:"page"`
	Header  *PageHeader     `json:"header,omitempty"`
	Row     *RowLine        `json:"row,omitempty"`
	Footer  *PageFooter     `json:"footer,omitempty"`
	Summary *Summary        `json:"summary,omitempty"`
}

// Report is the complete, ordered layout of a filtered roster.
type Report struct {
	Title        string        `json:"title"`
	Pages        int           `json:"pages"`
	Rows         int           `json:"rows"`
	Delinquent   int           `json:"delinquent"`
	Installments int           `json:"installments"`
	Config       LayoutConfig  `json:"config"`
	Instructions []Instruction `json:"instructions"`
}

// PageCount returns how many pages rows need at the given capacity.
// An empty report still has one page.
func PageCount(rows, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultRowsPerPage
	}
	if rows <= 0 {
		return 1
	}
	return (rows + perPage - 1) / perPage
}

// =============================================================================
// LAYOUT ENGINE
// =============================================================================

// Layout paginates the filtered participants into report instructions.
// Rows keep the order they are given in; a row is highlighted when its
// participant is delinquent against the overdue set.
func Layout(rows []Participant, overdue OverdueSet, policy Policy) Report {
	cfg := policy.Layout.normalized()
	plan := policy.Plan.normalized()
	pages := PageCount(len(rows), cfg.RowsPerPage)
	bodyTop := cfg.MarginTop + cfg.HeaderHeight
	footerY := bodyTop + float64(cfg.RowsPerPage)*cfg.RowHeight + cfg.RowHeight

	report := Report{
		Title:        policy.Name,
		Pages:        pages,
		Rows:         len(rows),
		Installments: plan.Count,
		Config:       cfg,
		Instructions: make([]Instruction, 0, len(rows)+2*pages+1),
	}

	for page := 1; page <= pages; page++ {
		report.Instructions = append(report.Instructions, Instruction{
			Kind:   KindPageStart,
			Page:   page,
			Header: &PageHeader{Title: policy.Name, Page: page, Pages: pages, Y: cfg.MarginTop},
		})

		start := (page - 1) * cfg.RowsPerPage
		end := start + cfg.RowsPerPage
		if end > len(rows) {
			end = len(rows)
		}
		for pos := start; pos < end; pos++ {
			line := layoutRow(rows[pos], pos, bodyTop+float64(pos-start)*cfg.RowHeight, overdue, plan, cfg)
			if line.Highlight {
				report.Delinquent++
			}
			report.Instructions = append(report.Instructions, Instruction{Kind: KindRow, Page: page, Row: line})
		}

		report.Instructions = append(report.Instructions, Instruction{
			Kind:   KindPageFooter,
			Page:   page,
			Footer: &PageFooter{Page: page, Pages: pages, Y: footerY},
		})
	}

	report.Instructions = append(report.Instructions, Instruction{
		Kind:    KindSummary,
		Page:    pages,
		Summary: &Summary{Pages: pages, Rows: len(rows), Delinquent: report.Delinquent},
	})
	return report
}

func layoutRow(p Participant, pos int, y float64, overdue OverdueSet, plan Plan, cfg LayoutConfig) *RowLine {
	fills := ProjectInstallments(p.PaidAmount, plan)

	rects := make([]Rect, len(fills))
	x := cfg.PageWidth - cfg.MarginRight - float64(len(fills))*(cfg.FillWidth+cfg.FillGap) + cfg.FillGap
	for i, f := range fills {
		rects[i] = Rect{X: x, Y: y, W: cfg.FillWidth, H: cfg.RowHeight, Fraction: f}
		x += cfg.FillWidth + cfg.FillGap
	}

	return &RowLine{
		Index:         pos + 1,
		ParticipantID: p.ID,
		Name:          p.FullName,
		PaidAmount:    p.PaidAmount,
		Fills:         fills,
		FillRects:     rects,
		Highlight:     IsDelinquent(p, overdue, plan),
		X:             cfg.MarginLeft,
		Y:             y,
		Height:        cfg.RowHeight,
	}
}

// RowsOnPage returns the row lines laid out on the given page.
func (r Report) RowsOnPage(page int) []RowLine {
	var out []RowLine
	for _, in := range r.Instructions {
		if in.Kind == KindRow && in.Page == page {
			out = append(out, *in.Row)
		}
	}
	return out
}
