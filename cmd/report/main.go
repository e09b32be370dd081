/*
main.go - Offline report generator

PURPOSE:
  Turns a spreadsheet export straight into the printable roster without
  running the server: read the workbook, build the roster, apply the
  search and filter, evaluate delinquency, paginate and render.

COMMAND-LINE FLAGS:
  -in         Workbook to read (.xlsx, .csv, .txt)        required
  -out        PDF to write (default: colecta.pdf)
  -xlsx       Also write the filtered roster as a workbook
  -sheet      Sheet of an .xlsx file (default: first sheet)
  -policy     Policy JSON file (default: Proyecto 330 preset)
  -q          Search text (name substring or exact id)
  -filter     Minimum paid installments: 1, 2 or 3 (default: all)
  -date       Evaluate delinquency on YYYY-MM-DD (default: today)
  -log-level  debug, info, warn or error (env LOG_LEVEL)

EXAMPLES:
  ./report -in colecta.xlsx
  ./report -in colecta.csv -filter 3 -out completos.pdf
  ./report -in colecta.xlsx -q perez -date 2025-03-01 -xlsx perez.xlsx

SEE ALSO:
  - workbook/workbook.go: Readers
  - ledger/layout.go: Pagination
  - render/pdf.go: PDF output
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/warp/cuota-ledger/colecta"
	"github.com/warp/cuota-ledger/factory"
	"github.com/warp/cuota-ledger/ledger"
	"github.com/warp/cuota-ledger/pkg/logging"
	"github.com/warp/cuota-ledger/render"
	"github.com/warp/cuota-ledger/workbook"
)

type options struct {
	in, out, xlsx, sheet string
	policy               string
	query, filter, date  string
	now                  func() time.Time
}

func main() {
	var opts options
	flag.StringVar(&opts.in, "in", "", "Workbook to read (.xlsx, .csv, .txt)")
	flag.StringVar(&opts.out, "out", "colecta.pdf", "PDF to write")
	flag.StringVar(&opts.xlsx, "xlsx", "", "Also write the filtered roster as a workbook")
	flag.StringVar(&opts.sheet, "sheet", "", "Sheet of an .xlsx file")
	flag.StringVar(&opts.policy, "policy", os.Getenv("POLICY_FILE"), "Policy JSON file")
	flag.StringVar(&opts.query, "q", "", "Search text")
	flag.StringVar(&opts.filter, "filter", "", "Minimum paid installments (1, 2, 3)")
	flag.StringVar(&opts.date, "date", "", "Evaluate delinquency on YYYY-MM-DD")
	logLevel := flag.String("log-level", os.Getenv("LOG_LEVEL"), "Log level")
	flag.Parse()

	logging.SetupWithLevel(logging.LevelFromString(*logLevel))
	opts.now = time.Now

	if err := run(opts); err != nil {
		slog.Error("Report failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.in == "" {
		return errors.New("-in is required")
	}

	policy, err := loadPolicy(opts.policy)
	if err != nil {
		return err
	}

	today := ledger.DayOf(opts.now())
	if opts.date != "" {
		if today, err = ledger.ParseDate(opts.date); err != nil {
			return fmt.Errorf("invalid -date: %w", err)
		}
	}

	rows, err := readRows(opts.in, opts.sheet)
	if err != nil {
		return err
	}

	roster := ledger.Ingest(rows, *policy)
	filter := ledger.ParseFilter(opts.filter)
	matched := ledger.Query(roster, opts.query, filter, policy.Plan)
	overdue := policy.Schedule.OverdueInstallments(today, policy.Plan)
	report := ledger.Layout(matched, overdue, *policy)
	totals := ledger.Aggregate(roster, policy.Plan)

	if err := writeFile(opts.out, func(w io.Writer) error {
		return render.PDF(w, report, render.Options{
			Totals:         &totals,
			CurrencySymbol: policy.CurrencySymbol,
			Date:           today,
			Filter:         render.DescribeQuery(opts.query, filter),
		})
	}); err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}

	if opts.xlsx != "" {
		if err := writeFile(opts.xlsx, func(w io.Writer) error {
			return workbook.Export(w, matched, *policy)
		}); err != nil {
			return fmt.Errorf("write %s: %w", opts.xlsx, err)
		}
	}

	slog.Info("Report written",
		"out", opts.out,
		"participants", roster.Len(),
		"rows", report.Rows,
		"pages", report.Pages,
		"delinquent", report.Delinquent,
		"collected", totals.Collected.String(),
	)
	return nil
}

func loadPolicy(path string) (*ledger.Policy, error) {
	pf := factory.NewPolicyFactory()
	if path == "" {
		return pf.ParsePolicy(colecta.Proyecto330JSON(0))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	policy, err := pf.ParsePolicy(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return policy, nil
}

func readRows(path, sheet string) ([]ledger.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet != "" && strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return workbook.ReadXLSX(f, sheet)
	}
	return workbook.Read(f, filepath.Base(path))
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
