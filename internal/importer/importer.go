// Package importer reads bulk card data from CSV and XLSX files and
// normalizes it into card contents for the store's single ingestion
// point. Cell values are hardened against spreadsheet formula
// injection and pass through the HTML sanitizer like every other
// import path.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/TaughtMe/LernBox/internal/domain"
	"github.com/TaughtMe/LernBox/internal/sanitize"
)

// ErrNoCards signals that the file parsed fine but contained no
// usable rows.
var ErrNoCards = errors.New("importer: no usable cards in input")

// Result reports what a file import produced.
type Result struct {
	Cards   []domain.CardContent
	Skipped int // rows without both a question and an answer
}

// File dispatches on the file extension: .csv or .xlsx.
func File(path string, r io.Reader) (*Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV(r)
	case ".xlsx":
		return XLSX(r)
	default:
		return nil, fmt.Errorf("importer: unsupported file type %q", filepath.Ext(path))
	}
}

// CSV reads rows of question,answer pairs. A header row whose first
// cell looks like a column title is skipped. Extra columns are
// ignored.
func CSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("importer: failed to parse csv: %w", err)
	}
	return fromRows(rows)
}

// XLSX reads the first sheet of a workbook, same column layout as CSV.
func XLSX(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("importer: failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoCards
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("importer: failed to read sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) (*Result, error) {
	res := &Result{}
	for i, row := range rows {
		if len(row) < 2 {
			if len(row) > 0 {
				res.Skipped++
			}
			continue
		}
		if i == 0 && isHeaderRow(row) {
			continue
		}

		q := sanitize.HTML(HardenCell(row[0]))
		a := sanitize.HTML(HardenCell(row[1]))
		if sanitize.IsHTMLEmpty(q) || sanitize.IsHTMLEmpty(a) {
			res.Skipped++
			continue
		}
		res.Cards = append(res.Cards, domain.CardContent{QuestionHTML: q, AnswerHTML: a})
	}

	if len(res.Cards) == 0 {
		return nil, ErrNoCards
	}
	return res, nil
}

// headerNames are first-cell values that mark a header row.
var headerNames = map[string]bool{
	"question": true, "answer": true, "front": true, "back": true,
	"frage": true, "antwort": true, "vorderseite": true,
}

func isHeaderRow(row []string) bool {
	return headerNames[strings.ToLower(strings.TrimSpace(row[0]))]
}

// HardenCell neutralizes spreadsheet formula injection: cells starting
// with '=', '+', '-' or '@' get a leading apostrophe so Excel and
// Sheets treat them as text. NUL bytes and a leading BOM are removed.
func HardenCell(raw string) string {
	s := strings.ReplaceAll(raw, "\x00", "")
	s = strings.TrimPrefix(s, "\uFEFF")

	if len(s) > 0 {
		switch s[0] {
		case '=', '+', '-', '@':
			s = "'" + s
		}
	}
	return s
}
