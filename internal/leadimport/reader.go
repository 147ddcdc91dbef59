package leadimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoMatchingSheets is returned when none of the selected sheets exist
	// in the file; this is fatal for the whole job.
	ErrNoMatchingSheets = errors.New("no selected sheet found in file")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// csvSheetName is the pseudo-sheet a CSV file presents, so CSV and XLSX
// share one inventory/selection/stats code path.
const csvSheetName = "Sheet1"

// Row is one data row keyed by raw column header. Header cells with no text
// are synthesized as "Column N" so no input column is dropped.
type Row struct {
	Sheet  string
	Number int
	Values map[string]string
}

// ListSheets returns the sheet inventory of a staged file in file order.
func ListSheets(path, ext string) ([]string, error) {
	switch normalizeExt(ext) {
	case ".csv":
		return []string{csvSheetName}, nil
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open xlsx: %w", err)
		}
		defer func() { _ = f.Close() }()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("excel file has no sheets")
		}
		return sheets, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// RowSource yields rows lazily from a staged spreadsheet or CSV file, one
// selected sheet at a time, without materializing the file in memory. The
// sequence is finite and non-restartable.
type RowSource struct {
	path   string
	ext    string
	sheets []string
	xlsx   *excelize.File
}

// OpenRowSource opens the staged file and resolves the sheet selection. An
// empty selection means every sheet. Selected sheets missing from the file
// are skipped; zero matching sheets is fatal.
func OpenRowSource(path, ext string, selected []string) (*RowSource, error) {
	ext = normalizeExt(ext)
	switch ext {
	case ".csv":
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to stat csv: %w", err)
		}
		sheets := matchSheets([]string{csvSheetName}, selected)
		if len(sheets) == 0 {
			return nil, ErrNoMatchingSheets
		}
		return &RowSource{path: path, ext: ext, sheets: sheets}, nil
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open xlsx: %w", err)
		}
		sheets := matchSheets(f.GetSheetList(), selected)
		if len(sheets) == 0 {
			_ = f.Close()
			return nil, ErrNoMatchingSheets
		}
		return &RowSource{path: path, ext: ext, sheets: sheets, xlsx: f}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// Sheets returns the selected sheets present in the file, in file order.
func (s *RowSource) Sheets() []string {
	return s.sheets
}

// SheetRows opens a lazy reader over one sheet. The first row is consumed as
// headers and never yielded as data.
func (s *RowSource) SheetRows(sheet string) (*SheetReader, error) {
	switch s.ext {
	case ".csv":
		return openCSVReader(s.path, sheet)
	case ".xlsx":
		return openExcelReader(s.xlsx, sheet)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, s.ext)
	}
}

// Close releases the underlying file.
func (s *RowSource) Close() error {
	if s.xlsx != nil {
		return s.xlsx.Close()
	}
	return nil
}

// SheetReader yields one sheet's data rows lazily.
type SheetReader struct {
	sheet   string
	headers []string
	rowNum  int
	next    func() ([]string, error)
	closefn func()
}

// Headers returns the raw (trimmed) header row.
func (r *SheetReader) Headers() []string {
	return r.headers
}

// Next returns the next non-empty data row. The second return is false once
// the sheet is exhausted; a non-nil error abandons the sheet.
func (r *SheetReader) Next() (Row, bool, error) {
	for {
		cells, err := r.next()
		if errors.Is(err, io.EOF) {
			return Row{}, false, nil
		}
		if err != nil {
			return Row{}, false, fmt.Errorf("failed to read row %d: %w", r.rowNum+1, err)
		}
		r.rowNum++

		if isEmptyRow(cells) {
			continue
		}

		values := make(map[string]string, len(r.headers))
		for i, header := range r.headers {
			if i < len(cells) {
				values[header] = cells[i]
			} else {
				values[header] = ""
			}
		}
		return Row{Sheet: r.sheet, Number: r.rowNum, Values: values}, true, nil
	}
}

// Close releases the sheet iterator.
func (r *SheetReader) Close() {
	if r.closefn != nil {
		r.closefn()
	}
}

func openExcelReader(f *excelize.File, sheet string) (*SheetReader, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet %s: %w", sheet, err)
	}

	reader := &SheetReader{
		sheet: sheet,
		next: func() ([]string, error) {
			if !rows.Next() {
				if err := rows.Error(); err != nil {
					return nil, err
				}
				return nil, io.EOF
			}
			// Columns flattens rich cells (formulas, hyperlinks, rich
			// text) to their display values.
			return rows.Columns()
		},
		closefn: func() { _ = rows.Close() },
	}

	if err := reader.consumeHeaders(); err != nil {
		reader.Close()
		return nil, err
	}
	return reader, nil
}

func openCSVReader(path, sheet string) (*SheetReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}

	buffered := bufio.NewReader(file)
	if prefix, err := buffered.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = buffered.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(buffered)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	reader := &SheetReader{
		sheet:   sheet,
		next:    csvReader.Read,
		closefn: func() { _ = file.Close() },
	}

	if err := reader.consumeHeaders(); err != nil {
		reader.Close()
		return nil, err
	}
	return reader, nil
}

// consumeHeaders reads rows until the first non-empty one and installs it as
// the header row. A sheet with no rows at all yields zero headers and an
// immediately exhausted reader.
func (r *SheetReader) consumeHeaders() error {
	for {
		cells, err := r.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read header row: %w", err)
		}
		r.rowNum++
		if isEmptyRow(cells) {
			continue
		}

		headers := make([]string, len(cells))
		for i, cell := range cells {
			name := strings.TrimSpace(cell)
			if name == "" {
				name = fmt.Sprintf("Column %d", i+1)
			}
			headers[i] = name
		}
		r.headers = headers
		return nil
	}
}

func isEmptyRow(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func matchSheets(available, selected []string) []string {
	if len(selected) == 0 {
		return available
	}
	wanted := make(map[string]struct{}, len(selected))
	for _, name := range selected {
		wanted[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	matched := make([]string, 0, len(available))
	for _, name := range available {
		if _, ok := wanted[strings.ToLower(name)]; ok {
			matched = append(matched, name)
		}
	}
	return matched
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
