// internal/app/system/ingest/spreadsheet.go
package ingest

import (
	"fmt"

	"github.com/dalemusser/cwcconnect/internal/app/system/normalize"
	"github.com/xuri/excelize/v2"
)

// ReadFirstSheet reads the first worksheet of an .xlsx workbook. The first
// row is the header; each following row becomes a Row keyed by header.
// Empty cells and fully empty rows are omitted. Cell values are raw (not
// display-formatted) so long numeric phone numbers keep every digit.
func ReadFirstSheet(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoSpreadsheet)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = normalize.Header(h)
	}

	out := make([]Row, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		r := Row{}
		for i, c := range cells {
			if i >= len(header) || header[i] == "" || normalize.Blank(c) {
				continue
			}
			r[header[i]] = c
		}
		if len(r) > 0 {
			out = append(out, r)
		}
	}
	return out, nil
}
