package importing

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

// Table is a parsed upload: one header row plus data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// ParseTable decodes an uploaded file into rows. Delimited text gets
// its separator auto-detected between comma and semicolon; workbooks
// are read from their first sheet only. An unparsable file is a hard
// failure for the whole batch.
func ParseTable(filename string, data []byte) (Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return parseWorkbook(data)
	default:
		return parseDelimited(data)
	}
}

func parseDelimited(data []byte) (Table, error) {
	text := string(data)
	firstLine := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		firstLine = text[:i]
	}

	r := csv.NewReader(strings.NewReader(text))
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		r.Comma = ';'
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, gerrors.Wrap(err, "parse csv")
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return Table{}, gerrors.New("empty file")
	}
	return Table{Header: rows[0], Rows: rows[1:]}, nil
}

func parseWorkbook(data []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Table{}, gerrors.Wrap(err, "open workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, gerrors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, gerrors.Wrap(err, "read sheet")
	}

	var cleaned [][]string
	for _, row := range rows {
		empty := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if !empty {
			cleaned = append(cleaned, row)
		}
	}
	if len(cleaned) == 0 {
		return Table{}, gerrors.New("empty sheet")
	}
	return Table{Header: cleaned[0], Rows: cleaned[1:]}, nil
}

// cell returns the trimmed value at pos, tolerating short rows.
func cell(row []string, pos int, ok bool) string {
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}
