package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Spreadsheets are rendered as text: a "[Sheet: <name>]" marker per sheet,
// rows joined by newlines with cells tab-separated, parts separated by a
// blank line.

func fromXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var parts []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		lines := make([]string, len(rows))
		for i, row := range rows {
			lines[i] = strings.Join(row, "\t")
		}
		parts = append(parts, fmt.Sprintf("[Sheet: %s]", sheet), strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n"), nil
}

func fromXLS(data []byte) (string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", fmt.Errorf("open xls: %w", err)
	}

	var parts []string
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		var lines []string
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				continue
			}
			var cells []string
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			lines = append(lines, strings.Join(cells, "\t"))
		}
		parts = append(parts, fmt.Sprintf("[Sheet: %s]", sheet.Name), strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n"), nil
}
