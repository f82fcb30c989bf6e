package trades

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"google.golang.org/api/sheets/v4"
)

// MakeTSV writes a retrieved worksheet range as tab-separated values, one
// line per sheet row.
func MakeTSV(f io.Writer, data *sheets.ValueRange) error {
	if len(data.Values) == 0 {
		return fmt.Errorf("empty sheet")
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	for _, row := range data.Values {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = fmt.Sprintf("%v", v)
		}

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

// MakeXLSX writes a retrieved worksheet range as an XLSX workbook with a
// single sheet.
func MakeXLSX(f io.Writer, sheet string, data *sheets.ValueRange) error {
	if len(data.Values) == 0 {
		return fmt.Errorf("empty sheet")
	}

	workbook := excelize.NewFile()

	defer workbook.Close()

	if sheet != "" && sheet != "Sheet1" {
		if err := workbook.SetSheetName("Sheet1", sheet); err != nil {
			return err
		}
	} else {
		sheet = "Sheet1"
	}

	for r, row := range data.Values {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}

			if err := workbook.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if _, err := workbook.WriteTo(f); err != nil {
		return err
	}

	return nil
}
