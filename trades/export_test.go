package trades

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"google.golang.org/api/sheets/v4"
)

func TestMakeTSV(t *testing.T) {
	expected := `Watchlist		Ticker	Cost
AAPL		AAPL	172.90
MSFT		MSFT	SKIPPED (notional $0.63)
`

	var f strings.Builder
	var data = sheets.ValueRange{
		Values: [][]interface{}{
			[]interface{}{"Watchlist", "", "Ticker", "Cost"},
			[]interface{}{"AAPL", "", "AAPL", "172.90"},
			[]interface{}{"MSFT", "", "MSFT", "SKIPPED (notional $0.63)"},
		},
	}

	err := MakeTSV(&f, &data)
	if err != nil {
		t.Fatalf("Unexpected error returned from MakeTSV (%v)", err)
	}

	if f.String() != expected {
		t.Errorf("Incorrect TSV\n   expected: %s\n   got:      %s\n", expected, f.String())
	}
}

func TestMakeTSVWithEmptySheet(t *testing.T) {
	var f strings.Builder
	var data = sheets.ValueRange{}

	err := MakeTSV(&f, &data)
	if err == nil {
		t.Fatalf("Expected error return for empty sheet, got %v", err)
	}
}

func TestMakeXLSX(t *testing.T) {
	var f bytes.Buffer
	var data = sheets.ValueRange{
		Values: [][]interface{}{
			[]interface{}{"Ticker", "Cost"},
			[]interface{}{"AAPL", "172.90"},
			[]interface{}{"MSFT", "SKIPPED (notional $0.63)"},
		},
	}

	if err := MakeXLSX(&f, "Alpaca Integration", &data); err != nil {
		t.Fatalf("Unexpected error returned from MakeXLSX (%v)", err)
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(f.Bytes()))
	if err != nil {
		t.Fatalf("Error reopening XLSX workbook (%v)", err)
	}

	defer workbook.Close()

	if sheets := workbook.GetSheetList(); len(sheets) != 1 || sheets[0] != "Alpaca Integration" {
		t.Errorf("Incorrect sheet list\n   expected: %v\n   got:      %v", []string{"Alpaca Integration"}, sheets)
	}

	cells := []struct {
		cell     string
		expected string
	}{
		{"A1", "Ticker"},
		{"B1", "Cost"},
		{"A2", "AAPL"},
		{"B2", "172.90"},
		{"A3", "MSFT"},
		{"B3", "SKIPPED (notional $0.63)"},
	}

	for _, c := range cells {
		v, err := workbook.GetCellValue("Alpaca Integration", c.cell)
		if err != nil {
			t.Fatalf("Error retrieving cell %v (%v)", c.cell, err)
		}

		if v != c.expected {
			t.Errorf("Incorrect value in cell %v\n   expected: %v\n   got:      %v", c.cell, c.expected, v)
		}
	}
}

func TestMakeXLSXWithEmptySheet(t *testing.T) {
	var f bytes.Buffer
	var data = sheets.ValueRange{}

	if err := MakeXLSX(&f, "Alpaca Integration", &data); err == nil {
		t.Fatalf("Expected error return for empty sheet, got %v", err)
	}
}
