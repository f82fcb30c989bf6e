package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/feltham/sheets-trader/trades"
)

var GetCmd = Get{
	command: command{
		credentials:     DEFAULT_CREDENTIALS,
		credentialsJSON: os.Getenv("GOOGLE_CREDS_JSON"),
		id:              os.Getenv("SHEET_ID"),
		name:            envvar("SHEET_NAME", "Active-Investing"),
		worksheet:       envvar("WORKSHEET_NAME", "Alpaca Integration"),
	},

	area: "",
	file: time.Now().Format("2006-01-02T150405.tsv"),
}

type Get struct {
	command

	area string
	file string
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Retrieves a worksheet range from the Google Sheets spreadsheet and stores it to a local file"
}

func (cmd *Get) Usage() string {
	return "--range <range> --file <file>"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] get [options] --range <range> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads a Google Sheets worksheet range to a TSV file, or to an XLSX workbook when the")
	fmt.Println("  file name ends in '.xlsx'")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    sheets-trader --debug get --range "'Alpaca Integration'!A1:D" --file "trades.tsv"`)
	fmt.Println(`    sheets-trader get --range "'Alpaca Integration'!C1:D" --file "trades.xlsx"`)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("get")

	flagset.StringVar(&cmd.area, "range", cmd.area, "Spreadsheet range e.g. \"'Alpaca Integration'!A1:D\"")
	flagset.StringVar(&cmd.file, "file", cmd.file, "Output file name. Defaults to '<yyyy-mm-ddTHHmmss>.tsv'")

	return flagset
}

func (cmd *Get) Execute(args ...interface{}) error {
	options := args[0].(*Options)

	cmd.debug = options.Debug

	ctx := context.Background()

	// ... check parameters
	if strings.TrimSpace(cmd.area) == "" {
		return fmt.Errorf("--range is a required option")
	}

	match := rangeExpr.FindStringSubmatch(strings.TrimSpace(cmd.area))
	if len(match) < 2 {
		return fmt.Errorf("invalid range '%s' - expected something like \"'Alpaca Integration'!A1:D\"", cmd.area)
	}

	worksheet := unquote(match[1])

	// ... retrieve
	google, spreadsheet, err := cmd.connect(ctx)
	if err != nil {
		return err
	}

	response, err := google.Spreadsheets.Values.Get(spreadsheet.SpreadsheetId, cmd.area).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to retrieve data from sheet (%v)", err)
	}

	if len(response.Values) == 0 {
		return fmt.Errorf("no data in spreadsheet/range")
	}

	// ... write to a temporary file and rename into place
	tmp, err := os.CreateTemp(os.TempDir(), "trades")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if strings.EqualFold(filepath.Ext(cmd.file), ".xlsx") {
		if err := trades.MakeXLSX(tmp, worksheet, response); err != nil {
			return fmt.Errorf("error creating XLSX file (%v)", err)
		}
	} else {
		if err := trades.MakeTSV(tmp, response); err != nil {
			return fmt.Errorf("error creating TSV file (%v)", err)
		}
	}

	tmp.Close()

	dir := filepath.Dir(cmd.file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), cmd.file); err != nil {
		return err
	}

	infof("Retrieved %v to file %s", cmd.area, cmd.file)

	return nil
}
