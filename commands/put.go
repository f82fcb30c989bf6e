package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/sheets/v4"

	"github.com/feltham/sheets-trader/trades"
)

var PutCmd = Put{
	command: command{
		credentials:     DEFAULT_CREDENTIALS,
		credentialsJSON: os.Getenv("GOOGLE_CREDS_JSON"),
		id:              os.Getenv("SHEET_ID"),
		name:            envvar("SHEET_NAME", "Active-Investing"),
		worksheet:       envvar("WORKSHEET_NAME", "Alpaca Integration"),
	},

	file: "",
}

type Put struct {
	command

	file string
}

func (cmd *Put) Name() string {
	return "put"
}

func (cmd *Put) Description() string {
	return "Stages a watchlist from a local file to the Google Sheets worksheet"
}

func (cmd *Put) Usage() string {
	return "--file <file>"
}

func (cmd *Put) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] put [options] --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Reads a watchlist from a local file - one ticker symbol per line, with '#' comment lines")
	fmt.Println("  and blank lines ignored - and stages it in column A of the watchlist worksheet, replacing")
	fmt.Println("  any previously staged symbols. The header row is left untouched")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    sheets-trader --debug put --file "watchlist.txt"`)
	fmt.Println()
}

func (cmd *Put) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("put")

	flagset.StringVar(&cmd.file, "file", cmd.file, "Watchlist file, one ticker symbol per line")

	return flagset
}

func (cmd *Put) Execute(args ...interface{}) error {
	options := args[0].(*Options)

	cmd.debug = options.Debug

	ctx := context.Background()

	// ... check parameters
	if strings.TrimSpace(cmd.file) == "" {
		return fmt.Errorf("--file is a required option")
	}

	if strings.TrimSpace(cmd.worksheet) == "" {
		return fmt.Errorf("--worksheet is a required option")
	}

	f, err := os.Open(cmd.file)
	if err != nil {
		return err
	}

	defer f.Close()

	symbols, err := trades.ReadSymbols(f)
	if err != nil {
		return err
	}

	// ... stage the watchlist
	google, spreadsheet, err := cmd.connect(ctx)
	if err != nil {
		return err
	}

	if _, err := getWorksheet(spreadsheet, cmd.worksheet); err != nil {
		return err
	}

	if err := clear(google, spreadsheet, []string{rangeRef(cmd.worksheet, "A2:A")}, ctx); err != nil {
		return fmt.Errorf("error clearing staged watchlist (%v)", err)
	}

	if len(symbols) == 0 {
		infof("Cleared staged watchlist - no symbols in %v", cmd.file)
		return nil
	}

	rows := make([][]interface{}, len(symbols))
	for i, symbol := range symbols {
		rows[i] = []interface{}{symbol}
	}

	area := rangeRef(cmd.worksheet, fmt.Sprintf("A2:A%v", len(symbols)+1))
	data := sheets.ValueRange{
		Values: rows,
	}

	if _, err := google.Spreadsheets.Values.Update(spreadsheet.SpreadsheetId, area, &data).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("error staging watchlist (%w)", err)
	}

	infof("Staged %v symbol(s) from %v to %v", len(symbols), cmd.file, area)

	return nil
}
