package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/feltham/sheets-trader/alpaca"
)

var CheckCmd = Check{
	command: command{
		credentials:     DEFAULT_CREDENTIALS,
		credentialsJSON: os.Getenv("GOOGLE_CREDS_JSON"),
		id:              os.Getenv("SHEET_ID"),
		name:            envvar("SHEET_NAME", "Active-Investing"),
		worksheet:       envvar("WORKSHEET_NAME", "Alpaca Integration"),
	},

	key:       strings.TrimSpace(os.Getenv("ALPACA_API_KEY")),
	secret:    strings.TrimSpace(os.Getenv("ALPACA_SECRET_KEY")),
	alpacaURL: envvar("ALPACA_BASE_URL", "https://paper-api.alpaca.markets"),
}

type Check struct {
	command

	key       string
	secret    string
	alpacaURL string
}

func (cmd *Check) Name() string {
	return "check"
}

func (cmd *Check) Description() string {
	return "Verifies the Google Sheets and Alpaca configuration without trading"
}

func (cmd *Check) Usage() string {
	return ""
}

func (cmd *Check) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] check [options]\n", APP)
	fmt.Println()
	fmt.Println("  Resolves the watchlist spreadsheet and worksheet, fetches the Alpaca account and market")
	fmt.Println("  clock and exits non-zero on any failure. Makes no changes to either the worksheet or the")
	fmt.Println("  trading account")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    sheets-trader check`)
	fmt.Println()
}

func (cmd *Check) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("check")

	flagset.StringVar(&cmd.key, "key", cmd.key, "Alpaca API key. Defaults to the ALPACA_API_KEY environment variable")
	flagset.StringVar(&cmd.secret, "secret", cmd.secret, "Alpaca API secret. Defaults to the ALPACA_SECRET_KEY environment variable")
	flagset.StringVar(&cmd.alpacaURL, "alpaca-url", cmd.alpacaURL, "Alpaca API base URL. Defaults to the ALPACA_BASE_URL environment variable")

	return flagset
}

func (cmd *Check) Execute(args ...interface{}) error {
	options := args[0].(*Options)

	cmd.debug = options.Debug

	ctx := context.Background()

	if cmd.key == "" || cmd.secret == "" {
		return fmt.Errorf("missing ALPACA_API_KEY or ALPACA_SECRET_KEY")
	}

	if !strings.HasPrefix(cmd.alpacaURL, "https://") {
		return fmt.Errorf("invalid Alpaca base URL '%s'", cmd.alpacaURL)
	}

	_, spreadsheet, err := cmd.connect(ctx)
	if err != nil {
		return err
	}

	worksheet, err := getWorksheet(spreadsheet, cmd.worksheet)
	if err != nil {
		return err
	}

	infof("Spreadsheet '%v' (%v), worksheet '%v'", spreadsheet.Properties.Title, spreadsheet.SpreadsheetId, worksheet.Properties.Title)

	trader := alpaca.NewClient(cmd.key, cmd.secret, cmd.alpacaURL)

	account, err := trader.GetAccount(ctx)
	if err != nil {
		return fmt.Errorf("alpaca authentication failed (%w)", err)
	}

	infof("Alpaca account %v  status:%v  buying power:$%v", account.AccountNumber, account.Status, account.BuyingPower.Truncate(2).StringFixed(2))

	clock, err := trader.GetClock(ctx)
	if err != nil {
		return fmt.Errorf("unable to retrieve market clock (%w)", err)
	}

	if clock.IsOpen {
		infof("Market is open (closes %v)", clock.NextClose.Local().Format("2006-01-02 15:04"))
	} else {
		infof("Market is closed (opens %v)", clock.NextOpen.Local().Format("2006-01-02 15:04"))
	}

	return nil
}
