package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/api/sheets/v4"

	"github.com/feltham/sheets-trader/alpaca"
	"github.com/feltham/sheets-trader/trades"
)

var RunCmd = Run{
	command: command{
		credentials:     DEFAULT_CREDENTIALS,
		credentialsJSON: os.Getenv("GOOGLE_CREDS_JSON"),
		id:              os.Getenv("SHEET_ID"),
		name:            envvar("SHEET_NAME", "Active-Investing"),
		worksheet:       envvar("WORKSHEET_NAME", "Alpaca Integration"),
	},

	key:         strings.TrimSpace(os.Getenv("ALPACA_API_KEY")),
	secret:      strings.TrimSpace(os.Getenv("ALPACA_SECRET_KEY")),
	alpacaURL:   envvar("ALPACA_BASE_URL", "https://paper-api.alpaca.markets"),
	fraction:    0.07,
	minNotional: envvar("MIN_NOTIONAL", "1"),
	rate:        2.5,

	nolog:        false,
	logRange:     "Log!A1:G",
	logRetention: 30,

	dryrun: false,
}

type Run struct {
	command

	key         string
	secret      string
	alpacaURL   string
	fraction    float64
	minNotional string
	rate        float64

	nolog        bool
	logRange     string
	logRetention uint

	dryrun bool
}

// runSummary is the one-line summary appended to the log worksheet after a
// completed run.
type runSummary struct {
	timestamp   time.Time
	tickers     int
	submitted   int
	skipped     int
	failed      int
	spent       decimal.Decimal
	buyingPower decimal.Decimal
}

func (cmd *Run) Name() string {
	return "run"
}

func (cmd *Run) Description() string {
	return "Buys the tickers staged in the watchlist worksheet and clears the watchlist"
}

func (cmd *Run) Usage() string {
	return "[--dryrun]"
}

func (cmd *Run) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] run [options]\n", APP)
	fmt.Println()
	fmt.Println("  Reads the ticker symbols staged in column A of the watchlist worksheet, submits a notional")
	fmt.Println("  market BUY order for each one, records the per-ticker outcomes to columns C:D and clears")
	fmt.Println("  the watchlist. Intended to be run from a cron job, with the configuration taken from the")
	fmt.Println("  environment")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    sheets-trader run`)
	fmt.Println(`    sheets-trader --debug run --name "Active-Investing" --worksheet "Alpaca Integration" --dryrun`)
	fmt.Println()
}

func (cmd *Run) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("run")

	flagset.StringVar(&cmd.key, "key", cmd.key, "Alpaca API key. Defaults to the ALPACA_API_KEY environment variable")
	flagset.StringVar(&cmd.secret, "secret", cmd.secret, "Alpaca API secret. Defaults to the ALPACA_SECRET_KEY environment variable")
	flagset.StringVar(&cmd.alpacaURL, "alpaca-url", cmd.alpacaURL, "Alpaca API base URL. Defaults to the ALPACA_BASE_URL environment variable")
	flagset.Float64Var(&cmd.fraction, "fraction", cmd.fraction, "Fraction of the current buying power to spend per ticker")
	flagset.StringVar(&cmd.minNotional, "min-notional", cmd.minNotional, "Minimum trade size in dollars. Defaults to the MIN_NOTIONAL environment variable")
	flagset.Float64Var(&cmd.rate, "rate", cmd.rate, "Order pacing, in requests per second")
	flagset.StringVar(&cmd.logRange, "log-range", cmd.logRange, fmt.Sprintf("Spreadsheet range for the run summary log. Defaults to %s", cmd.logRange))
	flagset.UintVar(&cmd.logRetention, "log-retention", cmd.logRetention, fmt.Sprintf("Log sheet records older than 'log-retention' days are automatically pruned. Defaults to %v", cmd.logRetention))
	flagset.BoolVar(&cmd.nolog, "no-log", cmd.nolog, "Disables writing a summary to the 'log' worksheet")
	flagset.BoolVar(&cmd.dryrun, "dryrun", cmd.dryrun, "Evaluates the watchlist without submitting orders or modifying the worksheet")

	return flagset
}

func (cmd *Run) Execute(args ...interface{}) error {
	options := args[0].(*Options)

	cmd.debug = options.Debug

	ctx := context.Background()

	// ... check parameters
	fraction, minNotional, err := cmd.validate()
	if err != nil {
		return err
	}

	// ... resolve spreadsheet and worksheet
	google, spreadsheet, err := cmd.connect(ctx)
	if err != nil {
		return err
	}

	worksheet, err := getWorksheet(spreadsheet, cmd.worksheet)
	if err != nil {
		return err
	}

	// ... connect to Alpaca
	trader := alpaca.NewClient(cmd.key, cmd.secret, cmd.alpacaURL, alpaca.WithRateLimit(cmd.rate))

	account, err := trader.GetAccount(ctx)
	if err != nil {
		return fmt.Errorf("alpaca authentication failed (%w)", err)
	}

	infof("Connected to Alpaca at %v using key ...%v", cmd.alpacaURL, suffix(cmd.key, 4))
	infof("Current buying power: $%v", account.BuyingPower.Truncate(2).StringFixed(2))

	// ... read the watchlist
	column, err := google.Spreadsheets.Values.Get(spreadsheet.SpreadsheetId, rangeRef(cmd.worksheet, "A:A")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to retrieve watchlist from sheet (%v)", err)
	}

	picks := trades.MakeWatchlist(column)
	if len(picks) == 0 {
		infof("No tickers staged below the header - nothing to do")
		return nil
	}

	infof("Found %v ticker(s): %v", len(picks), symbols(picks))

	// ... trade
	results, summary := cmd.trade(ctx, trader, picks, fraction, minNotional)

	// ... record the outcomes and clear the watchlist
	if !cmd.dryrun {
		if err := cmd.writeResults(google, spreadsheet, results, ctx); err != nil {
			return err
		}

		if err := cmd.clearWatchlist(google, spreadsheet, worksheet, ctx); err != nil {
			return err
		}

		if !cmd.nolog {
			if err := cmd.updateLogSheet(google, spreadsheet, summary, ctx); err != nil {
				return err
			}

			if err := cmd.pruneLogSheet(google, spreadsheet, ctx); err != nil {
				return err
			}
		}
	}

	infof("Processed %v ticker(s)  submitted:%v  skipped:%v  failed:%v  spent:$%v",
		summary.tickers,
		summary.submitted,
		summary.skipped,
		summary.failed,
		summary.spent.StringFixed(2))

	return nil
}

func (cmd *Run) validate() (decimal.Decimal, decimal.Decimal, error) {
	zero := decimal.Zero

	if strings.TrimSpace(cmd.credentialsJSON) == "" && strings.TrimSpace(cmd.credentials) == "" {
		return zero, zero, fmt.Errorf("missing Google credentials - set GOOGLE_CREDS_JSON or --credentials")
	}

	if strings.TrimSpace(cmd.worksheet) == "" {
		return zero, zero, fmt.Errorf("--worksheet is a required option")
	}

	if cmd.key == "" || cmd.secret == "" {
		return zero, zero, fmt.Errorf("missing ALPACA_API_KEY or ALPACA_SECRET_KEY")
	}

	if !strings.HasPrefix(cmd.alpacaURL, "https://") {
		return zero, zero, fmt.Errorf("invalid Alpaca base URL '%s'", cmd.alpacaURL)
	}

	prefix := strings.ToUpper(cmd.key[:min(2, len(cmd.key))])
	if strings.Contains(cmd.alpacaURL, "paper-api.alpaca.markets") {
		if prefix != "PK" {
			warnf("Key prefix '%v' may not match the paper trading API", prefix)
		}
	} else if strings.Contains(cmd.alpacaURL, "api.alpaca.markets") {
		if prefix != "AK" {
			warnf("Key prefix '%v' may not match the live trading API", prefix)
		}
	}

	if cmd.fraction <= 0.0 || cmd.fraction > 1.0 {
		return zero, zero, fmt.Errorf("invalid --fraction %v - expected a value in the range (0,1]", cmd.fraction)
	}

	fraction := decimal.NewFromFloat(cmd.fraction)

	minNotional, err := decimal.NewFromString(strings.TrimSpace(cmd.minNotional))
	if err != nil {
		return zero, zero, fmt.Errorf("invalid --min-notional '%s' (%v)", cmd.minNotional, err)
	} else if minNotional.IsNegative() {
		return zero, zero, fmt.Errorf("invalid --min-notional '%s' - expected a value greater than or equal to 0", cmd.minNotional)
	}

	if cmd.rate <= 0.0 {
		return zero, zero, fmt.Errorf("invalid --rate %v - expected a value greater than 0", cmd.rate)
	}

	if !cmd.nolog {
		if match := rangeExpr.FindStringSubmatch(strings.TrimSpace(cmd.logRange)); len(match) < 2 {
			return zero, zero, fmt.Errorf("invalid log-range '%s' - expected something like 'Log!A1:G'", cmd.logRange)
		}
	}

	return fraction, minNotional, nil
}

// trade makes a single pass over the watchlist in sheet order. The notional
// amount for each pick tracks the current buying power, so the account is
// re-fetched before every order. Per-ticker errors are recorded and the pass
// continues - they never abort the run.
func (cmd *Run) trade(ctx context.Context, trader *alpaca.Client, picks []trades.Pick, fraction, minNotional decimal.Decimal) ([]trades.Result, *runSummary) {
	results := []trades.Result{}
	summary := runSummary{
		timestamp: time.Now(),
		tickers:   len(picks),
		spent:     decimal.Zero,
	}

	for _, pick := range picks {
		account, err := trader.GetAccount(ctx)
		if err != nil {
			warnf("%v: %v", pick.Symbol, err)
			results = append(results, trades.Failed(pick.Symbol, err))
			summary.failed++
			continue
		}

		buyingPower := account.BuyingPower.Truncate(2)
		notional := trades.Notional(buyingPower, fraction)

		summary.buyingPower = buyingPower

		if notional.LessThan(minNotional) {
			infof("Skipping %v - notional $%v < $%v", pick.Symbol, notional.StringFixed(2), minNotional.StringFixed(2))
			results = append(results, trades.Skipped(pick.Symbol, notional))
			summary.skipped++
			continue
		}

		if cmd.dryrun {
			infof("DRY RUN: BUY %v for $%v", pick.Symbol, notional.StringFixed(2))
			results = append(results, trades.Simulated(pick.Symbol, notional))
			summary.submitted++
			summary.spent = summary.spent.Add(notional)
			continue
		}

		order, err := trader.SubmitOrder(ctx, alpaca.MarketBuy(pick.Symbol, notional, uuid.NewString()))
		if err != nil {
			warnf("%v: %v", pick.Symbol, err)
			results = append(results, trades.Failed(pick.Symbol, err))
			summary.failed++
			continue
		}

		infof("Submitted BUY %v for $%v (order ID %v)", pick.Symbol, notional.StringFixed(2), order.ID)
		results = append(results, trades.Submitted(pick.Symbol, notional))
		summary.submitted++
		summary.spent = summary.spent.Add(notional)
	}

	return results, &summary
}

// writeResults appends the [symbol, outcome] rows to columns C:D, starting at
// the first empty row of column C.
func (cmd *Run) writeResults(google *sheets.Service, spreadsheet *sheets.Spreadsheet, results []trades.Result, ctx context.Context) error {
	column, err := google.Spreadsheets.Values.Get(spreadsheet.SpreadsheetId, rangeRef(cmd.worksheet, "C:C")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to retrieve results column from sheet (%v)", err)
	}

	first := firstEmptyRow(column, 2)
	last := first + len(results) - 1
	area := rangeRef(cmd.worksheet, fmt.Sprintf("C%v:D%v", first, last))

	rows := sheets.ValueRange{
		Values: trades.AsRows(results),
	}

	if _, err := google.Spreadsheets.Values.Update(spreadsheet.SpreadsheetId, area, &rows).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("error writing results to sheet (%w)", err)
	}

	infof("Recorded %v result(s) to %v", len(results), area)

	return nil
}

// clearWatchlist clears the entire watchlist column. If the batch clear fails
// it falls back to overwriting the column with blanks.
func (cmd *Run) clearWatchlist(google *sheets.Service, spreadsheet *sheets.Spreadsheet, worksheet *sheets.Sheet, ctx context.Context) error {
	if err := clear(google, spreadsheet, []string{rangeRef(cmd.worksheet, "A:A")}, ctx); err == nil {
		infof("Cleared watchlist column")
		return nil
	} else {
		warnf("Unable to clear watchlist column (%v) - overwriting with blanks", err)
	}

	rows := worksheet.Properties.GridProperties.RowCount
	if rows == 0 {
		rows = 1000
	}

	blanks := make([][]interface{}, rows)
	for i := range blanks {
		blanks[i] = []interface{}{""}
	}

	area := rangeRef(cmd.worksheet, fmt.Sprintf("A1:A%v", rows))
	data := sheets.ValueRange{
		Values: blanks,
	}

	if _, err := google.Spreadsheets.Values.Update(spreadsheet.SpreadsheetId, area, &data).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("error clearing watchlist column (%w)", err)
	}

	infof("Cleared watchlist column (fallback)")

	return nil
}

func (cmd *Run) updateLogSheet(google *sheets.Service, spreadsheet *sheets.Spreadsheet, summary *runSummary, ctx context.Context) error {
	index := map[string]int{
		"timestamp":   0,
		"tickers":     1,
		"submitted":   2,
		"skipped":     3,
		"failed":      4,
		"spent":       5,
		"buyingpower": 6,
	}

	// ... build column index from the header row, if any
	response, err := google.Spreadsheets.Values.Get(spreadsheet.SpreadsheetId, cmd.logRange).Do()
	if err != nil {
		return fmt.Errorf("unable to retrieve column headers from log sheet (%v)", err)
	}

	if len(response.Values) > 0 {
		header := response.Values[0]
		index = map[string]int{}

		for i, v := range header {
			if s, ok := v.(string); ok {
				switch k := normalise(s); k {
				case "timestamp", "tickers", "submitted", "skipped", "failed", "spent", "buyingpower":
					index[k] = i
				}
			}
		}

		if cmd.debug {
			debugf("Log sheet column index: %v", index)
		}
	}

	columns := 0
	for _, v := range index {
		if v >= columns {
			columns = v + 1
		}
	}

	// ... append the summary row
	row := make([]interface{}, columns)
	for i := 0; i < columns; i++ {
		row[i] = ""
	}

	set := func(column string, value interface{}) {
		if ix, ok := index[column]; ok {
			row[ix] = value
		}
	}

	set("timestamp", summary.timestamp.Format("2006-01-02 15:04:05"))
	set("tickers", summary.tickers)
	set("submitted", summary.submitted)
	set("skipped", summary.skipped)
	set("failed", summary.failed)
	set("spent", summary.spent.StringFixed(2))
	set("buyingpower", summary.buyingPower.StringFixed(2))

	rows := sheets.ValueRange{
		Values: [][]interface{}{row},
	}

	if _, err := google.Spreadsheets.Values.Append(spreadsheet.SpreadsheetId, cmd.logRange, &rows).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("error writing log to Google Sheets (%w)", err)
	}

	return nil
}

func (cmd *Run) pruneLogSheet(google *sheets.Service, spreadsheet *sheets.Spreadsheet, ctx context.Context) error {
	if cmd.logRetention == 0 {
		return nil
	}

	sheet, err := getSheet(spreadsheet, cmd.logRange)
	if err != nil {
		return err
	}

	response, err := google.Spreadsheets.Values.Get(spreadsheet.SpreadsheetId, cmd.logRange).Do()
	if err != nil {
		return fmt.Errorf("unable to retrieve data from log sheet (%v)", err)
	}

	before := time.Now().
		In(time.Local).
		Add(time.Hour * time.Duration(-24*(int(cmd.logRetention)-1))).
		Truncate(24 * time.Hour)

	cutoff := time.Date(before.Year(), before.Month(), before.Day(), 0, 0, 0, 0, before.Location())
	list := []int{}

	infof("Pruning log records from before %v", cutoff.Format("2006-01-02"))

	for row, record := range response.Values {
		if len(record) == 0 {
			continue
		}

		if v, ok := record[0].(string); ok {
			timestamp, err := time.ParseInLocation("2006-01-02 15:04:05", v, time.Local)
			if err == nil && timestamp.Before(cutoff) {
				list = append(list, row)
			}
		}
	}

	if ranges := deleteRanges(list); len(ranges) > 0 {
		rq := sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{},
		}

		for _, r := range ranges {
			rq.Requests = append(rq.Requests, &sheets.Request{
				DeleteDimension: &sheets.DeleteDimensionRequest{
					Range: &sheets.DimensionRange{
						SheetId:    sheet.Properties.SheetId,
						Dimension:  "ROWS",
						StartIndex: int64(r[0]),
						EndIndex:   int64(r[1]),
					},
				},
			})
		}

		if _, err := google.Spreadsheets.BatchUpdate(spreadsheet.SpreadsheetId, &rq).Context(ctx).Do(); err != nil {
			return err
		}
	}

	infof("Pruned %d log records from log sheet", len(list))

	return nil
}

// deleteRanges coalesces a list of row indices into contiguous [start,end)
// ranges, with each range offset by the rows removed by the ranges before it
// so that the ranges can be applied as sequential DeleteDimension requests.
func deleteRanges(list []int) [][2]int {
	if len(list) == 0 {
		return nil
	}

	sort.Ints(list)

	spans := [][2]int{}
	start := list[0]
	last := list[0]
	for _, row := range list[1:] {
		if row != last+1 {
			spans = append(spans, [2]int{start, last})
			start = row
		}

		last = row
	}
	spans = append(spans, [2]int{start, last})

	deleted := 0
	ranges := make([][2]int, len(spans))
	for i, span := range spans {
		ranges[i] = [2]int{span[0] - deleted, span[1] - deleted + 1}
		deleted += span[1] - span[0] + 1
	}

	return ranges
}

func symbols(picks []trades.Pick) []string {
	list := make([]string, len(picks))
	for i, pick := range picks {
		list[i] = pick.Symbol
	}

	return list
}

func suffix(v string, n int) string {
	if len(v) <= n {
		return v
	}

	return v[len(v)-n:]
}
