package trades

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Result is the recorded outcome for a single watchlist pick.
type Result struct {
	Symbol  string
	Outcome string
}

// Submitted records a submitted order as the notional amount, formatted with
// two decimal places.
func Submitted(symbol string, notional decimal.Decimal) Result {
	return Result{
		Symbol:  symbol,
		Outcome: notional.StringFixed(2),
	}
}

// Skipped records a pick skipped because the notional amount fell below the
// minimum trade size.
func Skipped(symbol string, notional decimal.Decimal) Result {
	return Result{
		Symbol:  symbol,
		Outcome: fmt.Sprintf("SKIPPED (notional $%v)", notional.StringFixed(2)),
	}
}

// Failed records a per-ticker error.
func Failed(symbol string, err error) Result {
	return Result{
		Symbol:  symbol,
		Outcome: fmt.Sprintf("ERROR: %v", err),
	}
}

// Simulated records a pick evaluated during a dry run, without an order.
func Simulated(symbol string, notional decimal.Decimal) Result {
	return Result{
		Symbol:  symbol,
		Outcome: fmt.Sprintf("DRY RUN (notional $%v)", notional.StringFixed(2)),
	}
}

// AsRows converts a result list to sheet rows for the results range.
func AsRows(results []Result) [][]interface{} {
	rows := make([][]interface{}, len(results))
	for i, r := range results {
		rows[i] = []interface{}{r.Symbol, r.Outcome}
	}

	return rows
}

// Notional computes the order size for the current buying power - the buy
// fraction of the buying power, truncated (not rounded) to cents.
func Notional(buyingPower, fraction decimal.Decimal) decimal.Decimal {
	return buyingPower.Mul(fraction).Truncate(2)
}
