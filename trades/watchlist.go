package trades

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"google.golang.org/api/sheets/v4"
)

var symbol = regexp.MustCompile(`^[A-Z][A-Z0-9.]{0,9}$`)

// Pick is a watchlist entry - a ticker symbol and the worksheet row it was
// staged on.
type Pick struct {
	Row    int
	Symbol string
}

// MakeWatchlist extracts the staged ticker symbols from a single column
// retrieved from the watchlist worksheet. The first row is the column header
// and is skipped, blank rows are skipped and symbols are uppercased. Symbols
// are not otherwise validated - an invalid symbol surfaces as a per-ticker
// order error.
func MakeWatchlist(data *sheets.ValueRange) []Pick {
	picks := []Pick{}

	for i, row := range data.Values {
		if i == 0 || len(row) == 0 {
			continue
		}

		v, ok := row[0].(string)
		if !ok {
			continue
		}

		if t := strings.TrimSpace(v); t != "" {
			picks = append(picks, Pick{
				Row:    i + 1,
				Symbol: strings.ToUpper(t),
			})
		}
	}

	return picks
}

// ReadSymbols reads a watchlist from a local file - one ticker symbol per
// line, with '#' comment lines and blank lines ignored. Symbols are uppercased
// and validated (letters, digits and '.', starting with a letter, at most 10
// characters).
func ReadSymbols(f io.Reader) ([]string, error) {
	symbols := []string{}
	line := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line++

		v := strings.TrimSpace(scanner.Text())
		if v == "" || strings.HasPrefix(v, "#") {
			continue
		}

		v = strings.ToUpper(v)
		if !symbol.MatchString(v) {
			return nil, fmt.Errorf("invalid ticker symbol '%s' at line %v", v, line)
		}

		symbols = append(symbols, v)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return symbols, nil
}
