package commands

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/feltham/sheets-trader/trades"
)

func runCmd() Run {
	return Run{
		command: command{
			credentials: "credentials.json",
			worksheet:   "Alpaca Integration",
		},

		key:         "PKTESTKEY",
		secret:      "secret",
		alpacaURL:   "https://paper-api.alpaca.markets",
		fraction:    0.07,
		minNotional: "1",
		rate:        2.5,

		logRange:     "Log!A1:G",
		logRetention: 30,
	}
}

func TestRunValidate(t *testing.T) {
	cmd := runCmd()

	fraction, minNotional, err := cmd.validate()
	if err != nil {
		t.Fatalf("Unexpected error returned from validate (%v)", err)
	}

	if !fraction.Equal(decimal.RequireFromString("0.07")) {
		t.Errorf("Incorrect fraction\n   expected: %v\n   got:      %v", "0.07", fraction)
	}

	if !minNotional.Equal(decimal.RequireFromString("1")) {
		t.Errorf("Incorrect minimum notional\n   expected: %v\n   got:      %v", "1", minNotional)
	}
}

func TestRunValidateWithMissingKeys(t *testing.T) {
	cmd := runCmd()
	cmd.key = ""

	if _, _, err := cmd.validate(); err == nil {
		t.Errorf("Expected error return for missing API key, got %v", err)
	}

	cmd = runCmd()
	cmd.secret = ""

	if _, _, err := cmd.validate(); err == nil {
		t.Errorf("Expected error return for missing API secret, got %v", err)
	}
}

func TestRunValidateWithInvalidBaseURL(t *testing.T) {
	cmd := runCmd()
	cmd.alpacaURL = "http://paper-api.alpaca.markets"

	if _, _, err := cmd.validate(); err == nil {
		t.Errorf("Expected error return for non-HTTPS base URL, got %v", err)
	}
}

func TestRunValidateWithInvalidFraction(t *testing.T) {
	for _, fraction := range []float64{0.0, -0.1, 1.01} {
		cmd := runCmd()
		cmd.fraction = fraction

		if _, _, err := cmd.validate(); err == nil {
			t.Errorf("Expected error return for fraction %v, got %v", fraction, err)
		}
	}
}

func TestRunValidateWithInvalidMinNotional(t *testing.T) {
	for _, minNotional := range []string{"", "x", "-1"} {
		cmd := runCmd()
		cmd.minNotional = minNotional

		if _, _, err := cmd.validate(); err == nil {
			t.Errorf("Expected error return for min-notional '%v', got %v", minNotional, err)
		}
	}
}

func TestRunValidateWithInvalidLogRange(t *testing.T) {
	cmd := runCmd()
	cmd.logRange = "A1:G"

	if _, _, err := cmd.validate(); err == nil {
		t.Errorf("Expected error return for log range without a worksheet name, got %v", err)
	}

	// ... --no-log skips the log range check
	cmd = runCmd()
	cmd.logRange = "A1:G"
	cmd.nolog = true

	if _, _, err := cmd.validate(); err != nil {
		t.Errorf("Unexpected error returned from validate with --no-log (%v)", err)
	}
}

func TestDeleteRanges(t *testing.T) {
	tests := []struct {
		rows     []int
		expected [][2]int
	}{
		{nil, nil},
		{[]int{}, nil},
		{[]int{3}, [][2]int{{3, 4}}},
		{[]int{1, 2, 3}, [][2]int{{1, 4}}},
		{[]int{1, 5}, [][2]int{{1, 2}, {4, 5}}},
		{[]int{1, 2, 5, 6, 9}, [][2]int{{1, 3}, {3, 5}, {5, 6}}},
		{[]int{9, 1, 2, 6, 5}, [][2]int{{1, 3}, {3, 5}, {5, 6}}},
	}

	for _, test := range tests {
		if ranges := deleteRanges(test.rows); !reflect.DeepEqual(ranges, test.expected) {
			t.Errorf("Incorrect delete ranges for rows %v\n   expected: %v\n   got:      %v", test.rows, test.expected, ranges)
		}
	}
}

func TestSymbols(t *testing.T) {
	expected := []string{"AAPL", "MSFT"}

	picks := []trades.Pick{
		{Row: 2, Symbol: "AAPL"},
		{Row: 3, Symbol: "MSFT"},
	}

	if list := symbols(picks); !reflect.DeepEqual(list, expected) {
		t.Errorf("Incorrect symbol list\n   expected: %v\n   got:      %v", expected, list)
	}
}

func TestSuffix(t *testing.T) {
	tests := []struct {
		v        string
		n        int
		expected string
	}{
		{"PK12345678", 4, "5678"},
		{"PK", 4, "PK"},
		{"", 4, ""},
	}

	for _, test := range tests {
		if s := suffix(test.v, test.n); s != test.expected {
			t.Errorf("Incorrect suffix for '%v'\n   expected: %v\n   got:      %v", test.v, test.expected, s)
		}
	}
}

func TestNormalise(t *testing.T) {
	tests := []struct {
		v        string
		expected string
	}{
		{"Buying Power", "buyingpower"},
		{"  Timestamp ", "timestamp"},
		{"SPENT", "spent"},
	}

	for _, test := range tests {
		if v := normalise(test.v); v != test.expected {
			t.Errorf("Incorrect normalised value for '%v'\n   expected: %v\n   got:      %v", test.v, test.expected, v)
		}
	}
}
