package alpaca

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the subset of the Alpaca trading account record used by the
// trading job. Alpaca serializes monetary amounts as JSON strings.
type Account struct {
	AccountNumber  string          `json:"account_number"`
	Status         string          `json:"status"`
	Currency       string          `json:"currency"`
	Cash           decimal.Decimal `json:"cash"`
	BuyingPower    decimal.Decimal `json:"buying_power"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
}

// OrderRequest is a request to create a new order.
type OrderRequest struct {
	Symbol        string          `json:"symbol"`
	Notional      decimal.Decimal `json:"notional"`
	Side          string          `json:"side"`
	Type          string          `json:"type"`
	TimeInForce   string          `json:"time_in_force"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
}

// MarketBuy constructs a notional-denominated market BUY order request, good
// for the day.
func MarketBuy(symbol string, notional decimal.Decimal, clientOrderID string) OrderRequest {
	return OrderRequest{
		Symbol:        symbol,
		Notional:      notional,
		Side:          "buy",
		Type:          "market",
		TimeInForce:   "day",
		ClientOrderID: clientOrderID,
	}
}

// Order is the subset of the Alpaca order record used by the trading job.
type Order struct {
	ID            string          `json:"id"`
	ClientOrderID string          `json:"client_order_id"`
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"`
	Type          string          `json:"type"`
	TimeInForce   string          `json:"time_in_force"`
	Notional      decimal.Decimal `json:"notional"`
	Status        string          `json:"status"`
	SubmittedAt   time.Time       `json:"submitted_at"`
}

// Clock is the Alpaca market clock.
type Clock struct {
	Timestamp time.Time `json:"timestamp"`
	IsOpen    bool      `json:"is_open"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}
