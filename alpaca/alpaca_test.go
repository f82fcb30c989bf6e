package alpaca

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/account", r.URL.Path)
		assert.Equal(t, "PKTESTKEY", r.Header.Get("APCA-API-KEY-ID"))
		assert.Equal(t, "secret", r.Header.Get("APCA-API-SECRET-KEY"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"account_number": "PA3ABC123",
			"status": "ACTIVE",
			"currency": "USD",
			"cash": "1234.56",
			"buying_power": "2469.12",
			"portfolio_value": "3000.00"
		}`))
	}))
	defer server.Close()

	client := NewClient("PKTESTKEY", "secret", server.URL, WithRateLimit(1000))

	account, err := client.GetAccount(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "PA3ABC123", account.AccountNumber)
	assert.Equal(t, "ACTIVE", account.Status)
	assert.True(t, account.BuyingPower.Equal(decimal.RequireFromString("2469.12")))
}

func TestSubmitOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body := map[string]any{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		// monetary amounts go over the wire as strings
		assert.Equal(t, "AAPL", body["symbol"])

		notional, ok := body["notional"].(string)
		require.True(t, ok, "expected notional as a JSON string, got %T", body["notional"])
		assert.True(t, decimal.RequireFromString(notional).Equal(decimal.RequireFromString("172.90")))

		assert.Equal(t, "buy", body["side"])
		assert.Equal(t, "market", body["type"])
		assert.Equal(t, "day", body["time_in_force"])
		assert.Equal(t, "d6bbf067-9c1f-4fbe-b6d0-2a67e8563cf3", body["client_order_id"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "0f43d12c-8f22-4e21-95a5-5d11ba9e8c72",
			"client_order_id": "d6bbf067-9c1f-4fbe-b6d0-2a67e8563cf3",
			"symbol": "AAPL",
			"side": "buy",
			"type": "market",
			"time_in_force": "day",
			"notional": "172.9",
			"status": "accepted",
			"submitted_at": "2023-03-01T14:30:00Z"
		}`))
	}))
	defer server.Close()

	client := NewClient("PKTESTKEY", "secret", server.URL, WithRateLimit(1000))

	rq := MarketBuy("AAPL", decimal.RequireFromString("172.90"), "d6bbf067-9c1f-4fbe-b6d0-2a67e8563cf3")

	order, err := client.SubmitOrder(context.Background(), rq)
	require.NoError(t, err)

	assert.Equal(t, "0f43d12c-8f22-4e21-95a5-5d11ba9e8c72", order.ID)
	assert.Equal(t, "accepted", order.Status)
	assert.True(t, order.Notional.Equal(decimal.RequireFromString("172.90")))
}

func TestGetClock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/clock", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"timestamp": "2023-03-01T14:30:00Z",
			"is_open": true,
			"next_open": "2023-03-02T14:30:00Z",
			"next_close": "2023-03-01T21:00:00Z"
		}`))
	}))
	defer server.Close()

	client := NewClient("PKTESTKEY", "secret", server.URL, WithRateLimit(1000))

	clock, err := client.GetClock(context.Background())
	require.NoError(t, err)
	assert.True(t, clock.IsOpen)
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code": 40310000, "message": "insufficient buying power"}`))
	}))
	defer server.Close()

	client := NewClient("PKTESTKEY", "secret", server.URL, WithRateLimit(1000))

	_, err := client.GetAccount(context.Background())
	require.Error(t, err)

	apierr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T", err)
	assert.Equal(t, http.StatusForbidden, apierr.StatusCode)
	assert.Equal(t, 40310000, apierr.Code)
	assert.Equal(t, "insufficient buying power", apierr.Message)
}

func TestRetryOnServerError(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"account_number": "PA3ABC123", "status": "ACTIVE", "buying_power": "100"}`))
	}))
	defer server.Close()

	client := NewClient("PKTESTKEY", "secret", server.URL, WithRateLimit(1000), WithMaxRetries(3))

	account, err := client.GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "ACTIVE", account.Status)
}

func TestNoBackoffAfterFinalAttempt(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient("PKTESTKEY", "secret", server.URL, WithRateLimit(1000), WithMaxRetries(1))

	start := time.Now()

	_, err := client.GetAccount(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, attempts)

	// one 250ms backoff between the two attempts, none after the last
	assert.Less(t, time.Since(start), 450*time.Millisecond)
}

func TestNoRetryOnClientError(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code": 42210000, "message": "invalid symbol"}`))
	}))
	defer server.Close()

	client := NewClient("PKTESTKEY", "secret", server.URL, WithRateLimit(1000), WithMaxRetries(3))

	_, err := client.SubmitOrder(context.Background(), MarketBuy("NOT A SYMBOL", decimal.New(1, 0), ""))
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
