package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultRateLimit  = 2.5
	DefaultMaxRetries = 3
	DefaultTimeout    = 30 * time.Second
)

// Client is a rate limited Alpaca Markets REST client. Requests are paced by a
// client-side token bucket and retried with exponential backoff on HTTP 429 and
// 5xx responses.
type Client struct {
	baseURL    string
	key        string
	secret     string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

type Option func(*Client)

// WithRateLimit sets the request pacing in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMaxRetries sets the number of retries for 429/5xx responses.
func WithMaxRetries(retries int) Option {
	return func(c *Client) {
		c.maxRetries = retries
	}
}

// WithHTTPClient replaces the underlying HTTP client (used by the tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func NewClient(key, secret, baseURL string, options ...Option) *Client {
	c := Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		key:        key,
		secret:     secret,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		maxRetries: DefaultMaxRetries,
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// GetAccount retrieves the trading account associated with the API key.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	account := Account{}
	if err := c.get(ctx, "/v2/account", &account); err != nil {
		return nil, err
	}

	return &account, nil
}

// GetClock retrieves the market clock.
func (c *Client) GetClock(ctx context.Context) (*Clock, error) {
	clock := Clock{}
	if err := c.get(ctx, "/v2/clock", &clock); err != nil {
		return nil, err
	}

	return &clock, nil
}

// SubmitOrder submits an order and returns the created order record.
func (c *Client) SubmitOrder(ctx context.Context, rq OrderRequest) (*Order, error) {
	order := Order{}
	if err := c.post(ctx, "/v2/orders", rq, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

func (c *Client) get(ctx context.Context, path string, reply any) error {
	return c.do(ctx, http.MethodGet, path, nil, reply)
}

func (c *Client) post(ctx context.Context, path string, body any, reply any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error encoding request (%v)", err)
	}

	return c.do(ctx, http.MethodPost, path, encoded, reply)
}

func (c *Client) do(ctx context.Context, method string, path string, body []byte, reply any) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		err := c.doOnce(ctx, method, path, body, reply)
		if err == nil {
			return nil
		}

		lastErr = err

		if !retryable(err) {
			return err
		}

		if attempt == c.maxRetries {
			break
		}

		backoff := time.Duration(1<<uint(attempt)) * 250 * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("max retries exceeded (%w)", lastErr)
}

func (c *Client) doOnce(ctx context.Context, method string, path string, body []byte, reply any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	rq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}

	rq.Header.Set("APCA-API-KEY-ID", c.key)
	rq.Header.Set("APCA-API-SECRET-KEY", c.secret)
	rq.Header.Set("Accept", "application/json")
	if body != nil {
		rq.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(rq)
	if err != nil {
		return err
	}

	defer response.Body.Close()

	b, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		return decodeError(response.StatusCode, b)
	}

	if reply != nil {
		if err := json.Unmarshal(b, reply); err != nil {
			return fmt.Errorf("error decoding response (%v)", err)
		}
	}

	return nil
}

func retryable(err error) bool {
	var apierr *APIError
	if errors.As(err, &apierr) {
		return apierr.StatusCode == http.StatusTooManyRequests || apierr.StatusCode >= 500
	}

	return false
}
