package alpaca

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is an error response from the Alpaca API.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("alpaca: %v (HTTP %v, code %v)", e.Message, e.StatusCode, e.Code)
	}

	return fmt.Sprintf("alpaca: %v (HTTP %v)", e.Message, e.StatusCode)
}

func decodeError(status int, body []byte) error {
	reply := struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}{}

	if err := json.Unmarshal(body, &reply); err != nil || reply.Message == "" {
		reply.Message = strings.TrimSpace(string(body))
	}

	if reply.Message == "" {
		reply.Message = "request failed"
	}

	return &APIError{
		StatusCode: status,
		Code:       reply.Code,
		Message:    reply.Message,
	}
}
