// Package api provides the HTTP gateway to the QuotaChat backend.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for gateway operations, one per failure category.
// Use errors.Is() to check for these in calling code. Every error returned
// by the client wraps exactly one of them and carries a human-readable
// message suitable for direct display.
var (
	// ErrAuth indicates a failed login or registration (bad credentials,
	// conflicting username, malformed request).
	ErrAuth = errors.New("authentication failed")

	// ErrChat indicates a rejected or failed chat turn (insufficient quota,
	// malformed input, transport failure).
	ErrChat = errors.New("chat request failed")

	// ErrHistory indicates the chat history could not be fetched. Callers
	// treat this as "no history available" rather than a fatal condition.
	ErrHistory = errors.New("history unavailable")

	// ErrBilling indicates a rejected or failed recharge.
	ErrBilling = errors.New("recharge failed")
)

// errorBody is the backend's structured error payload.
type errorBody struct {
	Detail string `json:"detail"`
}

// wrapStatus normalizes a non-2xx response into the given sentinel category.
// The backend's {detail} message is used verbatim when present, otherwise the
// generic fallback for the operation.
func wrapStatus(kind error, body []byte, fallback string) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Detail != "" {
		return fmt.Errorf("%w: %s", kind, eb.Detail)
	}
	return fmt.Errorf("%w: %s", kind, fallback)
}

// wrapTransport normalizes a network-level failure into the given category.
func wrapTransport(kind error, err error) error {
	return fmt.Errorf("%w: %v", kind, err)
}

// UserMessage returns the displayable part of a gateway error: the text
// after the sentinel prefix. For non-gateway errors it returns err.Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, kind := range []error{ErrAuth, ErrChat, ErrHistory, ErrBilling} {
		if errors.Is(err, kind) {
			msg := err.Error()
			prefix := kind.Error() + ": "
			if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
				return msg[len(prefix):]
			}
			return msg
		}
	}
	return err.Error()
}
