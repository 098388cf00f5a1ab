package amazonpay

import (
	"encoding/json"
	"fmt"
)

// HTTPStatusError represents a non-2xx processor response. It carries the
// HTTP status, the processor reason code parsed from the response body,
// and whether the call was eligible for retry.
type HTTPStatusError struct {
	Operation  string
	Status     int
	ReasonCode string
	APIMessage string
}

type errorBody struct {
	ReasonCode string `json:"reasonCode"`
	Message    string `json:"message"`
}

func newHTTPStatusError(operation string, status int, body []byte) *HTTPStatusError {
	e := &HTTPStatusError{Operation: operation, Status: status}
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		e.ReasonCode = parsed.ReasonCode
		e.APIMessage = parsed.Message
	}
	return e
}

// Retryable reports whether the error is eligible for retry (429, 500, 503).
func (e *HTTPStatusError) Retryable() bool {
	switch e.Status {
	case 429, 500, 503:
		return true
	}
	return false
}

// ErrorCodeMessage resolves the reason code against the message table,
// falling back to an HTTP-status description.
func (e *HTTPStatusError) ErrorCodeMessage() string {
	if e.ReasonCode != "" {
		if msg, ok := ReasonMessage(e.ReasonCode); ok {
			return fmt.Sprintf("%s : %s", e.ReasonCode, msg)
		}
	}
	return fmt.Sprintf("HTTP_%d : http status %d", e.Status, e.Status)
}

func (e *HTTPStatusError) Error() string {
	msg := fmt.Sprintf("amazon pay %s: %s", e.Operation, e.ErrorCodeMessage())
	if e.APIMessage != "" {
		msg += fmt.Sprintf(" (api message: %s)", e.APIMessage)
	}
	return msg
}

// TransportError wraps a network-level failure reaching the processor.
type TransportError struct {
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("amazon pay %s: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
