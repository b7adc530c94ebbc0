package ledger

import (
	"errors"
	"fmt"
)

// fallbackMessage is shown when a store failure carries no structured body.
const fallbackMessage = "Unknown error"

// ErrorBody is the structured payload a failed store call may carry.
type ErrorBody struct {
	Message string `json:"message"`
}

// StoreError reports a failed query or upsert against the ledger endpoint.
type StoreError struct {
	Op     string // "query" or "upsert"
	Status int    // HTTP status, 0 when the request never completed
	Body   *ErrorBody
	Err    error // transport-level cause, if any
}

func (e *StoreError) Error() string {
	if e.Body != nil && e.Body.Message != "" {
		return fmt.Sprintf("ledger: %s failed: %s", e.Op, e.Body.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("ledger: %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ledger: %s failed: status=%d", e.Op, e.Status)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Message returns the user-facing detail for this failure: the structured
// body message when present, the literal fallback otherwise.
func (e *StoreError) Message() string {
	if e.Body != nil && e.Body.Message != "" {
		return e.Body.Message
	}
	return fallbackMessage
}

// ExtractMessage pulls a best-effort detail string from any error. Store
// errors yield their structured message; anything else yields the fallback.
func ExtractMessage(err error) string {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Message()
	}
	return fallbackMessage
}
