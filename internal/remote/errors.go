package remote

import "fmt"

// APIError is the base error for remote-API failures. Callers that only care
// whether the remote path failed at all can match on this type and fall back
// to local processing.
type APIError struct {
	Op     string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d - %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Detail)
}

// TimeoutError indicates the remote API did not answer in time.
type TimeoutError struct{ APIError }

// ConnectionError indicates a transport-level failure.
type ConnectionError struct{ APIError }

// ProcessingError indicates the remote API accepted the request but reported
// that processing itself failed.
type ProcessingError struct{ APIError }

// Unwrap exposes the embedded APIError so matching on *APIError also catches
// the refinements, and wrapOp can stamp the operation onto them.
func (e *TimeoutError) Unwrap() error    { return &e.APIError }
func (e *ConnectionError) Unwrap() error { return &e.APIError }
func (e *ProcessingError) Unwrap() error { return &e.APIError }

func timeoutErr(op, detail string) error {
	return &TimeoutError{APIError{Op: op, Detail: detail}}
}

func connectionErr(op, detail string) error {
	return &ConnectionError{APIError{Op: op, Detail: detail}}
}

func processingErr(op, detail string) error {
	return &ProcessingError{APIError{Op: op, Detail: detail}}
}
