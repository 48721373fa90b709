package budget

import "errors"

var (
	// ErrNotAuthenticated is returned by every operation attempted without a session.
	ErrNotAuthenticated = errors.New("User not logged in")
	// ErrInvalidAmount marks an amount that fails validation.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrSessionChanged marks an operation whose session ended before it completed.
	ErrSessionChanged = errors.New("session changed before the operation completed")
)

// Result is the outcome of a manager operation.
type Result struct {
	Success bool
	Message string
	Err     error
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Success }

func (r Result) Error() string {
	if r.Success {
		return ""
	}
	return r.Message
}

// Unwrap exposes the underlying error so that errors.Is works on a Result
// passed around as an error.
func (r Result) Unwrap() error { return r.Err }

// AsError returns nil on success and the Result itself otherwise.
func (r Result) AsError() error {
	if r.Success {
		return nil
	}
	return r
}

func succeeded() Result {
	return Result{Success: true}
}

// failed builds a failure using the error text, or fallback when the error has none.
func failed(err error, fallback string) Result {
	msg := fallback
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Result{Message: msg, Err: err}
}
