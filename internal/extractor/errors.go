package extractor

import (
	"errors"
	"fmt"
	"time"
)

// MalformedResponseError means the collaborator's reply could not be parsed
// as a single JSON object. The next attempt may produce valid output, so it
// is retryable.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("extractor: malformed completion response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ExhaustedError wraps the last retryable error after the attempt budget is
// spent. It is terminal.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("extractor: exhausted %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// TimeoutError reports that the per-extraction deadline elapsed. Kept as its
// own kind so callers can tell a slow collaborator from a flaky one.
type TimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("extractor: extraction timed out after %s: %v", e.Timeout, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsExhausted reports whether err is (or wraps) an ExhaustedError.
func IsExhausted(err error) bool {
	var ee *ExhaustedError
	return errors.As(err, &ee)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
