package query

import "finboard/internal/api"

// RetryFunc decides whether a failed fetch is attempted again.
// failureCount is the number of failures before this one.
type RetryFunc func(failureCount int, err error) bool

const defaultRetries = 3

// DefaultRetry retries network and server errors up to three times.
func DefaultRetry(failureCount int, err error) bool {
	return failureCount < defaultRetries && api.Retryable(err)
}

func NoRetry(int, error) bool { return false }

// RetryUnless4xx never retries client errors and otherwise allows up to max
// retries.
func RetryUnless4xx(max int) RetryFunc {
	return func(failureCount int, err error) bool {
		if api.IsClientError(err) {
			return false
		}
		return failureCount < max
	}
}
