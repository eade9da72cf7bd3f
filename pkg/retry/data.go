package retry

import (
	"time"

	"github.com/onionwatch/onionwatch/pkg/failure"
	"github.com/onionwatch/onionwatch/pkg/timeutil"
)

// Result is what Retry returns: the value on success, the last classified
// error on exhaustion/non-retryable failure, and how many attempts it took.
type Result[T any] struct {
	value    T
	err      failure.ClassifiedError
	attempts int
}

// NewSuccessResult wraps a successful attempt's value and attempt count.
func NewSuccessResult[T any](value T, attempts int) Result[T] {
	return Result[T]{value: value, attempts: attempts}
}

func (r Result[T]) Value() T                      { return r.value }
func (r Result[T]) Err() failure.ClassifiedError  { return r.err }
func (r Result[T]) Attempts() int                 { return r.attempts }
func (r Result[T]) IsSuccess() bool               { return r.err == nil }
func (r Result[T]) IsFailure() bool               { return r.err != nil }

// RetryParam holds the parameters for retry logic.
// These parameters are passed from outside (e.g., config) and should not
// be known by the retry handler internally.
type RetryParam struct {
	BaseDelay    time.Duration
	Jitter       time.Duration
	RandomSeed   int64
	MaxAttempts  int
	BackoffParam timeutil.BackoffParam
}

// NewRetryParam creates a new RetryParam with the given settings.
func NewRetryParam(
	baseDelay time.Duration,
	jitter time.Duration,
	randomSeed int64,
	maxAttempts int,
	backoffParam timeutil.BackoffParam,
) RetryParam {
	return RetryParam{
		BaseDelay:    baseDelay,
		Jitter:       jitter,
		RandomSeed:   randomSeed,
		MaxAttempts:  maxAttempts,
		BackoffParam: backoffParam,
	}
}
