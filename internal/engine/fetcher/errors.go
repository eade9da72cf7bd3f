package fetcher

import (
	"fmt"

	"github.com/onionwatch/onionwatch/pkg/failure"
)

// FetchErrorCause classifies why a fetch failed, generalized from the
// teacher's fetcher causes to the four transport categories spec.md §4.6
// names: Timeout, Unreachable (SOCKS layer), ConnectionError, Other.
type FetchErrorCause string

const (
	ErrCauseTimeout         FetchErrorCause = "timeout"
	ErrCauseUnreachable     FetchErrorCause = "unreachable"
	ErrCauseConnectionError FetchErrorCause = "connection_error"
	ErrCauseNonHTML         FetchErrorCause = "non_html_content"
	ErrCauseOther           FetchErrorCause = "other"
)

// FetchError is one failed attempt. Retryable distinguishes transport-layer
// failures (worth another attempt) from terminal ones like non-HTML content.
type FetchError struct {
	Message   string
	Retryable bool
	Cause     FetchErrorCause
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s: %s", e.Cause, e.Message)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}
