package store

import (
	"fmt"

	"github.com/onionwatch/onionwatch/pkg/failure"
)

type StoreErrorCause string

const (
	ErrCauseOpenFailed   StoreErrorCause = "open failed"
	ErrCauseMigration    StoreErrorCause = "migration failed"
	ErrCauseWriteFailed  StoreErrorCause = "write failed"
	ErrCauseReadFailed   StoreErrorCause = "read failed"
	ErrCauseInvalidInput StoreErrorCause = "invalid input"
)

// StoreError implements failure.ClassifiedError, mirroring the teacher's
// FetchError/FileError shape of {Message, Retryable, Cause}.
type StoreError struct {
	Message   string
	Retryable bool
	Cause     StoreErrorCause
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %s: %s", e.Cause, e.Message)
}

func (e *StoreError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
