package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound      = New(ErrCodeNotFound, "resource not found")
	ErrValidation    = New(ErrCodeValidation, "validation error")
	ErrHTTPClient    = New(ErrCodeHTTPClient, "http client error")
	ErrSystem        = New(ErrCodeSystemError, "system error")
	ErrJournalStatus = New(ErrCodeJournalStatus, "unexpected journal status")
	ErrJournalSubmit = New(ErrCodeJournalSubmit, "journal cannot be submitted")
	ErrExchangeRates = New(ErrCodeExchangeRates, "exchange rates unavailable")
)

const (
	ErrCodeHTTPClient    = "http_client_error"
	ErrCodeSystemError   = "system_error"
	ErrCodeNotFound      = "not_found"
	ErrCodeValidation    = "validation_error"
	ErrCodeJournalStatus = "journal_status_error"
	ErrCodeJournalSubmit = "journal_submit_error"
	ErrCodeExchangeRates = "exchange_rates_client_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func New(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

// JournalError is raised when a journal cannot progress through the billing run.
// It keeps the journal id so operators can follow up on it.
type JournalError struct {
	JournalID string
	msg       string
	kind      *InternalError
}

func (e *JournalError) Error() string {
	return e.msg
}

func (e *JournalError) Is(target error) bool {
	t, ok := target.(*InternalError)
	return ok && t.Code == e.kind.Code
}

// NewJournalStatusError reports a journal found in a status the billing run cannot handle.
func NewJournalStatusError(msg, journalID string) error {
	return &JournalError{JournalID: journalID, msg: msg, kind: ErrJournalStatus}
}

// NewJournalSubmitError reports a journal that never reached the Validated status.
func NewJournalSubmitError(msg, journalID string) error {
	return &JournalError{JournalID: journalID, msg: msg, kind: ErrJournalSubmit}
}

// JournalIDFromErr extracts the journal id carried by a JournalError, if any.
func JournalIDFromErr(err error) (string, bool) {
	var jerr *JournalError
	if errors.As(err, &jerr) {
		return jerr.JournalID, true
	}
	return "", false
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsJournalStatus checks if an error is a journal status error
func IsJournalStatus(err error) bool {
	return errors.Is(err, ErrJournalStatus)
}

// IsJournalSubmit checks if an error is a journal submit error
func IsJournalSubmit(err error) bool {
	return errors.Is(err, ErrJournalSubmit)
}

// IsExchangeRates checks if an error is an exchange rates client error
func IsExchangeRates(err error) bool {
	return errors.Is(err, ErrExchangeRates)
}
