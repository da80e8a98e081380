package usecase

import "errors"

// Error codes surfaced to the HTTP layer.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidPhone       = "INVALID_PHONE"
	CodeTenantNotFound     = "TENANT_NOT_FOUND"
	CodePersonNotFound     = "PERSON_NOT_FOUND"
	CodeFollowUpNotFound   = "FOLLOWUP_NOT_FOUND"
	CodeFollowUpNotPending = "FOLLOWUP_NOT_PENDING"
	CodeInvalidTransition  = "INVALID_STAGE_TRANSITION"
	CodeEmailExists        = "EMAIL_ALREADY_EXISTS"

	CodeDatabase = "DATABASE_ERROR"
	CodeProvider = "PROVIDER_ERROR"
)

// DomainError is a refusal caused by the caller's input or the current state
// of the data. It never means something is broken.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError wraps storage and provider failures.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error { return e.Err }

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func domainErr(code, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func dbErr(msg string, err error) error {
	return &TechnicalError{Code: CodeDatabase, Message: msg, Err: err}
}
