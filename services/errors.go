package services

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Виды ошибок сервисного слоя. Хендлеры выбирают HTTP-статус по виду через errors.Is.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrNotFound         = errors.New("requested resource not found")
	ErrConflict         = errors.New("request conflicts with current state")
	ErrPersistence      = errors.New("storage operation failed")
	ErrUnavailable      = errors.New("service unavailable")
)

// Конкретные ошибки, каждая относится к одному из видов выше.
var (
	ErrTournamentNotFound      = kindError(ErrNotFound, "tournament not found")
	ErrPlayerNotFound          = kindError(ErrNotFound, "player not found")
	ErrBookingNotFound         = kindError(ErrNotFound, "booking not found")
	ErrAlreadyRegistered       = kindError(ErrConflict, "player is already registered for this tournament")
	ErrSlotTaken               = kindError(ErrConflict, "this time slot is already booked")
	ErrBookingAlreadyCancelled = kindError(ErrConflict, "booking is already cancelled")
	ErrInvalidTournamentStatus = kindError(ErrValidationFailed, "status must be one of: upcoming, ongoing, completed")
	ErrInvalidBannerType       = kindError(ErrValidationFailed, "banner must be an image")
	ErrBannerStorageDisabled   = kindError(ErrUnavailable, "banner uploads are not configured")
	ErrOrderIDExhausted        = kindError(ErrPersistence, "could not allocate a unique order id")
)

type sentinelError struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &sentinelError{kind: kind, msg: msg}
}

func (e *sentinelError) Error() string { return e.msg }

func (e *sentinelError) Unwrap() error { return e.kind }

// ValidationError carries per-field messages for malformed input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		for field, msg := range e.Fields {
			return field + ": " + msg
		}
	}
	return ErrValidationFailed.Error()
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// newValidationError converts ozzo-validation output. Internal rule errors are
// returned unchanged since they are programming errors, not bad input.
func newValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make(map[string]string, len(fieldErrs))
	for field, fieldErr := range fieldErrs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}
	return &ValidationError{Fields: fields}
}

// PersistenceError hides storage details behind a short operation name.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "failed to " + e.Op + ": " + e.Err.Error()
}

// Message is safe to show to API clients.
func (e *PersistenceError) Message() string {
	return "failed to " + e.Op
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

func persistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
