package service

import (
	"context"
	"errors"

	"banking-backoffice-api/internal/model"
	"banking-backoffice-api/internal/notification"
	"banking-backoffice-api/internal/repository"
)

// ServiceError represents a service-level error
type ServiceError struct {
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Notifier receives an event after every committed mutation. Implementations
// must not block; delivery failures never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, event notification.Event)
}

func validationError(err error) error {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		return &ServiceError{
			Code:    model.ErrCodeValidation,
			Message: validationErr.Message,
			Err:     err,
		}
	}
	return err
}

// storeError translates a repository error into a ServiceError
func storeError(err error) error {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return err
	}

	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
		return &ServiceError{Code: model.ErrCodeNotFound, Message: "Account not found", Err: err}
	case errors.Is(err, repository.ErrOperatorNotFound):
		return &ServiceError{Code: model.ErrCodeNotFound, Message: "Operator not found", Err: err}
	case errors.Is(err, repository.ErrInsufficientFunds):
		return &ServiceError{Code: model.ErrCodeInsufficientFunds, Message: "Insufficient funds", Err: err}
	case errors.Is(err, repository.ErrDuplicateAccountNumber):
		return &ServiceError{Code: model.ErrCodeDuplicateAccountNumber, Message: "Account number already exists", Err: err}
	case errors.Is(err, repository.ErrDuplicateEmail):
		return &ServiceError{Code: model.ErrCodeDuplicateEmail, Message: "An operator with this email already exists", Err: err}
	case errors.Is(err, repository.ErrInvalidAmount):
		return &ServiceError{Code: model.ErrCodeInvalidAmount, Message: "Invalid amount", Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}

	return &ServiceError{Code: model.ErrCodeStoreUnavailable, Message: "Record store unavailable", Err: err}
}
