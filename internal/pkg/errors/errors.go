package errors

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/pratik-mahalle/darkwatch/internal/collection"
	"github.com/pratik-mahalle/darkwatch/internal/task"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

// AppError is an error prepared for display to the operator
type AppError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	ExitCode int    `json:"-"`
	// Silent errors render nothing beyond the message: no partial output.
	Silent   bool  `json:"-"`
	Internal error `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Common error codes
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeRemote       = "REMOTE_ERROR"
	ErrCodeCanceled     = "CANCELED"
	ErrCodeTaskFailed   = "TASK_FAILED"
)

// Exit codes of the CLI
const (
	ExitGeneric    = 1
	ExitValidation = 2
	ExitAuth       = 3
	ExitPermission = 4
	ExitNotFound   = 5
	ExitCanceled   = 130
)

// Present maps an error from the client, collection or task layers to what the
// operator sees: auth errors point at login, permission errors show only
// "access denied", validation errors show the backend detail verbatim.
func Present(err error) *AppError {
	if err == nil {
		return nil
	}

	var app *AppError
	if stderrors.As(err, &app) {
		return app
	}

	switch {
	case stderrors.Is(err, collection.ErrCanceled), stderrors.Is(err, task.ErrCanceled), stderrors.Is(err, context.Canceled):
		return &AppError{Code: ErrCodeCanceled, Message: "canceled", ExitCode: ExitCanceled}
	case stderrors.Is(err, client.ErrAuth):
		return &AppError{
			Code:     ErrCodeUnauthorized,
			Message:  "not authenticated. Run 'darkwatch auth login' first",
			ExitCode: ExitAuth,
			Internal: err,
		}
	case stderrors.Is(err, client.ErrPermission):
		return &AppError{Code: ErrCodeForbidden, Message: "access denied", ExitCode: ExitPermission, Silent: true}
	case stderrors.Is(err, client.ErrValidation):
		return &AppError{Code: ErrCodeValidation, Message: validationMessage(err), ExitCode: ExitValidation}
	case stderrors.Is(err, client.ErrNotFound):
		return &AppError{
			Code:     ErrCodeNotFound,
			Message:  "not found; it may already have been deleted. Refresh the list and try again",
			ExitCode: ExitNotFound,
		}
	case stderrors.Is(err, task.ErrFailed):
		return &AppError{Code: ErrCodeTaskFailed, Message: err.Error(), ExitCode: ExitGeneric}
	case stderrors.Is(err, client.ErrRemote):
		return &AppError{
			Code:     ErrCodeRemote,
			Message:  "the platform API could not be reached or failed; try again",
			ExitCode: ExitGeneric,
			Internal: err,
		}
	default:
		return &AppError{Code: ErrCodeInternal, Message: err.Error(), ExitCode: ExitGeneric}
	}
}

func validationMessage(err error) string {
	var apiErr *client.APIError
	if stderrors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
