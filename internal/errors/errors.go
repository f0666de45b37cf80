package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/natours/api/internal/constants"
	"gorm.io/gorm"
)

// Error codes. Each maps to exactly one HTTP status.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeAuthorization  = "AUTHORIZATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeDuplicateKey   = "DUPLICATE_KEY"
	CodeInternal       = "INTERNAL_ERROR"
	// CodeServer is a 500 whose message is meant for the client.
	CodeServer = "SERVER_ERROR"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on code and message so predefined errors survive wrapping.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// Operational reports whether the message is safe to show to clients.
func (e *DomainError) Operational() bool {
	return e.Code != CodeInternal
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("No %s found with that ID", resource))
}

func NewInternalError(message string, err error) *DomainError {
	return &DomainError{Code: CodeInternal, Message: message, Err: err}
}

// Predefined domain errors
var (
	// Authentication errors
	ErrNotLoggedIn        = NewDomainError(CodeAuthentication, constants.MsgNotLoggedIn)
	ErrInvalidToken       = NewDomainError(CodeAuthentication, constants.MsgInvalidToken)
	ErrTokenExpired       = NewDomainError(CodeAuthentication, constants.MsgTokenExpired)
	ErrUserGone           = NewDomainError(CodeAuthentication, constants.MsgUserGone)
	ErrPasswordChanged    = NewDomainError(CodeAuthentication, constants.MsgPasswordChanged)
	ErrInvalidCredentials = NewDomainError(CodeAuthentication, "Incorrect email or password")
	ErrIncorrectPassword  = NewDomainError(CodeAuthentication, "Your current password is wrong.")

	// Authorization errors
	ErrForbidden = NewDomainError(CodeAuthorization, constants.MsgForbidden)

	// Validation errors
	ErrMissingCredentials = NewDomainError(CodeValidation, "Please provide email and password!")
	ErrPasswordMismatch   = NewDomainError(CodeValidation, "Passwords are not the same!")
	ErrPasswordRoute      = NewDomainError(CodeValidation, "This route is not for password updates. Please use /updateMyPassword.")
	ErrResetTokenInvalid  = NewDomainError(CodeValidation, "Token is invalid or has expired")
	ErrInvalidInput       = NewDomainError(CodeValidation, "Invalid input data.")
	ErrInvalidReference   = NewDomainError(CodeValidation, "Invalid input data. A referenced record does not exist.")

	// Not found errors
	ErrNoUserWithEmail = NewDomainError(CodeNotFound, "There is no user with email address.")

	// Duplicate key
	ErrDuplicateKey = NewDomainError(CodeDuplicateKey, "Duplicate field value. Please use another value!")

	// System errors
	ErrInternal        = NewDomainError(CodeInternal, constants.MsgSomethingWentWrong)
	ErrEmailSend       = NewDomainError(CodeServer, "There was an error sending the email. Try again later!")
	ErrRouteNotDefined = NewDomainError(CodeServer, "This route is not defined! Please use /signup instead")
)

// FromDatabase translates GORM errors into the taxonomy. resource names the
// record type for not-found messages.
func FromDatabase(err error, resource string) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return WrapError(NewNotFoundError(resource), err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return WrapError(ErrDuplicateKey, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return WrapError(ErrInvalidReference, err)
	default:
		return WrapError(ErrInternal, err)
	}
}

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// HasCode reports whether err is a domain error with the given code.
func HasCode(err error, code string) bool {
	if d := GetDomainError(err); d != nil {
		return d.Code == code
	}
	return false
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	case CodeValidation, CodeDuplicateKey:
		return http.StatusBadRequest
	case CodeAuthentication:
		return http.StatusUnauthorized
	case CodeAuthorization:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}

// IsOperational reports whether err carries a client-safe message.
func IsOperational(err error) bool {
	if d := GetDomainError(err); d != nil {
		return d.Operational()
	}
	return false
}
