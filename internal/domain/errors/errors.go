package errors

import (
	"fmt"
	"net/http"

	"storefront/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-facing message
	Details() string   // Optional detail
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

func (e *BaseError) Message() string {
	return e.message
}

func (e *BaseError) Details() string {
	return e.details
}

// Is matches on error code so that WithDetails copies still satisfy errors.Is against the sentinel.
func (e *BaseError) Is(target error) bool {
	other, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return e.errorCode == other.errorCode
}

// WithDetails returns a copy carrying details.
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Validation (400)
var (
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	ErrWeakPassword = NewBaseError(
		http.StatusBadRequest,
		"WEAK_PASSWORD",
		"Password does not meet the strength policy",
		"",
	)

	ErrPasswordMismatch = NewBaseError(
		http.StatusBadRequest,
		"PASSWORD_MISMATCH",
		"New password and confirmation do not match",
		"",
	)

	ErrIncorrectPassword = NewBaseError(
		http.StatusBadRequest,
		"INVALID_PASSWORD",
		"Current password is incorrect",
		"",
	)

	ErrNoPasswordSet = NewBaseError(
		http.StatusBadRequest,
		"NO_PASSWORD_SET",
		"This account has no email/password login method",
		"",
	)

	ErrInvalidOrExpiredToken = NewBaseError(
		http.StatusBadRequest,
		"INVALID_OR_EXPIRED_TOKEN",
		"The token is invalid or has expired",
		"",
	)

	ErrSessionHandleRequired = NewBaseError(
		http.StatusBadRequest,
		"SESSION_HANDLE_REQUIRED",
		"Session handle is required",
		"",
	)

	ErrCurrentSessionRevoke = NewBaseError(
		http.StatusBadRequest,
		"CURRENT_SESSION_REVOKE_FORBIDDEN",
		"Cannot revoke the current session, use logout instead",
		"",
	)

	ErrInvalidAdminType = NewBaseError(
		http.StatusBadRequest,
		"INVALID_ADMIN_TYPE",
		"adminType must be admin or subAdmin",
		"",
	)
)

// Conflict (409)
var (
	ErrUserAlreadyExists = NewBaseError(
		http.StatusConflict,
		"EMAIL_ALREADY_EXISTS",
		"An account with this email already exists",
		"",
	)

	ErrStoreNameTaken = NewBaseError(
		http.StatusConflict,
		"STORE_NAME_TAKEN",
		"Store name is already in use",
		"",
	)

	ErrVendorAlreadyApproved = NewBaseError(
		http.StatusConflict,
		"VENDOR_ALREADY_APPROVED",
		"Vendor is already approved",
		"",
	)

	ErrVendorAlreadyRejected = NewBaseError(
		http.StatusConflict,
		"VENDOR_ALREADY_REJECTED",
		"Vendor is already rejected",
		"",
	)

	ErrInvalidVendorTransition = NewBaseError(
		http.StatusConflict,
		"INVALID_VENDOR_TRANSITION",
		"Vendor status does not allow this transition",
		"",
	)

	ErrAlreadyVerified = NewBaseError(
		http.StatusConflict,
		"ALREADY_VERIFIED",
		"Email is already verified",
		"",
	)
)

// Unauthorized (401)
var (
	ErrUnauthorized = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHORISED",
		"Missing or invalid session",
		"",
	)

	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"WRONG_CREDENTIALS",
		"Incorrect email or password",
		"",
	)

	ErrOAuthTokenInvalid = NewBaseError(
		http.StatusUnauthorized,
		"OAUTH_TOKEN_INVALID",
		"Invalid ID token",
		"",
	)
)

// Forbidden (403)
var (
	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"Access denied",
		"",
	)

	ErrAccountDeactivated = NewBaseError(
		http.StatusForbidden,
		"ACCOUNT_DEACTIVATED",
		"Account is not active",
		"",
	)

	ErrAccountLocked = NewBaseError(
		http.StatusForbidden,
		"ACCOUNT_LOCKED",
		"Account is temporarily locked after repeated failed sign-ins",
		"",
	)
)

// Not found (404)
var (
	ErrUserNotFound = NewBaseError(
		http.StatusNotFound,
		"USER_NOT_FOUND",
		"User not found",
		"",
	)

	ErrVendorNotFound = NewBaseError(
		http.StatusNotFound,
		"VENDOR_NOT_FOUND",
		"Vendor not found",
		"",
	)

	ErrRoleNotFound = NewBaseError(
		http.StatusNotFound,
		"ROLE_NOT_FOUND",
		"Role not found",
		"",
	)

	ErrAddressNotFound = NewBaseError(
		http.StatusNotFound,
		"ADDRESS_NOT_FOUND",
		"Address not found",
		"",
	)
)

// Internal (500)
var (
	ErrLogout = NewBaseError(
		http.StatusInternalServerError,
		"LOGOUT_ERROR",
		"Failed to log out",
		"",
	)

	ErrLogoutAll = NewBaseError(
		http.StatusInternalServerError,
		"LOGOUT_ALL_ERROR",
		"Failed to log out from all devices",
		"",
	)

	ErrSessionFetch = NewBaseError(
		http.StatusInternalServerError,
		"SESSION_FETCH_ERROR",
		"Failed to fetch sessions",
		"",
	)

	ErrRevokeSession = NewBaseError(
		http.StatusInternalServerError,
		"REVOKE_SESSION_ERROR",
		"Failed to revoke session",
		"",
	)

	ErrIdentityProvider = NewBaseError(
		http.StatusInternalServerError,
		"IDENTITY_PROVIDER_ERROR",
		"Identity provider request failed",
		"",
	)

	ErrTransactionFailed = NewBaseError(
		http.StatusInternalServerError,
		"TRANSACTION_FAILED",
		"Database transaction failed",
		"",
	)

	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

func (e *DatabaseExecuteError) Message() string {
	return "Database operation failed"
}

func (e *DatabaseExecuteError) Details() string {
	return e.details
}

// ReconciliationErrorCode is the error code operators search for when running the reconciliation sweep.
const ReconciliationErrorCode = "LOCAL_RECONCILIATION_FAILED"

// ReconciliationError marks a divergence between the identity provider and the local store:
// the external identity exists (or is expected to) but the local record could not be written or found.
type ReconciliationError struct {
	ExternalID string
	Email      string
	Operation  string
	Err        error
}

// NewReconciliationError builds a ReconciliationError for operation.
func NewReconciliationError(operation, externalID, email string, err error) *ReconciliationError {
	return &ReconciliationError{
		ExternalID: externalID,
		Email:      email,
		Operation:  operation,
		Err:        err,
	}
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("local reconciliation failed during %s (external_id=%s email=%s): %v",
		e.Operation, e.ExternalID, e.Email, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

func (e *ReconciliationError) HTTPCode() int {
	return http.StatusInternalServerError
}

func (e *ReconciliationError) ErrorCode() string {
	return ReconciliationErrorCode
}

func (e *ReconciliationError) Message() string {
	return "Account was created but could not be recorded locally"
}

func (e *ReconciliationError) Details() string {
	return e.Operation
}

// AsAppError extracts the first AppError in err's chain.
func AsAppError(err error) (AppError, bool) {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}

	return nil, false
}
