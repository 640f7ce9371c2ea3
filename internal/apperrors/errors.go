package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrState indicates the operation is not legal for the current state of the resource.
// The caller must correct the request and resubmit; these are never retried automatically.
var ErrState = errors.New("invalid state")

// ErrUnavailable indicates a transient failure of a collaborator (database, cache, gateway).
var ErrUnavailable = errors.New("service unavailable")

// ErrInternal indicates an unexpected failure inside the ledger.
var ErrInternal = errors.New("internal error")

// ErrPaymentNotPosted means the gateway approved a payment the ledger could not post.
// The transaction is kept with its authorization for manual resolution.
var ErrPaymentNotPosted = fmt.Errorf("%w: approved payment was not posted", ErrInternal)

// Validation errors. Nothing is persisted when one of these is returned.
var (
	ErrUnbalancedEntry    = fmt.Errorf("%w: journal entry debits do not equal credits", ErrValidation)
	ErrEmptyEntry         = fmt.Errorf("%w: journal entry must have at least two lines", ErrValidation)
	ErrMalformedLine      = fmt.Errorf("%w: journal line must have exactly one positive side", ErrValidation)
	ErrInvalidAccount     = fmt.Errorf("%w: account does not exist", ErrValidation)
	ErrInactiveAccount    = fmt.Errorf("%w: account is inactive", ErrValidation)
	ErrInsufficientCredit = fmt.Errorf("%w: refund exceeds available credit", ErrValidation)
	ErrInvalidAllocation  = fmt.Errorf("%w: invalid payment allocation", ErrValidation)
	ErrInvalidPeriod      = fmt.Errorf("%w: invalid period code", ErrValidation)
)

// State errors.
var (
	ErrInvalidStateTransition = fmt.Errorf("%w: transition not allowed", ErrState)
	ErrEntryAlreadyReversed   = fmt.Errorf("%w: journal entry already reversed", ErrState)
	ErrSelfApprovalAttempt    = fmt.Errorf("%w: requester cannot approve or reject their own refund", ErrState)
	ErrPaymentInFlight        = fmt.Errorf("%w: a payment with this idempotency key is still being processed", ErrState)
)

// Not found errors.
var (
	ErrAccountNotFound = fmt.Errorf("%w: account", ErrNotFound)
	ErrEntryNotFound   = fmt.Errorf("%w: journal entry", ErrNotFound)
	ErrRefundNotFound  = fmt.Errorf("%w: refund request", ErrNotFound)
	ErrPaymentNotFound = fmt.Errorf("%w: payment transaction", ErrNotFound)
)

// ErrDuplicateAccount is returned when an account number is already registered for the tenant.
var ErrDuplicateAccount = fmt.Errorf("%w: account number", ErrDuplicate)

// AppError carries a status code alongside a message and the underlying cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError. A nil err is replaced by ErrInternal for 5xx codes
// so that errors.Is still classifies the failure.
func NewAppError(code int, message string, err error) *AppError {
	if err == nil && code >= http.StatusInternalServerError {
		err = ErrInternal
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError wraps one of the specific not-found sentinels with an identifier.
func NewNotFoundError(sentinel error, id string) error {
	return fmt.Errorf("%w: %s", sentinel, id)
}

// HTTPStatus maps an error onto the status code a boundary layer should report.
func HTTPStatus(err error) int {
	var appErr *AppError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrState):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &appErr):
		return appErr.Code
	default:
		return http.StatusInternalServerError
	}
}
