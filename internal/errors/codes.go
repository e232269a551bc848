package errors

// ErrorCode represents a machine-readable error identifier for frontend error handling.
type ErrorCode string

// Client input faults (request validation). Detail for these is safe to
// expose to the caller.
const (
	ErrCodeMissingField     ErrorCode = "missing_field"
	ErrCodeInvalidField     ErrorCode = "invalid_field"
	ErrCodeInvalidCartItem  ErrorCode = "invalid_cart_item"
	ErrCodeEmptyCart        ErrorCode = "empty_cart"
	ErrCodeMethodNotAllowed ErrorCode = "method_not_allowed"
)

// Resource/state faults.
const (
	ErrCodeProductNotFound ErrorCode = "product_not_found"
	ErrCodeSessionNotFound ErrorCode = "session_not_found"
)

// External service faults (Stripe). Surfaced to clients with a generic
// message only; full detail belongs in operator logs.
const (
	ErrCodeStripeError  ErrorCode = "stripe_error"
	ErrCodeNetworkError ErrorCode = "network_error"
)

// Internal/system faults.
const (
	ErrCodeInternalError ErrorCode = "internal_error"
	ErrCodeConfigError   ErrorCode = "config_error"
	ErrCodeRateLimited   ErrorCode = "rate_limit_exceeded"
)

// IsRetryable returns whether an error code represents a retryable error.
// Retryable errors are typically transient network/service issues, not validation failures.
func (e ErrorCode) IsRetryable() bool {
	switch e {
	case ErrCodeStripeError,
		ErrCodeNetworkError,
		ErrCodeRateLimited:
		return true
	default:
		return false
	}
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	// 400 Bad Request - client validation errors
	case ErrCodeMissingField,
		ErrCodeInvalidField,
		ErrCodeInvalidCartItem,
		ErrCodeEmptyCart:
		return 400

	// 404 Not Found - resource not found
	case ErrCodeProductNotFound,
		ErrCodeSessionNotFound:
		return 404

	// 405 Method Not Allowed
	case ErrCodeMethodNotAllowed:
		return 405

	// 429 Too Many Requests
	case ErrCodeRateLimited:
		return 429

	// 502 Bad Gateway - external service errors
	case ErrCodeStripeError,
		ErrCodeNetworkError:
		return 502

	// 500 Internal Server Error - system/internal errors
	default:
		return 500
	}
}
