package errors

import "net/http"

// ErrorCode is the machine-readable error kind carried in every error body
type ErrorCode string

const (
	ErrUnauthenticated ErrorCode = "UNAUTHENTICATED"
	ErrForbidden       ErrorCode = "FORBIDDEN"
	ErrNotFound        ErrorCode = "NOT_FOUND"
	ErrBadRequest      ErrorCode = "BAD_REQUEST"
	ErrConflict        ErrorCode = "CONFLICT"
	ErrPayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
	ErrRateLimited     ErrorCode = "RATE_LIMITED"
	ErrInternal        ErrorCode = "INTERNAL_ERROR"
	ErrServiceUnavail  ErrorCode = "SERVICE_UNAVAILABLE"
)

// StatusCodeMap maps ErrorCode to HTTP status code.
// Conflicts ("already a member", "request already pending") surface as 400.
var StatusCodeMap = map[ErrorCode]int{
	ErrUnauthenticated: http.StatusUnauthorized,
	ErrForbidden:       http.StatusForbidden,
	ErrNotFound:        http.StatusNotFound,
	ErrBadRequest:      http.StatusBadRequest,
	ErrConflict:        http.StatusBadRequest,
	ErrPayloadTooLarge: http.StatusRequestEntityTooLarge,
	ErrRateLimited:     http.StatusTooManyRequests,
	ErrInternal:        http.StatusInternalServerError,
	ErrServiceUnavail:  http.StatusServiceUnavailable,
}

// StatusCode returns the HTTP status code for this error code
func (e ErrorCode) StatusCode() int {
	if code, ok := StatusCodeMap[e]; ok {
		return code
	}
	return http.StatusInternalServerError
}
