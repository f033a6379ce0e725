package apperror

import "errors"

// Sentinel errors for the request and job paths. Services wrap these with
// fmt.Errorf("%w: ...") and the HTTP boundary translates them to status
// codes; internal detail never reaches clients.
var (
	ErrValidation = errors.New("invalid input")
	ErrAuth       = errors.New("authentication required")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrNotReady   = errors.New("not ready")
	ErrIntegrity  = errors.New("integrity violation")
	ErrInternal   = errors.New("internal error")
)
