package errors

import (
	"errors"
	"net/http"
)

// MapToHTTPStatus converts a domain error into the HTTP status code returned
// by the request layer. Unknown errors map to 500.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnauthorizedIdentity), errors.Is(err, ErrNotAGroupMember):
		return http.StatusForbidden
	case errors.Is(err, ErrUnknownRecipient), errors.Is(err, ErrUnknownGroup):
		return http.StatusNotFound
	case errors.Is(err, ErrMalformedFrame):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
