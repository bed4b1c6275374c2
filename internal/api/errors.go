package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionExpired is delivered to every caller waiting on a refresh
// cycle that ends in failure: the refresh endpoint rejected the refresh
// token, the refresh call itself failed, or no refresh token was stored.
// It is terminal for the session; the application is expected to clear
// authenticated state and route to re-authentication. Check with
// errors.Is so wrapped causes stay inspectable.
var ErrSessionExpired = errors.New("session expired")

// Error is a non-2xx response from the API, propagated unchanged to the
// caller. The dispatcher never interprets or retries these; only the
// 401-refresh-retry path is handled internally, and only once per
// request.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Path       string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s: status %d: %s", e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api %s: status %d", e.Path, e.StatusCode)
}

// IsStatus reports whether err is an *Error with the given HTTP status.
func IsStatus(err error, statusCode int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == statusCode
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}
