package tui

import (
	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/models"
)

// MsgBanner signals that the banner/title should be displayed.
type MsgBanner struct{}

// MsgSessionFound signals that a stored session was found.
type MsgSessionFound struct{ Name string }

// MsgSessionNotFound signals that no session exists (login required).
type MsgSessionNotFound struct{}

// MsgOTPSent signals that a one-time code was sent to the phone.
type MsgOTPSent struct{ Phone string }

// MsgLoginOK signals a successful OTP verification.
type MsgLoginOK struct{ Name string }

// MsgLoadingProfile signals that the profile fetch is in progress.
type MsgLoadingProfile struct{}

// MsgProfileLoaded carries the freshly fetched profile.
type MsgProfileLoaded struct{ User models.User }

// MsgLoadingBooks signals that the nearby-books fetch is in progress.
type MsgLoadingBooks struct{}

// MsgBooksListed carries the nearby listings.
type MsgBooksListed struct{ Books []models.Book }

// MsgSessionExpired signals that the refresh cycle failed terminally
// and the user must re-authenticate.
type MsgSessionExpired struct{}

// MsgLoggedOut signals that logout completed locally.
type MsgLoggedOut struct{}

// MsgAPICallFailed signals a non-fatal API failure.
type MsgAPICallFailed struct{ Err error }

// MsgDone signals successful completion of the flow.
type MsgDone struct{}

// MsgFatal signals a fatal error that should terminate the flow.
type MsgFatal struct{ Err error }
