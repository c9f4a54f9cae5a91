package client

import (
	"fmt"
)

// stable fallback codes used when the server gives no error text
const (
	ErrorCodeAuthFailed    = "auth_failed"
	ErrorCodeRequestFailed = "request_failed"
	ErrorCodeUploadFailed  = "upload_failed"
)

// AuthError is the credential exchange failing: no host credential at all,
// or the server rejecting the identity exchange.
type AuthError struct {
	Message string
}

func (self *AuthError) Error() string {
	return fmt.Sprintf("auth: %s", self.Message)
}

// RequestError is the single translation of an http failure on a json call.
// No other component inspects status codes.
type RequestError struct {
	Status  int
	Message string
	cause   error
}

func (self *RequestError) Error() string {
	return fmt.Sprintf("request: %s", self.Message)
}

func (self *RequestError) Unwrap() error {
	return self.cause
}

// UploadError covers the multipart call: network failure, non-2xx, or a
// response body that does not parse as json.
type UploadError struct {
	Message string
}

func (self *UploadError) Error() string {
	return fmt.Sprintf("upload: %s", self.Message)
}

// ValidationError is a client detected precondition failure, raised before
// any network call is attempted.
type ValidationError struct {
	Message string
}

func (self *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", self.Message)
}

// errorMessage pulls the human readable message out of any of the typed
// errors so callers can show it directly.
func errorMessage(err error, fallback string) string {
	switch e := err.(type) {
	case *AuthError:
		return e.Message
	case *RequestError:
		return e.Message
	case *UploadError:
		return e.Message
	case *ValidationError:
		return e.Message
	}
	if err != nil {
		return err.Error()
	}
	return fallback
}
