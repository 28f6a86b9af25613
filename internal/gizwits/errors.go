package gizwits

import (
	"errors"
	"fmt"
)

var (
	errEmptyToken     = errors.New("login response carried no token")
	errMissingAttr    = errors.New("response has no attr object")
	errMissingModeKey = errors.New("response attr has no mode")
)

// APIError describes a failed call to the vendor cloud. StatusCode is zero
// when the request never produced an HTTP response.
type APIError struct {
	Op         string
	StatusCode int
	VendorCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("gizwits %s: transport failure: %v", e.Op, e.Err)
	}
	msg := fmt.Sprintf("gizwits %s: status %d", e.Op, e.StatusCode)
	if e.VendorCode != 0 {
		msg += fmt.Sprintf(" (code %d)", e.VendorCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Err }

// Transport reports whether the call failed before any response arrived.
func (e *APIError) Transport() bool { return e.StatusCode == 0 }

// DecodeError is returned for a mode code absent from the read table.
type DecodeError struct {
	Code string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unknown mode code %q", e.Code)
}
