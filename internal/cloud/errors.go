package cloud

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// Kind is the category of a failed API call. Every error returned by Client
// carries exactly one Kind.
type Kind int

const (
	// KindAPI is any non-success HTTP or application status other than an
	// authentication failure, plus malformed responses.
	KindAPI Kind = iota
	// KindAuth means the credentials or session token were rejected
	// (HTTP 401 or application status 99/103).
	KindAuth
	// KindTransport is a network-level failure: DNS, refused connection,
	// timeout, cancellation.
	KindTransport
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindAPI:
		return "API Error"
	case KindAuth:
		return "Authentication Error"
	case KindTransport:
		return "Transport Error"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// TransportSubtype narrows down a KindTransport error
type TransportSubtype int

const (
	TransportGeneral TransportSubtype = iota
	TransportTimeout
	TransportConnectionRefused
	TransportDNS
	TransportHostUnreachable
	TransportNetworkUnreachable
	TransportCanceled
)

// Application status codes the vendor uses for an invalid session.
const (
	StatusSessionInvalid = 99
	StatusSessionExpired = 103
)

// DefaultAPIErrorMessage is used when a failed envelope carries no errorMessage.
const DefaultAPIErrorMessage = "Unknown API error"

// Error is the single error type returned by Client.
type Error struct {
	Kind       Kind             // Category of error
	Message    string           // Vendor message when available, otherwise a description
	StatusCode int              // HTTP status code (0 when no response was received)
	APIStatus  int              // Envelope status (0 when not applicable)
	Err        error            // Underlying error (if any)
	Transport  TransportSubtype // More specific transport failure
	Retryable  bool             // Whether repeating the call may succeed
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// NewAuthError creates an authentication error
func NewAuthError(message string, statusCode, apiStatus int) *Error {
	return &Error{
		Kind:       KindAuth,
		Message:    message,
		StatusCode: statusCode,
		APIStatus:  apiStatus,
	}
}

// NewHTTPError creates an API error for a non-success HTTP status
func NewHTTPError(statusCode int) *Error {
	return &Error{
		Kind:       KindAPI,
		Message:    fmt.Sprintf("Request failed: %d", statusCode),
		StatusCode: statusCode,
		Retryable:  statusCode >= 500 || statusCode == http.StatusTooManyRequests,
	}
}

// NewAPIError creates an API error for a non-zero envelope status
func NewAPIError(message string, statusCode, apiStatus int) *Error {
	return &Error{
		Kind:       KindAPI,
		Message:    message,
		StatusCode: statusCode,
		APIStatus:  apiStatus,
	}
}

// NewParseError creates an API error for a response that could not be decoded
func NewParseError(message string, statusCode int, err error) *Error {
	return &Error{
		Kind:       KindAPI,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// NewTransportError creates a transport error with automatic classification
func NewTransportError(message string, err error) *Error {
	classified := ClassifyTransportError(err)
	classified.Message = message
	return classified
}

// ClassifyTransportError analyzes a network failure and returns a transport
// error with its subtype filled in.
func ClassifyTransportError(err error) *Error {
	e := &Error{
		Kind:      KindTransport,
		Message:   "Network error occurred",
		Err:       err,
		Transport: TransportGeneral,
		Retryable: true,
	}
	if err == nil {
		return e
	}

	switch {
	case errors.Is(err, context.Canceled):
		e.Message = "Request canceled"
		e.Transport = TransportCanceled
		e.Retryable = false
	case errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) || isTimeout(err):
		e.Message = "Request timed out"
		e.Transport = TransportTimeout
	case isDNSError(err):
		var dnsErr *net.DNSError
		errors.As(err, &dnsErr)
		e.Message = fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name)
		e.Transport = TransportDNS
		e.Retryable = dnsErr.IsTemporary
	case errors.Is(err, syscall.ECONNREFUSED):
		e.Message = "Connection refused"
		e.Transport = TransportConnectionRefused
	case errors.Is(err, syscall.EHOSTUNREACH):
		e.Message = "Host unreachable"
		e.Transport = TransportHostUnreachable
	case errors.Is(err, syscall.ENETUNREACH):
		e.Message = "Network unreachable"
		e.Transport = TransportNetworkUnreachable
	}

	return e
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return false
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// Classify returns the Kind of err. Errors that did not come from this
// package are reported as KindAPI so callers never see an unclassified failure.
func Classify(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindAPI
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindAuth
}

// IsAPIError checks if an error is a generic API error
func IsAPIError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindAPI
}

// IsTransportError checks if an error is a transport error
func IsTransportError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTransport
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}

// GetTroubleshootingHint returns user-facing advice for an error
func GetTroubleshootingHint(err error) []string {
	var e *Error
	if !errors.As(err, &e) {
		return []string{"An unexpected error occurred. Please try again."}
	}

	switch e.Kind {
	case KindAuth:
		return []string{
			"The session token or credentials were rejected.",
			"Run 'sabiana login' to sign in again",
			"Check the email and password used in the Sabiana app",
		}

	case KindTransport:
		switch e.Transport {
		case TransportTimeout:
			return []string{
				"The Sabiana cloud did not respond in time.",
				"Check your internet connection",
				"Try again with a longer --timeout",
			}
		case TransportDNS:
			return []string{
				"Could not resolve the Sabiana cloud hostname.",
				"Check your DNS settings",
				"Verify the --base-url value if you changed it",
			}
		case TransportConnectionRefused:
			return []string{
				"The server refused the connection.",
				"Verify the --base-url value and port",
			}
		case TransportCanceled:
			return []string{"The request was canceled before it completed."}
		default:
			return []string{
				"Network communication failed.",
				"Check your internet connection",
				"Try again in a few moments",
			}
		}

	default:
		if e.StatusCode >= 500 {
			return []string{
				fmt.Sprintf("The Sabiana cloud returned HTTP %d.", e.StatusCode),
				"This is a server-side problem, try again later",
			}
		}
		if e.APIStatus != 0 {
			return []string{
				fmt.Sprintf("The Sabiana cloud rejected the request (status %d).", e.APIStatus),
				"Check the device id with 'sabiana devices'",
			}
		}
		return []string{"The Sabiana cloud returned an unexpected response."}
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	switch e.Kind {
	case KindAuth:
		return "Authentication failed - please log in again"
	case KindTransport:
		switch e.Transport {
		case TransportTimeout:
			return "Sabiana cloud not responding (timeout)"
		case TransportDNS:
			return "Cannot resolve Sabiana cloud hostname"
		case TransportCanceled:
			return "Request canceled"
		default:
			return "Network error - check connection"
		}
	default:
		if e.StatusCode >= http.StatusBadRequest {
			return fmt.Sprintf("Sabiana cloud error (HTTP %d)", e.StatusCode)
		}
		return strings.TrimSpace(e.Message)
	}
}
