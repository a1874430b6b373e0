// Package resilience provides error classification and bounded retry for
// provider upstream calls.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// FailureClass labels the broad category of a provider failure for reporting.
type FailureClass string

const (
	FailureUpstream  FailureClass = "upstream_error"
	FailureMalformed FailureClass = "malformed_payload"
	FailureRateLimit FailureClass = "rate_limited"
	FailureNetwork   FailureClass = "network"
)

// ProviderError wraps an upstream failure with its classification so the
// coordinator can report it without inspecting provider internals.
type ProviderError struct {
	Class      FailureClass
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	return string(e.Class) + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError classifies and wraps an upstream error.
func NewProviderError(class FailureClass, statusCode int, err error) *ProviderError {
	return &ProviderError{Class: class, StatusCode: statusCode, Err: err}
}

// IsRateLimit reports whether the error chain contains a rate-limit rejection.
func IsRateLimit(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Class == FailureRateLimit
}

// IsTransient returns true if the error (or any error in its chain) is safe
// to retry: rate limits, server-side upstream errors, and network-level
// failures. Malformed payloads are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		switch pe.Class {
		case FailureRateLimit, FailureNetwork:
			return true
		case FailureUpstream:
			return IsTransientHTTPStatus(pe.StatusCode)
		default:
			return false
		}
	}

	// Network-level transient errors.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}
