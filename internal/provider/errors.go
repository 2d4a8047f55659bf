package provider

import (
	"errors"
	"strings"
)

// DeliveryError wraps a provider API error with classification metadata.
// The dispatch engine treats every send failure as terminal for the record,
// but operators and logs still want to know whether the recipient address is
// worth a fresh enqueue.
type DeliveryError struct {
	// Provider is the name of the gateway that returned the error.
	Provider string
	// StatusCode is the HTTP status code from the provider API, if any.
	StatusCode int
	// Message is the error description from the provider.
	Message string
	// Permanent indicates the same send will never succeed (bad address,
	// revoked credentials) as opposed to a transient fault.
	Permanent bool
}

func (e *DeliveryError) Error() string {
	return e.Provider + ": " + e.Message
}

// IsPermanent reports whether the error is a permanent delivery failure.
func IsPermanent(err error) bool {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Permanent
	}
	return false
}

// ClassifyHTTPError builds a DeliveryError from a provider API response,
// deciding permanent vs transient from the status code and body.
func ClassifyHTTPError(providerName string, statusCode int, body string) *DeliveryError {
	de := &DeliveryError{
		Provider:   providerName,
		StatusCode: statusCode,
		Message:    body,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		// Not an error.
		return nil

	case statusCode == 400:
		de.Permanent = containsPermanentIndicator(body)

	case statusCode == 401, statusCode == 403, statusCode == 404:
		de.Permanent = true

	case statusCode == 429:
		// Rate limited, always transient.
		de.Permanent = false

	case statusCode >= 500:
		de.Permanent = containsPermanentServerIndicator(body)

	default:
		de.Permanent = statusCode >= 400 && statusCode < 500
	}

	return de
}

// containsPermanentIndicator checks whether a 400 response body points at a
// failure that will not change on retry.
func containsPermanentIndicator(body string) bool {
	lower := strings.ToLower(body)
	for _, pattern := range []string{
		"invalid recipient",
		"invalid email",
		"does not exist",
		"mailbox not found",
		"recipient rejected",
		"invalid address",
		"validation error",
	} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// containsPermanentServerIndicator checks whether a 5xx body indicates a
// configuration problem rather than a server hiccup.
func containsPermanentServerIndicator(body string) bool {
	lower := strings.ToLower(body)
	for _, pattern := range []string{
		"invalid api key",
		"authentication failed",
		"account suspended",
		"account disabled",
		"unauthorized",
	} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
