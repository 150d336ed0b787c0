package core

import (
	"errors"
	"fmt"
)

// ErrInvalidID is returned when a work item id is not a positive integer.
var ErrInvalidID = errors.New("work item id must be a positive integer")

// ConfigurationError reports a missing or invalid setting. It is always
// returned before any network call is made.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("configuration: %s is required", e.Field)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// AuthenticationError reports that the remote service rejected the credential.
type AuthenticationError struct {
	StatusCode int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed (status %d): check the personal access token", e.StatusCode)
}

// NotFoundError reports an unknown or inaccessible work item.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("work item #%d not found or you don't have access to it", e.ID)
}

// TransportError covers every other failure talking to the remote service:
// unexpected status codes, malformed bodies and network errors.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }
