package shared

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// ErrorKind classifies failures crossing a component boundary
type ErrorKind string

const (
	KindAuthFailure         ErrorKind = "auth_failure"
	KindDeviceNotFound      ErrorKind = "device_not_found"
	KindVendorRejected      ErrorKind = "vendor_rejected"
	KindValidationFailure   ErrorKind = "validation_failure"
	KindPersistenceFailure  ErrorKind = "persistence_failure"
	KindNotificationFailure ErrorKind = "notification_failure"
	KindNetwork             ErrorKind = "network"
	KindConfiguration       ErrorKind = "configuration"
	KindUnknown             ErrorKind = "unknown"
)

// ServiceError is the typed error returned by services. Message must never
// carry credentials or raw vendor bodies.
type ServiceError struct {
	Kind       ErrorKind
	Op         string
	Message    string
	StatusCode int // upstream HTTP status, 0 when none
	Retryable  bool
	Cause      error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("[%s] %s: %s", e.Kind, e.Op, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewError creates a service error
func NewError(kind ErrorKind, op, message string, cause error) *ServiceError {
	return &ServiceError{
		Kind:      kind,
		Op:        op,
		Message:   message,
		Cause:     cause,
		Retryable: kind == KindNetwork,
	}
}

// WithStatus records the upstream HTTP status
func (e *ServiceError) WithStatus(status int) *ServiceError {
	e.StatusCode = status
	return e
}

// KindOf returns the kind of the first ServiceError in err's chain
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to the status returned to HTTP callers
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidationFailure:
		return http.StatusBadRequest
	case KindDeviceNotFound:
		return http.StatusNotFound
	case KindAuthFailure, KindVendorRejected, KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// LogError logs err with its kind and operation
func LogError(err error, fields logrus.Fields) {
	entry := logrus.WithFields(fields).WithField("error_kind", KindOf(err))
	var se *ServiceError
	if errors.As(err, &se) {
		entry = entry.WithFields(logrus.Fields{
			"operation":   se.Op,
			"status_code": se.StatusCode,
			"retryable":   se.Retryable,
		})
	}
	entry.WithError(err).Error("Operation failed")
}
