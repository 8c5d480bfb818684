package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies recoverable query failures.
type ErrorKind string

// Query error kinds.
const (
	KindNotFound         ErrorKind = "not_found"
	KindAmbiguous        ErrorKind = "ambiguous_input"
	KindInvalidParameter ErrorKind = "invalid_parameter"
	KindDataNotFound     ErrorKind = "data_not_found"
	KindUnavailable      ErrorKind = "unavailable"
)

// QueryError is a recoverable failure that callers render as an empty
// state rather than a fault.
type QueryError struct {
	Kind    ErrorKind
	Field   string // offending parameter, for KindInvalidParameter
	Message string
}

func (e *QueryError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NotFound returns a KindNotFound error.
func NotFound(format string, args ...any) *QueryError {
	return &QueryError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// DataNotFound returns a KindDataNotFound error.
func DataNotFound(format string, args ...any) *QueryError {
	return &QueryError{Kind: KindDataNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidParameter returns a KindInvalidParameter error naming field.
func InvalidParameter(field, format string, args ...any) *QueryError {
	return &QueryError{Kind: KindInvalidParameter, Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first QueryError in err's chain, or
// KindUnavailable for any other non-nil error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return KindUnavailable
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var qe *QueryError
	if errors.As(err, &qe) {
		if qe.Field != "" {
			return fmt.Sprintf("invalid %s: %s", qe.Field, qe.Message)
		}
		return qe.Message
	}
	if err == nil {
		return ""
	}
	return "groundwater data is temporarily unavailable"
}
