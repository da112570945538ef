package errors

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// IsSqllabError reports whether err is (or wraps) an *Error
func IsSqllabError(err error) bool {
	var e *Error
	return stderrors.As(err, &e)
}

// GetContext returns the context map of the first *Error in the chain
func GetContext(err error) map[string]string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Context
	}
	return nil
}

// GetCode returns the code of the first *Error in the chain, or ""
func GetCode(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code.String()
	}
	return ""
}

// HasCode reports whether any *Error in the chain carries code
func HasCode(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code.Equals(code) {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// FormatError renders err for logs, context keys sorted
func FormatError(err error) string {
	var e *Error
	if !stderrors.As(err, &e) {
		return err.Error()
	}

	parts := []string{
		fmt.Sprintf("Code: %s", e.Code),
		fmt.Sprintf("Message: %s", e.Message),
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts = append(parts, "Context:")
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("  %s: %s", k, e.Context[k]))
		}
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause: %v", e.Cause))
	}

	if len(e.Stack) > 0 {
		parts = append(parts, fmt.Sprintf("At: %s:%d", filepath.Base(e.Stack[0].File), e.Stack[0].Line))
	}

	return strings.Join(parts, "\n")
}

// AsError converts any error to *Error. Existing *Error values are returned
// as-is, anything else is wrapped under CommonInternal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if stderrors.As(err, &e) {
		return e
	}

	return New(CommonInternal, err.Error(), err)
}

// As is errors.As from the standard library, re-exported so callers need a
// single errors import
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Is is errors.Is from the standard library
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
