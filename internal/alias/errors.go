package alias

import (
	"errors"
	"fmt"
)

// AnalysisError represents a failure to derive alias information.
type AnalysisError struct {
	// Code identifies the error category.
	Code AnalysisErrorCode

	// Message is a human-readable description.
	Message string

	// Node is the offending node's kind.
	Node string

	// Source is the node's source location, when recorded.
	Source string
}

// AnalysisErrorCode categorizes analysis errors.
type AnalysisErrorCode string

const (
	// ErrCodeUnknownOperator indicates a node with no schema and no
	// special-case analyzer, yet with mutable outputs.
	ErrCodeUnknownOperator AnalysisErrorCode = "UNKNOWN_OPERATOR"

	// ErrCodeTypeMismatch indicates an actual argument type that does not
	// satisfy the schema's formal type.
	ErrCodeTypeMismatch AnalysisErrorCode = "TYPE_MISMATCH"
)

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %s (node=%s, at %s)", e.Code, e.Message, e.Node, e.Source)
	}
	return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.Node)
}

// IsUnknownOperator reports whether err is an UNKNOWN_OPERATOR.
// Uses errors.As to handle wrapped errors.
func IsUnknownOperator(err error) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Code == ErrCodeUnknownOperator
}

// IsTypeMismatch reports whether err is a TYPE_MISMATCH.
func IsTypeMismatch(err error) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Code == ErrCodeTypeMismatch
}
