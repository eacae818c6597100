package ir

import (
	"errors"
	"fmt"
)

// GraphError represents a violated representation invariant or a rejected
// mutation. All errors are final: nothing is recovered locally.
type GraphError struct {
	// Code identifies the error category.
	Code GraphErrorCode

	// Message is a human-readable description.
	Message string

	// GraphID identifies the graph, when known.
	GraphID string

	// Node describes the offending node (kind plus display outputs), when known.
	Node string
}

// GraphErrorCode categorizes graph errors.
type GraphErrorCode string

const (
	// ErrCodeInvariantViolation indicates a lint failure, a use/def
	// inconsistency, or an operation on a destroyed entity.
	ErrCodeInvariantViolation GraphErrorCode = "INVARIANT_VIOLATION"
)

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvariantViolation reports whether err is an INVARIANT_VIOLATION.
// Uses errors.As to handle wrapped errors.
func IsInvariantViolation(err error) bool {
	var ge *GraphError
	return errors.As(err, &ge) && ge.Code == ErrCodeInvariantViolation
}

func (g *Graph) invariantf(format string, args ...any) *GraphError {
	return &GraphError{
		Code:    ErrCodeInvariantViolation,
		Message: fmt.Sprintf(format, args...),
		GraphID: g.ID(),
	}
}

func (n *Node) invariantf(format string, args ...any) *GraphError {
	err := n.graph.invariantf(format, args...)
	err.Node = string(n.kind)
	return err
}
