package asora

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParams indicates parameters that cannot describe a mesh or traversal.
	ErrInvalidParams = errors.New("asora: invalid parameters")

	// ErrDimensionMismatch indicates inputs whose sizes disagree with the context or each other.
	ErrDimensionMismatch = errors.New("asora: dimension mismatch")

	// ErrInvalidSource indicates a source outside the mesh or with negative flux.
	ErrInvalidSource = errors.New("asora: invalid source")

	// ErrClosed indicates use of a context after Close.
	ErrClosed = errors.New("asora: context closed")

	// ErrNoResults indicates results were requested before a successful call.
	ErrNoResults = errors.New("asora: no results available")
)

// Launch failure codes.
const (
	CodeInvalid  = "invalid"
	CodeCanceled = "canceled"
	CodeKernel   = "kernel"
	CodePanic    = "panic"
)

// LaunchError is a fatal failure of DoAllSources. It is never retried.
type LaunchError struct {
	Op    string
	Batch int
	Code  string
	Err   error
}

func (e *LaunchError) Error() string {
	if e.Batch < 0 {
		return fmt.Sprintf("asora: %s failed [%s]: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("asora: %s failed in batch %d [%s]: %v", e.Op, e.Batch, e.Code, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
