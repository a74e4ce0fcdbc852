// Package domain defines core types, interfaces, and errors for chart-to-table reconstruction.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UnsupportedMarkError indicates a mark type the encoding mapper does not
// reconstruct. The pipeline still runs, passing rows through unfolded.
type UnsupportedMarkError struct {
	Mark Mark
}

func (e *UnsupportedMarkError) Error() string {
	return fmt.Sprintf("mark %q is not supported, passing rows through", string(e.Mark))
}

// MissingAxisMappingError indicates that the encoding channel a mark needs to
// fold its data is absent.
type MissingAxisMappingError struct {
	Mark    Mark
	Message string
}

func (e *MissingAxisMappingError) Error() string {
	return fmt.Sprintf("%s mark: %s", e.Mark, e.Message)
}

// EngineLoadError indicates the chart engine rejected or could not load a specification.
type EngineLoadError struct {
	Ref   SpecRef
	Cause error
}

func (e *EngineLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Ref, e.Cause)
}

func (e *EngineLoadError) Unwrap() error { return e.Cause }

// DataNeverReadyError indicates the engine did not materialize a dataset in time.
type DataNeverReadyError struct {
	Dataset string
	Waited  string
}

func (e *DataNeverReadyError) Error() string {
	return fmt.Sprintf("dataset %q was not materialized after %s", e.Dataset, e.Waited)
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrMissingAxis creates a MissingAxisMappingError with a formatted message.
func ErrMissingAxis(mark Mark, format string, args ...interface{}) *MissingAxisMappingError {
	return &MissingAxisMappingError{Mark: mark, Message: fmt.Sprintf(format, args...)}
}
