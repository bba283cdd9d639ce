package element

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument matches every *ArgumentError via errors.Is
var ErrInvalidArgument = errors.New("invalid argument")

// MissingNameMessage is the exact message for a descriptor without a name
const MissingNameMessage = "Element creation requires a 'name' property."

// ArgumentError reports an unusable argument to an operation
type ArgumentError struct {
	Op      string // Operation that rejected the argument
	Message string
	Err     error // Underlying cause, if any
}

func (e *ArgumentError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// Is reports ErrInvalidArgument as a match
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func invalid(op, format string, args ...interface{}) *ArgumentError {
	return &ArgumentError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// ScriptError reports one re-inserted script that failed to evaluate
type ScriptError struct {
	Index  int    // Position among the scripts of the markup, in document order
	ExecID string // Execution ID from the script runtime, empty if it never started
	Cause  error
}

func (e *ScriptError) Error() string {
	if e.ExecID != "" {
		return fmt.Sprintf("script %d (%s) failed: %v", e.Index, e.ExecID, e.Cause)
	}
	return fmt.Sprintf("script %d failed: %v", e.Index, e.Cause)
}

func (e *ScriptError) Unwrap() error { return e.Cause }
