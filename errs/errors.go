// Package errs defines the error values shared by every bitrec package.
//
// Callers classify failures with errors.Is against the sentinels below:
//
//   - ErrDomain and its refinements: a value outside an operation's declared input range.
//   - ErrCapacity / ErrEndOfStream: a fixed backing store is full, or a read ran past the
//     declared size. A zero-width read is never reported as ErrEndOfStream.
//   - ErrIO: a failure of an underlying file or stream, always carried by *IOError.
//   - ErrState: an operation invoked outside its valid pass or phase, carried by *StateError.
package errs

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrDomain            = errors.New("value outside code domain")
	ErrWidthRange        = errors.New("bit width must be between 0 and 64")
	ErrInvalidParameter  = errors.New("invalid code parameter")
	ErrInvalidDefinition = errors.New("invalid record definition")
	ErrIncompleteColumn  = errors.New("incomplete column builder")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrRecordShape       = errors.New("record does not match definition")
	ErrInvalidPlan       = errors.New("invalid coding plan")
)

// Capacity and end-of-stream errors.
var (
	ErrCapacity    = errors.New("bit capacity exceeded")
	ErrEndOfStream = errors.New("end of bit stream")
)

// Seek capability errors.
var (
	ErrBackwardSeek = errors.New("backward seek not supported")
	ErrSeekRange    = errors.New("seek position out of range")
)

// I/O, state and format errors.
var (
	ErrIO               = errors.New("i/o failure")
	ErrState            = errors.New("invalid state")
	ErrStaleCursor      = errors.New("bit array modified after cursor creation")
	ErrInvalidMagic     = errors.New("invalid magic number")
	ErrInvalidVersion   = errors.New("unsupported format version")
	ErrInvalidHeader    = errors.New("invalid header size")
	ErrStatsMismatch    = errors.New("stats file does not match plan")
	ErrDuplicateColumn  = errors.New("duplicate column name")
	ErrIncompatibleSize = errors.New("bit arrays differ in size")
	ErrDuplicateValue   = errors.New("value already tracked")
)

// DomainError reports a value rejected by an operation with a bounded input domain.
type DomainError struct {
	Op     string
	Value  any
	Reason string
}

func (e *DomainError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: value %v outside domain", e.Op, e.Value)
	}

	return fmt.Sprintf("%s: value %v outside domain: %s", e.Op, e.Value, e.Reason)
}

func (e *DomainError) Unwrap() error { return ErrDomain }

// Domain builds a *DomainError.
func Domain(op string, value any, reason string) error {
	return &DomainError{Op: op, Value: value, Reason: reason}
}

// IOError wraps a failure from a backing file or stream.
//
// Both ErrIO and the underlying cause can be matched with errors.Is.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

// IO wraps err as an *IOError. A nil err yields nil.
func IO(op, path string, err error) error {
	if err == nil {
		return nil
	}

	return &IOError{Op: op, Path: path, Err: err}
}

// StateError reports an operation called in the wrong state of a pass or phase machine.
type StateError struct {
	Op    string
	State fmt.Stringer
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: not allowed in state %s", e.Op, e.State)
}

func (e *StateError) Unwrap() error { return ErrState }

// State builds a *StateError.
func State(op string, state fmt.Stringer) error {
	return &StateError{Op: op, State: state}
}
