package ir

import (
	"errors"
	"fmt"
)

// InternalError is an internal-consistency failure: a defect in how a caller
// used the IR or scope contracts, never a property of the compiled program.
//
// Internal errors abort the compilation unit that raised them. They are
// raised with Fatalf and turned into an ordinary error only at the unit
// boundary by Recover; nothing in between catches or retries them.
type InternalError struct {
	// Code identifies the violated contract.
	Code InternalErrorCode

	// Message is a human-readable description.
	Message string
}

// InternalErrorCode categorizes internal-consistency failures.
type InternalErrorCode string

const (
	// ErrCodeScopeMismatch indicates a pop of the wrong scope frame kind.
	ErrCodeScopeMismatch InternalErrorCode = "SCOPE_MISMATCH"

	// ErrCodeScopeUnderflow indicates a pop on an empty scope stack.
	ErrCodeScopeUnderflow InternalErrorCode = "SCOPE_UNDERFLOW"

	// ErrCodeUnboundName indicates a name resolved with no enclosing binding.
	ErrCodeUnboundName InternalErrorCode = "UNBOUND_NAME"

	// ErrCodeCaptureMismatch indicates a tracking frame saw a different outer
	// variable for a name it had already captured.
	ErrCodeCaptureMismatch InternalErrorCode = "CAPTURE_MISMATCH"

	// ErrCodeEnvRegistered indicates a closure environment registered twice.
	ErrCodeEnvRegistered InternalErrorCode = "ENV_REGISTERED"

	// ErrCodeUnknownEnv indicates a lookup of an unregistered environment.
	ErrCodeUnknownEnv InternalErrorCode = "UNKNOWN_ENV"

	// ErrCodeBlockFinished indicates an op appended after a terminator.
	ErrCodeBlockFinished InternalErrorCode = "BLOCK_FINISHED"

	// ErrCodeLayout indicates an insertion relative to an unlinked entity.
	ErrCodeLayout InternalErrorCode = "LAYOUT"

	// ErrCodeNotConstant indicates a constant read of a variable value.
	ErrCodeNotConstant InternalErrorCode = "NOT_CONSTANT"

	// ErrCodeConstantWrite indicates an op defining a constant value.
	ErrCodeConstantWrite InternalErrorCode = "CONSTANT_WRITE"

	// ErrCodeMoveCycle indicates a cycle of copies, impossible in SSA form.
	ErrCodeMoveCycle InternalErrorCode = "MOVE_CYCLE"

	// ErrCodeNoSource indicates the source op of the synthetic entry call
	// was requested.
	ErrCodeNoSource InternalErrorCode = "NO_SOURCE"

	// ErrCodeDuplicateFunction indicates two functions lowered to one ident.
	ErrCodeDuplicateFunction InternalErrorCode = "DUPLICATE_FUNCTION"
)

// Error implements the error interface.
func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error %s: %s", e.Code, e.Message)
}

// NewInternalError builds an internal-consistency failure without raising it,
// for code that reports failures as values before they reach a Fatalf.
func NewInternalError(code InternalErrorCode, format string, args ...any) *InternalError {
	return &InternalError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Fatalf raises an internal-consistency failure. It never returns.
func Fatalf(code InternalErrorCode, format string, args ...any) {
	panic(NewInternalError(code, format, args...))
}

// Raise raises err, which must come from NewInternalError. It never returns.
func Raise(err *InternalError) {
	panic(err)
}

// Recover converts an internal-consistency failure raised in the current
// goroutine into an error stored in *errp. It must be deferred directly:
//
//	func compileUnit() (err error) {
//		defer ir.Recover(&err)
//		...
//	}
//
// Panics that are not InternalErrors are re-raised.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if ie, ok := r.(*InternalError); ok {
		*errp = ie
		return
	}
	panic(r)
}

// IsInternalError returns true if err is an internal-consistency failure.
// Uses errors.As to handle wrapped errors.
func IsInternalError(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

// InternalErrorCodeOf returns the code of an internal-consistency failure, or
// "" when err is not one.
func InternalErrorCodeOf(err error) InternalErrorCode {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}
