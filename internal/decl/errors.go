package decl

import (
	"errors"
	"fmt"
)

// Error is the structured error type shared by the declaration, resolution,
// expression, rule, and session layers.
//
// Every failure in this layer is synchronous and raised at the call site
// that caused it: registration time for declaration conflicts, build time
// for expression and rule errors, run time for engine errors. Nothing is
// retried automatically; retry policy belongs to the caller.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description. For ErrCodeEngineRuntime it
	// carries the engine-side panic message verbatim.
	Message string

	// Ref names the callable or sort involved, when there is one.
	Ref string

	// Expected and Actual carry resolved type names for type mismatches.
	Expected string
	Actual   string
}

// ErrorCode categorizes errors across the declaration and session layers.
type ErrorCode string

const (
	// ErrCodeDeclarationConflict indicates a sort or callable was
	// re-registered with a different arity or signature, or an
	// engine-facing name collides with another ref's.
	ErrCodeDeclarationConflict ErrorCode = "DECLARATION_CONFLICT"

	// ErrCodeNotFound indicates a lookup for an unregistered sort or
	// callable.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeUnsupportedAnnotation indicates a type annotation with no
	// resolution rule.
	ErrCodeUnsupportedAnnotation ErrorCode = "UNSUPPORTED_ANNOTATION"

	// ErrCodeUnresolvedTypeVar indicates a class type variable survived to
	// a context that requires a fully resolved type.
	ErrCodeUnresolvedTypeVar ErrorCode = "UNRESOLVED_TYPE_VAR"

	// ErrCodeMalformedUnion indicates a union annotation that is not the
	// two-member literal-promotion shape.
	ErrCodeMalformedUnion ErrorCode = "MALFORMED_UNION"

	// ErrCodeTypeMismatch indicates wrong argument types at construction,
	// or Set/Delete applied to a non-call expression.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeUnboundVariable indicates a pattern variable used in a
	// condition or action without a binding fact or explicit declaration.
	ErrCodeUnboundVariable ErrorCode = "UNBOUND_VARIABLE"

	// ErrCodeScopeStack indicates a pop with no matching push.
	ErrCodeScopeStack ErrorCode = "SCOPE_STACK"

	// ErrCodeEngineProtocol indicates a missing or unparseable engine
	// reply.
	ErrCodeEngineProtocol ErrorCode = "ENGINE_PROTOCOL"

	// ErrCodeEngineRuntime indicates an engine-side panic reached during
	// schedule execution.
	ErrCodeEngineRuntime ErrorCode = "ENGINE_RUNTIME"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Expected != "" || e.Actual != "":
		return fmt.Sprintf("%s: %s (expected=%s, actual=%s)", e.Code, e.Message, e.Expected, e.Actual)
	case e.Ref != "":
		return fmt.Sprintf("%s: %s (ref=%s)", e.Code, e.Message, e.Ref)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Errorf builds an Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func hasCode(err error, codes ...ErrorCode) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	for _, c := range codes {
		if e.Code == c {
			return true
		}
	}
	return false
}

// IsDeclarationError reports whether err is a registration conflict or a
// missing declaration. Uses errors.As to handle wrapped errors.
func IsDeclarationError(err error) bool {
	return hasCode(err, ErrCodeDeclarationConflict, ErrCodeNotFound)
}

// IsNotFound reports whether err is a missing-declaration lookup failure.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsAnnotationError reports whether err arose from type-annotation
// resolution.
func IsAnnotationError(err error) bool {
	return hasCode(err, ErrCodeUnsupportedAnnotation, ErrCodeUnresolvedTypeVar, ErrCodeMalformedUnion)
}

// IsTypeMismatch reports whether err is a type mismatch.
func IsTypeMismatch(err error) bool {
	return hasCode(err, ErrCodeTypeMismatch)
}

// IsUnboundVariable reports whether err is an unbound pattern variable.
func IsUnboundVariable(err error) bool {
	return hasCode(err, ErrCodeUnboundVariable)
}

// IsScopeStackError reports whether err is an unmatched pop.
func IsScopeStackError(err error) bool {
	return hasCode(err, ErrCodeScopeStack)
}

// IsEngineProtocolError reports whether err is a protocol-level failure.
func IsEngineProtocolError(err error) bool {
	return hasCode(err, ErrCodeEngineProtocol)
}

// IsEngineRuntimeError reports whether err is an engine-side panic.
func IsEngineRuntimeError(err error) bool {
	return hasCode(err, ErrCodeEngineRuntime)
}
