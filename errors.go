package factory

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common failure classes.
var (
	// ErrDefinition is returned for invalid factory or declaration
	// configuration detected at definition time.
	ErrDefinition = errors.New("factory: invalid definition")

	// ErrCyclicDefinition is returned when resolving an attribute requires
	// the attribute itself, directly or through other declarations.
	ErrCyclicDefinition = errors.New("factory: cyclic definition")

	// ErrUnknownAttribute is returned when a declaration references an
	// attribute that does not exist in the current or any ancestor scope.
	ErrUnknownAttribute = errors.New("factory: unknown attribute")

	// ErrUnknownStrategy is returned for a strategy the engine does not know.
	ErrUnknownStrategy = errors.New("factory: unknown strategy")
)

// DefinitionError represents an invalid factory configuration: an unknown
// declaration referenced by a nested override, a cyclic parameter
// dependency, a target that is itself a factory, and similar.
type DefinitionError struct {
	Factory string // factory name, if known
	Field   string // declaration name, if applicable
	Message string
}

// Error returns the error string.
func (e *DefinitionError) Error() string {
	var b strings.Builder
	b.WriteString("factory: invalid definition")
	if e.Factory != "" {
		b.WriteString(" on ")
		b.WriteString(e.Factory)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %q", e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel for DefinitionError.
func (e *DefinitionError) Is(target error) bool {
	return target == ErrDefinition
}

// NewDefinitionError returns a new DefinitionError.
func NewDefinitionError(factory, field, message string) *DefinitionError {
	return &DefinitionError{Factory: factory, Field: field, Message: message}
}

// IsDefinitionError returns true if the error is a DefinitionError.
func IsDefinitionError(err error) bool {
	if err == nil {
		return false
	}
	var e *DefinitionError
	return errors.As(err, &e) || errors.Is(err, ErrDefinition)
}

// CyclicDefinitionError reports a self-referential attribute definition.
// Chain holds the resolution stack at the point the cycle closed, ending
// with the attribute that was already being resolved.
type CyclicDefinitionError struct {
	Chain []string
}

// Error returns the error string.
func (e *CyclicDefinitionError) Error() string {
	return fmt.Sprintf("factory: cyclic definition detected on %s", strings.Join(e.Chain, " -> "))
}

// Is reports whether the target matches the sentinel for CyclicDefinitionError.
func (e *CyclicDefinitionError) Is(target error) bool {
	return target == ErrCyclicDefinition
}

// IsCyclicDefinitionError returns true if the error is a CyclicDefinitionError.
func IsCyclicDefinitionError(err error) bool {
	if err == nil {
		return false
	}
	var e *CyclicDefinitionError
	return errors.As(err, &e) || errors.Is(err, ErrCyclicDefinition)
}

// UnknownAttributeError reports access to an attribute name that has no
// declaration and no plain value in the scope it was requested from.
type UnknownAttributeError struct {
	Name  string
	Scope string // factory name owning the scope, if known
}

// Error returns the error string.
func (e *UnknownAttributeError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("factory: unknown attribute %q on %s", e.Name, e.Scope)
	}
	return fmt.Sprintf("factory: unknown attribute %q", e.Name)
}

// Is reports whether the target matches the sentinel for UnknownAttributeError.
func (e *UnknownAttributeError) Is(target error) bool {
	return target == ErrUnknownAttribute
}

// IsUnknownAttributeError returns true if the error is an UnknownAttributeError.
func IsUnknownAttributeError(err error) bool {
	if err == nil {
		return false
	}
	var e *UnknownAttributeError
	return errors.As(err, &e) || errors.Is(err, ErrUnknownAttribute)
}

// StrategyError reports use of an unsupported or unknown strategy.
type StrategyError struct {
	Strategy Strategy
	Factory  string
	Message  string
}

// Error returns the error string.
func (e *StrategyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "factory: strategy %q", string(e.Strategy))
	if e.Factory != "" {
		b.WriteString(" on ")
		b.WriteString(e.Factory)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel for StrategyError.
func (e *StrategyError) Is(target error) bool {
	return target == ErrUnknownStrategy
}

// IsStrategyError returns true if the error is a StrategyError.
func IsStrategyError(err error) bool {
	if err == nil {
		return false
	}
	var e *StrategyError
	return errors.As(err, &e) || errors.Is(err, ErrUnknownStrategy)
}

// InstantiationError wraps a failure raised while instantiating the target
// object from resolved attributes, either by the reflective default hook or
// by a custom build/create hook.
type InstantiationError struct {
	Factory string
	Field   string // attribute being assigned, if applicable
	Err     error
}

// Error returns the error string.
func (e *InstantiationError) Error() string {
	var b strings.Builder
	b.WriteString("factory: instantiating")
	if e.Factory != "" {
		b.WriteString(" ")
		b.WriteString(e.Factory)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %q", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

// Unwrap returns the underlying error.
func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// IsInstantiationError returns true if the error is an InstantiationError.
func IsInstantiationError(err error) bool {
	if err == nil {
		return false
	}
	var e *InstantiationError
	return errors.As(err, &e)
}
