package scope

import "fmt"

// UnboundIdentifierError is returned when no environment in the chain has a
// binding for the identifier: the "is not defined" case. It is distinct from
// a binding that exists but is still uninitialized, which is
// [UninitializedAccessError].
type UnboundIdentifierError struct {
	Name string
}

func (e *UnboundIdentifierError) Error() string {
	return fmt.Sprintf("scope: %q is not defined", e.Name)
}

// UninitializedAccessError is returned when a let/const binding is read or
// written during its temporal dead zone.
type UninitializedAccessError struct {
	Name string
	Kind BindKind
}

func (e *UninitializedAccessError) Error() string {
	return fmt.Sprintf("scope: cannot access %s %q before initialization", e.Kind, e.Name)
}

// RedeclarationError is returned when a declaration collides with an
// existing same-environment binding under the kind rules of
// [Environment.Declare].
type RedeclarationError struct {
	Name     string
	Existing BindKind
	Declared BindKind
}

func (e *RedeclarationError) Error() string {
	return fmt.Sprintf("scope: identifier %q has already been declared (%s over %s)", e.Name, e.Declared, e.Existing)
}

// ConstViolationError is returned on assignment to an initialized const
// binding.
type ConstViolationError struct {
	Name string
}

func (e *ConstViolationError) Error() string {
	return fmt.Sprintf("scope: assignment to constant %q", e.Name)
}
