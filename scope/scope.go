// Package scope implements lexical environments: per-scope binding tables
// chained to their enclosing scope, with declaration-kind rules (var, let,
// const, function), temporal-dead-zone enforcement, and two-pass hoisting.
//
// Environments are heap-allocated and shared by reference. A closure that
// captures an environment keeps it alive after the creating unit returns;
// the garbage collector provides the shared-ownership lifetime the execution
// model requires, so mutations remain observable through every capture.
package scope

// BindKind is the declaration kind of a binding.
type BindKind int

const (
	// KindVar is a function-scoped, mutable binding. Never uninitialized:
	// hoisting pre-initializes it to [Undefined].
	KindVar BindKind = iota

	// KindLet is a block-scoped, mutable binding. Starts uninitialized
	// (the temporal dead zone) and transitions once via Initialize.
	KindLet

	// KindConst is a block-scoped binding that rejects writes once
	// initialized. Starts uninitialized like KindLet.
	KindConst

	// KindFunction is a hoisted function declaration, bound immediately to
	// its callable value during the first hoisting pass.
	KindFunction
)

// String returns the source-level keyword for the kind.
func (k BindKind) String() string {
	switch k {
	case KindVar:
		return "var"
	case KindLet:
		return "let"
	case KindConst:
		return "const"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// undefined is the type of the absent value.
type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the absent value: the result of reading a hoisted var before
// its textual declaration executes, and the pre-set value of every var
// binding created by hoisting.
var Undefined undefined

// Binding is a single identifier record within one environment.
type Binding struct {
	Name        string
	Kind        BindKind
	value       any
	initialized bool
}

// Value returns the bound value, or [Undefined] when still uninitialized.
func (b *Binding) Value() any {
	if !b.initialized {
		return Undefined
	}
	return b.value
}

// Initialized reports whether the binding has left the temporal dead zone.
// Var and function bindings are initialized from creation.
func (b *Binding) Initialized() bool { return b.initialized }

// Environment is one scope's binding table plus the link to its enclosing
// scope. The global environment has a nil outer link and is created once per
// engine. Environment is not safe for concurrent use; the execution model is
// single-threaded.
type Environment struct {
	bindings map[string]*Binding
	outer    *Environment
	block    bool
}

// NewEnvironment creates a function-level (or global, when outer is nil)
// environment.
func NewEnvironment(outer *Environment) *Environment {
	return &Environment{
		bindings: make(map[string]*Binding),
		outer:    outer,
	}
}

// NewBlockEnvironment creates a block-level environment. Block environments
// host let/const declarations only; var and function hoisting does not
// re-run for them.
func NewBlockEnvironment(outer *Environment) *Environment {
	env := NewEnvironment(outer)
	env.block = true
	return env
}

// Outer returns the enclosing environment, or nil for the global scope.
func (e *Environment) Outer() *Environment { return e.outer }

// IsBlock reports whether this is a block-level environment.
func (e *Environment) IsBlock() bool { return e.block }

// FunctionScope walks outward to the nearest function-level (non-block)
// environment, which is where var declarations hoist to.
func (e *Environment) FunctionScope() *Environment {
	env := e
	for env.block && env.outer != nil {
		env = env.outer
	}
	return env
}

// Declare registers a binding in this environment.
//
// Block-scoped kinds (let, const) and function declarations reject any
// same-environment collision. A var declaration colliding with an existing
// var or function binding is permitted and idempotent: the existing binding
// and its value are preserved. A var colliding with a let or const is
// rejected.
func (e *Environment) Declare(name string, kind BindKind) error {
	return e.declare(name, kind, nil, false)
}

// DeclareValue is Declare with an immediate value. Var and function bindings
// are created initialized; for let/const the value still requires a separate
// Initialize call and DeclareValue behaves exactly like Declare.
func (e *Environment) DeclareValue(name string, kind BindKind, value any) error {
	return e.declare(name, kind, value, true)
}

func (e *Environment) declare(name string, kind BindKind, value any, haveValue bool) error {
	if existing, ok := e.bindings[name]; ok {
		if kind == KindVar && (existing.Kind == KindVar || existing.Kind == KindFunction) {
			// Idempotent var redeclaration: no-op on the existing value.
			return nil
		}
		return &RedeclarationError{Name: name, Existing: existing.Kind, Declared: kind}
	}

	b := &Binding{Name: name, Kind: kind}
	switch kind {
	case KindVar:
		b.initialized = true
		if haveValue {
			b.value = value
		} else {
			b.value = Undefined
		}
	case KindFunction:
		b.initialized = true
		b.value = value
	default:
		// let/const enter the temporal dead zone until Initialize.
	}
	e.bindings[name] = b
	return nil
}

// Resolve walks the chain from this environment outward and returns the
// nearest binding for name. The innermost match winning is the entirety of
// the shadowing rule.
func (e *Environment) Resolve(name string) (*Binding, error) {
	for env := e; env != nil; env = env.outer {
		if b, ok := env.bindings[name]; ok {
			return b, nil
		}
	}
	return nil, &UnboundIdentifierError{Name: name}
}

// Get resolves name and returns its value. Reading a let/const binding that
// has not yet been initialized is a temporal-dead-zone violation and returns
// [UninitializedAccessError], which is distinct from the binding not
// existing at all ([UnboundIdentifierError]).
func (e *Environment) Get(name string) (any, error) {
	b, err := e.Resolve(name)
	if err != nil {
		return nil, err
	}
	if !b.initialized {
		return nil, &UninitializedAccessError{Name: name, Kind: b.Kind}
	}
	return b.value, nil
}

// Initialize completes a let/const binding's single transition out of the
// temporal dead zone. The binding must exist in this environment directly;
// initialization never crosses scope boundaries.
func (e *Environment) Initialize(name string, value any) error {
	b, ok := e.bindings[name]
	if !ok {
		return &UnboundIdentifierError{Name: name}
	}
	if b.initialized {
		// Var/function bindings, or a let/const already out of the TDZ:
		// treat as a plain write so host compilers can lower
		// `var x = v` and `x = v` through the same path.
		return e.Assign(name, value)
	}
	b.value = value
	b.initialized = true
	return nil
}

// Assign resolves name and writes value to the nearest binding. Writing an
// initialized const fails with [ConstViolationError]; writing a let/const
// still in the temporal dead zone fails with [UninitializedAccessError].
func (e *Environment) Assign(name string, value any) error {
	b, err := e.Resolve(name)
	if err != nil {
		return err
	}
	if !b.initialized {
		return &UninitializedAccessError{Name: name, Kind: b.Kind}
	}
	if b.Kind == KindConst {
		return &ConstViolationError{Name: name}
	}
	b.value = value
	return nil
}

// Has reports whether name is declared in this environment directly,
// ignoring outer scopes.
func (e *Environment) Has(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// Len returns the number of bindings declared directly in this environment.
func (e *Environment) Len() int { return len(e.bindings) }
