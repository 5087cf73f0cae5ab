package scope

// Decl is one declaration record from an executable unit's function-level
// body. The host (parser/compiler) collects these lexically, including var
// declarations found inside nested blocks, but never crossing into nested
// function bodies.
type Decl struct {
	Name string
	Kind BindKind

	// Value is the callable for KindFunction declarations; ignored for
	// other kinds.
	Value any
}

// Var, Let, Const, and Func are convenience constructors for declaration
// records.
func Var(name string) Decl          { return Decl{Name: name, Kind: KindVar} }
func Let(name string) Decl          { return Decl{Name: name, Kind: KindLet} }
func Const(name string) Decl        { return Decl{Name: name, Kind: KindConst} }
func Func(name string, fn any) Decl { return Decl{Name: name, Kind: KindFunction, Value: fn} }

// Hoist applies the two-pass environment-construction discipline to env.
//
// Pass one registers every var declaration as a var binding pre-initialized
// to [Undefined] and binds every function declaration immediately to its
// callable value. Var and function bindings hoist to the nearest
// function-level environment, so hoisting a unit whose environment is a
// block still lands them correctly. Pass two registers let/const
// declarations as uninitialized in env itself, opening their temporal dead
// zone.
//
// Hoisting is idempotent for var declarations; any other collision surfaces
// the same [RedeclarationError] a direct Declare would.
func Hoist(env *Environment, decls []Decl) error {
	fnScope := env.FunctionScope()

	for _, d := range decls {
		switch d.Kind {
		case KindVar:
			if err := fnScope.Declare(d.Name, KindVar); err != nil {
				return err
			}
		case KindFunction:
			if err := fnScope.DeclareValue(d.Name, KindFunction, d.Value); err != nil {
				return err
			}
		}
	}

	for _, d := range decls {
		switch d.Kind {
		case KindLet, KindConst:
			if err := env.Declare(d.Name, d.Kind); err != nil {
				return err
			}
		}
	}

	return nil
}
