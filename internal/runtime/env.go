package runtime

import "errors"

var (
	// ErrUndefined is returned for a name with no binding in the chain.
	ErrUndefined = errors.New("undefined variable")
	// ErrUninitialized is returned when reading a variable declared without
	// an initializer and never assigned.
	ErrUninitialized = errors.New("variable used before being initialized")
)

type binding struct {
	value       Value
	initialized bool
}

// Environment represents a variable scope with a parent chain. Environments
// are shared by reference: a closure keeps its defining scope alive and sees
// every later change to it.
type Environment struct {
	values map[string]*binding
	parent *Environment
}

// NewEnvironment creates a new environment with an optional parent scope.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]*binding),
		parent: parent,
	}
}

// Parent returns the enclosing scope, or nil for the global environment.
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Define binds name to value in this scope, replacing any earlier binding
// of the same name here.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = &binding{value: value, initialized: true}
}

// Declare binds name in this scope without a value. Reading it before an
// assignment fails with ErrUninitialized.
func (e *Environment) Declare(name string) {
	e.values[name] = &binding{value: NilVal{}}
}

// Get looks up a variable by walking the scope chain.
func (e *Environment) Get(name string) (Value, error) {
	b := e.lookup(name)
	if b == nil {
		return nil, ErrUndefined
	}
	if !b.initialized {
		return nil, ErrUninitialized
	}
	return b.value, nil
}

// Assign sets the nearest existing binding of name. It never creates one.
func (e *Environment) Assign(name string, value Value) error {
	b := e.lookup(name)
	if b == nil {
		return ErrUndefined
	}
	b.value = value
	b.initialized = true
	return nil
}

// Has reports whether name is bound in this scope, ignoring parents.
func (e *Environment) Has(name string) bool {
	_, ok := e.values[name]
	return ok
}

func (e *Environment) lookup(name string) *binding {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.values[name]; ok {
			return b
		}
	}
	return nil
}
