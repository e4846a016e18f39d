// Package runtime implements the tree-walking interpreter and the runtime
// value system for Lox.
package runtime

import (
	"fmt"
	"lox-lang/internal/ast"
	"strconv"
)

// Value is the interface for all runtime values. The set is closed: NilVal,
// BoolVal, NumberVal, StringVal, *Function and *Builtin.
type Value interface {
	TypeName() string
	String() string
	value()
}

// ---- Primitive values ----

// NilVal represents nil.
type NilVal struct{}

func (NilVal) TypeName() string { return "nil" }
func (NilVal) String() string   { return "nil" }
func (NilVal) value()           {}

// BoolVal represents true or false.
type BoolVal bool

func (v BoolVal) TypeName() string { return "boolean" }
func (v BoolVal) String() string   { return strconv.FormatBool(bool(v)) }
func (BoolVal) value()             {}

// NumberVal represents a double-precision number.
type NumberVal float64

func (v NumberVal) TypeName() string { return "number" }
func (v NumberVal) String() string   { return FormatNumber(float64(v)) }
func (NumberVal) value()             {}

// StringVal represents a string value.
type StringVal string

func (v StringVal) TypeName() string { return "string" }
func (v StringVal) String() string   { return string(v) }
func (StringVal) value()             {}

// FormatNumber renders n in its shortest decimal form: 7, 2.5, 0.1.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// ---- Callable values ----

// Callable is implemented by values that can appear as a call's callee.
type Callable interface {
	Value
	Arity() int
}

// Function is a user-defined function together with the environment that
// was active when its declaration executed.
type Function struct {
	Decl    *ast.FuncStmt
	Closure *Environment
}

func (f *Function) TypeName() string { return "function" }
func (f *Function) String() string   { return fmt.Sprintf("<fn %s>", f.Decl.Name.Lexeme) }
func (*Function) value()             {}

// Arity is the number of declared parameters.
func (f *Function) Arity() int { return len(f.Decl.Params) }

// BuiltinFn is the Go signature for native functions. Arguments have
// already been checked against the declared arity.
type BuiltinFn func(args []Value) (Value, error)

// Builtin is a native function implemented in Go.
type Builtin struct {
	Name   string
	Params int
	Fn     BuiltinFn
}

func (b *Builtin) TypeName() string { return "function" }
func (b *Builtin) String() string   { return "<native fn>" }
func (*Builtin) value()             {}

// Arity is the fixed number of arguments the builtin takes.
func (b *Builtin) Arity() int { return b.Params }

// ---- Truthiness and equality ----

// IsTruthy reports whether v counts as true in a condition.
// nil, false, 0 and the empty string are falsy; everything else is truthy.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case nil, NilVal:
		return false
	case BoolVal:
		return bool(val)
	case NumberVal:
		return val != 0
	case StringVal:
		return val != ""
	default:
		return true
	}
}

// IsEqual implements ==. Values of different kinds are never equal.
// Functions are equal only to themselves.
func IsEqual(a, b Value) bool {
	switch av := a.(type) {
	case NilVal:
		_, ok := b.(NilVal)
		return ok
	case BoolVal:
		bv, ok := b.(BoolVal)
		return ok && av == bv
	case NumberVal:
		bv, ok := b.(NumberVal)
		return ok && av == bv
	case StringVal:
		bv, ok := b.(StringVal)
		return ok && av == bv
	case *Function:
		bv, ok := b.(*Function)
		return ok && av == bv
	case *Builtin:
		bv, ok := b.(*Builtin)
		return ok && av == bv
	default:
		return false
	}
}
