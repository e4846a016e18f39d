package runtime

import (
	"errors"
	"fmt"
	"io"
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/token"
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
type ExecSignal int

const (
	SigNone   ExecSignal = iota
	SigReturn            // return from function
	SigBreak             // break from loop
)

// ExecResult carries a control flow signal and an optional value (for return).
type ExecResult struct {
	Signal ExecSignal
	Value  Value
}

var resultNone = ExecResult{Signal: SigNone}

// ============================================================
// Runtime error
// ============================================================

// RuntimeError represents an error during interpretation. Token locates it
// in the source.
type RuntimeError struct {
	Token   token.Token
	Message string
}

func (e *RuntimeError) Error() string {
	return diag.Format(e.Token.Line(), diag.Where(e.Token), e.Message)
}

func runtimeErr(tok token.Token, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Token: tok, Message: fmt.Sprintf(format, args...)}
}

// DefaultMaxCallDepth bounds nested calls unless SetMaxCallDepth says otherwise.
const DefaultMaxCallDepth = 1024

// ============================================================
// Interpreter
// ============================================================

// Interpreter walks the AST and executes it. The global environment
// persists across calls to Execute and Evaluate.
type Interpreter struct {
	global *Environment
	env    *Environment
	output io.Writer

	depth    int
	maxDepth int
}

// NewInterpreter creates a new interpreter with built-in functions registered.
// print writes to output.
func NewInterpreter(output io.Writer) *Interpreter {
	global := NewEnvironment(nil)
	RegisterBuiltins(global)
	return &Interpreter{
		global:   global,
		env:      global,
		output:   output,
		maxDepth: DefaultMaxCallDepth,
	}
}

// SetMaxCallDepth sets how deeply calls may nest before "Stack overflow.".
func (i *Interpreter) SetMaxCallDepth(n int) {
	if n > 0 {
		i.maxDepth = n
	}
}

// Globals returns the global environment.
func (i *Interpreter) Globals() *Environment {
	return i.global
}

// Execute runs stmts in order against the current environment. The first
// runtime error stops execution and is returned; earlier output stays.
func (i *Interpreter) Execute(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if _, err := i.execStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate evaluates a single expression against the current environment.
func (i *Interpreter) Evaluate(expr ast.Expr) (Value, error) {
	return i.evalExpr(expr)
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execStmt(stmt ast.Stmt) (ExecResult, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := i.evalExpr(s.Expr)
		return resultNone, err

	case *ast.PrintStmt:
		val, err := i.evalExpr(s.Expr)
		if err != nil {
			return resultNone, err
		}
		fmt.Fprintln(i.output, val.String())
		return resultNone, nil

	case *ast.VarStmt:
		return i.execVar(s)

	case *ast.BlockStmt:
		return i.execBlock(s.Stmts, NewEnvironment(i.env))

	case *ast.IfStmt:
		return i.execIf(s)

	case *ast.WhileStmt:
		return i.execWhile(s)

	case *ast.BreakStmt:
		return ExecResult{Signal: SigBreak}, nil

	case *ast.ReturnStmt:
		var val Value = NilVal{}
		if s.Value != nil {
			v, err := i.evalExpr(s.Value)
			if err != nil {
				return resultNone, err
			}
			val = v
		}
		return ExecResult{Signal: SigReturn, Value: val}, nil

	case *ast.FuncStmt:
		i.env.Define(s.Name.Lexeme, &Function{Decl: s, Closure: i.env})
		return resultNone, nil

	default:
		return resultNone, fmt.Errorf("unhandled statement type: %T", stmt)
	}
}

func (i *Interpreter) execVar(s *ast.VarStmt) (ExecResult, error) {
	if s.Initializer == nil {
		i.env.Declare(s.Name.Lexeme)
		return resultNone, nil
	}
	val, err := i.evalExpr(s.Initializer)
	if err != nil {
		return resultNone, err
	}
	i.env.Define(s.Name.Lexeme, val)
	return resultNone, nil
}

func (i *Interpreter) execIf(s *ast.IfStmt) (ExecResult, error) {
	cond, err := i.evalExpr(s.Condition)
	if err != nil {
		return resultNone, err
	}

	if IsTruthy(cond) {
		return i.execStmt(s.Then)
	}
	if s.Else != nil {
		return i.execStmt(s.Else)
	}
	return resultNone, nil
}

func (i *Interpreter) execWhile(s *ast.WhileStmt) (ExecResult, error) {
	for {
		cond, err := i.evalExpr(s.Condition)
		if err != nil {
			return resultNone, err
		}
		if !IsTruthy(cond) {
			break
		}

		result, err := i.execStmt(s.Body)
		if err != nil {
			return resultNone, err
		}
		if result.Signal == SigBreak {
			break
		}
		if result.Signal == SigReturn {
			return result, nil // propagate return
		}
	}
	return resultNone, nil
}

// execBlock runs stmts in blockEnv and restores the previous environment on
// every exit path.
func (i *Interpreter) execBlock(stmts []ast.Stmt, blockEnv *Environment) (ExecResult, error) {
	prevEnv := i.env
	i.env = blockEnv
	defer func() { i.env = prevEnv }()

	for _, stmt := range stmts {
		result, err := i.execStmt(stmt)
		if err != nil {
			return resultNone, err
		}
		if result.Signal != SigNone {
			return result, nil // propagate signal
		}
	}
	return resultNone, nil
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return literalValue(e), nil

	case *ast.GroupingExpr:
		return i.evalExpr(e.Inner)

	case *ast.UnaryExpr:
		return i.evalUnary(e)

	case *ast.BinaryExpr:
		return i.evalBinary(e)

	case *ast.LogicalExpr:
		return i.evalLogical(e)

	case *ast.VariableExpr:
		return i.lookupVariable(e.Name)

	case *ast.AssignExpr:
		val, err := i.evalExpr(e.Value)
		if err != nil {
			return nil, err
		}
		if err := i.env.Assign(e.Name.Lexeme, val); err != nil {
			return nil, runtimeErr(e.Name, "Undefined variable '%s'.", e.Name.Lexeme)
		}
		return val, nil

	case *ast.CallExpr:
		return i.evalCall(e)

	default:
		return nil, fmt.Errorf("unhandled expression type: %T", expr)
	}
}

func literalValue(e *ast.LiteralExpr) Value {
	switch e.Kind {
	case token.NUMBER:
		if n, ok := e.Value.(float64); ok {
			return NumberVal(n)
		}
	case token.STRING:
		if s, ok := e.Value.(string); ok {
			return StringVal(s)
		}
	case token.KW_TRUE:
		return BoolVal(true)
	case token.KW_FALSE:
		return BoolVal(false)
	}
	return NilVal{}
}

func (i *Interpreter) lookupVariable(name token.Token) (Value, error) {
	val, err := i.env.Get(name.Lexeme)
	switch {
	case errors.Is(err, ErrUninitialized):
		return nil, runtimeErr(name, "Variable used before being initialized.")
	case err != nil:
		return nil, runtimeErr(name, "Undefined variable '%s'.", name.Lexeme)
	}
	return val, nil
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpr) (Value, error) {
	operand, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.BANG:
		return BoolVal(!IsTruthy(operand)), nil
	case token.MINUS:
		n, ok := operand.(NumberVal)
		if !ok {
			return nil, runtimeErr(e.Op, "Operand must be a number.")
		}
		return -n, nil
	default:
		return nil, runtimeErr(e.Op, "Unknown unary operator.")
	}
}

func (i *Interpreter) evalBinary(e *ast.BinaryExpr) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.EQ:
		return BoolVal(IsEqual(left, right)), nil
	case token.NEQ:
		return BoolVal(!IsEqual(left, right)), nil
	case token.PLUS:
		return add(e.Op, left, right)
	}

	l, r, err := numberOperands(e.Op, left, right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.MINUS:
		return l - r, nil
	case token.STAR:
		return l * r, nil
	case token.SLASH:
		if r == 0 {
			return nil, runtimeErr(e.Op, "Division by zero.")
		}
		return l / r, nil
	case token.GT:
		return BoolVal(l > r), nil
	case token.GTE:
		return BoolVal(l >= r), nil
	case token.LT:
		return BoolVal(l < r), nil
	case token.LTE:
		return BoolVal(l <= r), nil
	default:
		return nil, runtimeErr(e.Op, "Unknown binary operator.")
	}
}

// add implements the overloaded +: numeric sum, or concatenation when at
// least one side is a string and the other a string or number.
func add(op token.Token, left, right Value) (Value, error) {
	switch l := left.(type) {
	case NumberVal:
		switch r := right.(type) {
		case NumberVal:
			return l + r, nil
		case StringVal:
			return StringVal(l.String()) + r, nil
		}
	case StringVal:
		switch r := right.(type) {
		case StringVal:
			return l + r, nil
		case NumberVal:
			return l + StringVal(r.String()), nil
		}
	}
	return nil, runtimeErr(op, "Operands must be two numbers or two strings.")
}

func numberOperands(op token.Token, left, right Value) (NumberVal, NumberVal, error) {
	l, lok := left.(NumberVal)
	r, rok := right.(NumberVal)
	if !lok || !rok {
		return 0, 0, runtimeErr(op, "Operands must be numbers.")
	}
	return l, r, nil
}

// evalLogical short-circuits and yields the deciding operand itself.
func (i *Interpreter) evalLogical(e *ast.LogicalExpr) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Op.Kind == token.KW_OR {
		if IsTruthy(left) {
			return left, nil
		}
		return i.evalExpr(e.Right)
	}
	// and
	if !IsTruthy(left) {
		return left, nil
	}
	return i.evalExpr(e.Right)
}

// ============================================================
// Calls
// ============================================================

func (i *Interpreter) evalCall(e *ast.CallExpr) (Value, error) {
	callee, err := i.evalExpr(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for idx, argExpr := range e.Args {
		val, err := i.evalExpr(argExpr)
		if err != nil {
			return nil, err
		}
		args[idx] = val
	}

	fn, ok := callee.(Callable)
	if !ok {
		return nil, runtimeErr(e.Paren, "Can only call functions and classes.")
	}
	if len(args) != fn.Arity() {
		return nil, runtimeErr(e.Paren, "Expected %d arguments but got %d.", fn.Arity(), len(args))
	}
	return i.callValue(fn, args, e.Paren)
}

func (i *Interpreter) callValue(callee Callable, args []Value, paren token.Token) (Value, error) {
	switch fn := callee.(type) {
	case *Function:
		return i.callFunc(fn, args, paren)
	case *Builtin:
		val, err := fn.Fn(args)
		if err != nil {
			var rtErr *RuntimeError
			if errors.As(err, &rtErr) {
				return nil, err
			}
			return nil, runtimeErr(paren, "%s", err.Error())
		}
		return val, nil
	default:
		return nil, runtimeErr(paren, "Can only call functions and classes.")
	}
}

// callFunc runs fn's body in a fresh environment whose parent is the
// closure captured at declaration, not the caller's environment.
func (i *Interpreter) callFunc(fn *Function, args []Value, paren token.Token) (Value, error) {
	if i.depth >= i.maxDepth {
		return nil, runtimeErr(paren, "Stack overflow.")
	}
	i.depth++
	defer func() { i.depth-- }()

	funcEnv := NewEnvironment(fn.Closure)
	for idx, param := range fn.Decl.Params {
		funcEnv.Define(param.Lexeme, args[idx])
	}

	result, err := i.execBlock(fn.Decl.Body, funcEnv)
	if err != nil {
		return nil, err
	}

	if result.Signal == SigReturn {
		return result.Value, nil
	}
	return NilVal{}, nil
}
