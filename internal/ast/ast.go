// Package ast defines the abstract syntax tree for Lox.
//
// Expr and Stmt are closed sets: every node kind lives in this file, and
// passes over the tree (printer, JSON dump, interpreter) switch on the
// concrete type. Each node owns its children exclusively; the tree is never
// mutated after parsing, so function values may share their declaration.
package ast

import "lox-lang/internal/token"

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ExprBase is embedded by all expression nodes.
type ExprBase struct{}

func (ExprBase) nodeNode() {}
func (ExprBase) exprNode() {}

// StmtBase is embedded by all statement nodes.
type StmtBase struct{}

func (StmtBase) nodeNode() {}
func (StmtBase) stmtNode() {}

// ============================================================
// Expressions
// ============================================================

// LiteralExpr is a constant: NUMBER, STRING, true, false or nil.
// Value is a float64 for NUMBER, a string for STRING and nil otherwise;
// Kind tells which.
type LiteralExpr struct {
	ExprBase
	Kind  token.Kind
	Value interface{}
}

// GroupingExpr is a parenthesized expression.
type GroupingExpr struct {
	ExprBase
	Inner Expr
}

// UnaryExpr represents !x or -x.
type UnaryExpr struct {
	ExprBase
	Op    token.Token
	Right Expr
}

// BinaryExpr represents an arithmetic, comparison or equality operation.
type BinaryExpr struct {
	ExprBase
	Left  Expr
	Op    token.Token
	Right Expr
}

// LogicalExpr represents short-circuiting 'and' / 'or'.
type LogicalExpr struct {
	ExprBase
	Left  Expr
	Op    token.Token
	Right Expr
}

// VariableExpr is a reference to a named binding.
type VariableExpr struct {
	ExprBase
	Name token.Token
}

// AssignExpr assigns to an existing binding.
type AssignExpr struct {
	ExprBase
	Name  token.Token
	Value Expr
}

// CallExpr represents callee(args). Paren is the closing parenthesis, used
// to locate runtime errors.
type CallExpr struct {
	ExprBase
	Callee Expr
	Paren  token.Token
	Args   []Expr
}

// ============================================================
// Statements
// ============================================================

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// PrintStmt writes the stringified value of Expr and a newline.
type PrintStmt struct {
	StmtBase
	Expr Expr
}

// VarStmt declares a variable. Initializer is nil for `var x;`.
type VarStmt struct {
	StmtBase
	Name        token.Token
	Initializer Expr
}

// BlockStmt introduces a new scope.
type BlockStmt struct {
	StmtBase
	Stmts []Stmt
}

// IfStmt represents if/else. Else may be nil.
type IfStmt struct {
	StmtBase
	Condition Expr
	Then      Stmt
	Else      Stmt
}

// WhileStmt is the only loop node; `for` is desugared into it.
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      Stmt
}

// BreakStmt exits the innermost enclosing loop.
type BreakStmt struct {
	StmtBase
	Keyword token.Token
}

// ReturnStmt exits the enclosing function. Value may be nil.
type ReturnStmt struct {
	StmtBase
	Keyword token.Token
	Value   Expr
}

// FuncStmt declares a named function.
type FuncStmt struct {
	StmtBase
	Name   token.Token
	Params []token.Token
	Body   []Stmt
}
