package ast

import (
	"fmt"
	"lox-lang/internal/token"
	"strconv"
	"strings"
)

// Format renders a node in parenthesized prefix form, e.g. "(+ 1 (* 2 3))".
// It is a debugging aid; the output is not meant to be parsed back.
func Format(node Node) string {
	var b strings.Builder
	write(&b, node)
	return b.String()
}

func write(b *strings.Builder, node Node) {
	switch n := node.(type) {
	case nil:
		b.WriteString("<nil>")

	// ---- Expressions ----
	case *LiteralExpr:
		b.WriteString(FormatLiteral(n.Kind, n.Value))
	case *GroupingExpr:
		parenthesize(b, "group", n.Inner)
	case *UnaryExpr:
		parenthesize(b, n.Op.Lexeme, n.Right)
	case *BinaryExpr:
		parenthesize(b, n.Op.Lexeme, n.Left, n.Right)
	case *LogicalExpr:
		parenthesize(b, n.Op.Lexeme, n.Left, n.Right)
	case *VariableExpr:
		b.WriteString(n.Name.Lexeme)
	case *AssignExpr:
		parenthesize(b, "= "+n.Name.Lexeme, n.Value)
	case *CallExpr:
		parts := append([]Node{n.Callee}, exprNodes(n.Args)...)
		parenthesize(b, "call", parts...)

	// ---- Statements ----
	case *ExprStmt:
		parenthesize(b, ";", n.Expr)
	case *PrintStmt:
		parenthesize(b, "print", n.Expr)
	case *VarStmt:
		if n.Initializer == nil {
			parenthesize(b, "var "+n.Name.Lexeme)
		} else {
			parenthesize(b, "var "+n.Name.Lexeme, n.Initializer)
		}
	case *BlockStmt:
		parenthesize(b, "block", stmtNodes(n.Stmts)...)
	case *IfStmt:
		if n.Else == nil {
			parenthesize(b, "if", n.Condition, n.Then)
		} else {
			parenthesize(b, "if-else", n.Condition, n.Then, n.Else)
		}
	case *WhileStmt:
		parenthesize(b, "while", n.Condition, n.Body)
	case *BreakStmt:
		b.WriteString("(break)")
	case *ReturnStmt:
		if n.Value == nil {
			b.WriteString("(return)")
		} else {
			parenthesize(b, "return", n.Value)
		}
	case *FuncStmt:
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = p.Lexeme
		}
		head := fmt.Sprintf("fun %s(%s)", n.Name.Lexeme, strings.Join(params, " "))
		parenthesize(b, head, stmtNodes(n.Body)...)

	default:
		fmt.Fprintf(b, "<unknown %T>", node)
	}
}

func parenthesize(b *strings.Builder, name string, parts ...Node) {
	b.WriteByte('(')
	b.WriteString(name)
	for _, part := range parts {
		b.WriteByte(' ')
		write(b, part)
	}
	b.WriteByte(')')
}

// FormatLiteral renders a literal payload as it appears in printed trees.
func FormatLiteral(kind token.Kind, value interface{}) string {
	switch kind {
	case token.NUMBER:
		if f, ok := value.(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	case token.STRING:
		if s, ok := value.(string); ok {
			return strconv.Quote(s)
		}
	case token.KW_TRUE:
		return "true"
	case token.KW_FALSE:
		return "false"
	}
	return "nil"
}

func exprNodes(exprs []Expr) []Node {
	nodes := make([]Node, len(exprs))
	for i, e := range exprs {
		nodes[i] = e
	}
	return nodes
}

func stmtNodes(stmts []Stmt) []Node {
	nodes := make([]Node, len(stmts))
	for i, s := range stmts {
		nodes[i] = s
	}
	return nodes
}
