package ast

import "lox-lang/internal/token"

// NodeToMap converts an AST node to a map suitable for JSON serialization.
// This produces a tagged-union structure: every node has a "kind" field, and
// nodes anchored to a token also carry its "line".
func NodeToMap(node Node) map[string]interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	// ---- Expressions ----
	case *LiteralExpr:
		return m("Literal", "type", n.Kind.String(), "value", n.Value)
	case *GroupingExpr:
		return m("Grouping", "inner", NodeToMap(n.Inner))
	case *UnaryExpr:
		return at("Unary", n.Op, "op", n.Op.Lexeme, "right", NodeToMap(n.Right))
	case *BinaryExpr:
		return at("Binary", n.Op,
			"op", n.Op.Lexeme,
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *LogicalExpr:
		return at("Logical", n.Op,
			"op", n.Op.Lexeme,
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *VariableExpr:
		return at("Variable", n.Name, "name", n.Name.Lexeme)
	case *AssignExpr:
		return at("Assign", n.Name, "name", n.Name.Lexeme, "value", NodeToMap(n.Value))
	case *CallExpr:
		return at("Call", n.Paren,
			"callee", NodeToMap(n.Callee),
			"args", exprSlice(n.Args))

	// ---- Statements ----
	case *ExprStmt:
		return m("Expression", "expr", NodeToMap(n.Expr))
	case *PrintStmt:
		return m("Print", "expr", NodeToMap(n.Expr))
	case *VarStmt:
		result := at("Var", n.Name, "name", n.Name.Lexeme)
		if n.Initializer != nil {
			result["initializer"] = NodeToMap(n.Initializer)
		}
		return result
	case *BlockStmt:
		return m("Block", "stmts", StmtSlice(n.Stmts))
	case *IfStmt:
		result := m("If",
			"condition", NodeToMap(n.Condition),
			"then", NodeToMap(n.Then))
		if n.Else != nil {
			result["else"] = NodeToMap(n.Else)
		}
		return result
	case *WhileStmt:
		return m("While",
			"condition", NodeToMap(n.Condition),
			"body", NodeToMap(n.Body))
	case *BreakStmt:
		return at("Break", n.Keyword)
	case *ReturnStmt:
		result := at("Return", n.Keyword)
		if n.Value != nil {
			result["value"] = NodeToMap(n.Value)
		}
		return result
	case *FuncStmt:
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = p.Lexeme
		}
		return at("Function", n.Name,
			"name", n.Name.Lexeme,
			"params", params,
			"body", StmtSlice(n.Body))

	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

// StmtSlice converts a statement list, e.g. a whole program.
func StmtSlice(stmts []Stmt) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, s := range stmts {
		result[i] = NodeToMap(s)
	}
	return result
}

// ---- helpers ----

// m builds a map with kind and extra key-value pairs.
func m(kind string, kvs ...interface{}) map[string]interface{} {
	result := map[string]interface{}{"kind": kind}
	for i := 0; i+1 < len(kvs); i += 2 {
		key := kvs[i].(string)
		result[key] = kvs[i+1]
	}
	return result
}

// at is m plus the line of the anchoring token.
func at(kind string, tok token.Token, kvs ...interface{}) map[string]interface{} {
	result := m(kind, kvs...)
	result["line"] = tok.Line()
	return result
}

func exprSlice(exprs []Expr) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, e := range exprs {
		result[i] = NodeToMap(e)
	}
	return result
}
