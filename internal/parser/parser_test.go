package parser

import (
	"encoding/json"
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"strings"
	"testing"
)

// helper: parse source and return statements, failing on any diagnostic
func parseOK(t *testing.T, source string) []ast.Stmt {
	t.Helper()
	tokens, lexDiags := lexer.New(source).Tokenize()
	if len(lexDiags) > 0 {
		t.Fatalf("lex errors: %v", lexDiags)
	}
	stmts, parseDiags := New(tokens).Parse()
	if len(parseDiags) > 0 {
		t.Fatalf("parse errors: %v", parseDiags)
	}
	return stmts
}

// helper: parse source and return only the diagnostics
func parseErrors(t *testing.T, source string) []diag.Diagnostic {
	t.Helper()
	tokens, lexDiags := lexer.New(source).Tokenize()
	if len(lexDiags) > 0 {
		t.Fatalf("lex errors: %v", lexDiags)
	}
	_, parseDiags := New(tokens).Parse()
	return parseDiags
}

// helper: parse source and render each statement in prefix form, one per line
func formatted(t *testing.T, source string) string {
	t.Helper()
	var lines []string
	for _, stmt := range parseOK(t, source) {
		lines = append(lines, ast.Format(stmt))
	}
	return strings.Join(lines, "\n")
}

func expectFormat(t *testing.T, source, expected string) {
	t.Helper()
	if got := formatted(t, source); got != expected {
		t.Errorf("parse %q:\nexpected: %s\ngot:      %s", source, expected, got)
	}
}

func expectMessages(t *testing.T, diags []diag.Diagnostic, expected ...string) {
	t.Helper()
	if len(diags) != len(expected) {
		t.Fatalf("expected %d diagnostics, got %d: %v", len(expected), len(diags), diags)
	}
	for i, exp := range expected {
		if got := diags[i].String(); got != exp {
			t.Errorf("diagnostic[%d]:\nexpected: %s\ngot:      %s", i, exp, got)
		}
	}
}

func TestParseVarDecl(t *testing.T) {
	stmts := parseOK(t, `var x = 42;`)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	decl, ok := stmts[0].(*ast.VarStmt)
	if !ok {
		t.Fatalf("expected VarStmt, got %T", stmts[0])
	}
	if decl.Name.Lexeme != "x" {
		t.Errorf("expected name 'x', got %q", decl.Name.Lexeme)
	}
	lit, ok := decl.Initializer.(*ast.LiteralExpr)
	if !ok || lit.Value != 42.0 {
		t.Errorf("expected literal 42, got %#v", decl.Initializer)
	}
}

func TestParseVarWithoutInitializer(t *testing.T) {
	stmts := parseOK(t, `var x;`)
	if decl := stmts[0].(*ast.VarStmt); decl.Initializer != nil {
		t.Errorf("expected no initializer, got %T", decl.Initializer)
	}
}

func TestPrecedence(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{`1 + 2 * 3;`, `(; (+ 1 (* 2 3)))`},
		{`(1 + 2) * 3;`, `(; (* (group (+ 1 2)) 3))`},
		{`1 - 2 - 3;`, `(; (- (- 1 2) 3))`},
		{`8 / 4 / 2;`, `(; (/ (/ 8 4) 2))`},
		{`-1 - -2;`, `(; (- (- 1) (- 2)))`},
		{`!!true;`, `(; (! (! true)))`},
		{`1 < 2 == 3 >= 4;`, `(; (== (< 1 2) (>= 3 4)))`},
		{`a or b and c;`, `(; (or a (and b c)))`},
		{`a and b or c and d;`, `(; (or (and a b) (and c d)))`},
		{`a == b != c;`, `(; (!= (== a b) c))`},
		{`a = b = 1;`, `(; (= a (= b 1)))`},
		{`a = 1 + 2;`, `(; (= a (+ 1 2)))`},
		{`f(1)(2);`, `(; (call (call f 1) 2))`},
		{`-f();`, `(; (- (call f)))`},
		{`"s" + nil;`, `(; (+ "s" nil))`},
	}
	for _, tt := range tests {
		expectFormat(t, tt.source, tt.expected)
	}
}

func TestParseIfStmt(t *testing.T) {
	expectFormat(t, `if (x > 0) print x;`, `(if (> x 0) (print x))`)
	expectFormat(t, `if (x) { print 1; } else print 2;`,
		`(if-else x (block (print 1)) (print 2))`)
}

func TestDanglingElseBindsToNearestIf(t *testing.T) {
	expectFormat(t, `if (a) if (b) print 1; else print 2;`,
		`(if a (if-else b (print 1) (print 2)))`)
}

func TestParseWhileStmt(t *testing.T) {
	expectFormat(t, `while (i < 10) i = i + 1;`, `(while (< i 10) (; (= i (+ i 1))))`)
}

func TestForDesugarsToWhile(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{"full",
			`for (var i = 0; i < 3; i = i + 1) print i;`,
			`(block (var i 0) (while (< i 3) (block (print i) (; (= i (+ i 1))))))`},
		{"no clauses",
			`for (;;) break;`,
			`(block (while true (block (break))))`},
		{"expression initializer",
			`for (i = 0; i < 1;) print i;`,
			`(block (; (= i 0)) (while (< i 1) (block (print i))))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectFormat(t, tt.source, tt.expected)
		})
	}
}

func TestForShape(t *testing.T) {
	stmts := parseOK(t, `for (var i = 0; i < 3; i = i + 1) print i;`)
	outer, ok := stmts[0].(*ast.BlockStmt)
	if !ok || len(outer.Stmts) != 2 {
		t.Fatalf("expected block of init and loop, got %#v", stmts[0])
	}
	loop, ok := outer.Stmts[1].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("expected WhileStmt, got %T", outer.Stmts[1])
	}
	body, ok := loop.Body.(*ast.BlockStmt)
	if !ok || len(body.Stmts) != 2 {
		t.Fatalf("expected body block of statement and increment, got %#v", loop.Body)
	}
	if _, ok := body.Stmts[1].(*ast.ExprStmt); !ok {
		t.Errorf("expected increment as expression statement, got %T", body.Stmts[1])
	}
}

func TestParseFuncDecl(t *testing.T) {
	stmts := parseOK(t, `fun add(a, b) { return a + b; }`)
	fn, ok := stmts[0].(*ast.FuncStmt)
	if !ok {
		t.Fatalf("expected FuncStmt, got %T", stmts[0])
	}
	if fn.Name.Lexeme != "add" {
		t.Errorf("expected name 'add', got %q", fn.Name.Lexeme)
	}
	if len(fn.Params) != 2 {
		t.Errorf("expected 2 params, got %d", len(fn.Params))
	}
	expectFormat(t, `fun add(a, b) { return a + b; }`, `(fun add(a b) (return (+ a b)))`)
	expectFormat(t, `fun nop() {}`, `(fun nop())`)
}

func TestParseCallExpr(t *testing.T) {
	stmts := parseOK(t, `f(1, 2, 3);`)
	stmt, ok := stmts[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected ExprStmt, got %T", stmts[0])
	}
	call, ok := stmt.Expr.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expected CallExpr, got %T", stmt.Expr)
	}
	if len(call.Args) != 3 {
		t.Errorf("expected 3 args, got %d", len(call.Args))
	}
	if call.Paren.Lexeme != ")" {
		t.Errorf("expected closing paren token, got %q", call.Paren.Lexeme)
	}
}

func TestBreakInsideLoops(t *testing.T) {
	parseOK(t, `while (true) break;`)
	parseOK(t, `for (;;) { if (x) break; }`)
	parseOK(t, `while (a) { while (b) break; break; }`)
}

func TestBreakOutsideLoop(t *testing.T) {
	expectMessages(t, parseErrors(t, `break;`),
		"[line 1] Error at 'break': Cannot use 'break' outside of a loop.")
	expectMessages(t, parseErrors(t, "{\n  break;\n}"),
		"[line 2] Error at 'break': Cannot use 'break' outside of a loop.")
}

func TestBreakAfterLoopEnds(t *testing.T) {
	expectMessages(t, parseErrors(t, "while (a) print 1;\nbreak;"),
		"[line 2] Error at 'break': Cannot use 'break' outside of a loop.")
}

func TestBreakDoesNotCrossFunction(t *testing.T) {
	expectMessages(t, parseErrors(t, "while (true) {\n  fun f() { break; }\n}"),
		"[line 2] Error at 'break': Cannot use 'break' outside of a loop.")
}

func TestBreakMissingSemicolon(t *testing.T) {
	expectMessages(t, parseErrors(t, `while (true) break`),
		"[line 1] Error at end: Expect ';' after 'break'.")
}

func TestReturnOutsideFunction(t *testing.T) {
	expectMessages(t, parseErrors(t, `return 1;`),
		"[line 1] Error at 'return': Cannot return from top-level code.")
	parseOK(t, `fun f() { if (true) { return; } }`)
}

func TestInvalidAssignmentTarget(t *testing.T) {
	tokens, _ := lexer.New(`a + b = c; print 1;`).Tokenize()
	stmts, diags := New(tokens).Parse()
	expectMessages(t, diags, "[line 1] Error at '=': Invalid assignment target.")
	// not a panic-mode error: both statements survive
	if len(stmts) != 2 {
		t.Errorf("expected 2 statements, got %d", len(stmts))
	}
}

func TestGroupedAssignmentTargetIsInvalid(t *testing.T) {
	expectMessages(t, parseErrors(t, `(a) = 1;`),
		"[line 1] Error at '=': Invalid assignment target.")
}

func TestMissingSemicolon(t *testing.T) {
	expectMessages(t, parseErrors(t, `print 1`),
		"[line 1] Error at end: Expect ';' after value.")
	expectMessages(t, parseErrors(t, `var x = 1 print x;`),
		"[line 1] Error at 'print': Expect ';' after variable declaration.")
}

func TestExpectExpression(t *testing.T) {
	expectMessages(t, parseErrors(t, `print ;`),
		"[line 1] Error at ';': Expect expression.")
}

func TestMissingParens(t *testing.T) {
	expectMessages(t, parseErrors(t, `if x) print 1;`),
		"[line 1] Error at 'x': Expect '(' after 'if'.")
	expectMessages(t, parseErrors(t, `while (x print 1;`),
		"[line 1] Error at 'print': Expect ')' after condition.")
	expectMessages(t, parseErrors(t, `print (1 + 2;`),
		"[line 1] Error at ';': Expect ')' after expression.")
}

func TestUnclosedBlock(t *testing.T) {
	expectMessages(t, parseErrors(t, "{\n  print 1;\n"),
		"[line 3] Error at end: Expect '}' after block.")
}

func TestRecoveryReportsEveryError(t *testing.T) {
	source := "var = 1;\nprint 2;\nprint ;\nvar ok = 3;\n1 +;"
	tokens, _ := lexer.New(source).Tokenize()
	stmts, diags := New(tokens).Parse()
	expectMessages(t, diags,
		"[line 1] Error at '=': Expect variable name.",
		"[line 3] Error at ';': Expect expression.",
		"[line 5] Error at ';': Expect expression.")
	if len(stmts) != 2 {
		t.Errorf("expected the 2 good statements to survive, got %d", len(stmts))
	}
}

func TestRecoveryStopsAtStatementKeyword(t *testing.T) {
	// no semicolon between the bad statement and the next one
	expectMessages(t, parseErrors(t, "print 1 + 2 3\nvar x = ;"),
		"[line 1] Error at '3': Expect ';' after value.",
		"[line 2] Error at ';': Expect expression.")
}

func TestTooManyArguments(t *testing.T) {
	args := make([]string, 256)
	for i := range args {
		args[i] = "1"
	}
	source := "f(" + strings.Join(args, ", ") + ");"
	tokens, _ := lexer.New(source).Tokenize()
	stmts, diags := New(tokens).Parse()
	expectMessages(t, diags, "[line 1] Error at '1': Can't have more than 255 arguments.")
	call := stmts[0].(*ast.ExprStmt).Expr.(*ast.CallExpr)
	if len(call.Args) != 256 {
		t.Errorf("parsing should continue, expected 256 args, got %d", len(call.Args))
	}
}

func TestMaxArgumentsAllowed(t *testing.T) {
	args := make([]string, MaxArgs)
	for i := range args {
		args[i] = "nil"
	}
	parseOK(t, "f("+strings.Join(args, ",")+");")
}

func TestTooManyParameters(t *testing.T) {
	params := make([]string, 256)
	for i := range params {
		params[i] = "p" + strings.Repeat("x", i)
	}
	diags := parseErrors(t, "fun f("+strings.Join(params, ", ")+") {}")
	if len(diags) != 1 || diags[0].Message != "Can't have more than 255 parameters." {
		t.Errorf("expected one parameter limit error, got %v", diags)
	}
}

func TestParseExpression(t *testing.T) {
	tokens, _ := lexer.New(`1 + 2 * x`).Tokenize()
	expr, diags := New(tokens).ParseExpression()
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if got := ast.Format(expr); got != "(+ 1 (* 2 x))" {
		t.Errorf("unexpected tree %s", got)
	}
}

func TestParseExpressionRejectsStatements(t *testing.T) {
	for _, source := range []string{`print 1;`, `1;`, `var x = 1;`, `1 2`} {
		tokens, _ := lexer.New(source).Tokenize()
		expr, diags := New(tokens).ParseExpression()
		if expr != nil || len(diags) == 0 {
			t.Errorf("%q: expected failure, got %v", source, expr)
		}
	}
}

func TestParseWithoutEOF(t *testing.T) {
	tokens, _ := lexer.New(`print 1;`).Tokenize()
	stmts, diags := New(tokens[:len(tokens)-1]).Parse()
	if len(diags) > 0 || len(stmts) != 1 {
		t.Errorf("expected 1 statement and no errors, got %v %v", stmts, diags)
	}
	if _, diags := New(nil).Parse(); len(diags) > 0 {
		t.Errorf("empty input should parse cleanly, got %v", diags)
	}
}

func TestParseToJSON(t *testing.T) {
	stmts := parseOK(t, "var x = 1;\nprint x + 2;")
	data, err := json.Marshal(ast.StmtSlice(stmts))
	if err != nil {
		t.Fatalf("json error: %v", err)
	}
	var decoded []map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json decode error: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(decoded))
	}
	if decoded[0]["kind"] != "Var" || decoded[0]["name"] != "x" {
		t.Errorf("unexpected var statement: %v", decoded[0])
	}
	expr := decoded[1]["expr"].(map[string]interface{})
	if expr["kind"] != "Binary" || expr["op"] != "+" || expr["line"] != 2.0 {
		t.Errorf("unexpected print operand: %v", expr)
	}
}
