// Package parser implements the syntax analysis for Lox.
// It is a recursive-descent parser with one function per precedence level
// and panic-mode error recovery at declaration boundaries.
//
//	program     → declaration* EOF
//	declaration → varDecl | funDecl | statement
//	statement   → ifStmt | forStmt | whileStmt | breakStmt | returnStmt
//	            | printStmt | block | exprStmt
//	expression  → assignment
//	assignment  → IDENTIFIER "=" assignment | logic_or
//	logic_or    → logic_and ("or" logic_and)*
//	logic_and   → equality ("and" equality)*
//	equality    → comparison (("!="|"==") comparison)*
//	comparison  → term ((">"|">="|"<"|"<=") term)*
//	term        → factor (("-"|"+") factor)*
//	factor      → unary (("/"|"*") unary)*
//	unary       → ("!"|"-") unary | call
//	call        → primary ("(" arguments? ")")*
//	primary     → NUMBER | STRING | "true" | "false" | "nil"
//	            | "(" expression ")" | IDENTIFIER
package parser

import (
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/token"
)

// MaxArgs is the most arguments a call, or parameters a function, may have.
const MaxArgs = 255

// parseError unwinds the recursive descent to the nearest declaration, which
// then resynchronizes. Its diagnostic has already been recorded.
type parseError struct {
	diag diag.Diagnostic
}

func (e *parseError) Error() string {
	return e.diag.String()
}

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
	diags  []diag.Diagnostic

	loopDepth int // enclosing while/for bodies; 'break' needs > 0
	funcDepth int // enclosing function bodies; 'return' needs > 0
}

// New creates a new parser from a token slice. A missing trailing EOF token
// is supplied.
func New(tokens []token.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != token.EOF {
		var eof token.Token
		if len(tokens) > 0 {
			end := tokens[len(tokens)-1].Span.End
			eof.Span.Start, eof.Span.End = end, end
		}
		eof.Kind = token.EOF
		tokens = append(tokens[:len(tokens):len(tokens)], eof)
	}
	return &Parser{tokens: tokens}
}

// Parse parses a whole program. Statements that failed to parse are dropped;
// every problem found is returned as a diagnostic.
func (p *Parser) Parse() ([]ast.Stmt, []diag.Diagnostic) {
	var stmts []ast.Stmt
	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, p.diags
}

// ParseExpression parses a single expression that must span all tokens.
func (p *Parser) ParseExpression() (ast.Expr, []diag.Diagnostic) {
	expr, err := p.expression()
	if err != nil {
		return nil, p.diags
	}
	if !p.isAtEnd() {
		p.errorAt(p.peek(), "E2001", "Expect end of expression.")
		return nil, p.diags
	}
	return expr, p.diags
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.pos-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == token.EOF
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) check(kind token.Kind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == kind
}

// match consumes the current token if it is any of kinds.
func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

// consume returns the current token if it has the given kind, else a parse error.
func (p *Parser) consume(kind token.Kind, msg string) (token.Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	return token.Token{}, p.errorAt(p.peek(), "E2001", msg)
}

// report records a diagnostic without disturbing the parse.
func (p *Parser) report(tok token.Token, code, msg string) diag.Diagnostic {
	d := diag.AtToken(code, tok, "%s", msg)
	p.diags = append(p.diags, d)
	return d
}

// errorAt records a diagnostic and returns the error that triggers recovery.
func (p *Parser) errorAt(tok token.Token, code, msg string) error {
	return &parseError{diag: p.report(tok, code, msg)}
}

// ============================================================
// Error recovery
// ============================================================

// synchronize discards tokens until a likely statement boundary: just past a
// ';' or just before a keyword that begins a declaration or statement.
func (p *Parser) synchronize() {
	p.advance()

	for !p.isAtEnd() {
		if p.previous().Kind == token.SEMICOLON {
			return
		}
		switch p.peek().Kind {
		case token.KW_CLASS, token.KW_FUN, token.KW_VAR, token.KW_FOR,
			token.KW_IF, token.KW_WHILE, token.KW_PRINT, token.KW_RETURN:
			return
		}
		p.advance()
	}
}

// ============================================================
// Declarations
// ============================================================

func (p *Parser) declaration() ast.Stmt {
	var (
		stmt ast.Stmt
		err  error
	)
	switch {
	case p.match(token.KW_VAR):
		stmt, err = p.varDeclaration()
	case p.match(token.KW_FUN):
		stmt, err = p.function("function")
	default:
		stmt, err = p.statement()
	}
	if err != nil {
		p.synchronize()
		return nil
	}
	return stmt
}

// varDeclaration parses: "var" IDENTIFIER ( "=" expression )? ";"
func (p *Parser) varDeclaration() (ast.Stmt, error) {
	name, err := p.consume(token.IDENT, "Expect variable name.")
	if err != nil {
		return nil, err
	}

	var init ast.Expr
	if p.match(token.ASSIGN) {
		if init, err = p.expression(); err != nil {
			return nil, err
		}
	}

	if _, err := p.consume(token.SEMICOLON, "Expect ';' after variable declaration."); err != nil {
		return nil, err
	}
	return &ast.VarStmt{Name: name, Initializer: init}, nil
}

// function parses: IDENTIFIER "(" parameters? ")" block
func (p *Parser) function(kind string) (ast.Stmt, error) {
	name, err := p.consume(token.IDENT, "Expect "+kind+" name.")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LPAREN, "Expect '(' after "+kind+" name."); err != nil {
		return nil, err
	}

	var params []token.Token
	if !p.check(token.RPAREN) {
		for {
			if len(params) >= MaxArgs {
				p.report(p.peek(), "E2003", "Can't have more than 255 parameters.")
			}
			param, err := p.consume(token.IDENT, "Expect parameter name.")
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.consume(token.RPAREN, "Expect ')' after parameters."); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "Expect '{' before "+kind+" body."); err != nil {
		return nil, err
	}

	// A function body starts outside of any loop: 'break' cannot cross a call.
	savedLoops := p.loopDepth
	p.loopDepth = 0
	p.funcDepth++
	defer func() {
		p.funcDepth--
		p.loopDepth = savedLoops
	}()

	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.FuncStmt{Name: name, Params: params, Body: body}, nil
}

// ============================================================
// Statements
// ============================================================

func (p *Parser) statement() (ast.Stmt, error) {
	switch {
	case p.match(token.KW_IF):
		return p.ifStatement()
	case p.match(token.KW_RETURN):
		return p.returnStatement()
	case p.match(token.KW_PRINT):
		return p.printStatement()
	case p.match(token.KW_FOR):
		return p.forStatement()
	case p.match(token.KW_WHILE):
		return p.whileStatement()
	case p.match(token.KW_BREAK):
		return p.breakStatement()
	case p.match(token.LBRACE):
		stmts, err := p.block()
		if err != nil {
			return nil, err
		}
		return &ast.BlockStmt{Stmts: stmts}, nil
	default:
		return p.expressionStatement()
	}
}

// block parses the rest of a block after its '{'.
func (p *Parser) block() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	if _, err := p.consume(token.RBRACE, "Expect '}' after block."); err != nil {
		return nil, err
	}
	return stmts, nil
}

// ifStatement parses: "if" "(" expression ")" statement ( "else" statement )?
func (p *Parser) ifStatement() (ast.Stmt, error) {
	if _, err := p.consume(token.LPAREN, "Expect '(' after 'if'."); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN, "Expect ')' after if condition."); err != nil {
		return nil, err
	}

	then, err := p.statement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Condition: cond, Then: then}
	if p.match(token.KW_ELSE) {
		if stmt.Else, err = p.statement(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// whileStatement parses: "while" "(" expression ")" statement
func (p *Parser) whileStatement() (ast.Stmt, error) {
	if _, err := p.consume(token.LPAREN, "Expect '(' after 'while'."); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN, "Expect ')' after condition."); err != nil {
		return nil, err
	}

	body, err := p.loopBody()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Condition: cond, Body: body}, nil
}

// forStatement parses a C-style for loop and desugars it:
//
//	for (init; cond; incr) body  →  { init; while (cond) { body; incr; } }
//
// A missing condition becomes the literal true.
func (p *Parser) forStatement() (ast.Stmt, error) {
	if _, err := p.consume(token.LPAREN, "Expect '(' after 'for'."); err != nil {
		return nil, err
	}

	var (
		init ast.Stmt
		err  error
	)
	switch {
	case p.match(token.SEMICOLON):
		// no initializer
	case p.match(token.KW_VAR):
		init, err = p.varDeclaration()
	default:
		init, err = p.expressionStatement()
	}
	if err != nil {
		return nil, err
	}

	var cond ast.Expr
	if !p.check(token.SEMICOLON) {
		if cond, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.SEMICOLON, "Expect ';' after loop condition."); err != nil {
		return nil, err
	}

	var incr ast.Expr
	if !p.check(token.RPAREN) {
		if incr, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.RPAREN, "Expect ')' after for clauses."); err != nil {
		return nil, err
	}

	body, err := p.loopBody()
	if err != nil {
		return nil, err
	}

	loopStmts := []ast.Stmt{body}
	if incr != nil {
		loopStmts = append(loopStmts, &ast.ExprStmt{Expr: incr})
	}
	if cond == nil {
		cond = &ast.LiteralExpr{Kind: token.KW_TRUE}
	}

	var outer []ast.Stmt
	if init != nil {
		outer = append(outer, init)
	}
	outer = append(outer, &ast.WhileStmt{
		Condition: cond,
		Body:      &ast.BlockStmt{Stmts: loopStmts},
	})
	return &ast.BlockStmt{Stmts: outer}, nil
}

// loopBody parses a loop body statement with loopDepth raised.
func (p *Parser) loopBody() (ast.Stmt, error) {
	p.loopDepth++
	defer func() { p.loopDepth-- }()
	return p.statement()
}

// breakStatement parses: "break" ";"
// Using it outside a loop is reported but does not trigger recovery.
func (p *Parser) breakStatement() (ast.Stmt, error) {
	keyword := p.previous()
	if _, err := p.consume(token.SEMICOLON, "Expect ';' after 'break'."); err != nil {
		return nil, err
	}
	if p.loopDepth == 0 {
		p.report(keyword, "E2004", "Cannot use 'break' outside of a loop.")
	}
	return &ast.BreakStmt{Keyword: keyword}, nil
}

// returnStatement parses: "return" expression? ";"
func (p *Parser) returnStatement() (ast.Stmt, error) {
	keyword := p.previous()
	if p.funcDepth == 0 {
		p.report(keyword, "E2005", "Cannot return from top-level code.")
	}

	var value ast.Expr
	if !p.check(token.SEMICOLON) {
		var err error
		if value, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.SEMICOLON, "Expect ';' after return value."); err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Keyword: keyword, Value: value}, nil
}

// printStatement parses: "print" expression ";"
func (p *Parser) printStatement() (ast.Stmt, error) {
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "Expect ';' after value."); err != nil {
		return nil, err
	}
	return &ast.PrintStmt{Expr: value}, nil
}

// expressionStatement parses: expression ";"
func (p *Parser) expressionStatement() (ast.Stmt, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "Expect ';' after expression."); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expr: expr}, nil
}

// ============================================================
// Expressions
// ============================================================

func (p *Parser) expression() (ast.Expr, error) {
	return p.assignment()
}

// assignment is right-associative. A non-variable target is reported, but
// the parser is not confused, so parsing continues with the left side.
func (p *Parser) assignment() (ast.Expr, error) {
	expr, err := p.or()
	if err != nil {
		return nil, err
	}

	if p.match(token.ASSIGN) {
		equals := p.previous()
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}
		if v, ok := expr.(*ast.VariableExpr); ok {
			return &ast.AssignExpr{Name: v.Name, Value: value}, nil
		}
		p.report(equals, "E2002", "Invalid assignment target.")
	}
	return expr, nil
}

func (p *Parser) or() (ast.Expr, error) {
	expr, err := p.and()
	for err == nil && p.match(token.KW_OR) {
		op := p.previous()
		var right ast.Expr
		if right, err = p.and(); err == nil {
			expr = &ast.LogicalExpr{Left: expr, Op: op, Right: right}
		}
	}
	return expr, err
}

func (p *Parser) and() (ast.Expr, error) {
	expr, err := p.equality()
	for err == nil && p.match(token.KW_AND) {
		op := p.previous()
		var right ast.Expr
		if right, err = p.equality(); err == nil {
			expr = &ast.LogicalExpr{Left: expr, Op: op, Right: right}
		}
	}
	return expr, err
}

func (p *Parser) equality() (ast.Expr, error) {
	return p.binary(p.comparison, token.NEQ, token.EQ)
}

func (p *Parser) comparison() (ast.Expr, error) {
	return p.binary(p.term, token.GT, token.GTE, token.LT, token.LTE)
}

func (p *Parser) term() (ast.Expr, error) {
	return p.binary(p.factor, token.MINUS, token.PLUS)
}

func (p *Parser) factor() (ast.Expr, error) {
	return p.binary(p.unary, token.SLASH, token.STAR)
}

// binary parses one left-associative precedence level: operand (op operand)*.
func (p *Parser) binary(operand func() (ast.Expr, error), ops ...token.Kind) (ast.Expr, error) {
	expr, err := operand()
	for err == nil && p.match(ops...) {
		op := p.previous()
		var right ast.Expr
		if right, err = operand(); err == nil {
			expr = &ast.BinaryExpr{Left: expr, Op: op, Right: right}
		}
	}
	return expr, err
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.match(token.BANG, token.MINUS) {
		op := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: op, Right: right}, nil
	}
	return p.call()
}

func (p *Parser) call() (ast.Expr, error) {
	expr, err := p.primary()
	for err == nil && p.match(token.LPAREN) {
		expr, err = p.finishCall(expr)
	}
	return expr, err
}

// finishCall parses the arguments after '(' and the closing ')'.
func (p *Parser) finishCall(callee ast.Expr) (ast.Expr, error) {
	var args []ast.Expr
	if !p.check(token.RPAREN) {
		for {
			if len(args) >= MaxArgs {
				p.report(p.peek(), "E2003", "Can't have more than 255 arguments.")
			}
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	paren, err := p.consume(token.RPAREN, "Expect ')' after arguments.")
	if err != nil {
		return nil, err
	}
	return &ast.CallExpr{Callee: callee, Paren: paren, Args: args}, nil
}

func (p *Parser) primary() (ast.Expr, error) {
	switch {
	case p.match(token.KW_FALSE, token.KW_TRUE, token.KW_NIL):
		return &ast.LiteralExpr{Kind: p.previous().Kind}, nil
	case p.match(token.NUMBER, token.STRING):
		tok := p.previous()
		return &ast.LiteralExpr{Kind: tok.Kind, Value: tok.Literal}, nil
	case p.match(token.IDENT):
		return &ast.VariableExpr{Name: p.previous()}, nil
	case p.match(token.LPAREN):
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RPAREN, "Expect ')' after expression."); err != nil {
			return nil, err
		}
		return &ast.GroupingExpr{Inner: expr}, nil
	}
	return nil, p.errorAt(p.peek(), "E2001", "Expect expression.")
}
