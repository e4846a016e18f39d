// Package lexer implements the lexical analysis (tokenization) for Lox source.
package lexer

import (
	"lox-lang/internal/diag"
	"lox-lang/internal/span"
	"lox-lang/internal/token"
	"strconv"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source string

	start    int           // offset of the first byte of the lexeme being scanned
	startPos span.Position // position of start
	pos      int           // current read position in source
	line     int           // current line (1-based)
	col      int           // current column (1-based)

	tokens []token.Token
	diags  []diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source string) *Lexer {
	return &Lexer{
		source: source,
		line:   1,
		col:    1,
	}
}

// Tokenize scans the entire source and returns all tokens and diagnostics.
// The token slice always ends with an EOF token on the final line, even when
// errors were found.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	for !l.isAtEnd() {
		l.start = l.pos
		l.startPos = l.curPos()
		l.scanToken()
	}

	end := l.curPos()
	l.tokens = append(l.tokens, token.Token{
		Kind: token.EOF,
		Span: span.Span{Start: end, End: end},
	})
	return l.tokens, l.diags
}

// ---- internal helpers ----

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

// peek returns the current character without advancing, or 0 if at end.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

// peekNext returns the character after current, or 0 if at end.
func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

// advance consumes the current character and returns it.
func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

// match consumes the current character only if it is expected.
func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// lexemeSpan returns the span of the lexeme scanned so far.
func (l *Lexer) lexemeSpan() span.Span {
	return span.Span{Start: l.startPos, End: l.curPos()}
}

func (l *Lexer) addToken(kind token.Kind, literal interface{}) {
	l.tokens = append(l.tokens, token.Token{
		Kind:    kind,
		Lexeme:  l.source[l.start:l.pos],
		Literal: literal,
		Span:    l.lexemeSpan(),
	})
}

// addError records a diagnostic against the lexeme currently being scanned,
// so it is reported on the line the lexeme started on.
func (l *Lexer) addError(code, msg string) {
	l.diags = append(l.diags, diag.Errorf(code, l.lexemeSpan(), "%s", msg))
}

// ---- token reading ----

func (l *Lexer) scanToken() {
	ch := l.advance()

	switch ch {
	case '(':
		l.addToken(token.LPAREN, nil)
	case ')':
		l.addToken(token.RPAREN, nil)
	case '{':
		l.addToken(token.LBRACE, nil)
	case '}':
		l.addToken(token.RBRACE, nil)
	case ',':
		l.addToken(token.COMMA, nil)
	case '.':
		l.addToken(token.DOT, nil)
	case '-':
		l.addToken(token.MINUS, nil)
	case '+':
		l.addToken(token.PLUS, nil)
	case ';':
		l.addToken(token.SEMICOLON, nil)
	case '*':
		l.addToken(token.STAR, nil)

	case '!':
		if l.match('=') {
			l.addToken(token.NEQ, nil)
		} else {
			l.addToken(token.BANG, nil)
		}
	case '=':
		if l.match('=') {
			l.addToken(token.EQ, nil)
		} else {
			l.addToken(token.ASSIGN, nil)
		}
	case '<':
		if l.match('=') {
			l.addToken(token.LTE, nil)
		} else {
			l.addToken(token.LT, nil)
		}
	case '>':
		if l.match('=') {
			l.addToken(token.GTE, nil)
		} else {
			l.addToken(token.GT, nil)
		}

	case '/':
		switch {
		case l.match('/'):
			l.skipLineComment()
		case l.match('*'):
			l.skipBlockComment()
		default:
			l.addToken(token.SLASH, nil)
		}

	case ' ', '\r', '\t', '\n':
		// advance already tracked the line change

	case '"':
		l.readString()

	default:
		switch {
		case isDigit(ch):
			l.readNumber()
		case isIdentStart(ch):
			l.readIdentifier()
		default:
			l.addError("E1003", "Unexpected character.")
		}
	}
}

// skipLineComment skips from // to end of line. The newline itself is left
// for the main loop.
func (l *Lexer) skipLineComment() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
}

// skipBlockComment skips a /* ... */ comment whose opener was already
// consumed. Comments nest: every inner /* needs its own */.
func (l *Lexer) skipBlockComment() {
	depth := 1
	for !l.isAtEnd() {
		switch {
		case l.peek() == '/' && l.peekNext() == '*':
			l.advance()
			l.advance()
			depth++
		case l.peek() == '*' && l.peekNext() == '/':
			l.advance()
			l.advance()
			depth--
			if depth == 0 {
				return
			}
		default:
			l.advance()
		}
	}
	l.addError("E1002", "Unterminated block comment.")
}

// readString reads a string literal. Strings may span lines; the literal is
// the raw text between the quotes.
func (l *Lexer) readString() {
	for !l.isAtEnd() && l.peek() != '"' {
		l.advance()
	}

	if l.isAtEnd() {
		l.addError("E1001", "Unterminated string.")
		return
	}

	l.advance() // closing "
	l.addToken(token.STRING, l.source[l.start+1:l.pos-1])
}

// readNumber reads digit+ ('.' digit+)?.
func (l *Lexer) readNumber() {
	for isDigit(l.peek()) {
		l.advance()
	}

	// A trailing '.' without digits is left for the DOT token
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance() // skip '.'
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	value, _ := strconv.ParseFloat(l.source[l.start:l.pos], 64)
	l.addToken(token.NUMBER, value)
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier() {
	for isIdentPart(l.peek()) {
		l.advance()
	}
	l.addToken(token.LookupIdent(l.source[l.start:l.pos]), nil)
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
