// Package token defines the token types produced by the lexer.
package token

import (
	"fmt"
	"lox-lang/internal/span"
)

// Kind represents the type of a token.
type Kind int

const (
	// UNINITIALIZED is the zero Kind. The lexer never produces it.
	UNINITIALIZED Kind = iota

	// Single-character tokens
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	COMMA     // ,
	DOT       // .
	MINUS     // -
	PLUS      // +
	SEMICOLON // ;
	SLASH     // /
	STAR      // *

	// One or two character tokens
	BANG   // !
	NEQ    // !=
	ASSIGN // =
	EQ     // ==
	GT     // >
	GTE    // >=
	LT     // <
	LTE    // <=

	// Literals
	IDENT  // identifiers: x, foo, my_var
	STRING // string literals: "hello"
	NUMBER // number literals: 12, 3.5

	// Keywords
	KW_AND
	KW_CLASS
	KW_ELSE
	KW_FALSE
	KW_FUN
	KW_FOR
	KW_IF
	KW_NIL
	KW_OR
	KW_PRINT
	KW_RETURN
	KW_SUPER
	KW_THIS
	KW_TRUE
	KW_VAR
	KW_WHILE
	KW_BREAK

	EOF
)

var kindNames = map[Kind]string{
	UNINITIALIZED: "UNINITIALIZED",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	COMMA:     ",",
	DOT:       ".",
	MINUS:     "-",
	PLUS:      "+",
	SEMICOLON: ";",
	SLASH:     "/",
	STAR:      "*",

	BANG:   "!",
	NEQ:    "!=",
	ASSIGN: "=",
	EQ:     "==",
	GT:     ">",
	GTE:    ">=",
	LT:     "<",
	LTE:    "<=",

	IDENT:  "IDENT",
	STRING: "STRING",
	NUMBER: "NUMBER",

	KW_AND:    "and",
	KW_CLASS:  "class",
	KW_ELSE:   "else",
	KW_FALSE:  "false",
	KW_FUN:    "fun",
	KW_FOR:    "for",
	KW_IF:     "if",
	KW_NIL:    "nil",
	KW_OR:     "or",
	KW_PRINT:  "print",
	KW_RETURN: "return",
	KW_SUPER:  "super",
	KW_THIS:   "this",
	KW_TRUE:   "true",
	KW_VAR:    "var",
	KW_WHILE:  "while",
	KW_BREAK:  "break",

	EOF: "EOF",
}

// String returns the human-readable name for a token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var keywords = func() map[string]Kind {
	m := make(map[string]Kind, KW_BREAK-KW_AND+1)
	for k := KW_AND; k <= KW_BREAK; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

// LookupIdent returns the keyword Kind for ident, or IDENT if it is not a keyword.
// The match is exact: "Var" is an identifier.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// Token is an immutable record of one scanned lexeme.
//
// Literal carries the decoded payload for NUMBER (float64) and STRING (string)
// tokens and is nil for every other kind.
type Token struct {
	Kind    Kind        `json:"kind"`
	Lexeme  string      `json:"lexeme"`
	Literal interface{} `json:"literal,omitempty"`
	Span    span.Span   `json:"span"`
}

// Line returns the source line the token starts on.
func (t Token) Line() int {
	return t.Span.Line()
}

// String returns a human-readable representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s %q %s", t.Kind, t.Lexeme, t.Span.Start)
}
