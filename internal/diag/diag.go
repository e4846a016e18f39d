// Package diag provides the diagnostic type and the error-reporting sink
// shared by the lexer, parser and interpreter.
package diag

import (
	"fmt"
	"io"
	"lox-lang/internal/span"
	"lox-lang/internal/token"
)

// Diagnostic represents a lexical or syntax error.
type Diagnostic struct {
	Code    string    `json:"code"`            // stable error code, e.g. "E1001"
	Message string    `json:"message"`         // human-readable description
	Where   string    `json:"where,omitempty"` // location suffix, e.g. " at 'x'" or " at end"
	Span    span.Span `json:"span"`            // source location
}

// Line returns the source line of the diagnostic.
func (d Diagnostic) Line() int {
	return d.Span.Line()
}

// String renders the diagnostic in the canonical one-line form.
func (d Diagnostic) String() string {
	return Format(d.Line(), d.Where, d.Message)
}

// Format renders "[line N] Error<where>: <message>".
func Format(line int, where, message string) string {
	return fmt.Sprintf("[line %d] Error%s: %s", line, where, message)
}

// Errorf creates a diagnostic at the given span with no location suffix.
// The lexer uses it, since it has no token to point at yet.
func Errorf(code string, s span.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Span:    s,
	}
}

// AtToken creates a diagnostic pointing at tok.
func AtToken(code string, tok token.Token, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Where:   Where(tok),
		Span:    tok.Span,
	}
}

// Where returns the location suffix used when reporting against tok.
func Where(tok token.Token) string {
	if tok.Kind == token.EOF {
		return " at end"
	}
	return fmt.Sprintf(" at '%s'", tok.Lexeme)
}

// ---- Reporter ----

const (
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

// Reporter is the single sink every lexical, syntax and runtime error goes
// through. It remembers whether an error was reported so the caller can pick
// an exit code or decide to skip evaluation.
type Reporter struct {
	w     io.Writer
	color bool

	hadError        bool
	hadRuntimeError bool
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// SetColor toggles ANSI red highlighting of reported lines.
func (r *Reporter) SetColor(on bool) {
	r.color = on
}

// Report writes one formatted error line and sets the static error flag.
func (r *Reporter) Report(line int, where, message string) {
	r.write(Format(line, where, message))
	r.hadError = true
}

// Diagnostic reports d.
func (r *Reporter) Diagnostic(d Diagnostic) {
	r.Report(d.Line(), d.Where, d.Message)
}

// Diagnostics reports each of diags in order.
func (r *Reporter) Diagnostics(diags []Diagnostic) {
	for _, d := range diags {
		r.Diagnostic(d)
	}
}

// RuntimeError writes one formatted error line and sets the runtime error flag.
func (r *Reporter) RuntimeError(line int, where, message string) {
	r.write(Format(line, where, message))
	r.hadRuntimeError = true
}

// HadError reports whether a lexical or syntax error was reported since the last Reset.
func (r *Reporter) HadError() bool { return r.hadError }

// HadRuntimeError reports whether a runtime error was reported since the last Reset.
func (r *Reporter) HadRuntimeError() bool { return r.hadRuntimeError }

// Reset clears both error flags.
func (r *Reporter) Reset() {
	r.hadError = false
	r.hadRuntimeError = false
}

func (r *Reporter) write(line string) {
	if r.color {
		fmt.Fprintf(r.w, "%s%s%s\n", colorRed, line, colorReset)
		return
	}
	fmt.Fprintln(r.w, line)
}
