// Package session ties the lexer, parser and interpreter together into one
// interpreter session: a persistent global environment plus the error flags
// a caller consults to pick an exit code.
package session

import (
	"errors"
	"fmt"
	"io"
	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/parser"
	"lox-lang/internal/runtime"
	"lox-lang/internal/token"
)

// Outcome is the result of running one unit of source.
type Outcome int

const (
	Success      Outcome = iota
	StaticError          // lexical or syntax errors; nothing was evaluated
	RuntimeError         // evaluation started and was aborted
)

// Exit codes for each outcome, following sysexits.h.
const (
	ExitOK       = 0
	ExitUsage    = 64
	ExitDataErr  = 65
	ExitSoftware = 70
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case StaticError:
		return "static error"
	case RuntimeError:
		return "runtime error"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ExitCode returns the process exit code conventionally used for o.
func (o Outcome) ExitCode() int {
	switch o {
	case StaticError:
		return ExitDataErr
	case RuntimeError:
		return ExitSoftware
	default:
		return ExitOK
	}
}

// Options configures a session.
type Options struct {
	MaxCallDepth int  // 0 means runtime.DefaultMaxCallDepth
	PrintAST     bool // write each parsed statement to the diagnostic stream
	Color        bool // highlight diagnostics with ANSI red
}

// Session is one interpreter instance with its error flags.
type Session struct {
	out      io.Writer
	errOut   io.Writer
	opts     Options
	reporter *diag.Reporter
	interp   *runtime.Interpreter
}

// New creates a session. Program output goes to out, diagnostics to errOut.
func New(out, errOut io.Writer, opts Options) *Session {
	reporter := diag.NewReporter(errOut)
	reporter.SetColor(opts.Color)

	s := &Session{
		out:      out,
		errOut:   errOut,
		opts:     opts,
		reporter: reporter,
	}
	s.interp = s.newInterpreter()
	return s
}

func (s *Session) newInterpreter() *runtime.Interpreter {
	interp := runtime.NewInterpreter(s.out)
	interp.SetMaxCallDepth(s.opts.MaxCallDepth)
	return interp
}

// HadError reports whether a lexical or syntax error was reported since the
// last Reset.
func (s *Session) HadError() bool { return s.reporter.HadError() }

// HadRuntimeError reports whether a runtime error was reported since the
// last Reset.
func (s *Session) HadRuntimeError() bool { return s.reporter.HadRuntimeError() }

// Reset clears the error flags. Global definitions are kept.
func (s *Session) Reset() {
	s.reporter.Reset()
}

// Restart discards every global definition and clears the error flags.
func (s *Session) Restart() {
	s.interp = s.newInterpreter()
	s.reporter.Reset()
}

// RunSource lexes, parses and executes source. Every lexical and syntax
// error is reported, and evaluation only starts when there were none.
// A runtime error aborts the remaining statements; output printed before it
// stays.
func (s *Session) RunSource(source string) Outcome {
	tokens, lexOK := s.scan(source)
	return s.runTokens(tokens, lexOK)
}

// RunLine runs one line of interactive input. A bare expression is
// evaluated and its value echoed; anything else runs as a program.
// The error flags are cleared afterwards.
func (s *Session) RunLine(line string) Outcome {
	defer s.reporter.Reset()

	tokens, lexOK := s.scan(line)
	if lexOK {
		if expr, diags := parser.New(tokens).ParseExpression(); len(diags) == 0 {
			s.printAST(expr)
			v, outcome := s.evaluate(expr)
			if outcome == Success {
				fmt.Fprintln(s.out, v.String())
			}
			return outcome
		}
	}
	return s.runTokens(tokens, lexOK)
}

// Evaluate lexes, parses and evaluates a single expression against the
// current environment. Errors are reported and yield a nil value.
func (s *Session) Evaluate(source string) (runtime.Value, Outcome) {
	tokens, lexOK := s.scan(source)
	expr, diags := parser.New(tokens).ParseExpression()
	s.reporter.Diagnostics(diags)
	if !lexOK || len(diags) > 0 {
		return nil, StaticError
	}
	return s.evaluate(expr)
}

// scan reports any lexical errors and returns the tokens regardless, so the
// parser can surface syntax errors from the same input.
func (s *Session) scan(source string) ([]token.Token, bool) {
	tokens, diags := lexer.New(source).Tokenize()
	s.reporter.Diagnostics(diags)
	return tokens, len(diags) == 0
}

func (s *Session) runTokens(tokens []token.Token, lexOK bool) Outcome {
	stmts, diags := parser.New(tokens).Parse()
	s.reporter.Diagnostics(diags)
	if !lexOK || len(diags) > 0 {
		return StaticError
	}

	for _, stmt := range stmts {
		s.printAST(stmt)
	}

	if err := s.interp.Execute(stmts); err != nil {
		s.runtimeError(err)
		return RuntimeError
	}
	return Success
}

func (s *Session) evaluate(expr ast.Expr) (runtime.Value, Outcome) {
	v, err := s.interp.Evaluate(expr)
	if err != nil {
		s.runtimeError(err)
		return nil, RuntimeError
	}
	return v, Success
}

func (s *Session) runtimeError(err error) {
	var rtErr *runtime.RuntimeError
	if errors.As(err, &rtErr) {
		s.reporter.RuntimeError(rtErr.Token.Line(), diag.Where(rtErr.Token), rtErr.Message)
		return
	}
	s.reporter.RuntimeError(0, "", err.Error())
}

func (s *Session) printAST(node ast.Node) {
	if s.opts.PrintAST {
		fmt.Fprintln(s.errOut, ast.Format(node))
	}
}
