package session

import (
	"bytes"
	"strings"
	"testing"
)

func newSession(opts Options) (*Session, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return New(&out, &errOut, opts), &out, &errOut
}

func expectRun(t *testing.T, source string, outcome Outcome, stdout, stderr string) {
	t.Helper()
	s, out, errOut := newSession(Options{})
	if got := s.RunSource(source); got != outcome {
		t.Errorf("expected %s, got %s (stderr %q)", outcome, got, errOut.String())
	}
	if out.String() != stdout {
		t.Errorf("stdout mismatch:\nexpected: %q\ngot:      %q", stdout, out.String())
	}
	if errOut.String() != stderr {
		t.Errorf("stderr mismatch:\nexpected: %q\ngot:      %q", stderr, errOut.String())
	}
}

func TestRunSourceSuccess(t *testing.T) {
	expectRun(t, `print 1 + 2 * 3; print (1 + 2) * 3;`, Success, "7\n9\n", "")
}

func TestRunSourceShadowing(t *testing.T) {
	expectRun(t, `var a = 1; { var a = 2; print a; } print a;`, Success, "2\n1\n", "")
}

func TestRunSourceStaticErrorSkipsEvaluation(t *testing.T) {
	expectRun(t, "print \"before\";\nprint 1 +;", StaticError, "",
		"[line 2] Error at ';': Expect expression.\n")
}

func TestRunSourceReportsLexAndParseErrors(t *testing.T) {
	expectRun(t, "var x = @;\nprint ;", StaticError, "",
		"[line 1] Error: Unexpected character.\n"+
			"[line 1] Error at ';': Expect expression.\n"+
			"[line 2] Error at ';': Expect expression.\n")
}

func TestRunSourceUnterminatedString(t *testing.T) {
	expectRun(t, "print \"oops;\n", StaticError, "",
		"[line 1] Error: Unterminated string.\n"+
			"[line 2] Error at end: Expect expression.\n")
}

func TestRunSourceRuntimeError(t *testing.T) {
	expectRun(t, "print 1;\nprint 1/0;\nprint 2;", RuntimeError, "1\n",
		"[line 2] Error at '/': Division by zero.\n")
}

func TestRunSourceBreakOutsideLoop(t *testing.T) {
	expectRun(t, `print 1; break;`, StaticError, "",
		"[line 1] Error at 'break': Cannot use 'break' outside of a loop.\n")
}

func TestBooleanPlusNumberIsRuntimeError(t *testing.T) {
	expectRun(t, `print true + 1;`, RuntimeError, "",
		"[line 1] Error at '+': Operands must be two numbers or two strings.\n")
}

func TestFlags(t *testing.T) {
	s, _, _ := newSession(Options{})
	s.RunSource(`print ;`)
	if !s.HadError() || s.HadRuntimeError() {
		t.Errorf("expected only the static flag, got %v %v", s.HadError(), s.HadRuntimeError())
	}
	s.RunSource(`print nope;`)
	if !s.HadRuntimeError() {
		t.Error("expected the runtime flag")
	}
	s.Reset()
	if s.HadError() || s.HadRuntimeError() {
		t.Error("Reset should clear both flags")
	}
}

func TestGlobalsPersistAcrossRuns(t *testing.T) {
	s, out, _ := newSession(Options{})
	s.RunSource(`var x = 1; fun inc() { x = x + 1; }`)
	s.RunSource(`inc(); inc();`)
	if s.RunSource(`print x;`) != Success || out.String() != "3\n" {
		t.Errorf("expected 3, got %q", out.String())
	}
}

func TestRuntimeErrorKeepsSession(t *testing.T) {
	s, out, _ := newSession(Options{})
	s.RunSource(`var x = "kept"; print undefined;`)
	if s.RunSource(`print x;`) != Success || out.String() != "kept\n" {
		t.Errorf("expected globals to survive a runtime error, got %q", out.String())
	}
}

func TestRestart(t *testing.T) {
	s, _, errOut := newSession(Options{})
	s.RunSource(`var x = 1;`)
	s.Restart()
	if got := s.RunSource(`print x;`); got != RuntimeError {
		t.Errorf("expected x to be gone after Restart, got %s", got)
	}
	if !strings.Contains(errOut.String(), "Undefined variable 'x'.") {
		t.Errorf("unexpected stderr %q", errOut.String())
	}
}

func TestIdempotentDiagnostics(t *testing.T) {
	s, out, errOut := newSession(Options{})
	source := "1 + 2;\n\"a\" - 1;"
	s.RunSource(source)
	first := out.String() + errOut.String()
	out.Reset()
	errOut.Reset()
	s.RunSource(source)
	second := out.String() + errOut.String()
	if first != second {
		t.Errorf("runs differ:\nfirst:  %q\nsecond: %q", first, second)
	}
	if first != "[line 2] Error at '-': Operands must be numbers.\n" {
		t.Errorf("unexpected output %q", first)
	}
}

func TestEvaluate(t *testing.T) {
	s, _, _ := newSession(Options{})
	s.RunSource(`var base = 10;`)
	v, outcome := s.Evaluate(`base * 2 + 1`)
	if outcome != Success || v.String() != "21" {
		t.Errorf("expected 21, got %v (%s)", v, outcome)
	}
}

func TestEvaluateErrorIsCaught(t *testing.T) {
	s, _, errOut := newSession(Options{})
	v, outcome := s.Evaluate(`1 / 0`)
	if v != nil || outcome != RuntimeError {
		t.Errorf("expected runtime error, got %v %s", v, outcome)
	}
	if errOut.String() != "[line 1] Error at '/': Division by zero.\n" {
		t.Errorf("unexpected stderr %q", errOut.String())
	}
	// later work is unaffected
	if v, outcome := s.Evaluate(`2 + 2`); outcome != Success || v.String() != "4" {
		t.Errorf("expected 4, got %v %s", v, outcome)
	}
}

func TestEvaluateRejectsStatements(t *testing.T) {
	s, _, errOut := newSession(Options{})
	if _, outcome := s.Evaluate(`print 1;`); outcome != StaticError {
		t.Errorf("expected static error, got %s", outcome)
	}
	if errOut.Len() == 0 {
		t.Error("expected a diagnostic")
	}
}

func TestRunLineEchoesExpressions(t *testing.T) {
	s, out, _ := newSession(Options{})
	s.RunLine(`var x = 4;`)
	s.RunLine(`x * 2`)
	s.RunLine(`"a" + "b"`)
	s.RunLine(`print x;`)
	s.RunLine(`x = 5`)
	s.RunLine(`x`)
	if out.String() != "8\nab\n4\n5\n5\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRunLineResetsFlags(t *testing.T) {
	s, out, errOut := newSession(Options{})
	if got := s.RunLine(`print ;`); got != StaticError {
		t.Errorf("expected static error, got %s", got)
	}
	if s.HadError() {
		t.Error("flags should be cleared after each line")
	}
	if got := s.RunLine(`1 / 0`); got != RuntimeError {
		t.Errorf("expected runtime error, got %s", got)
	}
	if s.HadRuntimeError() {
		t.Error("flags should be cleared after each line")
	}
	if got := s.RunLine(`print "fine";`); got != Success {
		t.Errorf("expected success, got %s", got)
	}
	if out.String() != "fine\n" {
		t.Errorf("unexpected output %q", out.String())
	}
	if strings.Count(errOut.String(), "\n") != 2 {
		t.Errorf("expected 2 diagnostics, got %q", errOut.String())
	}
}

func TestPrintAST(t *testing.T) {
	s, out, errOut := newSession(Options{PrintAST: true})
	s.RunSource(`print 1 + 2;`)
	if errOut.String() != "(print (+ 1 2))\n" {
		t.Errorf("unexpected AST dump %q", errOut.String())
	}
	if out.String() != "3\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestColor(t *testing.T) {
	s, _, errOut := newSession(Options{Color: true})
	s.RunSource(`print ;`)
	if errOut.String() != "\033[31m[line 1] Error at ';': Expect expression.\033[0m\n" {
		t.Errorf("unexpected colored output %q", errOut.String())
	}
}

func TestMaxCallDepth(t *testing.T) {
	s, _, errOut := newSession(Options{MaxCallDepth: 10})
	if got := s.RunSource(`fun f() { f(); } f();`); got != RuntimeError {
		t.Fatalf("expected runtime error, got %s", got)
	}
	if errOut.String() != "[line 1] Error at ')': Stack overflow.\n" {
		t.Errorf("unexpected stderr %q", errOut.String())
	}
}

func TestExitCodes(t *testing.T) {
	tests := map[Outcome]int{Success: 0, StaticError: 65, RuntimeError: 70}
	for outcome, code := range tests {
		if outcome.ExitCode() != code {
			t.Errorf("%s: expected %d, got %d", outcome, code, outcome.ExitCode())
		}
	}
}
