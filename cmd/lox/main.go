// Command lox is the CLI entry point for the Lox interpreter.
//
// Usage:
//
//	lox [--config <file>]                 Start interactive REPL
//	lox [--config <file>] <script>        Run a script
//	lox run    <file>                     Run a script
//	lox tokens <file> [--json]            Print tokens
//	lox parse  <file> [--json]            Print the syntax tree
//	lox repl                              Start interactive REPL
package main

import (
	"fmt"
	"io"
	"lox-lang/internal/ast"
	"lox-lang/internal/config"
	"lox-lang/internal/diag"
	"lox-lang/internal/lexer"
	"lox-lang/internal/parser"
	"lox-lang/internal/session"
	"os"
	"strings"
)

const exitFailure = 1

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cli carries the process streams and settings shared by every command.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	configPath, args, err := parseConfigFlag(args)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		usage(stderr)
		return session.ExitUsage
	}

	cfg, err := config.Resolve(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr, cfg: cfg}

	if len(args) == 0 {
		return c.cmdRepl()
	}

	command, rest := args[0], args[1:]
	switch command {
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	case "repl":
		if len(rest) > 0 {
			return c.usageError("repl takes no arguments")
		}
		return c.cmdRepl()
	case "run":
		if len(rest) != 1 {
			return c.usageError("run expects exactly one file")
		}
		return c.cmdRun(rest[0])
	case "tokens", "parse":
		file, jsonMode, err := parseFileArgs(rest)
		if err != nil {
			return c.usageError(err.Error())
		}
		if command == "tokens" {
			return c.cmdTokens(file, jsonMode)
		}
		return c.cmdParse(file, jsonMode)
	default:
		if strings.HasPrefix(command, "-") {
			return c.usageError(fmt.Sprintf("unknown flag '%s'", command))
		}
		if len(rest) > 0 {
			return c.usageError("too many arguments")
		}
		return c.cmdRun(command)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  lox [--config <file>] [script]   Run a script, or start the REPL")
	fmt.Fprintln(w, "  lox run    <file>                Run a script")
	fmt.Fprintln(w, "  lox tokens <file> [--json]       Tokenize and print tokens")
	fmt.Fprintln(w, "  lox parse  <file> [--json]       Parse and print the syntax tree")
	fmt.Fprintln(w, "  lox repl                         Start interactive REPL")
}

func (c *cli) usageError(msg string) int {
	fmt.Fprintf(c.stderr, "error: %s\n", msg)
	usage(c.stderr)
	return session.ExitUsage
}

// parseConfigFlag strips a leading --config flag from args.
func parseConfigFlag(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", args, nil
	}
	switch {
	case args[0] == "--config":
		if len(args) < 2 {
			return "", nil, fmt.Errorf("--config requires a file")
		}
		return args[1], args[2:], nil
	case strings.HasPrefix(args[0], "--config="):
		path := strings.TrimPrefix(args[0], "--config=")
		if path == "" {
			return "", nil, fmt.Errorf("--config requires a file")
		}
		return path, args[1:], nil
	}
	return "", args, nil
}

// parseFileArgs accepts "<file> [--json]" in either order.
func parseFileArgs(args []string) (file string, jsonMode bool, err error) {
	for _, arg := range args {
		switch {
		case arg == "--json":
			jsonMode = true
		case strings.HasPrefix(arg, "-"):
			return "", false, fmt.Errorf("unknown flag '%s'", arg)
		case file != "":
			return "", false, fmt.Errorf("too many arguments")
		default:
			file = arg
		}
	}
	if file == "" {
		return "", false, fmt.Errorf("missing file argument")
	}
	return file, jsonMode, nil
}

func (c *cli) readFile(filename string) (string, bool) {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(c.stderr, "error: cannot read file %s: %v\n", filename, err)
		return "", false
	}
	return string(source), true
}

func (c *cli) sessionOptions(color bool) session.Options {
	return session.Options{
		MaxCallDepth: c.cfg.Interpreter.MaxCallDepth,
		PrintAST:     c.cfg.Debug.PrintAST,
		Color:        color,
	}
}

// ---- run command ----

func (c *cli) cmdRun(filename string) int {
	source, ok := c.readFile(filename)
	if !ok {
		return exitFailure
	}
	sess := session.New(c.stdout, c.stderr, c.sessionOptions(false))
	return sess.RunSource(source).ExitCode()
}

// ---- tokens command ----

func (c *cli) cmdTokens(filename string, jsonMode bool) int {
	source, ok := c.readFile(filename)
	if !ok {
		return exitFailure
	}
	tokens, diags := lexer.New(source).Tokenize()

	if jsonMode {
		if err := printTokensJSON(c.stdout, tokens, diags); err != nil {
			fmt.Fprintf(c.stderr, "error: JSON encoding failed: %v\n", err)
			return exitFailure
		}
	} else {
		printTokensText(c.stdout, tokens)
		printDiagsText(c.stderr, diags)
	}

	if len(diags) > 0 {
		return session.ExitDataErr
	}
	return 0
}

// ---- parse command ----

func (c *cli) cmdParse(filename string, jsonMode bool) int {
	source, ok := c.readFile(filename)
	if !ok {
		return exitFailure
	}
	tokens, lexDiags := lexer.New(source).Tokenize()
	stmts, parseDiags := parser.New(tokens).Parse()

	allDiags := append([]diag.Diagnostic{}, lexDiags...)
	allDiags = append(allDiags, parseDiags...)

	if jsonMode {
		output := map[string]interface{}{
			"ast":         ast.StmtSlice(stmts),
			"diagnostics": diagsToSlice(allDiags),
		}
		if err := printJSON(c.stdout, output); err != nil {
			fmt.Fprintf(c.stderr, "error: JSON encoding failed: %v\n", err)
			return exitFailure
		}
	} else {
		for _, stmt := range stmts {
			fmt.Fprintln(c.stdout, ast.Format(stmt))
		}
		printDiagsText(c.stderr, allDiags)
	}

	if len(allDiags) > 0 {
		return session.ExitDataErr
	}
	return 0
}
