package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"lox-lang/internal/session"
	"os"
	"strings"

	"github.com/chzyer/readline"
)

// ---- ANSI colors ----

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// ---- input accumulation ----

// lineBuffer joins REPL lines until every '{' has been closed, so blocks and
// function bodies can span several lines.
type lineBuffer struct {
	buf   strings.Builder
	depth int
}

// Add appends line and returns the accumulated input once it is complete.
func (b *lineBuffer) Add(line string) (string, bool) {
	b.depth += strings.Count(line, "{") - strings.Count(line, "}")
	b.buf.WriteString(line)
	b.buf.WriteString("\n")

	if b.depth > 0 {
		return "", false
	}
	return b.Flush(), true
}

// Flush returns whatever has been accumulated and clears the buffer.
func (b *lineBuffer) Flush() string {
	source := b.buf.String()
	b.Clear()
	return source
}

// Pending reports whether a multi-line input is in progress.
func (b *lineBuffer) Pending() bool {
	return b.depth > 0
}

// Clear drops any partial input.
func (b *lineBuffer) Clear() {
	b.buf.Reset()
	b.depth = 0
}

// ---- repl command ----

// replCommand handles the REPL's own commands. It reports whether the line
// was one, and whether the loop should stop.
func replCommand(sess *session.Session, w io.Writer, line string) (handled, quit bool) {
	switch strings.TrimSpace(line) {
	case "exit":
		return true, true
	case "reset":
		sess.Restart()
		fmt.Fprintln(w, "(environment cleared)")
		return true, false
	}
	return false, false
}

// feed passes one input line through buf and runs the input once complete.
// It reports whether the REPL should stop.
func feed(sess *session.Session, buf *lineBuffer, w io.Writer, line string) bool {
	if !buf.Pending() {
		if handled, quit := replCommand(sess, w, line); handled {
			return quit
		}
	}
	source, ok := buf.Add(line)
	if !ok || strings.TrimSpace(source) == "" {
		return false
	}
	sess.RunLine(source)
	return false
}

func (c *cli) cmdRepl() int {
	if f, ok := c.stdin.(*os.File); ok && readline.IsTerminal(int(f.Fd())) {
		return c.interactiveRepl(f)
	}
	return c.scriptedRepl()
}

// scriptedRepl reads lines from a non-terminal stdin without prompts.
func (c *cli) scriptedRepl() int {
	sess := session.New(c.stdout, c.stderr, c.sessionOptions(false))
	var buf lineBuffer

	scanner := bufio.NewScanner(c.stdin)
	for scanner.Scan() {
		if feed(sess, &buf, c.stdout, scanner.Text()) {
			return 0
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(c.stderr, "error: reading input: %v\n", err)
		return exitFailure
	}
	// input ended inside an unclosed block
	if buf.Pending() {
		sess.RunLine(buf.Flush())
	}
	return 0
}

func (c *cli) interactiveRepl(stdin *os.File) int {
	color := c.cfg.REPL.Color
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + colorReset
	}
	prompt := paint(colorGreen, c.cfg.REPL.Prompt)
	continuation := paint(colorGray, c.cfg.REPL.ContinuationPrompt)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       c.cfg.HistoryPath(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             stdin,
		Stdout:            c.stdout,
		Stderr:            c.stderr,
	})
	if err != nil {
		fmt.Fprintf(c.stderr, "readline init failed: %v\n", err)
		return exitFailure
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "%s %s\n\n",
		paint(colorBold+colorCyan, "Lox REPL"),
		paint(colorGray, "(type 'exit' or Ctrl+D to quit, 'reset' to clear globals)"))

	sess := session.New(rl.Stdout(), rl.Stderr(), c.sessionOptions(color))
	var buf lineBuffer

	for {
		if buf.Pending() {
			rl.SetPrompt(continuation)
		} else {
			rl.SetPrompt(prompt)
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if buf.Pending() {
					// Cancel multi-line input
					buf.Clear()
					continue
				}
				fmt.Fprintln(rl.Stdout(), paint(colorGray, "(use 'exit' or Ctrl+D to quit)"))
				continue
			}
			// EOF (Ctrl+D) or other error → exit
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(rl.Stdout())
			}
			return 0
		}

		if feed(sess, &buf, rl.Stdout(), line) {
			return 0
		}
	}
}
