// Package logging is the leveled status printer of spec.md §6's CLI surface
// (`--compact`, `--verbose`, `--log-level N`), grounded on pycpa/log.py's
// LogPrinter and colorized the way kanso's cmd/kanso-cli/main.go colors its
// status lines with github.com/fatih/color.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"reachcheck/internal/task"
)

// Printer is LogPrinter: every method is a no-op under Compact except
// Result, which always prints (spec.md §6: "A compact summary line
// `<program>: <status> <verdict>` is always emitted").
type Printer struct {
	Out      io.Writer
	Compact  bool
	LogLevel int
}

// New returns a Printer writing to os.Stdout.
func New(compact bool, logLevel int) *Printer {
	return &Printer{Out: os.Stdout, Compact: compact, LogLevel: logLevel}
}

// Status prints an in-place progress line (log_status), suppressed when
// Compact.
func (p *Printer) Status(msg string) {
	if p.Compact {
		return
	}
	fmt.Fprintf(p.Out, "\r%s", msg)
}

// Task announces what is about to be verified against which configs and
// properties (log_task).
func (p *Printer) Task(programName string, configs, properties []string) {
	if p.Compact {
		return
	}
	fmt.Fprintf(p.Out, "Verifying %s against %s using %s\n",
		programName, oneOrList(properties), oneOrList(configs))
}

// Debug prints msg only when level is within the configured verbosity and
// not Compact (log_debug).
func (p *Printer) Debug(level int, msg string) {
	if p.Compact || p.LogLevel < level {
		return
	}
	fmt.Fprintln(p.Out, msg)
}

// verdictColor picks the teacher's green/red convention: TRUE is safe
// (green), FALSE is a confirmed bug (red), UNKNOWN is yellow.
func verdictColor(v task.Verdict) *color.Color {
	switch v {
	case task.VerdictTrue:
		return color.New(color.FgGreen, color.Bold)
	case task.VerdictFalse:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow, color.Bold)
	}
}

// Result prints the final verdict line, always (even under Compact), per
// spec.md §6's mandated summary line (log_result).
func (p *Printer) Result(r *task.Result, programName string, note string) {
	line := fmt.Sprintf("%s: %s ", programName, r.Status)
	c := verdictColor(r.Verdict)
	if p.Compact {
		fmt.Fprintln(p.Out, line+r.Verdict.String()+suffix(note))
		return
	}
	fmt.Fprint(p.Out, "\n"+line)
	c.Fprint(p.Out, r.Verdict.String())
	fmt.Fprintln(p.Out, suffix(note))
}

// Intermediate prints a per-refinement status line (log_intermediate_result),
// gated on LogLevel >= 1 and not Compact.
func (p *Printer) Intermediate(r *task.Result, programName string, iteration int) {
	if p.Compact || p.LogLevel < 1 {
		return
	}
	fmt.Fprintf(p.Out, "\n%s: %s %s (refinement %d)\n", programName, r.Status, r.Verdict, iteration)
}

func suffix(note string) string {
	if note == "" {
		return ""
	}
	return " (" + note + ")"
}

func oneOrList(items []string) string {
	if len(items) == 1 {
		return items[0]
	}
	return "[" + strings.Join(items, ", ") + "]"
}
