// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	"reachcheck/internal/ast"
	"reachcheck/internal/cegar"
	"reachcheck/internal/cfa"
	"reachcheck/internal/cfabuild"
	"reachcheck/internal/errors"
	"reachcheck/internal/frontend"
	"reachcheck/internal/logging"
	"reachcheck/internal/solver"
	"reachcheck/internal/task"
	"reachcheck/internal/visual"
)

// repeatedFlag accumulates repeatable -c/-p occurrences, the stdlib
// flag.Value escape hatch for the repeatable flags spec.md §6 asks for;
// no CLI-flags library appears anywhere in the example pack, so this
// stays on flag.Value rather than reaching for one.
type repeatedFlag []string

func (r *repeatedFlag) String() string { return strings.Join(*r, ",") }
func (r *repeatedFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func main() {
	var configs, properties repeatedFlag
	outputDir := flag.String("o", "out", "output directory")
	flag.StringVar(outputDir, "output-directory", "out", "output directory")
	maxIterations := flag.Int("max-iterations", 10000, "work-list iteration budget per fixpoint run")
	maxRefinements := flag.Int("max-refinements", 20, "CEGAR refinement budget")
	compact := flag.Bool("compact", false, "compact one-line output")
	verbose := flag.Bool("verbose", false, "verbose output")
	logLevel := flag.Int("log-level", 0, "debug verbosity level")
	flag.Var(&configs, "c", "analysis configuration (repeatable)")
	flag.Var(&configs, "config", "analysis configuration (repeatable)")
	flag.Var(&properties, "p", "property name (repeatable, default unreach-call)")
	flag.Var(&properties, "property", "property name (repeatable, default unreach-call)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: reachcheck [flags] <program.rc> [program2.rc ...]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if len(configs) == 0 {
		configs = repeatedFlag{string(cegar.PredicateAnalysisCEGAR)}
	}
	if len(properties) == 0 {
		properties = repeatedFlag{"unreach-call"}
	}
	if *verbose && *logLevel == 0 {
		*logLevel = 1
	}

	printer := logging.New(*compact, *logLevel)
	exitCode := 0

	for _, program := range flag.Args() {
		t := task.New(program, configs, properties, *maxIterations, *maxRefinements, *outputDir)
		if !runOne(printer, t) {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

// runOne analyzes one program under every requested configuration,
// combining verdicts with Verdict.And (pycpa/verdict.py's semantics for
// running multiple property/config CPAs) and returns false on an internal
// error (spec.md §6: "Exit codes: 0 on any emitted verdict; nonzero on
// internal error").
func runOne(printer *logging.Printer, t *task.Task) bool {
	printer.Task(t.ProgramName, t.Configs, propertyNames(t.Properties))

	source, err := os.ReadFile(t.Program)
	if err != nil {
		color.Red("reachcheck: cannot read %s: %s", t.Program, err)
		return false
	}
	src := string(source)

	prog, err := frontend.ParseSource(t.Program, src)
	if err != nil {
		reportParseError(t.Program, src, err)
		return false
	}

	g, err := cfabuild.Build(prog)
	if err != nil {
		reportCFAError(t.Program, src, err)
		return false
	}

	root, ok := g.Entries["main"]
	if !ok {
		reportDiagnostic(t.Program, src, errors.CompilerError{
			Level:   errors.Error,
			Code:    errors.ErrorMissingEntryPoint,
			Message: fmt.Sprintf("%s has no main() entry point", t.Program),
		})
		return false
	}

	if err := os.MkdirAll(t.OutputDirectory, 0o755); err != nil {
		color.Red("reachcheck: cannot create %s: %s", t.OutputDirectory, err)
		return false
	}
	dumpSource(t.OutputDirectory, source)
	dumpCFA(t.OutputDirectory, g)

	overall := task.VerdictTrue
	overallResult := task.NewResult()
	s := solver.New(solver.DefaultConfig())

	for _, name := range t.Configs {
		driver := cegar.New(g, root, s, cegar.ConfigName(name))
		result, reports := driver.Run(t)

		for _, r := range reports {
			printer.Intermediate(result, t.ProgramName, r.Index)
			dumpIteration(t.OutputDirectory, r)
		}

		overall = overall.And(result.Verdict)
		overallResult = result
		printer.Result(result, t.ProgramName+" ["+name+"]", result.RefinementNote)
	}

	overallResult.Verdict = overall
	printer.Result(overallResult, t.ProgramName, "")
	writeSummary(t.OutputDirectory, overallResult.Summary(t.ProgramName))

	if overallResult.Verdict == task.VerdictUnknown && overallResult.RefinementNote != "" {
		reportDiagnostic(t.Program, src, errors.CompilerError{
			Level:   errors.Warning,
			Code:    refinementCode(overallResult.RefinementNote),
			Message: overallResult.RefinementNote,
		})
	}

	// Reaching this point means every configuration ran to completion and
	// produced a Result; per spec.md §6, any emitted verdict — including
	// UNKNOWN or a Status.ERROR "target reached" FALSE — is exit code 0.
	// Only the early returns above (unreadable file, parse/build failure,
	// missing entry point) count as internal errors.
	return true
}

func propertyNames(props map[string]bool) []string {
	out := make([]string, 0, len(props))
	for p := range props {
		out = append(out, p)
	}
	return out
}

func dumpSource(dir string, source []byte) {
	_ = os.WriteFile(filepath.Join(dir, "program.txt"), source, 0o644)
}

func dumpCFA(dir string, g *cfa.Graph) {
	f, err := os.Create(filepath.Join(dir, "cfa.dot"))
	if err != nil {
		return
	}
	defer f.Close()
	_ = visual.WriteDOT(f, "CFA", visual.CFAGraphFor(g))
}

func writeSummary(dir, summary string) {
	_ = os.WriteFile(filepath.Join(dir, "summary.txt"), []byte(summary+"\n"), 0o644)
}

// reportDiagnostic renders ce with the teacher's Rust-style caret-and-code
// formatting and prints it to stdout.
func reportDiagnostic(filename, source string, ce errors.CompilerError) {
	reporter := errors.NewErrorReporter(filename, source)
	fmt.Print(reporter.FormatError(ce))
}

// reportParseError renders a participle parse failure as an R0001
// diagnostic, the same caret-at-line/column shape
// kanso/cmd/kanso-cli/main.go uses for participle errors, but through
// internal/errors' shared formatter instead of one-off color.Red calls.
func reportParseError(filename, src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		reportDiagnostic(filename, src, errors.CompilerError{
			Level:   errors.Error,
			Code:    errors.ErrorSyntax,
			Message: err.Error(),
		})
		return
	}

	pos := pe.Position()
	reportDiagnostic(filename, src, errors.CompilerError{
		Level:   errors.Error,
		Code:    errors.ErrorSyntax,
		Message: pe.Message(),
		Position: ast.Position{
			Filename: pos.Filename,
			Offset:   pos.Offset,
			Line:     pos.Line,
			Column:   pos.Column,
		},
		Length: 1,
	})
}

// reportCFAError classifies an internal/cfabuild build failure into its
// R0xxx malformed-input code by the shape of its message (cfabuild returns
// plain errors, not position-carrying ones) and renders it the same way.
func reportCFAError(filename, src string, err error) {
	msg := err.Error()
	code := errors.ErrorUnsupportedConstruct
	switch {
	case strings.Contains(msg, "undeclared function"):
		code = errors.ErrorUndefinedFunction
	case strings.Contains(msg, "arguments, got"):
		code = errors.ErrorArityMismatch
	}
	reportDiagnostic(filename, src, errors.CompilerError{
		Level:   errors.Error,
		Code:    code,
		Message: msg,
	})
}

// refinementCode maps a CEGAR Result.RefinementNote to the R0xxx code of
// the spec.md §7 error kind it represents: a solver failure, or the
// refinement loop itself failing to converge.
func refinementCode(note string) string {
	if strings.HasPrefix(note, "solver: ") {
		return errors.ErrorSolverUnknown
	}
	return errors.ErrorRefinementFixpoint
}

func dumpIteration(dir string, r cegar.IterationReport) {
	path := filepath.Join(dir, fmt.Sprintf("precision_%d", r.Index))
	_ = os.WriteFile(path, []byte(precisionText(r)), 0o644)

	argPath := filepath.Join(dir, fmt.Sprintf("arg_%d.dot", r.Index))
	if f, err := os.Create(argPath); err == nil {
		_ = visual.WriteDOT(f, "ARG", visual.ARGGraph(r.Arena, nil))
		_ = f.Close()
	}

	if len(r.CEXEdges) > 0 {
		cexPath := filepath.Join(dir, fmt.Sprintf("cex_%d", r.Index))
		_ = os.WriteFile(cexPath, []byte(r.CEXFormula+"\n"), 0o644)
	}
}

func precisionText(r cegar.IterationReport) string {
	var b strings.Builder
	for _, node := range r.Precision.Nodes() {
		fmt.Fprintf(&b, "#%d:\n", node)
		for _, p := range r.Precision.At(node) {
			fmt.Fprintf(&b, "  %s\n", p.String())
		}
	}
	return b.String()
}
