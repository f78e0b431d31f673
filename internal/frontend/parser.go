// Package frontend parses the restricted imperative language assumed by
// spec.md §6 into internal/ast, the way kanso/internal/parser parses Move
// source into its own AST — a participle grammar plus a thin ParseSource/
// ParseFile wrapper.
package frontend

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"

	"reachcheck/internal/ast"
)

var parser = buildParser()

func buildParser() *participle.Parser[Program] {
	p, err := participle.Build[Program](
		participle.Lexer(ProgramLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(4),
	)
	if err != nil {
		panic(fmt.Errorf("frontend: failed to build parser: %w", err))
	}
	return p
}

// ParseSource parses program text already held in memory, the way
// kanso's parser.ParseSource does for its own grammar.
func ParseSource(sourceName, source string) (*ast.Program, error) {
	g, err := parser.ParseString(sourceName, source)
	if err != nil {
		return nil, err
	}
	return toProgram(g), nil
}

// ParseFile reads and parses a program from disk.
func ParseFile(path string) (*ast.Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseSource(path, string(source))
}
