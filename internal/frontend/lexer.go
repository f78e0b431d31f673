package frontend

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// ProgramLexer tokenizes the restricted imperative language: C-like
// functions with assignments, if/while, calls, return, and the builtin
// family recognized by internal/builtinrx.
var ProgramLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `[0-9]+`, nil},
		// "**" is pow; floor-div is spelled "~/" rather than "//" since the
		// latter is already claimed by the line comment above.
		{"Operator", `(\|\||&&|==|!=|<=|>=|\*\*|~/|[-+*/%<>!=])`, nil},
		{"Punctuation", `[{}()\[\],;]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
