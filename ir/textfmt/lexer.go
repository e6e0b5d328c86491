package textfmt

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes the textual IR fixture format with a stateful, flat
// "Root" rule set tried in order, longest keyword classes (the register
// sigil, then Ident) before generic punctuation.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Register", `%[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Float", `[0-9]+\.[0-9]+`, nil},
		{"Integer", `[0-9]+`, nil},
		{"Punctuation", `[{}\[\]():,.=:-]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
