package script

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// AST for the callback language.

type Program struct {
	Statements []*Statement `parser:"';'* ( @@ ';'* )*"`
}

type Statement struct {
	Set    *Assignment `parser:"  'set' @@"`
	Echo   *Echo       `parser:"| 'echo' @@"`
	Return *Expression `parser:"| 'return' @@"`
}

type Assignment struct {
	Target *Ref        `parser:"@@ '='"`
	Value  *Expression `parser:"@@"`
}

type Echo struct {
	Args []*Expression `parser:"( @@ ( ',' @@ )* )?"`
}

type Expression struct {
	Or []*Conjunction `parser:"@@ ( '||' @@ )*"`
}

type Conjunction struct {
	And []*Comparison `parser:"@@ ( '&&' @@ )*"`
}

type Comparison struct {
	Left  *Sum   `parser:"@@"`
	Op    string `parser:"( @( '==' | '!=' | '<=' | '>=' | '<' | '>' )"`
	Right *Sum   `parser:"  @@ )?"`
}

type Sum struct {
	Left *Unary     `parser:"@@"`
	Rest []*SumTerm `parser:"@@*"`
}

type SumTerm struct {
	Op      string `parser:"@( '+' | '-' )"`
	Operand *Unary `parser:"@@"`
}

type Unary struct {
	Op      string   `parser:"@( '!' | '-' )?"`
	Primary *Primary `parser:"@@"`
}

type Primary struct {
	Number *float64    `parser:"  @Number"`
	Text   *string     `parser:"| @String"`
	Call   *Call       `parser:"| @@"`
	Ref    *Ref        `parser:"| @@"`
	Group  *Expression `parser:"| '(' @@ ')'"`
}

type Call struct {
	Name string        `parser:"@Ident '('"`
	Args []*Expression `parser:"( @@ ( ',' @@ )* )? ')'"`
}

// Ref names a variable directly or through a positional argument, with an
// optional array subscript.
type Ref struct {
	Param *string     `parser:"( @Param"`
	Name  *string     `parser:"| @Ident )"`
	Index *Expression `parser:"( '[' @@ ']' )?"`
}

var (
	scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Keyword", Pattern: `\b(set|echo|return)\b`},
		{Name: "Param", Pattern: `\$\d+`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Number", Pattern: `\d*\.?\d+`},
		{Name: "String", Pattern: `'[^']*'|"(\\.|[^"\\])*"`},
		{Name: "Operator", Pattern: `==|!=|<=|>=|&&|\|\||[-+<>!=]`},
		{Name: "Punct", Pattern: `[;,()\[\]]`},
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	scriptParser = participle.MustBuild[Program](
		participle.Lexer(scriptLexer),
		participle.Unquote("String"),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(2),
	)
)
