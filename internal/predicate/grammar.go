package predicate

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// predicateLexer tokenizes predicate source. Rule order matters: dates are
// tried before numbers, and keywords are plain Ident tokens matched
// case-insensitively by the grammar.
var predicateLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `'(?:[^']|'')*'|"(?:[^"]|"")*"`},
	{Name: "Date", Pattern: `\d{4}-\d{2}-\d{2}(?:T\d{2}:\d{2}(?::\d{2})?)?`},
	{Name: "Number", Pattern: `[-+]?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Op", Pattern: `<=|>=|!=|<>|==|=|<|>`},
	{Name: "Punct", Pattern: `[()]`},
})

//nolint:govet // participle grammar tags are not standard struct tags
type orExpr struct {
	Left  *andExpr   `@@`
	Right []*andExpr `( "OR" @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type andExpr struct {
	Left  *term   `@@`
	Right []*term `( "AND" @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type term struct {
	Not     bool     `@"NOT"?`
	Operand *operand `@@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type operand struct {
	Group *orExpr    `  "(" @@ ")"`
	Cond  *condition `| @@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type condition struct {
	Field string `@Ident`
	Check *check `@@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type check struct {
	IsNull  *isNullCheck  `  @@`
	Between *betweenCheck `| @@`
	Like    *likeCheck    `| @@`
	Compare *compareCheck `| @@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type isNullCheck struct {
	Not bool `"IS" @"NOT"? "NULL"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type betweenCheck struct {
	Low  *literal `"BETWEEN" @@`
	High *literal `"AND" @@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type likeCheck struct {
	Not     bool     `@"NOT"? "LIKE"`
	Pattern *literal `@@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type compareCheck struct {
	Op    string   `@Op`
	Value *literal `@@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type literal struct {
	Pos    lexer.Position
	Null   bool    `  @"NULL"`
	Bool   *string `| @("TRUE" | "FALSE")`
	Date   *string `| @Date`
	Number *string `| @Number`
	String *string `| @String`
	Word   *string `| @Ident`
}

// predicateParser is the participle parser for predicates.
var predicateParser = participle.MustBuild[orExpr](
	participle.Lexer(predicateLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(2),
)
