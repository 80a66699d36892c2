// Package predicate parses the WHERE-clause micro-language accepted at the
// console and on the command line into queryir predicates.
//
// Grammar (keywords are case-insensitive):
//
//	expr    := and ( OR and )*
//	and     := term ( AND term )*
//	term    := [NOT] ( "(" expr ")" | cond )
//	cond    := ident ( op literal
//	                 | IS [NOT] NULL
//	                 | BETWEEN literal AND literal
//	                 | [NOT] LIKE literal )
//	op      := = | == | != | <> | < | <= | > | >=
//	literal := NULL | TRUE | FALSE | date | number | 'single' | "double" | bareword
//
// Quoted strings escape their quote character by doubling it ('it''s').
// A bareword or an unquoted YYYY-MM-DD date is a string literal, so the
// console forms id=1, name=admin and name='full access' all parse.
//
// Nothing in the input ever reaches SQL text: identifiers are later checked
// against the live schema and every literal becomes a bound parameter.
package predicate
