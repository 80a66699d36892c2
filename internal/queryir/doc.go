// Package queryir is the statement representation the engine builds before
// anything is turned into SQL text.
//
// The engine never concatenates operator input into a statement. It builds a
// Statement value from already-validated identifiers and ir.Value literals,
// and internal/querysql compiles that value into parameterized SQL.
//
//	[operator text] → [predicate parser] → [queryir] → [querysql] → SQLite
//
// SEALED INTERFACES:
//
// Statement and Predicate are sealed with marker methods, so only types in
// this package implement them and compilers can switch over them
// exhaustively:
//
//	switch s := stmt.(type) {
//	case Select:
//	    // ...
//	case Insert:
//	    // ...
//	default:
//	    // unsupported
//	}
//
// Both value and pointer forms of every node are accepted by Validate and by
// the SQL compiler.
package queryir
