// Package ir provides the shared intermediate representation types for tabledesk.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps IR the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Column metadata mirrors SQLite's table_info tuple (cid, name, type, notnull, dflt_value, pk)
//   - Cell values are a sealed Value interface; NULL is an explicit Null, never a Go nil
//   - All JSON tags use snake_case
//   - Declared column types are opaque; they are carried for display and profile checks only
package ir
