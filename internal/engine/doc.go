// Package engine is the generic, schema-driven CRUD core of tabledesk.
//
// An Engine owns one *store.Store. Every operation follows the same path:
//
//  1. The table name is checked against the allow-list.
//  2. The catalog is asked whether the table exists.
//  3. The live column list is read (never cached).
//  4. A queryir statement is built and validated against those columns.
//  5. internal/querysql compiles it; values become ? parameters.
//  6. The statement runs as its own auto-committed transaction.
//
// Steps 1-4 raise validation errors (*Error with a code other than
// STORE_ERROR) before anything is sent to the database. Table and column
// names reach SQL text only after they were matched against the catalog.
//
// The Build* functions are pure: they take the column list as an argument and
// never touch the store, which makes the validation rules testable in
// isolation.
//
// Engines are not safe for concurrent use. The store holds a single
// connection and the CLI drives one engine from one goroutine.
package engine
