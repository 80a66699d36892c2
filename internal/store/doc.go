// Package store owns the SQLite database behind tabledesk.
//
// A Store wraps a single *sql.DB limited to one connection. There is no
// package-level handle: every caller receives the Store it should use, which
// lets tests open an isolated database per test.
//
// # Bootstrap
//
// Open applies schema.sql (roles, users, groups, students) and then runs
// incremental migrations tracked in PRAGMA user_version. Both steps are
// idempotent. Tables created later by entity profiles are not versioned.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
//
// # Drivers
//
// The default build uses github.com/mattn/go-sqlite3 (cgo). Building with the
// purego tag switches to modernc.org/sqlite. Classify maps either driver's
// errors onto the same ErrorKind values.
package store
