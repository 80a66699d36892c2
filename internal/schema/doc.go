// Package schema reads table metadata from the live SQLite catalog.
//
// Nothing is cached: every call reflects the schema as it is at that moment,
// so a column added between two calls is visible to the second one.
//
// Table names are always bound as query parameters, both for the
// sqlite_master lookup and for the pragma_table_info table-valued function.
package schema
