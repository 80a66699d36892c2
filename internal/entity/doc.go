// Package entity runs declarative fixed-schema entities (profiles) through the
// generic engine.
//
// An Entity owns one profile. It bootstraps the profile's table, checks values
// against the profile before any statement is built, and expresses every
// filter as a queryir predicate. Nothing here writes SQL.
package entity
