// Package harness runs YAML CRUD scenarios against a fresh database.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: roles_round_trip
//	description: "Insert, update and delete a role"
//	profiles: [student]          # entity tables to bootstrap
//	allow: [audit]               # extra allow-listed tables
//	setup:
//	  - op: insert
//	    table: roles
//	    fields: [name, description]
//	    values: [admin, full access]
//	steps:
//	  - op: update
//	    table: roles
//	    set: { description: x }
//	    where: "id = 1"
//	    expect:
//	      rows_affected: 1
//	  - op: entity
//	    profile: student
//	    action: add
//	    record: { familya: Aliyev, ismi: Vali }
//	    expect:
//	      error: INVALID_VALUE
//	assertions:
//	  - type: final_state
//	    table: roles
//	    where: { id: 1 }
//	    expect: { description: x }
//
// Step ops are insert, update, delete, delete_all, select, count, columns
// and entity. Entity actions are add, list, get, update, delete,
// delete_all, count, ids, search, range and last_saved.
//
// # Assertion Types
//
//   - trace_contains: an op ran (optionally on a table, with an outcome)
//   - trace_order: ops ran in the given order
//   - trace_count: an op ran exactly N times
//   - final_state: exactly one row matches where and holds the expected values
//   - row_count: a predicate matches exactly N rows
//
// # Deterministic Testing
//
// Every run uses an in-memory database, operation ids "op-1", "op-2", ...
// and a stamp clock that starts at testutil.Epoch and advances one second
// per stamp, so traces and final state can be compared with golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/roles.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
