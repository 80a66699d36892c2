package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario defines a CRUD test scenario.
// A scenario runs a list of steps against a fresh database and asserts on
// the resulting trace and final table contents.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Profiles lists entity profiles whose tables are bootstrapped before
	// setup runs. Built-in profiles are always available.
	Profiles []string `yaml:"profiles,omitempty"`

	// ProfilesDir is an extra directory of .cue profiles, relative to the
	// scenario file.
	ProfilesDir string `yaml:"profiles_dir,omitempty"`

	// Allow adds tables to the engine allow-list.
	Allow []string `yaml:"allow,omitempty"`

	// Setup steps establish initial state. Any failure aborts the run.
	Setup []Step `yaml:"setup,omitempty"`

	// Steps are the steps under test. Each may carry an expect clause.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one engine or entity operation.
type Step struct {
	// Op is one of insert, update, delete, delete_all, select, count,
	// columns or entity.
	Op string `yaml:"op"`

	// Table names the target table of a generic operation.
	Table string `yaml:"table,omitempty"`

	// Profile and Action select an entity operation (op: entity).
	Profile string `yaml:"profile,omitempty"`
	Action  string `yaml:"action,omitempty"`

	// Fields and Values are the insert columns and values, positionally.
	Fields []string `yaml:"fields,omitempty"`
	Values []string `yaml:"values,omitempty"`

	// Set holds update assignments. Assignments run in column name order.
	Set map[string]string `yaml:"set,omitempty"`

	// Where is a predicate in the query syntax (e.g. "id = 1").
	Where string `yaml:"where,omitempty"`

	// Record holds entity field values for add and update.
	Record map[string]string `yaml:"record,omitempty"`

	// ID addresses one entity row.
	ID int64 `yaml:"id,omitempty"`

	// Field, Term, Low and High parameterise entity search and range.
	Field string `yaml:"field,omitempty"`
	Term  string `yaml:"term,omitempty"`
	Low   string `yaml:"low,omitempty"`
	High  string `yaml:"high,omitempty"`

	// Expect specifies the expected outcome. If nil the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected step behavior. Only the fields that are
// set are checked.
type ExpectClause struct {
	// Error is the expected error code (e.g. "SCHEMA_MISMATCH", or
	// "NOT_FOUND" for a missing entity row). Empty means success.
	Error string `yaml:"error,omitempty"`

	RowsAffected *int64 `yaml:"rows_affected,omitempty"`
	LastInsertID *int64 `yaml:"last_insert_id,omitempty"`
	Count        *int64 `yaml:"count,omitempty"`

	// Columns is the exact expected column list.
	Columns []string `yaml:"columns,omitempty"`

	// Rows must match the returned rows one to one, in order. Each row is
	// a subset match: only the listed columns are compared.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// IDs is the exact expected id list of an entity ids step.
	IDs []int64 `yaml:"ids,omitempty"`

	// Value is the expected scalar of an entity last_saved step.
	Value *string `yaml:"value,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an op (optionally on a table, with an outcome) ran
	// - "trace_order": ops ran in this order
	// - "trace_count": an op ran exactly Count times
	// - "final_state": exactly one row matches Where and has Expect values
	// - "row_count": Filter matches exactly Count rows
	Type string `yaml:"type"`

	Op      string `yaml:"op,omitempty"`
	Table   string `yaml:"table,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`

	// Ops is the expected op order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Count is the expected number of ops (trace_count) or rows (row_count).
	Count int `yaml:"count,omitempty"`

	// Where and Expect drive final_state. Where keys are matched by
	// equality; Expect is a subset match on the row.
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`

	// Filter is a predicate in the query syntax (row_count). Blank counts
	// every row.
	Filter string `yaml:"filter,omitempty"`
}

// Step ops.
const (
	OpInsert    = "insert"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpDeleteAll = "delete_all"
	OpSelect    = "select"
	OpCount     = "count"
	OpColumns   = "columns"
	OpEntity    = "entity"
)

// Entity actions.
const (
	ActionAdd       = "add"
	ActionList      = "list"
	ActionGet       = "get"
	ActionUpdate    = "update"
	ActionDelete    = "delete"
	ActionDeleteAll = "delete_all"
	ActionCount     = "count"
	ActionIDs       = "ids"
	ActionSearch    = "search"
	ActionRange     = "range"
	ActionLastSaved = "last_saved"
)

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertRowCount      = "row_count"
)

var (
	tableOps      = []string{OpInsert, OpUpdate, OpDelete, OpDeleteAll, OpSelect, OpCount, OpColumns}
	entityActions = []string{
		ActionAdd, ActionList, ActionGet, ActionUpdate, ActionDelete, ActionDeleteAll,
		ActionCount, ActionIDs, ActionSearch, ActionRange, ActionLastSaved,
	}
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative profiles_dir is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.ProfilesDir != "" && !filepath.IsAbs(scenario.ProfilesDir) {
		scenario.ProfilesDir = filepath.Join(filepath.Dir(path), scenario.ProfilesDir)
	}
	return scenario, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(fmt.Sprintf("setup[%d]", i), &step); err != nil {
			return err
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}
	for i, step := range s.Steps {
		if err := validateStep(fmt.Sprintf("steps[%d]", i), &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks the fields a step's op needs. It does not check
// field/value arity: mismatches are a valid thing to test.
func validateStep(at string, st *Step) error {
	switch {
	case st.Op == "":
		return fmt.Errorf("%s: op is required", at)
	case st.Op == OpEntity:
		if st.Profile == "" {
			return fmt.Errorf("%s: profile is required for entity steps", at)
		}
		if !slices.Contains(entityActions, st.Action) {
			return fmt.Errorf("%s: unknown entity action %q", at, st.Action)
		}
	case slices.Contains(tableOps, st.Op):
		if st.Table == "" {
			return fmt.Errorf("%s: table is required for %s", at, st.Op)
		}
		if st.Op == OpUpdate && len(st.Set) == 0 {
			return fmt.Errorf("%s: set is required for update", at)
		}
	default:
		return fmt.Errorf("%s: unknown op %q", at, st.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertRowCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for row_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
