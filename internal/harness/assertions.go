package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/tabledesk/internal/engine"
	"github.com/roach88/tabledesk/internal/ir"
	"github.com/roach88/tabledesk/internal/queryir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Seq, event.Op, traceTarget(event), event.Outcome)
		}
	}

	return buf.String()
}

func traceTarget(ev TraceEvent) string {
	if ev.Profile != "" {
		return ev.Profile + "." + ev.Action
	}
	return ev.Table
}

// matchesEvent reports whether ev is the op on table with outcome.
// Blank table or outcome match anything.
func matchesEvent(ev TraceEvent, op, table, outcome string) bool {
	if ev.Op != op && !(ev.Op == OpEntity && ev.Action == op) {
		return false
	}
	if table != "" && ev.Table != table {
		return false
	}
	return outcome == "" || ev.Outcome == outcome
}

// assertTraceContains checks the trace has a step matching the op,
// table and outcome. An op also matches entity steps by action name.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matchesEvent(event, assertion.Op, assertion.Table, assertion.Outcome) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("op %s on %q with outcome %q", assertion.Op, assertion.Table, assertion.Outcome),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if ops appear in the specified order.
// Ops don't need to be consecutive (intervening steps are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)

	for i, event := range trace {
		for _, op := range assertion.Ops {
			if matchesEvent(event, op, assertion.Table, "") && positions[op] == 0 {
				positions[op] = i + 1 // 1-indexed for readability
			}
		}
	}

	for _, op := range assertion.Ops {
		if positions[op] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all ops present: %v", assertion.Ops),
				Actual:   fmt.Sprintf("missing op: %s", op),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Ops); i++ {
		prev := assertion.Ops[i-1]
		curr := assertion.Ops[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks the op appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matchesEvent(event, assertion.Op, assertion.Table, assertion.Outcome) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState checks exactly one row of the table matches Where and
// that it holds the Expect values (subset semantics).
//
// The query goes through the engine, so the table must be allow-listed and
// every Where key must be a live column.
func assertFinalState(ctx context.Context, eng *engine.Engine, assertion Assertion) error {
	rs, err := eng.SelectWhere(ctx, assertion.Table, wherePredicate(assertion.Where), engine.SelectOptions{})
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	whereDesc := formatWhereClause(assertion.Where)
	switch rs.Len() {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, whereDesc),
			Actual:   "row not found",
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, whereDesc),
			Actual:   fmt.Sprintf("%d rows matched (assertion is ambiguous)", rs.Len()),
		}
	}

	for _, key := range sortedKeys(assertion.Expect) {
		if rs.Index(key) < 0 {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, rs.Columns),
			}
		}

		want := ir.FromAny(assertion.Expect[key])
		got := rs.Get(0, key)
		if !ir.Equal(want, got) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %s", key, ir.Literal(want)),
				Actual:   fmt.Sprintf("field %q = %s", key, ir.Literal(got)),
			}
		}
	}

	return nil
}

// assertRowCount checks the number of rows matching Filter.
func assertRowCount(ctx context.Context, eng *engine.Engine, assertion Assertion) error {
	n, err := eng.Count(ctx, assertion.Table, assertion.Filter)
	if err != nil {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("count table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	if n != int64(assertion.Count) {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows in %s matching %q", assertion.Count, assertion.Table, assertion.Filter),
			Actual:   fmt.Sprintf("%d rows", n),
		}
	}
	return nil
}

// wherePredicate builds an equality conjunction from where, keys sorted for
// determinism. An empty map means no filter.
func wherePredicate(where map[string]any) queryir.Predicate {
	if len(where) == 0 {
		return nil
	}
	and := queryir.And{}
	for _, key := range sortedKeys(where) {
		and.Predicates = append(and.Predicates, queryir.Eq(key, ir.FromAny(where[key])))
	}
	return and
}

// formatWhereClause creates a human-readable description of where conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	parts := make([]string, 0, len(where))
	for _, k := range sortedKeys(where) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// AssertionContext provides database access for state assertions.
type AssertionContext struct {
	Engine *engine.Engine
	Ctx    context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState, AssertRowCount:
			if actx == nil || actx.Engine == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
			} else if assertion.Type == AssertFinalState {
				err = assertFinalState(actx.Ctx, actx.Engine, assertion)
			} else {
				err = assertRowCount(actx.Ctx, actx.Engine, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
