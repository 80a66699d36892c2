package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/roach88/tabledesk/internal/engine"
	"github.com/roach88/tabledesk/internal/entity"
	"github.com/roach88/tabledesk/internal/ir"
	"github.com/roach88/tabledesk/internal/store"
	"github.com/roach88/tabledesk/internal/testutil"
)

// Outcomes recorded for errors that carry no engine code.
const (
	OutcomeNotFound = "NOT_FOUND"
	OutcomeError    = "ERROR"
)

// Harness is the test execution engine.
// It runs scenarios with a stepping clock and fixed operation ids.
type Harness struct {
	eng      *engine.Engine
	entities *entity.Registry
	clock    *testutil.StepClock
	logger   *slog.Logger
	touched  []string
}

// stepOutput is what one step produced. Only the fields relevant to the
// step's op are set.
type stepOutput struct {
	write   *ir.Result
	rows    *ir.RowSet
	count   *int64
	columns []string
	ids     []int64
	value   *string
}

// Run executes a test scenario and returns the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Stamps come from a clock starting at testutil.Epoch and advancing one
// second per stamp; operation ids are "op-1", "op-2", ...
//
// Execution flow:
// 1. Create fresh in-memory database and load profiles
// 2. Bootstrap the listed profile tables
// 3. Execute setup steps (any failure aborts the run)
// 4. Execute steps, checking expect clauses
// 5. Evaluate assertions and capture final state
//
// The returned error reports a broken scenario; a scenario whose
// expectations fail returns a Result with Pass false.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	profiles, err := entity.LoadProfiles(scenario.ProfilesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := testutil.NewStepClock(testutil.Epoch, time.Second)
	eng := engine.New(st,
		engine.WithIDGenerator(engine.NewFixedGenerator()),
		engine.WithLogger(logger),
	)
	eng.Allow(scenario.Allow...)

	h := &Harness{
		eng:      eng,
		entities: entity.NewRegistry(eng, profiles, entity.WithNow(clock.Now), entity.WithLogger(logger)),
		clock:    clock,
		logger:   logger,
	}

	for _, name := range scenario.Profiles {
		e, ok := h.entities.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown profile %q", name)
		}
		if err := e.Bootstrap(ctx); err != nil {
			return nil, fmt.Errorf("bootstrap %s: %w", name, err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Setup {
		ev, _, err := h.execute(ctx, PhaseSetup, i, step)
		result.AddTrace(ev)
		if err != nil {
			return nil, fmt.Errorf("setup[%d] %s: %w", i, describe(step), err)
		}
	}

	for i, step := range scenario.Steps {
		ev, out, err := h.execute(ctx, PhaseSteps, i, step)
		result.AddTrace(ev)
		for _, msg := range checkExpect(step.Expect, ev.Outcome, out, err) {
			result.AddError(fmt.Sprintf("steps[%d] %s: %s", i, describe(step), msg))
		}
		h.logger.Info("step completed", "step", i, "op", step.Op, "outcome", ev.Outcome)
	}

	actx := &AssertionContext{Engine: eng, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.captureState(ctx, result)
	return result, nil
}

// execute runs one step and builds its trace event.
func (h *Harness) execute(ctx context.Context, phase string, i int, st Step) (TraceEvent, stepOutput, error) {
	ev := TraceEvent{
		Phase:   phase,
		Step:    i,
		Op:      st.Op,
		Table:   st.Table,
		Profile: st.Profile,
		Action:  st.Action,
		Args:    stepArgs(st),
	}

	var (
		out stepOutput
		err error
	)
	if st.Op == OpEntity {
		out, err = h.runEntity(ctx, st, &ev)
	} else {
		h.touch(st.Table)
		out, err = h.runTable(ctx, st)
	}

	ev.Outcome = outcomeOf(err)
	if err == nil {
		ev.Result = out.toMap()
	}
	return ev, out, err
}

// runTable executes a generic engine operation.
func (h *Harness) runTable(ctx context.Context, st Step) (stepOutput, error) {
	var out stepOutput
	switch st.Op {
	case OpInsert:
		res, err := h.eng.Insert(ctx, st.Table, st.Fields, st.Values)
		out.write = &res
		return out, err
	case OpUpdate:
		res, err := h.eng.UpdateSet(ctx, st.Table, assignments(st.Set), st.Where)
		out.write = &res
		return out, err
	case OpDelete:
		res, err := h.eng.Delete(ctx, st.Table, st.Where)
		out.write = &res
		return out, err
	case OpDeleteAll:
		res, err := h.eng.DeleteAll(ctx, st.Table)
		out.write = &res
		return out, err
	case OpSelect:
		rs, err := h.eng.Select(ctx, st.Table, st.Where)
		out.rows = rs
		return out, err
	case OpCount:
		n, err := h.eng.Count(ctx, st.Table, st.Where)
		out.count = &n
		return out, err
	case OpColumns:
		cols, err := h.eng.Columns(ctx, st.Table)
		out.columns = cols
		return out, err
	default:
		return out, fmt.Errorf("unknown op %q", st.Op)
	}
}

// runEntity executes a profile operation.
func (h *Harness) runEntity(ctx context.Context, st Step, ev *TraceEvent) (stepOutput, error) {
	var out stepOutput
	e, ok := h.entities.Get(st.Profile)
	if !ok {
		return out, fmt.Errorf("unknown profile %q", st.Profile)
	}
	ev.Table = e.Table()
	h.touch(e.Table())

	var err error
	switch st.Action {
	case ActionAdd:
		var res ir.Result
		res, err = e.Add(ctx, st.Record)
		out.write = &res
	case ActionUpdate:
		var res ir.Result
		res, err = e.Update(ctx, st.ID, st.Record)
		out.write = &res
	case ActionDelete:
		var res ir.Result
		res, err = e.Delete(ctx, st.ID)
		out.write = &res
	case ActionDeleteAll:
		var res ir.Result
		res, err = e.DeleteAll(ctx)
		out.write = &res
	case ActionList:
		out.rows, err = e.List(ctx)
	case ActionGet:
		out.rows, err = e.Get(ctx, st.ID)
	case ActionSearch:
		out.rows, err = e.Search(ctx, st.Field, st.Term)
	case ActionRange:
		out.rows, err = e.Range(ctx, st.Field, st.Low, st.High)
	case ActionCount:
		var n int64
		n, err = e.Count(ctx)
		out.count = &n
	case ActionIDs:
		out.ids, err = e.IDs(ctx)
	case ActionLastSaved:
		var v string
		v, err = e.LastSaved(ctx, st.ID)
		out.value = &v
	default:
		err = fmt.Errorf("unknown entity action %q", st.Action)
	}
	return out, err
}

// touch records a table for the final state snapshot.
func (h *Harness) touch(table string) {
	if table != "" && !slices.Contains(h.touched, table) {
		h.touched = append(h.touched, table)
	}
}

// captureState stores the rows of every touched table that can be read.
func (h *Harness) captureState(ctx context.Context, result *Result) {
	for _, table := range h.touched {
		rs, err := h.eng.SelectAll(ctx, table)
		if err != nil {
			continue
		}
		result.State[table] = rs.Maps()
	}
}

// checkExpect compares a step's output with its expect clause.
// A step without an expect clause must succeed.
func checkExpect(exp *ExpectClause, outcome string, out stepOutput, err error) []string {
	if exp == nil {
		if err != nil {
			return []string{fmt.Sprintf("unexpected error: %v", err)}
		}
		return nil
	}

	if exp.Error != "" {
		if outcome != exp.Error {
			return []string{fmt.Sprintf("expected error %s, got %s", exp.Error, outcome)}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}

	var msgs []string
	if exp.RowsAffected != nil && (out.write == nil || out.write.RowsAffected != *exp.RowsAffected) {
		msgs = append(msgs, fmt.Sprintf("rows_affected: expected %d, got %v", *exp.RowsAffected, writeField(out.write, "rows_affected")))
	}
	if exp.LastInsertID != nil && (out.write == nil || out.write.LastInsertID != *exp.LastInsertID) {
		msgs = append(msgs, fmt.Sprintf("last_insert_id: expected %d, got %v", *exp.LastInsertID, writeField(out.write, "last_insert_id")))
	}
	if exp.Count != nil {
		got := out.count
		if got == nil && out.rows != nil {
			n := int64(out.rows.Len())
			got = &n
		}
		if got == nil || *got != *exp.Count {
			msgs = append(msgs, fmt.Sprintf("count: expected %d, got %v", *exp.Count, deref(got)))
		}
	}
	if exp.Columns != nil {
		got := out.columns
		if got == nil && out.rows != nil {
			got = out.rows.Columns
		}
		if !slices.Equal(got, exp.Columns) {
			msgs = append(msgs, fmt.Sprintf("columns: expected %v, got %v", exp.Columns, got))
		}
	}
	if exp.Rows != nil {
		msgs = append(msgs, compareRows(exp.Rows, out.rows)...)
	}
	if exp.IDs != nil && !slices.Equal(out.ids, exp.IDs) {
		msgs = append(msgs, fmt.Sprintf("ids: expected %v, got %v", exp.IDs, out.ids))
	}
	if exp.Value != nil && (out.value == nil || *out.value != *exp.Value) {
		msgs = append(msgs, fmt.Sprintf("value: expected %q, got %v", *exp.Value, deref(out.value)))
	}
	return msgs
}

// compareRows matches rows one to one; each expected row is a subset match.
func compareRows(expected []map[string]any, rs *ir.RowSet) []string {
	if rs == nil {
		return []string{"rows: step returned no row set"}
	}
	if len(expected) != rs.Len() {
		return []string{fmt.Sprintf("rows: expected %d, got %d", len(expected), rs.Len())}
	}
	var msgs []string
	for i, row := range expected {
		for _, col := range sortedKeys(row) {
			if rs.Index(col) < 0 {
				msgs = append(msgs, fmt.Sprintf("rows[%d]: no column %q in %v", i, col, rs.Columns))
				continue
			}
			want := ir.FromAny(row[col])
			got := rs.Get(i, col)
			if !ir.Equal(want, got) {
				msgs = append(msgs, fmt.Sprintf("rows[%d].%s: expected %s, got %s", i, col, ir.Literal(want), ir.Literal(got)))
			}
		}
	}
	return msgs
}

// outcomeOf maps an error to its trace outcome.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case engine.CodeOf(err) != "":
		return string(engine.CodeOf(err))
	case errors.Is(err, entity.ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}

// toMap renders the output for the trace.
func (o stepOutput) toMap() map[string]any {
	m := make(map[string]any)
	if o.write != nil {
		m["op_id"] = o.write.OpID
		m["rows_affected"] = o.write.RowsAffected
		if o.write.LastInsertID != 0 {
			m["last_insert_id"] = o.write.LastInsertID
		}
	}
	if o.rows != nil {
		m["columns"] = o.rows.Columns
		m["rows"] = o.rows.Maps()
	}
	if o.count != nil {
		m["count"] = *o.count
	}
	if o.columns != nil {
		m["columns"] = o.columns
	}
	if o.ids != nil {
		ids := make([]any, len(o.ids))
		for i, id := range o.ids {
			ids[i] = id
		}
		m["ids"] = ids
	}
	if o.value != nil {
		m["value"] = *o.value
	}
	return m
}

// stepArgs renders a step's inputs for the trace.
func stepArgs(st Step) map[string]any {
	args := make(map[string]any)
	if st.Fields != nil {
		args["fields"] = st.Fields
	}
	if st.Values != nil {
		args["values"] = st.Values
	}
	if len(st.Set) > 0 {
		args["set"] = stringMap(st.Set)
	}
	if st.Where != "" {
		args["where"] = st.Where
	}
	if len(st.Record) > 0 {
		args["record"] = stringMap(st.Record)
	}
	if st.ID != 0 {
		args["id"] = st.ID
	}
	for k, v := range map[string]string{"field": st.Field, "term": st.Term, "low": st.Low, "high": st.High} {
		if v != "" {
			args[k] = v
		}
	}
	if len(args) == 0 {
		return nil
	}
	return args
}

// assignments turns a set map into assignments in column name order.
func assignments(set map[string]string) []ir.Assignment {
	out := make([]ir.Assignment, 0, len(set))
	for _, col := range sortedKeys(set) {
		out = append(out, ir.Assignment{Column: col, Value: set[col]})
	}
	return out
}

func describe(st Step) string {
	if st.Op == OpEntity {
		return fmt.Sprintf("entity %s %s", st.Profile, st.Action)
	}
	return fmt.Sprintf("%s %s", st.Op, st.Table)
}

func stringMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeField(res *ir.Result, name string) any {
	if res == nil {
		return "nothing"
	}
	if name == "last_insert_id" {
		return res.LastInsertID
	}
	return res.RowsAffected
}

func deref[T any](p *T) any {
	if p == nil {
		return "nothing"
	}
	return *p
}
