package entity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/tabledesk/internal/compiler"
	"github.com/roach88/tabledesk/internal/engine"
	"github.com/roach88/tabledesk/internal/ir"
	"github.com/roach88/tabledesk/internal/queryir"
)

// IDColumn is the generated primary key of every profile table.
const IDColumn = "id"

// ErrNotFound is returned when no row has the requested id.
var ErrNotFound = errors.New("record not found")

// Entity executes one profile against the engine.
type Entity struct {
	profile ir.EntityProfile
	eng     *engine.Engine
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures an Entity.
type Option func(*Entity)

// WithNow sets the time source used for stamps.
func WithNow(now func() time.Time) Option {
	return func(e *Entity) {
		e.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Entity) {
		e.logger = logger
	}
}

// New creates an Entity for profile and adds its table to the engine's
// allow-list. The profile is assumed to be validated.
func New(eng *engine.Engine, profile ir.EntityProfile, opts ...Option) *Entity {
	e := &Entity{
		profile: profile,
		eng:     eng,
		now:     time.Now,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("profile", profile.Name)
	eng.Allow(profile.Table)
	return e
}

// Table returns the backing table name.
func (e *Entity) Table() string {
	return e.profile.Table
}

// Definition returns the CREATE TABLE statement for the profile.
//
// Every table gets an INTEGER autoincrement id. Required fields are NOT NULL.
// A TIMESTAMP stamp column defaults to CURRENT_TIMESTAMP.
func (e *Entity) Definition() queryir.CreateTable {
	ct := queryir.CreateTable{
		Name:        e.profile.Table,
		IfNotExists: true,
		Columns: []queryir.ColumnDef{
			{Name: IDColumn, Type: ir.TypeInteger, PrimaryKey: true, AutoIncrement: true},
		},
	}
	for _, f := range e.profile.Fields {
		def := queryir.ColumnDef{Name: f.Name, Type: f.Type, NotNull: f.Required}
		if f.Name == e.profile.Stamp && f.Type == ir.TypeTimestamp {
			def.Default = queryir.DefaultTimestamp
		}
		ct.Columns = append(ct.Columns, def)
	}
	return ct
}

// Bootstrap creates the profile table if it does not exist, then checks
// that the live table has every profile column.
func (e *Entity) Bootstrap(ctx context.Context) error {
	if _, err := e.eng.CreateTable(ctx, e.Definition()); err != nil {
		return err
	}

	live, err := e.eng.Columns(ctx, e.profile.Table)
	if err != nil {
		return err
	}
	var missing []string
	for _, f := range e.profile.Fields {
		if !slices.Contains(live, f.Name) {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return &engine.Error{
			Code:    engine.ErrCodeSchemaMismatch,
			Message: fmt.Sprintf("existing table lacks profile column(s): %v", missing),
			Table:   e.profile.Table,
			Fields:  missing,
		}
	}

	e.logger.Debug("bootstrapped", "table", e.profile.Table)
	return nil
}

// Add validates values and inserts one row, stamping it with the current time.
func (e *Entity) Add(ctx context.Context, values map[string]string) (ir.Result, error) {
	fields, vals, err := e.checkValues(values, false)
	if err != nil {
		e.logger.Debug("add rejected", "error", err)
		return ir.Result{}, err
	}
	if e.profile.Stamp != "" {
		fields = append(fields, e.profile.Stamp)
		vals = append(vals, e.stamp())
	}
	return e.eng.Insert(ctx, e.profile.Table, fields, vals)
}

// List returns every row in id order.
func (e *Entity) List(ctx context.Context) (*ir.RowSet, error) {
	return e.eng.SelectWhere(ctx, e.profile.Table, nil, engine.SelectOptions{OrderBy: []string{IDColumn}})
}

// Get returns the row with id, or ErrNotFound.
func (e *Entity) Get(ctx context.Context, id int64) (*ir.RowSet, error) {
	rs, err := e.eng.SelectWhere(ctx, e.profile.Table, byID(id), engine.SelectOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if rs.Len() == 0 {
		return nil, fmt.Errorf("%s %d: %w", e.profile.Name, id, ErrNotFound)
	}
	return rs, nil
}

// Update validates the given fields and applies them to the row with id.
// Fields not mentioned keep their value. The stamp is refreshed.
// Updating an id that does not exist affects zero rows.
func (e *Entity) Update(ctx context.Context, id int64, values map[string]string) (ir.Result, error) {
	fields, vals, err := e.checkValues(values, true)
	if err != nil {
		e.logger.Debug("update rejected", "id", id, "error", err)
		return ir.Result{}, err
	}

	sets := make([]ir.Assignment, 0, len(fields)+1)
	for i, f := range fields {
		sets = append(sets, ir.Assignment{Column: f, Value: vals[i]})
	}
	if e.profile.Stamp != "" {
		sets = append(sets, ir.Assignment{Column: e.profile.Stamp, Value: e.stamp()})
	}
	return e.eng.UpdateWhere(ctx, e.profile.Table, sets, byID(id))
}

// Delete removes the row with id. Deleting a missing id affects zero rows.
func (e *Entity) Delete(ctx context.Context, id int64) (ir.Result, error) {
	return e.eng.DeleteWhere(ctx, e.profile.Table, byID(id))
}

// DeleteAll removes every row.
func (e *Entity) DeleteAll(ctx context.Context) (ir.Result, error) {
	return e.eng.DeleteAll(ctx, e.profile.Table)
}

// Count returns the number of rows.
func (e *Entity) Count(ctx context.Context) (int64, error) {
	return e.eng.CountWhere(ctx, e.profile.Table, nil)
}

// IDs returns every id in ascending order.
func (e *Entity) IDs(ctx context.Context) ([]int64, error) {
	rs, err := e.eng.SelectWhere(ctx, e.profile.Table, nil, engine.SelectOptions{
		Columns: []string{IDColumn},
		OrderBy: []string{IDColumn},
	})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, rs.Len())
	for i := range rs.Rows {
		if n, ok := rs.Get(i, IDColumn).(ir.Int); ok {
			ids = append(ids, int64(n))
		}
	}
	return ids, nil
}

// Search finds rows by field.
//
// Free-text columns (TEXT without a format) match by substring with LIKE;
// every other column matches by equality on the parsed term. A blank field
// searches every field listed in the profile's search list.
func (e *Entity) Search(ctx context.Context, field, term string) (*ir.RowSet, error) {
	var pred queryir.Predicate
	if field == "" {
		if len(e.profile.Search) == 0 {
			return nil, engine.NewInvalidValue(e.profile.Table, "field", "profile has no search fields")
		}
		// Fields the term cannot be parsed for are skipped.
		var or queryir.Or
		for _, name := range e.profile.Search {
			p, err := e.matchPredicate(name, term)
			if err != nil {
				continue
			}
			or.Predicates = append(or.Predicates, p)
		}
		pred = or
	} else {
		p, err := e.matchPredicate(field, term)
		if err != nil {
			return nil, err
		}
		pred = p
	}
	return e.eng.SelectWhere(ctx, e.profile.Table, pred, engine.SelectOptions{OrderBy: []string{IDColumn}})
}

// Range returns rows whose field lies between lo and hi inclusive.
// The field must be numeric or a date.
func (e *Entity) Range(ctx context.Context, field, lo, hi string) (*ir.RowSet, error) {
	f, err := e.field(field)
	if err != nil {
		return nil, err
	}
	if !f.IsNumeric() && f.Type != ir.TypeDate && f.Format != compiler.FormatDate && f.Type != ir.TypeTimestamp {
		return nil, engine.NewInvalidValue(e.profile.Table, field, "range needs a numeric or date column")
	}

	low, err := parseField(rangeSpec(f), lo)
	if err != nil {
		return nil, engine.NewInvalidValue(e.profile.Table, field, err.Error())
	}
	high, err := parseField(rangeSpec(f), hi)
	if err != nil {
		return nil, engine.NewInvalidValue(e.profile.Table, field, err.Error())
	}

	pred := queryir.Between{Field: field, Low: low, High: high}
	return e.eng.SelectWhere(ctx, e.profile.Table, pred, engine.SelectOptions{OrderBy: []string{IDColumn}})
}

// LastSaved returns the stamp of the row with id.
func (e *Entity) LastSaved(ctx context.Context, id int64) (string, error) {
	if e.profile.Stamp == "" {
		return "", engine.NewInvalidValue(e.profile.Table, "stamp", "profile has no stamp column")
	}
	rs, err := e.eng.SelectWhere(ctx, e.profile.Table, byID(id), engine.SelectOptions{
		Columns: []string{e.profile.Stamp},
		Limit:   1,
	})
	if err != nil {
		return "", err
	}
	if rs.Len() == 0 {
		return "", fmt.Errorf("%s %d: %w", e.profile.Name, id, ErrNotFound)
	}
	return ir.Format(rs.Get(0, e.profile.Stamp)), nil
}

// matchPredicate builds the search predicate for one field.
func (e *Entity) matchPredicate(name, term string) (queryir.Predicate, error) {
	f, err := e.field(name)
	if err != nil {
		return nil, err
	}
	term = trimNFC(term)
	if f.Type == ir.TypeText && f.Format == "" {
		return queryir.Compare{Field: f.Name, Op: queryir.OpLike, Value: ir.String("%" + term + "%")}, nil
	}

	// Equality ignores min/max and enum: searching for an out-of-range
	// value simply finds nothing.
	val, err := parseField(ir.FieldSpec{Name: f.Name, Type: f.Type, Format: f.Format}, term)
	if err != nil {
		return nil, engine.NewInvalidValue(e.profile.Table, f.Name, err.Error())
	}
	return queryir.Eq(f.Name, val), nil
}

// field looks up a profile column, mapping absence to SCHEMA_MISMATCH.
func (e *Entity) field(name string) (ir.FieldSpec, error) {
	f, ok := e.profile.Field(name)
	if !ok {
		return ir.FieldSpec{}, engine.NewSchemaMismatch(e.profile.Table, []string{name})
	}
	return f, nil
}

func (e *Entity) stamp() string {
	return e.now().Format(StampLayout)
}

// rangeSpec drops value constraints so range bounds are only type-checked.
func rangeSpec(f ir.FieldSpec) ir.FieldSpec {
	return ir.FieldSpec{Name: f.Name, Type: f.Type, Format: f.Format}
}

func byID(id int64) queryir.Predicate {
	return queryir.Eq(IDColumn, ir.Int(id))
}
