package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sort"

	"github.com/roach88/tabledesk/internal/ir"
	"github.com/roach88/tabledesk/internal/querysql"
	"github.com/roach88/tabledesk/internal/schema"
	"github.com/roach88/tabledesk/internal/store"
)

// DefaultAllowedTables are the bootstrap tables created by store.Open.
var DefaultAllowedTables = []string{"groups", "roles", "students", "users"}

// Engine is the generic CRUD engine over one store.
type Engine struct {
	store   *store.Store
	schema  *schema.Introspector
	allowed map[string]bool
	logger  *slog.Logger
	ids     IDGenerator
	clock   *Clock
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithAllowedTables replaces the allow-list.
//
// Default: DefaultAllowedTables.
func WithAllowedTables(tables ...string) Option {
	return func(e *Engine) {
		e.allowed = make(map[string]bool, len(tables))
		for _, t := range tables {
			e.allowed[t] = true
		}
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithIDGenerator sets the operation id generator. Default: UUIDv7Generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(e *Engine) {
		e.ids = gen
	}
}

// WithClock sets the operation sequence clock. Default: NewClock().
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine over st.
func New(st *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		schema: schema.New(st),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:    UUIDv7Generator{},
		clock:  NewClock(),
	}
	WithAllowedTables(DefaultAllowedTables...)(e)

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Allow adds tables to the allow-list.
func (e *Engine) Allow(tables ...string) {
	for _, t := range tables {
		e.allowed[t] = true
	}
}

// AllowedTables returns the allow-list, sorted.
func (e *Engine) AllowedTables() []string {
	out := make([]string, 0, len(e.allowed))
	for t := range e.allowed {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// IsAllowed reports whether table is in the allow-list.
func (e *Engine) IsAllowed(table string) bool {
	return e.allowed[table]
}

// Store returns the underlying store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Columns returns the live column names of table in declaration order.
//
// A table that does not exist, or is not allow-listed, yields an empty
// slice. The name is bound as a query parameter.
func (e *Engine) Columns(ctx context.Context, table string) ([]string, error) {
	if !e.IsAllowed(table) {
		return []string{}, nil
	}
	names, err := e.schema.ColumnNames(ctx, table)
	if err != nil {
		return nil, NewStoreError(table, err)
	}
	return names, nil
}

// Describe returns the allow-listed table with its full column metadata.
func (e *Engine) Describe(ctx context.Context, table string) (*ir.Table, error) {
	return e.resolve(ctx, table)
}

// Tables lists allow-listed tables that exist, sorted.
func (e *Engine) Tables(ctx context.Context) ([]string, error) {
	all, err := e.schema.Tables(ctx)
	if err != nil {
		return nil, NewStoreError("", err)
	}
	return slices.DeleteFunc(all, func(t string) bool { return !e.allowed[t] }), nil
}

// resolve runs the allow-list and existence checks, then introspects.
func (e *Engine) resolve(ctx context.Context, table string) (*ir.Table, error) {
	if !e.allowed[table] {
		return nil, NewTableNotAllowed(table)
	}

	tbl, err := e.schema.Describe(ctx, table)
	if errors.Is(err, schema.ErrTableNotFound) {
		return nil, NewTableNotFound(table)
	}
	if err != nil {
		return nil, NewStoreError(table, err)
	}
	return tbl, nil
}

// compiler returns a fresh compiler; unfiltered writes stay disabled unless
// the caller opts in.
func (e *Engine) compiler(allowUnfiltered bool) *querysql.SQLCompiler {
	c := querysql.NewSQLCompiler()
	c.AllowUnfiltered = allowUnfiltered
	return c
}
