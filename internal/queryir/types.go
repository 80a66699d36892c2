package queryir

import "github.com/roach88/tabledesk/internal/ir"

// Statement is one SQL statement in IR form.
//
// This is a sealed interface - only types in this package implement it.
type Statement interface {
	statementNode() // Marker method - seals interface to this package
}

// Predicate is a WHERE condition in IR form.
//
// This is a sealed interface - only types in this package implement it.
// Predicate literals are ir.Value and are always bound as parameters.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select reads rows from one table.
//
//	SELECT <columns|*> FROM <from> [WHERE <filter>] [ORDER BY <order>] [LIMIT <n>]
//
// Nil Columns selects every column. Limit <= 0 means no limit. Columns named
// in AsText are read back as their stored text; AsText needs explicit Columns.
type Select struct {
	From    string
	Columns []string
	Filter  Predicate
	OrderBy []string
	Limit   int
	AsText  []string
}

func (Select) statementNode() {}

// Insert adds one row.
//
//	INSERT INTO <into> (<fields>) VALUES (?, ...)
//
// Values are positional and must match Fields one to one.
type Insert struct {
	Into   string
	Fields []string
	Values []any
}

func (Insert) statementNode() {}

// Set is one column assignment of an Update.
type Set struct {
	Column string
	Value  any
}

// Update changes rows matching Filter.
//
//	UPDATE <table> SET <col> = ?, ... WHERE <filter>
//
// A nil Filter only compiles when the compiler explicitly allows it.
type Update struct {
	Table  string
	Set    []Set
	Filter Predicate
}

func (Update) statementNode() {}

// Delete removes rows matching Filter.
//
//	DELETE FROM <from> WHERE <filter>
//
// A nil Filter only compiles when the compiler explicitly allows it.
type Delete struct {
	From   string
	Filter Predicate
}

func (Delete) statementNode() {}

// Count counts rows matching Filter (all rows when nil).
type Count struct {
	From   string
	Filter Predicate
}

func (Count) statementNode() {}

// ColumnDef declares one column of a CreateTable.
type ColumnDef struct {
	Name          string
	Type          string // one of the types accepted by ValidType
	NotNull       bool
	PrimaryKey    bool
	AutoIncrement bool
	Default       DefaultExpr
}

// DefaultExpr is a column default. Only a closed set of SQL expressions is
// representable, so defaults never carry operator text.
type DefaultExpr string

const (
	NoDefault        DefaultExpr = ""
	DefaultTimestamp DefaultExpr = "CURRENT_TIMESTAMP"
	DefaultDate      DefaultExpr = "CURRENT_DATE"
)

// CreateTable defines a table. Used to bootstrap entity profile tables.
type CreateTable struct {
	Name        string
	Columns     []ColumnDef
	IfNotExists bool
}

func (CreateTable) statementNode() {}

// ValidType reports whether t is a column type CreateTable accepts.
func ValidType(t string) bool {
	switch t {
	case ir.TypeText, ir.TypeInteger, ir.TypeReal, ir.TypeDate, ir.TypeTimestamp, "NUMERIC", "BLOB":
		return true
	}
	return false
}

// Op is a binary comparison operator.
type Op string

const (
	OpEq      Op = "="
	OpNe      Op = "!="
	OpLt      Op = "<"
	OpLe      Op = "<="
	OpGt      Op = ">"
	OpGe      Op = ">="
	OpLike    Op = "LIKE"
	OpNotLike Op = "NOT LIKE"
)

// Valid reports whether op is one of the supported operators.
func (op Op) Valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpLike, OpNotLike:
		return true
	}
	return false
}

// Compare is <field> <op> <value>.
//
// Comparing to ir.Null with = or != means IS NULL / IS NOT NULL.
type Compare struct {
	Field string
	Op    Op
	Value ir.Value
}

func (Compare) predicateNode() {}

// Between is <field> BETWEEN <low> AND <high>, inclusive on both ends.
type Between struct {
	Field string
	Low   ir.Value
	High  ir.Value
}

func (Between) predicateNode() {}

// IsNull is <field> IS NULL, or IS NOT NULL when Negate is set.
type IsNull struct {
	Field  string
	Negate bool
}

func (IsNull) predicateNode() {}

// And is true when every sub-predicate is true. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is true when any sub-predicate is true. An empty Or is always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// Eq is shorthand for Compare{Field: field, Op: OpEq, Value: v}.
func Eq(field string, v ir.Value) Compare {
	return Compare{Field: field, Op: OpEq, Value: v}
}
