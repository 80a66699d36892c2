package ir

// Column type names accepted in entity profiles.
const (
	TypeText      = "TEXT"
	TypeInteger   = "INTEGER"
	TypeReal      = "REAL"
	TypeDate      = "DATE"
	TypeTimestamp = "TIMESTAMP"
)

// EntityProfile is a declarative fixed-schema entity: a table, its columns,
// and the value checks applied before rows reach the generic engine.
type EntityProfile struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Table       string      `json:"table"`
	Stamp       string      `json:"stamp,omitempty"` // column auto-filled with the save time
	Fields      []FieldSpec `json:"fields"`
	Search      []string    `json:"search,omitempty"`
}

// FieldSpec declares one profile column and its checks.
type FieldSpec struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required,omitempty"`
	Format   string   `json:"format,omitempty"` // "date" or "datetime"
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Enum     []string `json:"enum,omitempty"`
	Label    string   `json:"label,omitempty"`
}

// Field returns the named field spec.
func (p *EntityProfile) Field(name string) (FieldSpec, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldNames returns the declared field names in order, excluding the stamp column.
func (p *EntityProfile) FieldNames() []string {
	names := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		if f.Name == p.Stamp {
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

// IsNumeric reports whether the field stores numbers.
func (f FieldSpec) IsNumeric() bool {
	return f.Type == TypeInteger || f.Type == TypeReal
}

// DisplayName returns the label if set, otherwise the column name.
func (f FieldSpec) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}
