package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabledesk/internal/ir"
)

func num(f float64) *float64 { return &f }

func validProfile() *ir.EntityProfile {
	return &ir.EntityProfile{
		Name:  "student",
		Table: "student",
		Stamp: "saqlangan_vaqt",
		Fields: []ir.FieldSpec{
			{Name: "familya", Type: ir.TypeText, Required: true},
			{Name: "kurs", Type: ir.TypeInteger, Min: num(1), Max: num(6)},
			{Name: "tugilgan_sana", Type: ir.TypeDate, Format: FormatDate},
			{Name: "jinsi", Type: ir.TypeText, Enum: []string{"Erkak", "Ayol"}},
			{Name: "saqlangan_vaqt", Type: ir.TypeTimestamp},
		},
		Search: []string{"familya"},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateProfileValid(t *testing.T) {
	errs := Validate(validProfile())
	assert.Empty(t, errs, "valid profile should have no errors")

	// Value form is accepted too.
	assert.Empty(t, Validate(*validProfile()))
}

func TestValidateProfileRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *ir.EntityProfile)
		code   string
	}{
		{"empty table", func(p *ir.EntityProfile) { p.Table = "  " }, ErrProfileTableEmpty},
		{"table not identifier", func(p *ir.EntityProfile) { p.Table = "student; DROP TABLE roles" }, ErrInvalidIdentifier},
		{"reserved table prefix", func(p *ir.EntityProfile) { p.Table = "sqlite_master" }, ErrInvalidIdentifier},
		{"only stamp column", func(p *ir.EntityProfile) {
			p.Fields = []ir.FieldSpec{{Name: "saqlangan_vaqt", Type: ir.TypeTimestamp}}
			p.Search = nil
		}, ErrProfileNoColumns},
		{"column not identifier", func(p *ir.EntityProfile) { p.Fields[0].Name = "fam ilya" }, ErrInvalidIdentifier},
		{"reserved id column", func(p *ir.EntityProfile) {
			p.Fields = append(p.Fields, ir.FieldSpec{Name: "ID", Type: ir.TypeInteger})
		}, ErrReservedColumn},
		{"invalid type", func(p *ir.EntityProfile) { p.Fields[0].Type = "VARCHAR" }, ErrInvalidFieldType},
		{"duplicate column ignoring case", func(p *ir.EntityProfile) {
			p.Fields = append(p.Fields, ir.FieldSpec{Name: "Familya", Type: ir.TypeText})
		}, ErrDuplicateName},
		{"stamp not declared", func(p *ir.EntityProfile) { p.Stamp = "created" }, ErrInvalidStamp},
		{"stamp wrong type", func(p *ir.EntityProfile) { p.Stamp = "kurs" }, ErrInvalidStamp},
		{"min greater than max", func(p *ir.EntityProfile) { p.Fields[1].Min = num(7) }, ErrInvalidRange},
		{"range on text", func(p *ir.EntityProfile) { p.Fields[0].Max = num(3) }, ErrInvalidRange},
		{"enum on numeric", func(p *ir.EntityProfile) { p.Fields[1].Enum = []string{"1"} }, ErrInvalidEnum},
		{"enum duplicate", func(p *ir.EntityProfile) { p.Fields[3].Enum = []string{"Erkak", "Erkak"} }, ErrInvalidEnum},
		{"enum blank", func(p *ir.EntityProfile) { p.Fields[3].Enum = []string{""} }, ErrInvalidEnum},
		{"unknown format", func(p *ir.EntityProfile) { p.Fields[2].Format = "iso8601" }, ErrInvalidFormat},
		{"format on numeric", func(p *ir.EntityProfile) { p.Fields[1].Format = FormatDate }, ErrInvalidFormat},
		{"unknown search field", func(p *ir.EntityProfile) { p.Search = []string{"nope"} }, ErrUnknownSearchField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(p)
			errs := Validate(p)
			require.NotEmpty(t, errs)
			assert.Contains(t, codes(errs), tt.code)
		})
	}
}

func TestValidateProfileCollectsAll(t *testing.T) {
	p := validProfile()
	p.Table = ""
	p.Fields[0].Type = "VARCHAR"
	p.Search = []string{"nope"}

	errs := Validate(p)
	assert.ElementsMatch(t, []string{ErrProfileTableEmpty, ErrInvalidFieldType, ErrUnknownSearchField}, codes(errs))
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate("not a profile")
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedIRType, errs[0].Code)
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "table", Message: "table is required", Code: ErrProfileTableEmpty}
	assert.Equal(t, "[E101] table: table is required", e.Error())

	e.Line = 4
	assert.Equal(t, "[E101] line 4: table: table is required", e.Error())
}
