package predicate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tabledesk/internal/ir"
	"github.com/roach88/tabledesk/internal/queryir"
)

// ErrEmptyPredicate is returned for blank input.
var ErrEmptyPredicate = errors.New("empty predicate")

// SyntaxError describes input the grammar rejects, or a well-formed
// condition that cannot be expressed (NULL ordering, NULL bounds).
type SyntaxError struct {
	Input  string
	Column int // 1-based, 0 when unknown
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("invalid predicate %q at column %d: %s", e.Input, e.Column, e.Msg)
	}
	return fmt.Sprintf("invalid predicate %q: %s", e.Input, e.Msg)
}

// Parse turns predicate source into a queryir.Predicate.
//
// Malformed input fails fast with *SyntaxError; nothing is passed through to
// the database for it to reject.
func Parse(src string) (queryir.Predicate, error) {
	if strings.TrimSpace(src) == "" {
		return nil, ErrEmptyPredicate
	}

	tree, err := predicateParser.ParseString("", src)
	if err != nil {
		return nil, syntaxError(src, err)
	}

	c := converter{src: src}
	return c.or(tree)
}

func syntaxError(src string, err error) *SyntaxError {
	var perr participle.Error
	if errors.As(err, &perr) {
		return &SyntaxError{Input: src, Column: perr.Position().Column, Msg: perr.Message()}
	}
	return &SyntaxError{Input: src, Msg: err.Error()}
}

type converter struct {
	src string
}

func (c converter) fail(col int, format string, args ...any) error {
	return &SyntaxError{Input: c.src, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func (c converter) or(e *orExpr) (queryir.Predicate, error) {
	first, err := c.and(e.Left)
	if err != nil {
		return nil, err
	}
	if len(e.Right) == 0 {
		return first, nil
	}

	preds := []queryir.Predicate{first}
	for _, r := range e.Right {
		p, err := c.and(r)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return queryir.Or{Predicates: preds}, nil
}

func (c converter) and(e *andExpr) (queryir.Predicate, error) {
	first, err := c.term(e.Left)
	if err != nil {
		return nil, err
	}
	if len(e.Right) == 0 {
		return first, nil
	}

	preds := []queryir.Predicate{first}
	for _, r := range e.Right {
		p, err := c.term(r)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return queryir.And{Predicates: preds}, nil
}

func (c converter) term(t *term) (queryir.Predicate, error) {
	var (
		inner queryir.Predicate
		err   error
	)
	if t.Operand.Group != nil {
		inner, err = c.or(t.Operand.Group)
	} else {
		inner, err = c.condition(t.Operand.Cond)
	}
	if err != nil {
		return nil, err
	}
	if t.Not {
		return queryir.Not{Predicate: inner}, nil
	}
	return inner, nil
}

func (c converter) condition(cond *condition) (queryir.Predicate, error) {
	ch := cond.Check
	switch {
	case ch.IsNull != nil:
		return queryir.IsNull{Field: cond.Field, Negate: ch.IsNull.Not}, nil

	case ch.Between != nil:
		low, err := c.literal(ch.Between.Low)
		if err != nil {
			return nil, err
		}
		high, err := c.literal(ch.Between.High)
		if err != nil {
			return nil, err
		}
		if low == (ir.Null{}) || high == (ir.Null{}) {
			return nil, c.fail(ch.Between.Low.Pos.Column, "BETWEEN bounds cannot be NULL")
		}
		return queryir.Between{Field: cond.Field, Low: low, High: high}, nil

	case ch.Like != nil:
		pattern, err := c.literal(ch.Like.Pattern)
		if err != nil {
			return nil, err
		}
		if pattern == (ir.Null{}) {
			return nil, c.fail(ch.Like.Pattern.Pos.Column, "LIKE pattern cannot be NULL")
		}
		op := queryir.OpLike
		if ch.Like.Not {
			op = queryir.OpNotLike
		}
		return queryir.Compare{Field: cond.Field, Op: op, Value: pattern}, nil

	default:
		return c.compare(cond.Field, ch.Compare)
	}
}

func (c converter) compare(field string, cmp *compareCheck) (queryir.Predicate, error) {
	value, err := c.literal(cmp.Value)
	if err != nil {
		return nil, err
	}

	op := queryir.Op(cmp.Op)
	switch cmp.Op {
	case "==":
		op = queryir.OpEq
	case "<>":
		op = queryir.OpNe
	}

	if value == (ir.Null{}) {
		switch op {
		case queryir.OpEq:
			return queryir.IsNull{Field: field}, nil
		case queryir.OpNe:
			return queryir.IsNull{Field: field, Negate: true}, nil
		default:
			return nil, c.fail(cmp.Value.Pos.Column, "cannot compare %s with %s NULL", field, op)
		}
	}
	return queryir.Compare{Field: field, Op: op, Value: value}, nil
}

func (c converter) literal(l *literal) (ir.Value, error) {
	switch {
	case l.Null:
		return ir.Null{}, nil
	case l.Bool != nil:
		return ir.Bool(strings.EqualFold(*l.Bool, "TRUE")), nil
	case l.Date != nil:
		return ir.String(*l.Date), nil
	case l.Number != nil:
		return c.number(l)
	case l.String != nil:
		return ir.String(norm.NFC.String(unquote(*l.String))), nil
	case l.Word != nil:
		return ir.String(norm.NFC.String(*l.Word)), nil
	default:
		return nil, c.fail(l.Pos.Column, "missing value")
	}
}

func (c converter) number(l *literal) (ir.Value, error) {
	text := *l.Number
	if !strings.Contains(text, ".") {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return ir.Int(n), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, c.fail(l.Pos.Column, "invalid number %s", text)
	}
	return ir.Float(f), nil
}

// unquote strips the surrounding quotes and collapses doubled quote
// characters.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	q := s[:1]
	return strings.ReplaceAll(s[1:len(s)-1], q+q, q)
}
