package predicate

import (
	"strings"

	"github.com/roach88/tabledesk/internal/ir"
	"github.com/roach88/tabledesk/internal/queryir"
)

// Format renders a predicate in source form for logs and diagnostics.
func Format(p queryir.Predicate) string {
	var sb strings.Builder
	format(&sb, p)
	return sb.String()
}

func format(sb *strings.Builder, p queryir.Predicate) {
	switch pred := p.(type) {
	case nil:
	case queryir.Compare:
		sb.WriteString(pred.Field + " " + string(pred.Op) + " " + literalText(pred.Value))
	case *queryir.Compare:
		format(sb, *pred)
	case queryir.Between:
		sb.WriteString(pred.Field + " BETWEEN " + literalText(pred.Low) + " AND " + literalText(pred.High))
	case *queryir.Between:
		format(sb, *pred)
	case queryir.IsNull:
		if pred.Negate {
			sb.WriteString(pred.Field + " IS NOT NULL")
		} else {
			sb.WriteString(pred.Field + " IS NULL")
		}
	case *queryir.IsNull:
		format(sb, *pred)
	case queryir.And:
		junction(sb, pred.Predicates, " AND ")
	case *queryir.And:
		format(sb, *pred)
	case queryir.Or:
		junction(sb, pred.Predicates, " OR ")
	case *queryir.Or:
		format(sb, *pred)
	case queryir.Not:
		sb.WriteString("NOT (")
		format(sb, pred.Predicate)
		sb.WriteString(")")
	case *queryir.Not:
		format(sb, *pred)
	}
}

func junction(sb *strings.Builder, preds []queryir.Predicate, sep string) {
	for i, p := range preds {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString("(")
		format(sb, p)
		sb.WriteString(")")
	}
}

func literalText(v ir.Value) string {
	if b, ok := v.(ir.Bool); ok {
		if b {
			return "TRUE"
		}
		return "FALSE"
	}
	return ir.Literal(v)
}
