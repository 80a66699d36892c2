package queryir

import "github.com/roach88/tabledesk/internal/ir"

func isNull(v ir.Value) bool {
	switch v.(type) {
	case nil, ir.Null:
		return true
	}
	return false
}
