package formula

import (
	"github.com/pable/go-scout-metrics/internal/model"
)

// Apply evaluates e for every row of t and writes the result to column name.
// When e references columns the table does not have, nothing is written and
// ErrUnknownColumn is returned so the caller can skip the metric.
func Apply(t *model.Table, name string, e Expr) error {
	if !e.Resolvable(t.HasColumn) {
		var missing []string
		for _, c := range Columns(e) {
			if !t.HasColumn(c) {
				missing = append(missing, c)
			}
		}
		return errorf(ErrUnknownColumn, "%s needs %v", name, missing)
	}
	vals := make([]float64, t.Len())
	for i, r := range t.Rows {
		v := e.Eval(r)
		if !model.IsKnown(v) {
			v = model.Unknown
		}
		vals[i] = v
	}
	t.SetColumn(name, vals)
	return nil
}
