// Package resultset holds the tabular data produced by running a query.
//
// Stringify follows Python's str() for numbers, so a REAL column holding a
// whole number shows as "95000.0". NULL is the exception: it renders as the
// empty string rather than "None", the same as a missing column.
package resultset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Row is an ordered mapping from column name to scalar value
type Row struct {
	columns []string
	values  map[string]any
}

// ResultSet is the ordered sequence of rows returned by one query
type ResultSet []Row

// NewRow builds a row from alternating column/value pairs.
// A trailing column without a value is stored as nil.
func NewRow(pairs ...any) Row {
	r := Row{}
	for i := 0; i < len(pairs); i += 2 {
		col := fmt.Sprint(pairs[i])
		var v any
		if i+1 < len(pairs) {
			v = pairs[i+1]
		}
		r.Set(col, v)
	}
	return r
}

// Set stores v under col. Setting an existing column keeps its position.
func (r *Row) Set(col string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[col]; !ok {
		r.columns = append(r.columns, col)
	}
	r.values[col] = v
}

// Get returns the value for col and whether the column exists
func (r Row) Get(col string) (any, bool) {
	v, ok := r.values[col]
	return v, ok
}

// Columns returns the column names in insertion order
func (r Row) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

func (r Row) Len() int {
	return len(r.columns)
}

// Columns returns the column order of the first row, nil when empty
func (rs ResultSet) Columns() []string {
	if len(rs) == 0 {
		return nil
	}
	return rs[0].Columns()
}

// Stringify renders a scalar the way it is shown to the learner.
// nil renders as the empty string.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return formatFloat(val, 64)
	case float32:
		return formatFloat(float64(val), 32)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case time.Time:
		return formatTime(val)
	case *time.Time:
		if val == nil {
			return ""
		}
		return formatTime(*val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatFloat uses the shortest round-trip digits, keeps a ".0" on whole
// numbers and switches to an exponent below 1e-4 or from 1e16 on
func formatFloat(v float64, bitSize int) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, bitSize)
	}

	s := strconv.FormatFloat(v, 'f', -1, bitSize)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.DateTime)
}
