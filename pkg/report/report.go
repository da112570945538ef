// Package report renders query results as a fixed-width text table followed
// by a short profile of the data.
//
// Column kinds are guessed cheaply. Widths are sampled from the first
// WidthSampleRows rows only, and a column counts as numeric when its value in
// the first row parses as a number. Later rows never change either decision.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gear6io/sqllab/pkg/resultset"
)

const (
	// MaxColumnWidth caps the computed width of a column
	MaxColumnWidth = 20
	// WidthSampleRows is how many leading rows are inspected for widths
	WidthSampleRows = 10
	// MaxDisplayRows is how many data lines are written before eliding
	MaxDisplayRows = 100
)

const columnSeparator = " | "

var emptyResultHints = []string{
	"The query conditions didn't match any data",
	"The table is empty",
	"There might be a logical error in the query",
}

var nextSteps = []string{
	"Add WHERE clauses to filter specific data",
	"Use ORDER BY to sort the results",
	"Try GROUP BY for data aggregation",
}

// Analysis is the data profile attached to a non-empty report
type Analysis struct {
	RowCount       int      `json:"row_count"`
	Columns        []string `json:"columns"`
	NumericColumns []string `json:"numeric_columns"`
	DateColumns    []string `json:"date_columns"`
}

// Analyze profiles rows. Columns follow the first row's order.
func Analyze(rows resultset.ResultSet) Analysis {
	a := Analysis{RowCount: len(rows)}
	if len(rows) == 0 {
		return a
	}

	a.Columns = rows.Columns()
	first := rows[0]
	for _, col := range a.Columns {
		v, _ := first.Get(col)
		if isNumeric(v) {
			a.NumericColumns = append(a.NumericColumns, col)
		}
		if isDateColumn(col) {
			a.DateColumns = append(a.DateColumns, col)
		}
	}

	return a
}

// Format renders query and rows into the report shown to the learner
func Format(query string, rows resultset.ResultSet) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📝 Executed Query:\n%s\n\n", query)

	if len(rows) == 0 {
		b.WriteString("📊 Results: 0 row(s) returned\n\n")
		b.WriteString("💡 This might mean:\n")
		for _, hint := range emptyResultHints {
			fmt.Fprintf(&b, "   • %s\n", hint)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "📊 Results: %d row(s) returned\n\n", len(rows))

	columns := rows.Columns()
	widths := columnWidths(columns, rows)

	header := joinCells(columns, widths)
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", utf8.RuneCountInString(header)))
	b.WriteString("\n")

	for i, row := range rows {
		if i == MaxDisplayRows {
			break
		}
		b.WriteString(joinCells(cells(row, columns), widths))
		b.WriteString("\n")
	}

	if len(rows) > MaxDisplayRows {
		fmt.Fprintf(&b, "\n... and %d more rows\n", len(rows)-MaxDisplayRows)
	}

	writeAnalysis(&b, Analyze(rows))

	return b.String()
}

func writeAnalysis(b *strings.Builder, a Analysis) {
	b.WriteString("\n" + strings.Repeat("=", 50) + "\n")
	b.WriteString("📈 Result Analysis:\n\n")
	fmt.Fprintf(b, "• Total rows: %d\n", a.RowCount)
	fmt.Fprintf(b, "• Columns: %d\n", len(a.Columns))
	fmt.Fprintf(b, "• Column names: %s\n\n", strings.Join(a.Columns, ", "))

	b.WriteString("💡 Learning Notes:\n")
	if len(a.NumericColumns) > 0 {
		fmt.Fprintf(b, "• Numeric columns detected: %s\n", strings.Join(a.NumericColumns, ", "))
		b.WriteString("  Try using functions like SUM(), AVG(), MIN(), MAX() on these!\n")
	}
	if len(a.DateColumns) > 0 {
		fmt.Fprintf(b, "• Date columns: %s\n", strings.Join(a.DateColumns, ", "))
		b.WriteString("  Try using date functions and ORDER BY for time-based analysis!\n")
	}

	b.WriteString("\n🎯 Try these next:\n")
	if a.RowCount > 1 {
		for _, step := range nextSteps {
			fmt.Fprintf(b, "• %s\n", step)
		}
	}
}

func columnWidths(columns []string, rows resultset.ResultSet) []int {
	sample := rows
	if len(sample) > WidthSampleRows {
		sample = sample[:WidthSampleRows]
	}

	widths := make([]int, len(columns))
	for i, col := range columns {
		w := utf8.RuneCountInString(col)
		for _, row := range sample {
			if n := utf8.RuneCountInString(cell(row, col)); n > w {
				w = n
			}
		}
		widths[i] = min(w, MaxColumnWidth)
	}
	return widths
}

func cells(row resultset.Row, columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = cell(row, col)
	}
	return out
}

// cell renders a missing column the same as an empty value
func cell(row resultset.Row, col string) string {
	v, ok := row.Get(col)
	if !ok {
		return ""
	}
	return resultset.Stringify(v)
}

// joinCells left-justifies each value to its width. Longer values are kept whole.
func joinCells(values []string, widths []int) string {
	padded := make([]string, len(values))
	for i, v := range values {
		if pad := widths[i] - utf8.RuneCountInString(v); pad > 0 {
			v += strings.Repeat(" ", pad)
		}
		padded[i] = v
	}
	return strings.Join(padded, columnSeparator)
}

func isNumeric(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		return true
	case string:
		return parsesAsFloat(val)
	case []byte:
		return parsesAsFloat(string(val))
	default:
		return false
	}
}

func parsesAsFloat(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return true
	}
	// out-of-range values are still numbers
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return true
	}
	return false
}

func isDateColumn(col string) bool {
	lower := strings.ToLower(col)
	return strings.Contains(lower, "date") || strings.Contains(lower, "time")
}
