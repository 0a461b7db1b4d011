package analysis

import (
	"github.com/KaramelBytes/tabula/internal/frame"
)

// Shape is the (rows, columns) pair of a dataset.
type Shape struct {
	Rows int
	Cols int
}

// ShapeOf reports the dataset dimensions.
func ShapeOf(ds *frame.Dataset) Shape {
	r, c := ds.Shape()
	return Shape{Rows: r, Cols: c}
}

// ColumnInfo is one line of the information report.
type ColumnInfo struct {
	Index   int
	Name    string
	NonNull int
	Dtype   string
	Kind    frame.Kind
}

// Info describes schema and non-null counts.
type Info struct {
	Name    string
	Shape   Shape
	Columns []ColumnInfo
}

// Information reports per-column dtype and non-null counts.
func Information(ds *frame.Dataset) Info {
	info := Info{Name: ds.Name(), Shape: ShapeOf(ds)}
	for i, c := range ds.Columns() {
		info.Columns = append(info.Columns, ColumnInfo{
			Index:   i,
			Name:    c.Name,
			NonNull: c.NonNull(),
			Dtype:   string(c.Type),
			Kind:    c.Kind,
		})
	}
	return info
}

// Description holds describe() statistics for every numeric column.
type Description struct {
	Columns []NumSummary
}

// Describe computes summary statistics for numeric columns in table order.
func Describe(ds *frame.Dataset) Description {
	var d Description
	for _, c := range ds.Columns() {
		if c.Kind != frame.KindNumeric {
			continue
		}
		d.Columns = append(d.Columns, summarize(c.Name, c.Floats()))
	}
	return d
}

// ColumnCount pairs a column with a count.
type ColumnCount struct {
	Column string
	Count  int
}

// Unique counts distinct non-missing values per column.
func Unique(ds *frame.Dataset) []ColumnCount {
	cols := ds.Columns()
	out := make([]ColumnCount, 0, len(cols))
	for _, c := range cols {
		out = append(out, ColumnCount{Column: c.Name, Count: len(c.Distinct())})
	}
	return out
}

// MissingReport counts empty/null cells per column.
type MissingReport struct {
	Counts []ColumnCount
	Total  int
}

// None reports whether the dataset has no missing cells.
func (m MissingReport) None() bool { return m.Total == 0 }

// Missing counts empty/null cells per column.
func Missing(ds *frame.Dataset) MissingReport {
	var m MissingReport
	for _, c := range ds.Columns() {
		n := c.Missing()
		m.Counts = append(m.Counts, ColumnCount{Column: c.Name, Count: n})
		m.Total += n
	}
	return m
}
