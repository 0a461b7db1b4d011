package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"
)

// Markdown renders the shape section.
func (s Shape) Markdown() string {
	return fmt.Sprintf("[SHAPE]\nRows: %d\nColumns: %d\n(%d, %d)\n", s.Rows, s.Cols, s.Rows, s.Cols)
}

// Text renders the information report the way DataFrame.info() lays it out.
func (i Info) Text() string {
	var b strings.Builder
	if i.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", i.Name)
	}
	if i.Shape.Rows > 0 {
		fmt.Fprintf(&b, "Index: %d entries, 0 to %d\n", i.Shape.Rows, i.Shape.Rows-1)
	} else {
		b.WriteString("Index: 0 entries\n")
	}
	fmt.Fprintf(&b, "Data columns (total %d columns):\n", i.Shape.Cols)
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " #\tColumn\tNon-Null Count\tDtype\tKind")
	fmt.Fprintln(tw, "---\t------\t--------------\t-----\t----")
	for _, c := range i.Columns {
		fmt.Fprintf(tw, " %d\t%s\t%d non-null\t%s\t%s\n", c.Index, safeName(c.Name), c.NonNull, c.Dtype, c.Kind)
	}
	_ = tw.Flush()
	counts := map[string]int{}
	var order []string
	for _, c := range i.Columns {
		if counts[c.Dtype] == 0 {
			order = append(order, c.Dtype)
		}
		counts[c.Dtype]++
	}
	parts := make([]string, 0, len(order))
	for _, d := range order {
		parts = append(parts, fmt.Sprintf("%s(%d)", d, counts[d]))
	}
	fmt.Fprintf(&b, "dtypes: %s\n", strings.Join(parts, ", "))
	return b.String()
}

// Markdown wraps the information text in a section.
func (i Info) Markdown() string {
	return "[INFORMATION]\n```\n" + i.Text() + "```\n"
}

// describeRows lists the describe() statistics in row order.
var describeRows = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Table returns describe() as statistic rows by numeric columns.
func (d Description) Table() (header []string, rows [][]string) {
	header = append([]string{""}, columnNames(d.Columns)...)
	for _, stat := range describeRows {
		row := []string{stat}
		for _, c := range d.Columns {
			row = append(row, formatNum(c.stat(stat)))
		}
		rows = append(rows, row)
	}
	return header, rows
}

func (s NumSummary) stat(name string) float64 {
	switch name {
	case "count":
		return float64(s.Count)
	case "mean":
		return s.Mean
	case "std":
		return s.Std
	case "min":
		return s.Min
	case "25%":
		return s.Q1
	case "50%":
		return s.Median
	case "75%":
		return s.Q3
	case "max":
		return s.Max
	}
	return math.NaN()
}

func columnNames(cols []NumSummary) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Column
	}
	return out
}

// Markdown renders describe() as a Markdown table.
func (d Description) Markdown() string {
	var b strings.Builder
	b.WriteString("[DESCRIBE]\n")
	if len(d.Columns) == 0 {
		b.WriteString("No numeric columns to describe.\n")
		return b.String()
	}
	h, rows := d.Table()
	b.WriteString(MarkdownTable(h, rows))
	return b.String()
}

// UniqueMarkdown renders distinct-value counts.
func UniqueMarkdown(counts []ColumnCount) string {
	return "[UNIQUE]\n" + countsTable("Distinct values", counts)
}

// NoMissingNotice is shown when a dataset has no empty cells.
const NoMissingNotice = "No missing values found."

// Markdown renders per-column missing counts and the total.
func (m MissingReport) Markdown() string {
	var b strings.Builder
	b.WriteString("[MISSING]\n")
	b.WriteString(countsTable("Missing", m.Counts))
	fmt.Fprintf(&b, "\nTotal missing: %d\n", m.Total)
	if m.None() {
		b.WriteString("\n" + NoMissingNotice + "\n")
	}
	return b.String()
}

func countsTable(label string, counts []ColumnCount) string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Column, strconv.Itoa(c.Count)})
	}
	return MarkdownTable([]string{"Column", label}, rows)
}

// MarkdownTable renders a pipe table. Cell text is sanitized for table syntax.
func MarkdownTable(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("|")
	for _, h := range header {
		b.WriteString(" " + safeVal(h) + " |")
	}
	b.WriteString("\n|")
	for range header {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("|")
		for i := range header {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if utf8.RuneCountInString(val) > 80 {
				val = string([]rune(val)[:77]) + "..."
			}
			b.WriteString(" " + safeVal(val) + " |")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatNum(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
