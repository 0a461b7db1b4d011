package frame

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Kind is the inferred role of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindBoolean     Kind = "boolean"
)

func kindOf(t series.Type) Kind {
	switch t {
	case series.Int, series.Float:
		return KindNumeric
	case series.Bool:
		return KindBoolean
	default:
		return KindCategorical
	}
}

// Dataset is an immutable snapshot of a loaded table. Operations that change
// the table return a new Dataset and leave the receiver untouched.
type Dataset struct {
	name string
	df   dataframe.DataFrame
	// encodings maps a one-hot encoded column to its original labels in code order.
	encodings map[string][]string
}

// New wraps a gota DataFrame. It fails if the frame carries an error.
func New(name string, df dataframe.DataFrame) (*Dataset, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("build dataset: %w", df.Err)
	}
	return &Dataset{name: name, df: df}, nil
}

// FromRecords builds a dataset from a header row followed by data rows.
// Empty cells and the NA tokens are treated as missing. A header without
// data rows gives a dataset with zero rows.
func FromRecords(name string, records [][]string) (*Dataset, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrEmpty
	}
	if len(records) == 1 {
		cols := make([]series.Series, len(records[0]))
		for i, h := range records[0] {
			cols[i] = series.New([]string{}, series.String, h)
		}
		return New(name, dataframe.New(cols...))
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(naTokens),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("build dataset: %w", df.Err)
	}
	return New(name, retypeBools(df))
}

// retypeBools converts text columns holding only true/false in any letter
// case (True/False as written by pandas) to Bool. gota detects lowercase only.
func retypeBools(df dataframe.DataFrame) dataframe.DataFrame {
	for _, name := range df.Names() {
		s := df.Col(name)
		if s.Type() != series.String {
			continue
		}
		vals, ok := boolRecords(s)
		if !ok {
			continue
		}
		df = df.Mutate(series.New(vals, series.Bool, name))
	}
	return df
}

func boolRecords(s series.Series) ([]string, bool) {
	recs := s.Records()
	nan := s.IsNaN()
	out := make([]string, len(recs))
	seen := false
	for i, v := range recs {
		switch {
		case nan[i]:
			out[i] = "NaN"
		case strings.EqualFold(v, "true"):
			out[i], seen = "true", true
		case strings.EqualFold(v, "false"):
			out[i], seen = "false", true
		default:
			return nil, false
		}
	}
	return out, seen
}

var naTokens = []string{"", "NA", "NaN", "<nil>", "null"}

// Name is the file name the dataset was loaded from.
func (d *Dataset) Name() string { return d.name }

// Shape returns (rows, columns).
func (d *Dataset) Shape() (rows, cols int) { return d.df.Dims() }

// Names returns column names in table order.
func (d *Dataset) Names() []string { return d.df.Names() }

// Frame returns a copy of the underlying dataframe.
func (d *Dataset) Frame() dataframe.DataFrame { return d.df.Copy() }

// HasColumn reports whether name is one of the dataset's columns.
func (d *Dataset) HasColumn(name string) bool {
	for _, n := range d.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Column returns a read-only view of the named column.
func (d *Dataset) Column(name string) (Column, error) {
	if !d.HasColumn(name) {
		return Column{}, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return newColumn(d.df.Col(name)), nil
}

// Columns returns views of all columns in table order.
func (d *Dataset) Columns() []Column {
	names := d.df.Names()
	out := make([]Column, 0, len(names))
	for _, n := range names {
		out = append(out, newColumn(d.df.Col(n)))
	}
	return out
}

// Require returns the named column if it exists and has the wanted kind.
func (d *Dataset) Require(name string, want Kind) (Column, error) {
	c, err := d.Column(name)
	if err != nil {
		return Column{}, err
	}
	if c.Kind != want {
		return Column{}, &KindError{Column: name, Want: want, Got: c.Kind}
	}
	return c, nil
}

// Encoding returns the original labels of a one-hot encoded column, indexed by code.
func (d *Dataset) Encoding(column string) ([]string, bool) {
	labels, ok := d.encodings[column]
	if !ok {
		return nil, false
	}
	cp := make([]string, len(labels))
	copy(cp, labels)
	return cp, true
}

// Head returns up to n rows as display strings. Missing cells render as "NaN".
// n <= 0 returns every row.
func (d *Dataset) Head(n int) [][]string {
	rows, _ := d.df.Dims()
	if n <= 0 || n > rows {
		n = rows
	}
	cols := d.Columns()
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = c.records[i]
		}
		out[i] = row
	}
	return out
}

func (d *Dataset) derive(df dataframe.DataFrame) (*Dataset, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	next := &Dataset{name: d.name, df: df}
	if len(d.encodings) > 0 {
		next.encodings = make(map[string][]string, len(d.encodings))
		for k, v := range d.encodings {
			next.encodings[k] = v
		}
	}
	return next, nil
}

// Column is a read-only view of one dataset column.
type Column struct {
	Name    string
	Kind    Kind
	Type    series.Type
	records []string
	missing []bool
	floats  []float64
}

func newColumn(s series.Series) Column {
	return Column{
		Name:    s.Name,
		Kind:    kindOf(s.Type()),
		Type:    s.Type(),
		records: s.Records(),
		missing: s.IsNaN(),
		floats:  s.Float(),
	}
}

// Len is the number of rows.
func (c Column) Len() int { return len(c.records) }

// IsMissing reports whether row i is empty/null.
func (c Column) IsMissing(i int) bool { return c.missing[i] }

// Missing counts empty/null cells.
func (c Column) Missing() int {
	n := 0
	for _, m := range c.missing {
		if m {
			n++
		}
	}
	return n
}

// NonNull counts present cells.
func (c Column) NonNull() int { return c.Len() - c.Missing() }

// Value returns the display string of row i.
func (c Column) Value(i int) string { return c.records[i] }

// Float returns row i as a number. Missing rows are NaN.
func (c Column) Float(i int) float64 { return c.floats[i] }

// Floats returns the non-missing values of a numeric or boolean column.
func (c Column) Floats() []float64 {
	out := make([]float64, 0, len(c.floats))
	for i, v := range c.floats {
		if !c.missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// Distinct returns the non-missing values in first-seen order.
func (c Column) Distinct() []string {
	seen := make(map[string]struct{})
	var out []string
	for i, v := range c.records {
		if c.missing[i] {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
