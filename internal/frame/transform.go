package frame

import (
	"fmt"
	"strconv"

	"github.com/go-gota/gota/series"
)

// IndicatorName is the column name for the indicator of value within column.
func IndicatorName(column, value string) string {
	return column + "_" + value
}

// OneHot encodes a categorical column. Distinct non-missing values get integer
// codes in first-seen order; the column is replaced by its codes and one boolean
// indicator column per value is appended. Missing cells stay missing in the code
// column and are false in every indicator.
//
// The receiver is not modified. Encoding a column twice fails with
// ErrAlreadyEncoded; numeric and boolean columns fail with a *KindError.
func (d *Dataset) OneHot(column string) (*Dataset, error) {
	if _, ok := d.encodings[column]; ok {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyEncoded, column)
	}
	col, err := d.Require(column, KindCategorical)
	if err != nil {
		return nil, err
	}
	labels := col.Distinct()
	codeOf := make(map[string]int, len(labels))
	for i, v := range labels {
		codeOf[v] = i
		if name := IndicatorName(column, v); d.HasColumn(name) {
			return nil, fmt.Errorf("%w: %q", ErrColumnExists, name)
		}
	}

	n := col.Len()
	codes := make([]string, n)
	indicators := make([][]bool, len(labels))
	for k := range indicators {
		indicators[k] = make([]bool, n)
	}
	for i := 0; i < n; i++ {
		if col.IsMissing(i) {
			codes[i] = "NaN"
			continue
		}
		c := codeOf[col.Value(i)]
		codes[i] = strconv.Itoa(c)
		indicators[c][i] = true
	}

	df := d.df.Mutate(series.New(codes, series.Int, column))
	for k, v := range labels {
		df = df.Mutate(series.New(indicators[k], series.Bool, IndicatorName(column, v)))
	}
	next, err := d.derive(df)
	if err != nil {
		return nil, fmt.Errorf("one-hot %q: %w", column, err)
	}
	if next.encodings == nil {
		next.encodings = make(map[string][]string, 1)
	}
	next.encodings[column] = labels
	return next, nil
}

// DropMissing returns a snapshot without the rows that have any missing cell,
// and the number of rows dropped. When nothing is missing the receiver is returned.
func (d *Dataset) DropMissing() (*Dataset, int, error) {
	rows, _ := d.df.Dims()
	cols := d.Columns()
	keep := make([]int, 0, rows)
	for i := 0; i < rows; i++ {
		complete := true
		for _, c := range cols {
			if c.IsMissing(i) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	if len(keep) == rows {
		return d, 0, nil
	}
	next, err := d.derive(d.df.Subset(keep))
	if err != nil {
		return nil, 0, fmt.Errorf("drop missing rows: %w", err)
	}
	return next, rows - len(keep), nil
}
