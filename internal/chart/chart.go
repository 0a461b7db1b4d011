// Package chart renders dataset columns as PNG plots.
package chart

import (
	"bytes"
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/tabula/internal/frame"
)

// ErrNoData is returned when a column has no non-missing values to plot.
var ErrNoData = errors.New("no values to plot")

// Options controls image size and histogram binning.
type Options struct {
	Width  vg.Length
	Height vg.Length
	// Bins is the histogram bin count; 0 picks one with Sturges' rule.
	Bins int
}

// DefaultOptions returns a 6x4 inch canvas with automatic binning.
func DefaultOptions() Options {
	return Options{Width: 6 * vg.Inch, Height: 4 * vg.Inch}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Bins < 0 {
		o.Bins = 0
	}
	return o
}

// Image is a rendered plot.
type Image struct {
	Title string
	PNG   []byte
}

func render(p *plot.Plot, title string, opt Options) (Image, error) {
	wt, err := p.WriterTo(opt.Width, opt.Height, "png")
	if err != nil {
		return Image{}, fmt.Errorf("render %s: %w", title, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return Image{}, fmt.Errorf("encode %s: %w", title, err)
	}
	return Image{Title: title, PNG: buf.Bytes()}, nil
}

type group struct {
	label string
	rows  []int
}

// groupRows splits the present rows of col into hue groups in first-seen hue
// order. Rows missing either value are skipped. An empty hue yields one group.
func groupRows(ds *frame.Dataset, col frame.Column, hue string) ([]group, error) {
	if hue == "" {
		g := group{}
		for i := 0; i < col.Len(); i++ {
			if !col.IsMissing(i) {
				g.rows = append(g.rows, i)
			}
		}
		return []group{g}, nil
	}
	h, err := ds.Column(hue)
	if err != nil {
		return nil, err
	}
	index := map[string]int{}
	var out []group
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) || h.IsMissing(i) {
			continue
		}
		v := h.Value(i)
		k, ok := index[v]
		if !ok {
			k = len(out)
			index[v] = k
			out = append(out, group{label: v})
		}
		out[k].rows = append(out[k].rows, i)
	}
	return out, nil
}
