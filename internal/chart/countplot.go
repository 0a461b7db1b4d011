package chart

import (
	"fmt"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/tabula/internal/frame"
)

// Counts is the frequency table behind a countplot: Values[g][c] is the number
// of rows with category Categories[c] in hue group Groups[g].
type Counts struct {
	Categories []string
	Groups     []string
	Values     [][]int
}

// CountTable tallies column by category and, when hue is set, by hue value.
// Categories and groups keep first-seen order.
func CountTable(ds *frame.Dataset, column, hue string) (Counts, error) {
	col, err := ds.Column(column)
	if err != nil {
		return Counts{}, err
	}
	groups, err := groupRows(ds, col, hue)
	if err != nil {
		return Counts{}, err
	}
	var out Counts
	catIndex := map[string]int{}
	for _, g := range groups {
		for _, r := range g.rows {
			v := col.Value(r)
			if _, ok := catIndex[v]; !ok {
				catIndex[v] = len(out.Categories)
				out.Categories = append(out.Categories, v)
			}
		}
	}
	for _, g := range groups {
		row := make([]int, len(out.Categories))
		for _, r := range g.rows {
			row[catIndex[col.Value(r)]]++
		}
		out.Groups = append(out.Groups, g.label)
		out.Values = append(out.Values, row)
	}
	return out, nil
}

// Countplot draws category frequencies of column as bars, grouped by hue when
// hue is non-empty. Each bar carries its count as a label.
func Countplot(ds *frame.Dataset, column, hue string, opt Options) (Image, error) {
	opt = opt.withDefaults()
	counts, err := CountTable(ds, column, hue)
	if err != nil {
		return Image{}, err
	}
	if len(counts.Categories) == 0 {
		return Image{}, fmt.Errorf("%w: %q", ErrNoData, column)
	}

	p := plot.New()
	p.Title.Text = "Countplot of " + column
	if hue != "" {
		p.Title.Text += " by " + hue
		p.Legend.Top = true
	}
	p.X.Label.Text = column
	p.Y.Label.Text = "count"

	ng := len(counts.Groups)
	slot := opt.Width * 0.8 / vg.Length(len(counts.Categories))
	barW := slot * 0.8 / vg.Length(ng)
	maxCount := 0
	for g, row := range counts.Values {
		vals := make(plotter.Values, len(row))
		xys := make(plotter.XYs, len(row))
		labels := make([]string, len(row))
		for c, n := range row {
			vals[c] = float64(n)
			xys[c] = plotter.XY{X: float64(c), Y: float64(n)}
			labels[c] = strconv.Itoa(n)
			if n > maxCount {
				maxCount = n
			}
		}
		bars, err := plotter.NewBarChart(vals, barW)
		if err != nil {
			return Image{}, fmt.Errorf("countplot %q: %w", column, err)
		}
		offset := barW * (vg.Length(g) - vg.Length(ng-1)/2)
		bars.Offset = offset
		bars.Color = plotutil.Color(g)
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
		if hue != "" {
			p.Legend.Add(counts.Groups[g], bars)
		}

		lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return Image{}, fmt.Errorf("countplot labels %q: %w", column, err)
		}
		for i := range lbl.TextStyle {
			lbl.TextStyle[i].XAlign = draw.XCenter
		}
		lbl.Offset = vg.Point{X: offset, Y: vg.Points(2)}
		p.Add(lbl)
	}
	p.NominalX(counts.Categories...)
	p.Y.Min = 0
	p.Y.Max = float64(maxCount) * 1.15
	return render(p, p.Title.Text, opt)
}
