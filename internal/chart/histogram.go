package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/tabula/internal/frame"
)

const kdePoints = 200

// SturgesBins is ceil(log2(n)) + 1, at least 1.
func SturgesBins(n int) int {
	if n <= 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// ScottBandwidth is the Gaussian kernel bandwidth 1.06 * sd * n^(-1/5).
// It is 0 when fewer than two values or no spread.
func ScottBandwidth(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	sd := stat.StdDev(vals, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return 1.06 * sd * math.Pow(float64(len(vals)), -0.2)
}

// KDE evaluates a Gaussian kernel density estimate of vals at xs.
func KDE(vals, xs []float64, bandwidth float64) []float64 {
	out := make([]float64, len(xs))
	if bandwidth <= 0 || len(vals) == 0 {
		return out
	}
	k := distuv.Normal{Mu: 0, Sigma: bandwidth}
	for i, x := range xs {
		var sum float64
		for _, v := range vals {
			sum += k.Prob(x - v)
		}
		out[i] = sum / float64(len(vals))
	}
	return out
}

type binning struct {
	min, width float64
	n          int
}

func newBinning(vals []float64, n int) binning {
	lo, hi := floats.Min(vals), floats.Max(vals)
	if n <= 0 {
		n = SturgesBins(len(vals))
	}
	if hi == lo {
		return binning{min: lo - 0.5, width: 1, n: 1}
	}
	return binning{min: lo, width: (hi - lo) / float64(n), n: n}
}

func (b binning) index(v float64) int {
	i := int((v - b.min) / b.width)
	if i >= b.n {
		i = b.n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (b binning) counts(vals []float64) []float64 {
	out := make([]float64, b.n)
	for _, v := range vals {
		out[b.index(v)]++
	}
	return out
}

// Histogram draws the distribution of a numeric column with a kernel density
// overlay scaled to counts. With a hue, the bars are stacked per hue value and
// each group gets its own density curve.
func Histogram(ds *frame.Dataset, column, hue string, opt Options) (Image, error) {
	opt = opt.withDefaults()
	col, err := ds.Require(column, frame.KindNumeric)
	if err != nil {
		return Image{}, err
	}
	groups, err := groupRows(ds, col, hue)
	if err != nil {
		return Image{}, err
	}
	var all []float64
	groupVals := make([][]float64, len(groups))
	for g, grp := range groups {
		for _, r := range grp.rows {
			groupVals[g] = append(groupVals[g], col.Float(r))
		}
		all = append(all, groupVals[g]...)
	}
	if len(all) == 0 {
		return Image{}, fmt.Errorf("%w: %q", ErrNoData, column)
	}

	p := plot.New()
	p.Title.Text = "Histogram of " + column
	if hue != "" {
		p.Title.Text += " by " + hue
		p.Legend.Top = true
	}
	p.X.Label.Text = column
	p.Y.Label.Text = "count"

	b := newBinning(all, opt.Bins)

	// Stack by drawing cumulative totals, tallest first.
	cum := make([][]float64, len(groups))
	running := make([]float64, b.n)
	for g := range groups {
		for i, c := range b.counts(groupVals[g]) {
			running[i] += c
		}
		cum[g] = append([]float64(nil), running...)
	}
	hists := make([]*plotter.Histogram, len(groups))
	for g := len(groups) - 1; g >= 0; g-- {
		h := &plotter.Histogram{
			Bins:      make([]plotter.HistogramBin, b.n),
			Width:     b.width,
			FillColor: translucent(plotutil.Color(g)),
			LineStyle: plotter.DefaultLineStyle,
		}
		for i := 0; i < b.n; i++ {
			lo := b.min + float64(i)*b.width
			h.Bins[i] = plotter.HistogramBin{Min: lo, Max: lo + b.width, Weight: cum[g][i]}
		}
		hists[g] = h
		p.Add(h)
	}

	xs := make([]float64, kdePoints)
	lo, hi := b.min, b.min+float64(b.n)*b.width
	floats.Span(xs, lo, hi)
	for g := range groups {
		bw := ScottBandwidth(groupVals[g])
		if bw == 0 {
			continue
		}
		dens := KDE(groupVals[g], xs, bw)
		scale := float64(len(groupVals[g])) * b.width
		pts := make(plotter.XYs, len(xs))
		for i := range xs {
			pts[i] = plotter.XY{X: xs[i], Y: dens[i] * scale}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return Image{}, fmt.Errorf("histogram density %q: %w", column, err)
		}
		line.LineStyle.Width = vg.Points(2)
		line.LineStyle.Color = plotutil.Color(g)
		p.Add(line)
	}
	if hue != "" {
		for g, grp := range groups {
			p.Legend.Add(grp.label, hists[g])
		}
	}
	return render(p, p.Title.Text, opt)
}

func translucent(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 160}
}
