package chart

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/tabula/internal/frame"
)

// Boxplot draws the distribution of a numeric column.
func Boxplot(ds *frame.Dataset, column string, opt Options) (Image, error) {
	opt = opt.withDefaults()
	col, err := ds.Require(column, frame.KindNumeric)
	if err != nil {
		return Image{}, err
	}
	vals := col.Floats()
	if len(vals) == 0 {
		return Image{}, fmt.Errorf("%w: %q", ErrNoData, column)
	}

	p := plot.New()
	p.Title.Text = "Boxplot of " + column
	p.Y.Label.Text = column

	box, err := plotter.NewBoxPlot(vg.Points(40), 0, plotter.Values(vals))
	if err != nil {
		return Image{}, fmt.Errorf("boxplot %q: %w", column, err)
	}
	box.FillColor = plotutil.Color(0)
	p.Add(box)
	p.NominalX(column)
	return render(p, p.Title.Text, opt)
}
