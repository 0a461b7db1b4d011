package explore

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabula/internal/frame"
)

const ordersCSV = `region,item,units,price
north,apple,3,1.2
south,pear,,0.8
north,plum,5,2.5
east,apple,2,
west,pear,7,0.9
`

func orders(t *testing.T) *frame.Dataset {
	t.Helper()
	ds, err := frame.Load("orders.csv", strings.NewReader(ordersCSV), frame.DefaultLoadOptions())
	require.NoError(t, err)
	return ds
}

func TestParseOperationRoundTrip(t *testing.T) {
	for _, op := range All() {
		got, err := ParseOperation(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, got)

		got, err = ParseOperation(op.Label())
		require.NoError(t, err)
		assert.Equal(t, op, got, "label %q", op.Label())
	}
	op, err := ParseOperation("One-Hot")
	require.NoError(t, err)
	assert.Equal(t, OpOneHot, op)

	_, err = ParseOperation("pivot")
	assert.True(t, errors.Is(err, ErrUnknownOperation))
	assert.Len(t, All(), 9)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("")
	require.NoError(t, err)
	assert.Equal(t, ActionRun, a)
	a, err = ParseAction("Apply")
	require.NoError(t, err)
	assert.Equal(t, ActionApply, a)
	_, err = ParseAction("undo")
	assert.Error(t, err)
}

func TestEveryOperationHasAHandler(t *testing.T) {
	ds := orders(t)
	columns := map[Operation]string{
		OpOneHot:    "region",
		OpBoxplot:   "units",
		OpHistogram: "price",
		OpCountplot: "item",
	}
	for _, op := range All() {
		res, err := Run(ds, Request{Op: op, Column: columns[op]})
		require.NoError(t, err, "%s", op)
		assert.Empty(t, res.Warnings, "%s", op)
		assert.NotEmpty(t, res.Title, "%s", op)
		assert.True(t, res.Markdown != "" || res.Image != nil, "%s produced nothing", op)
	}
	_, err := Run(ds, Request{Op: numOperations})
	assert.True(t, errors.Is(err, ErrUnknownOperation))
}

func TestControlsCandidatesPutMatchingKindFirst(t *testing.T) {
	ds := orders(t)
	assert.Equal(t, []string{"units", "price", "region", "item"}, ControlsFor(OpBoxplot).Candidates(ds))
	assert.Equal(t, []string{"region", "item", "units", "price"}, ControlsFor(OpOneHot).Candidates(ds))
	assert.Nil(t, ControlsFor(OpShape).Candidates(ds))
	assert.True(t, ControlsFor(OpMissing).Allows(ActionApply))
	assert.False(t, ControlsFor(OpDescribe).Allows(ActionApply))
}

func TestBoxplotOnTextColumnWarns(t *testing.T) {
	res, err := Run(orders(t), Request{Op: OpBoxplot, Column: "region"})
	require.NoError(t, err)
	require.True(t, res.Skipped())
	assert.Equal(t, "Selected column 'region' is not numeric and cannot be used for Boxplot.", res.Warnings[0])
	assert.Nil(t, res.Image)
}

func TestHistogramOnTextColumnWarns(t *testing.T) {
	res, err := Run(orders(t), Request{Op: OpHistogram, Column: "item", Hue: "region"})
	require.NoError(t, err)
	require.True(t, res.Skipped())
	assert.Contains(t, res.Warnings[0], "is not numeric")
}

func TestColumnRequiredAndValidated(t *testing.T) {
	res, err := Run(orders(t), Request{Op: OpCountplot})
	require.NoError(t, err)
	assert.Equal(t, []string{"Select a column for Countplot."}, res.Warnings)

	res, err = Run(orders(t), Request{Op: OpCountplot, Column: "colour"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Column 'colour' was not found."}, res.Warnings)

	res, err = Run(orders(t), Request{Op: OpCountplot, Column: "item", Hue: "colour"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hue column 'colour' was not found."}, res.Warnings)
}

func TestOneHotPreviewAndApply(t *testing.T) {
	ds := orders(t)
	res, err := Run(ds, Request{Op: OpOneHot, Column: "region", Action: ActionPreview})
	require.NoError(t, err)
	assert.Nil(t, res.Next)
	require.Len(t, res.Tables, 2)
	assert.Equal(t, [][]string{
		{"0", "north", "region_north"},
		{"1", "south", "region_south"},
		{"2", "east", "region_east"},
		{"3", "west", "region_west"},
	}, res.Tables[0].Rows)
	assert.Contains(t, res.Tables[1].Header, "region_west")

	res, err = Run(ds, Request{Op: OpOneHot, Column: "region", Action: ActionApply})
	require.NoError(t, err)
	require.NotNil(t, res.Next)
	_, cols := res.Next.Shape()
	assert.Equal(t, 8, cols)

	again, err := Run(res.Next, Request{Op: OpOneHot, Column: "region", Action: ActionApply})
	require.NoError(t, err)
	assert.Equal(t, []string{"Column 'region' is already one-hot encoded."}, again.Warnings)
	assert.Nil(t, again.Next)
}

func TestOneHotOnNumericWarns(t *testing.T) {
	res, err := Run(orders(t), Request{Op: OpOneHot, Column: "units", Action: ActionApply})
	require.NoError(t, err)
	assert.Equal(t, []string{"Selected column 'units' is not categorical and cannot be one-hot encoded."}, res.Warnings)
	assert.Nil(t, res.Next)
}

func TestOneHotOnCapitalizedBooleansWarns(t *testing.T) {
	ds, err := frame.Load("flags.csv", strings.NewReader("flag,n\nTrue,1\nFalse,2\nTrue,3\n"), frame.DefaultLoadOptions())
	require.NoError(t, err)
	res, err := Run(ds, Request{Op: OpOneHot, Column: "flag", Action: ActionApply})
	require.NoError(t, err)
	assert.Equal(t, []string{"Selected column 'flag' is not categorical and cannot be one-hot encoded."}, res.Warnings)
	assert.Nil(t, res.Next)
	assert.Equal(t, []string{"flag", "n"}, ds.Names())
}

func TestMissingReportAndDrop(t *testing.T) {
	ds := orders(t)
	res, err := Run(ds, Request{Op: OpMissing})
	require.NoError(t, err)
	assert.Nil(t, res.Next)
	assert.Contains(t, res.Notices, "Total missing values: 2")
	assert.Contains(t, res.Markdown, "Total missing: 2")

	res, err = Run(ds, Request{Op: OpMissing, Action: ActionPreview})
	require.NoError(t, err)
	assert.Nil(t, res.Next)
	require.Len(t, res.Tables, 2)
	assert.Len(t, res.Tables[1].Rows, 3)

	res, err = Run(ds, Request{Op: OpMissing, Action: ActionApply})
	require.NoError(t, err)
	require.NotNil(t, res.Next)
	rows, _ := res.Next.Shape()
	assert.Equal(t, 3, rows)

	clean, err := Run(res.Next, Request{Op: OpMissing, Action: ActionApply})
	require.NoError(t, err)
	assert.Equal(t, []string{"No missing values found."}, clean.Notices)
	assert.Nil(t, clean.Next)
}

func TestChartsProduceImages(t *testing.T) {
	res, err := Run(orders(t), Request{Op: OpCountplot, Column: "item", Hue: "region"})
	require.NoError(t, err)
	require.NotNil(t, res.Image)
	assert.NotEmpty(t, res.Image.PNG)
	assert.Equal(t, "Countplot of item by region", res.Title)

	// hue is ignored where the operation offers none
	res, err = Run(orders(t), Request{Op: OpBoxplot, Column: "units", Hue: "nope"})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
}

func TestPreviewTableCaption(t *testing.T) {
	tbl := PreviewTable(orders(t), 2)
	assert.Equal(t, "orders.csv: 5 rows x 4 columns (first 2 shown)", tbl.Caption)
	assert.Len(t, tbl.Rows, 2)
	assert.Len(t, PreviewTable(orders(t), 0).Rows, 5)
}
