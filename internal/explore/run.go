package explore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tabula/internal/analysis"
	"github.com/KaramelBytes/tabula/internal/chart"
	"github.com/KaramelBytes/tabula/internal/frame"
)

// DefaultPreviewRows is the number of table rows shown when Request.PreviewRows is unset.
const DefaultPreviewRows = 20

// Request is one press of an operation's button.
type Request struct {
	Op     Operation
	Column string
	Hue    string
	Action Action
	Chart  chart.Options
	// PreviewRows bounds tables of transformed data; 0 uses DefaultPreviewRows
	// and a negative value shows every row.
	PreviewRows int
}

// Table is a rendered grid of cells.
type Table struct {
	Caption string
	Header  []string
	Rows    [][]string
}

// Markdown renders the table as a pipe table.
func (t Table) Markdown() string {
	var b strings.Builder
	if t.Caption != "" {
		b.WriteString(t.Caption + "\n\n")
	}
	b.WriteString(analysis.MarkdownTable(t.Header, t.Rows))
	return b.String()
}

// Result is what an operation shows. Warnings mean the action was skipped.
// Next is set when the action replaces the working dataset.
type Result struct {
	Op       Operation
	Title    string
	Markdown string
	Tables   []Table
	Image    *chart.Image
	Warnings []string
	Notices  []string
	Next     *frame.Dataset
}

// Skipped reports whether the operation was refused.
func (r Result) Skipped() bool { return len(r.Warnings) > 0 }

// PreviewTable is the first n rows of ds; n <= 0 shows every row.
func PreviewTable(ds *frame.Dataset, n int) Table {
	rows, cols := ds.Shape()
	caption := fmt.Sprintf("%s: %d rows x %d columns", ds.Name(), rows, cols)
	if n > 0 && n < rows {
		caption += fmt.Sprintf(" (first %d shown)", n)
	}
	return Table{Caption: caption, Header: ds.Names(), Rows: ds.Head(n)}
}

// Run executes req against ds. Recognized conditions (wrong column kind,
// unknown column, repeated encoding) come back as warnings with a nil error;
// the error is reserved for failures the user cannot fix by picking again.
func Run(ds *frame.Dataset, req Request) (Result, error) {
	if ds == nil {
		return Result{}, errors.New("no dataset loaded")
	}
	if !req.Op.valid() {
		return Result{}, fmt.Errorf("%w: %d", ErrUnknownOperation, int(req.Op))
	}
	if req.Action == "" {
		req.Action = ActionRun
	}
	if req.PreviewRows == 0 {
		req.PreviewRows = DefaultPreviewRows
	}
	res := Result{Op: req.Op, Title: req.Op.Label()}
	ctl := ControlsFor(req.Op)
	if ctl.Column && strings.TrimSpace(req.Column) == "" {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Select a column for %s.", req.Op.Label()))
		return res, nil
	}
	if !ctl.Hue {
		req.Hue = ""
	}
	if req.Hue != "" && !ds.HasColumn(req.Hue) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Hue column '%s' was not found.", req.Hue))
		return res, nil
	}

	var err error
	switch req.Op {
	case OpShape:
		runShape(ds, &res)
	case OpInformation:
		runInformation(ds, &res)
	case OpDescribe:
		runDescribe(ds, &res)
	case OpUnique:
		runUnique(ds, &res)
	case OpMissing:
		err = runMissing(ds, req, &res)
	case OpOneHot:
		err = runOneHot(ds, req, &res)
	case OpBoxplot:
		err = setImage(&res, func() (chart.Image, error) { return chart.Boxplot(ds, req.Column, req.Chart) })
	case OpHistogram:
		err = setImage(&res, func() (chart.Image, error) { return chart.Histogram(ds, req.Column, req.Hue, req.Chart) })
	case OpCountplot:
		err = setImage(&res, func() (chart.Image, error) { return chart.Countplot(ds, req.Column, req.Hue, req.Chart) })
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownOperation, req.Op)
	}
	if err != nil {
		if msg, ok := warning(req, err); ok {
			res.Warnings = append(res.Warnings, msg)
			res.Image, res.Next, res.Tables, res.Markdown = nil, nil, nil, ""
			return res, nil
		}
		return Result{}, fmt.Errorf("%s: %w", req.Op, err)
	}
	return res, nil
}

// warning turns a recognized error into the message shown to the user.
func warning(req Request, err error) (string, bool) {
	var ke *frame.KindError
	switch {
	case errors.As(err, &ke) && ke.Want == frame.KindNumeric:
		return fmt.Sprintf("Selected column '%s' is not numeric and cannot be used for %s.", ke.Column, req.Op.Label()), true
	case errors.As(err, &ke) && ke.Want == frame.KindCategorical:
		return fmt.Sprintf("Selected column '%s' is not categorical and cannot be one-hot encoded.", ke.Column), true
	case errors.Is(err, frame.ErrAlreadyEncoded):
		return fmt.Sprintf("Column '%s' is already one-hot encoded.", req.Column), true
	case errors.Is(err, frame.ErrColumnExists):
		return fmt.Sprintf("Cannot one-hot encode '%s': %v.", req.Column, err), true
	case errors.Is(err, frame.ErrColumnNotFound):
		return fmt.Sprintf("Column '%s' was not found.", req.Column), true
	case errors.Is(err, chart.ErrNoData):
		return fmt.Sprintf("Column '%s' has no values to plot.", req.Column), true
	}
	return "", false
}

func runShape(ds *frame.Dataset, res *Result) {
	s := analysis.ShapeOf(ds)
	res.Markdown = s.Markdown()
	res.Tables = []Table{{
		Header: []string{"Rows", "Columns"},
		Rows:   [][]string{{strconv.Itoa(s.Rows), strconv.Itoa(s.Cols)}},
	}}
}

func runInformation(ds *frame.Dataset, res *Result) {
	info := analysis.Information(ds)
	res.Markdown = info.Markdown()
	t := Table{Header: []string{"#", "Column", "Non-Null Count", "Dtype", "Kind"}}
	for _, c := range info.Columns {
		t.Rows = append(t.Rows, []string{strconv.Itoa(c.Index), c.Name, strconv.Itoa(c.NonNull), c.Dtype, string(c.Kind)})
	}
	res.Tables = []Table{t}
}

func runDescribe(ds *frame.Dataset, res *Result) {
	d := analysis.Describe(ds)
	res.Markdown = d.Markdown()
	if len(d.Columns) == 0 {
		res.Notices = append(res.Notices, "No numeric columns to describe.")
		return
	}
	h, rows := d.Table()
	res.Tables = []Table{{Header: h, Rows: rows}}
}

func runUnique(ds *frame.Dataset, res *Result) {
	counts := analysis.Unique(ds)
	res.Markdown = analysis.UniqueMarkdown(counts)
	res.Tables = []Table{countTable("Distinct values", counts)}
}

func countTable(label string, counts []analysis.ColumnCount) Table {
	t := Table{Header: []string{"Column", label}}
	for _, c := range counts {
		t.Rows = append(t.Rows, []string{c.Column, strconv.Itoa(c.Count)})
	}
	return t
}

func runMissing(ds *frame.Dataset, req Request, res *Result) error {
	m := analysis.Missing(ds)
	res.Markdown = m.Markdown()
	res.Tables = []Table{countTable("Missing", m.Counts)}
	if m.None() {
		res.Notices = append(res.Notices, analysis.NoMissingNotice)
		return nil
	}
	res.Notices = append(res.Notices, fmt.Sprintf("Total missing values: %d", m.Total))
	if req.Action == ActionRun {
		return nil
	}
	next, dropped, err := ds.DropMissing()
	if err != nil {
		return err
	}
	rows, _ := next.Shape()
	msg := fmt.Sprintf("Dropped %d rows with missing values; %d rows remain.", dropped, rows)
	if req.Action == ActionApply {
		res.Next = next
		msg += " The working dataset was updated."
	} else {
		msg += " Preview only; the working dataset is unchanged."
	}
	res.Notices = append(res.Notices, msg)
	preview := PreviewTable(next, req.PreviewRows)
	res.Tables = append(res.Tables, preview)
	res.Markdown += "\n" + msg + "\n\n" + preview.Markdown()
	return nil
}

func runOneHot(ds *frame.Dataset, req Request, res *Result) error {
	next, err := ds.OneHot(req.Column)
	if err != nil {
		return err
	}
	labels, _ := next.Encoding(req.Column)
	res.Title = "One-Hot Encoding for " + req.Column
	codes := Table{Caption: "Codes for " + req.Column, Header: []string{"Code", "Value", "Indicator"}}
	for i, l := range labels {
		codes.Rows = append(codes.Rows, []string{strconv.Itoa(i), l, frame.IndicatorName(req.Column, l)})
	}
	preview := PreviewTable(next, req.PreviewRows)
	res.Tables = []Table{codes, preview}
	msg := fmt.Sprintf("Encoded '%s' into %d indicator columns.", req.Column, len(labels))
	if req.Action == ActionApply {
		res.Next = next
		msg += " The working dataset was updated."
	} else {
		msg += " Preview only; the working dataset is unchanged."
	}
	res.Notices = append(res.Notices, msg)
	res.Markdown = "[ONE-HOT]\n" + msg + "\n\n" + codes.Markdown() + "\n" + preview.Markdown()
	return nil
}

func setImage(res *Result, draw func() (chart.Image, error)) error {
	img, err := draw()
	if err != nil {
		return err
	}
	res.Title = img.Title
	res.Image = &img
	return nil
}
