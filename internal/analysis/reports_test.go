package analysis

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/KaramelBytes/tabula/internal/frame"
)

var harvestCSV = strings.Join([]string{
	"plot,variety,yield,moisture",
	"A1,cascade,12.5,74",
	"A1,citra,11.8,",
	"B3,cascade,10.2,68",
	"B3,,9.9,70",
	"C2,mosaic,14.0,72",
}, "\n")

func loadHarvest(t *testing.T) *frame.Dataset {
	t.Helper()
	ds, err := frame.Load("harvest.csv", strings.NewReader(harvestCSV), frame.DefaultLoadOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return ds
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestShapeOf(t *testing.T) {
	s := ShapeOf(loadHarvest(t))
	if s.Rows != 5 || s.Cols != 4 {
		t.Fatalf("unexpected shape %+v", s)
	}
	if !strings.Contains(s.Markdown(), "(5, 4)") {
		t.Fatalf("markdown missing tuple: %s", s.Markdown())
	}
}

func TestInformation(t *testing.T) {
	info := Information(loadHarvest(t))
	if len(info.Columns) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(info.Columns))
	}
	byName := map[string]ColumnInfo{}
	for _, c := range info.Columns {
		byName[c.Name] = c
	}
	if c := byName["moisture"]; c.NonNull != 4 || c.Kind != frame.KindNumeric || c.Dtype != "int" {
		t.Fatalf("unexpected moisture info %+v", c)
	}
	if c := byName["variety"]; c.NonNull != 4 || c.Kind != frame.KindCategorical {
		t.Fatalf("unexpected variety info %+v", c)
	}
	txt := info.Text()
	for _, want := range []string{"Index: 5 entries, 0 to 4", "Data columns (total 4 columns):", "4 non-null", "dtypes: string(2), float(1), int(1)"} {
		if !strings.Contains(txt, want) {
			t.Fatalf("info text missing %q:\n%s", want, txt)
		}
	}
}

func TestDescribeMatchesStandardSummary(t *testing.T) {
	d := Describe(loadHarvest(t))
	if len(d.Columns) != 2 {
		t.Fatalf("expected 2 numeric columns, got %d", len(d.Columns))
	}
	y := d.Columns[0]
	if y.Column != "yield" || y.Count != 5 {
		t.Fatalf("unexpected yield summary %+v", y)
	}
	// values: 9.9 10.2 11.8 12.5 14.0
	if !approx(y.Mean, 11.68) {
		t.Fatalf("mean = %v", y.Mean)
	}
	wantStd := math.Sqrt((math.Pow(12.5-11.68, 2) + math.Pow(11.8-11.68, 2) + math.Pow(10.2-11.68, 2) + math.Pow(9.9-11.68, 2) + math.Pow(14.0-11.68, 2)) / 4)
	if !approx(y.Std, wantStd) {
		t.Fatalf("std = %v, want %v", y.Std, wantStd)
	}
	if y.Min != 9.9 || y.Max != 14.0 || !approx(y.Q1, 10.2) || !approx(y.Median, 11.8) || !approx(y.Q3, 12.5) {
		t.Fatalf("unexpected order stats %+v", y)
	}

	m := d.Columns[1]
	// values: 68 70 72 74 -> 25% at pos 0.75
	if m.Count != 4 || !approx(m.Q1, 69.5) || !approx(m.Median, 71) || !approx(m.Q3, 72.5) {
		t.Fatalf("unexpected moisture summary %+v", m)
	}

	md := d.Markdown()
	if !strings.Contains(md, "[DESCRIBE]") || !strings.Contains(md, "| 25% |") || !strings.Contains(md, "| yield |") {
		t.Fatalf("markdown missing rows: %s", md)
	}
}

func TestDescribeSingleValueHasNaNStd(t *testing.T) {
	ds, err := frame.Load("one.csv", strings.NewReader("x\n3\n"), frame.DefaultLoadOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	d := Describe(ds)
	if !math.IsNaN(d.Columns[0].Std) {
		t.Fatalf("expected NaN std, got %v", d.Columns[0].Std)
	}
	if !strings.Contains(d.Markdown(), "NaN") {
		t.Fatalf("expected NaN in markdown")
	}
}

func TestDescribeWithoutNumericColumns(t *testing.T) {
	ds, err := frame.Load("txt.csv", strings.NewReader("a\nx\n"), frame.DefaultLoadOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if md := Describe(ds).Markdown(); !strings.Contains(md, "No numeric columns") {
		t.Fatalf("unexpected markdown %s", md)
	}
}

func TestUnique(t *testing.T) {
	counts := Unique(loadHarvest(t))
	want := map[string]int{"plot": 3, "variety": 3, "yield": 5, "moisture": 4}
	for _, c := range counts {
		if want[c.Column] != c.Count {
			t.Fatalf("unique %s = %d, want %d", c.Column, c.Count, want[c.Column])
		}
	}
	if md := UniqueMarkdown(counts); !strings.Contains(md, "| variety | 3 |") {
		t.Fatalf("markdown missing variety: %s", md)
	}
}

func TestMissingCountsAndNotice(t *testing.T) {
	m := Missing(loadHarvest(t))
	if m.Total != 2 || m.None() {
		t.Fatalf("unexpected total %d", m.Total)
	}
	sum := 0
	for _, c := range m.Counts {
		sum += c.Count
	}
	if sum != m.Total {
		t.Fatalf("counts sum %d != total %d", sum, m.Total)
	}
	if strings.Contains(m.Markdown(), NoMissingNotice) {
		t.Fatalf("notice must only appear when nothing is missing")
	}

	ds, err := frame.Load("full.csv", strings.NewReader("a,b\n1,x\n"), frame.DefaultLoadOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	full := Missing(ds)
	if !full.None() || !strings.Contains(full.Markdown(), NoMissingNotice) {
		t.Fatalf("expected no-missing notice: %s", full.Markdown())
	}
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	cases := map[float64]float64{0: 1, 0.25: 1.75, 0.5: 2.5, 0.75: 3.25, 1: 4}
	for q, want := range cases {
		if got := quantile(sorted, q); !approx(got, want) {
			t.Fatalf("quantile(%v) = %v, want %v", q, got, want)
		}
	}
	if !math.IsNaN(quantile(nil, 0.5)) {
		t.Fatalf("expected NaN for empty input")
	}
}

func TestMarkdownTableSanitizes(t *testing.T) {
	out := MarkdownTable([]string{"a|b"}, [][]string{{"x\ny"}})
	if strings.Contains(out, "a|b") || strings.Contains(out, "x\ny") {
		t.Fatalf("unsanitized table: %q", out)
	}
}

func TestMarkdownTableTruncatesOnRunes(t *testing.T) {
	long := strings.Repeat("é", 90)
	out := MarkdownTable([]string{"name"}, [][]string{{long}})
	if !utf8.ValidString(out) {
		t.Fatalf("truncation split a rune: %q", out)
	}
	want := strings.Repeat("é", 77) + "..."
	if !strings.Contains(out, "| "+want+" |") {
		t.Fatalf("expected %d runes plus ellipsis, got %q", 77, out)
	}
	short := strings.Repeat("é", 60)
	if out := MarkdownTable([]string{"name"}, [][]string{{short}}); !strings.Contains(out, short+" |") {
		t.Fatalf("short multi-byte cell was cut: %q", out)
	}
}

func TestInformationHeaderOnly(t *testing.T) {
	ds, err := frame.Load("empty.csv", strings.NewReader("a,b\n"), frame.DefaultLoadOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	text := Information(ds).Text()
	if !strings.Contains(text, "Index: 0 entries\n") || !strings.Contains(text, "total 2 columns") {
		t.Fatalf("unexpected info text:\n%s", text)
	}
	if m := Missing(ds); !m.None() {
		t.Fatalf("expected no missing cells, got %d", m.Total)
	}
}
