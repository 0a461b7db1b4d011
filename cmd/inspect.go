package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tabula/internal/chart"
	cfgpkg "github.com/KaramelBytes/tabula/internal/config"
	"github.com/KaramelBytes/tabula/internal/explore"
	"github.com/KaramelBytes/tabula/internal/frame"
	"github.com/KaramelBytes/tabula/internal/utils"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"
)

var (
	insOp        string
	insColumn    string
	insHue       string
	insAction    string
	insOutput    string
	insEncode    []string
	insDrop      bool
	insSheet     string
	insDelimiter string
	insCharset   string
	insRows      int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Run one exploration operation on a CSV/TSV/XLSX file",
	Long: `Run one exploration operation and print its Markdown report, or write its
plot as PNG. Operations: shape, information, describe, unique, missing, onehot,
boxplot, histogram, countplot.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config()
		if err != nil {
			return err
		}
		op, err := explore.ParseOperation(insOp)
		if err != nil {
			return err
		}
		action, err := explore.ParseAction(insAction)
		if err != nil {
			return err
		}
		opt, err := loadOptions(c, insDelimiter, insCharset, insSheet)
		if err != nil {
			return err
		}
		ds, err := prepareDataset(args[0], opt, insEncode, insDrop)
		if err != nil {
			return err
		}
		rows := insRows
		if !cmd.Flags().Changed("rows") {
			rows = c.PreviewRows
		}
		res, err := explore.Run(ds, explore.Request{
			Op:          op,
			Column:      insColumn,
			Hue:         insHue,
			Action:      action,
			Chart:       chartOptions(c),
			PreviewRows: rows,
		})
		if err != nil {
			return err
		}
		return writeResult(res, op, insColumn, insOutput)
	},
}

// prepareDataset loads path and applies the requested encodings and row drop
// in that order.
func prepareDataset(path string, opt frame.LoadOptions, encode []string, drop bool) (*frame.Dataset, error) {
	ds, err := frame.LoadFile(path, opt)
	if err != nil {
		return nil, err
	}
	for _, col := range encode {
		next, err := ds.OneHot(col)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", col, err)
		}
		ds = next
		fmt.Printf("✓ One-hot encoded %s\n", col)
	}
	if drop {
		next, n, err := ds.DropMissing()
		if err != nil {
			return nil, err
		}
		ds = next
		fmt.Printf("✓ Dropped %d rows with missing values\n", n)
	}
	return ds, nil
}

func writeResult(res explore.Result, op explore.Operation, column, output string) error {
	if res.Skipped() {
		for _, w := range res.Warnings {
			fmt.Printf("⚠ %s\n", w)
		}
		return errors.New(res.Warnings[0])
	}
	if res.Image != nil {
		path := output
		if path == "" {
			path = defaultPlotName(op, column)
		}
		if err := utils.SafeWriteFile(path, res.Image.PNG); err != nil {
			return fmt.Errorf("write plot: %w", err)
		}
		fmt.Printf("✓ Wrote %s to %s\n", strings.ToLower(res.Title), path)
		return nil
	}
	if output != "" {
		if err := utils.SafeWriteFile(output, []byte(res.Markdown)); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("✓ Wrote %s report to %s\n", op.Label(), output)
		return nil
	}
	fmt.Println(res.Markdown)
	return nil
}

func defaultPlotName(op explore.Operation, column string) string {
	safe := strings.Map(func(r rune) rune {
		if r == filepath.Separator || r == ' ' {
			return '_'
		}
		return r
	}, column)
	return op.String() + "_" + safe + ".png"
}

func chartOptions(c *cfgpkg.Global) chart.Options {
	return chart.Options{
		Width:  vg.Length(c.PlotWidthIn) * vg.Inch,
		Height: vg.Length(c.PlotHeightIn) * vg.Inch,
		Bins:   c.HistBins,
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&insOp, "op", "shape", "operation to run")
	inspectCmd.Flags().StringVarP(&insColumn, "column", "c", "", "column for onehot/boxplot/histogram/countplot")
	inspectCmd.Flags().StringVar(&insHue, "hue", "", "grouping column for histogram/countplot")
	inspectCmd.Flags().StringVar(&insAction, "action", "", "run | preview | apply (missing: preview/apply drop rows)")
	inspectCmd.Flags().StringVarP(&insOutput, "output", "o", "", "write the report (Markdown) or plot (PNG) to this path")
	inspectCmd.Flags().StringSliceVar(&insEncode, "encode", nil, "one-hot encode these columns before running (repeatable)")
	inspectCmd.Flags().BoolVar(&insDrop, "drop", false, "drop rows with missing values before running")
	inspectCmd.Flags().StringVar(&insSheet, "sheet", "", "XLSX: sheet name (default first sheet)")
	inspectCmd.Flags().StringVar(&insDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (auto-detect if omitted)")
	inspectCmd.Flags().StringVar(&insCharset, "charset", "", "input charset: utf-8 | latin1 | windows-1252 | utf-16")
	inspectCmd.Flags().IntVar(&insRows, "rows", 20, "rows shown in transformed-table previews (-1 = all)")
}
