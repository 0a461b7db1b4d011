package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/tabula/internal/explore"
	"github.com/KaramelBytes/tabula/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchOp     string
	watchColumn string
	watchHue    string
	watchOutput string
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-run an operation whenever the file changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config()
		if err != nil {
			return err
		}
		op, err := explore.ParseOperation(watchOp)
		if err != nil {
			return err
		}
		opt, err := loadOptions(c, "", "", "")
		if err != nil {
			return err
		}
		log := newLogger(c).With("Watch")

		run := func(path string) {
			ds, err := prepareDataset(path, opt, nil, false)
			if err != nil {
				fmt.Fprintf(os.Stderr, "✗ %v\n", err)
				return
			}
			res, err := explore.Run(ds, explore.Request{
				Op:          op,
				Column:      watchColumn,
				Hue:         watchHue,
				Chart:       chartOptions(c),
				PreviewRows: c.PreviewRows,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "✗ %v\n", err)
				return
			}
			fmt.Printf("--- %s (%s) ---\n", op.Label(), time.Now().Format(time.TimeOnly))
			if err := writeResult(res, op, watchColumn, watchOutput); err != nil {
				log.Debug("run skipped: %v", err)
			}
		}

		w, err := watch.New(args[0])
		if err != nil {
			return err
		}
		run(w.Path())
		fmt.Printf("✓ Watching %s (Ctrl+C to stop)\n", w.Path())
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return w.Watch(ctx, run)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchOp, "op", "describe", "operation to run on each change")
	watchCmd.Flags().StringVarP(&watchColumn, "column", "c", "", "column for column-based operations")
	watchCmd.Flags().StringVar(&watchHue, "hue", "", "grouping column for histogram/countplot")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "write each result to this path instead of stdout")
}
