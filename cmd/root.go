package cmd

import (
	"fmt"
	"os"
	"strings"

	cfgpkg "github.com/KaramelBytes/tabula/internal/config"
	"github.com/KaramelBytes/tabula/internal/frame"
	"github.com/KaramelBytes/tabula/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "tabula",
	Short: "tabula: explore a CSV/TSV/XLSX table in the browser or the terminal",
	Long: `tabula loads a tabular file and runs a fixed menu of exploration operations on it:
shape, information, describe, unique counts, missing values, one-hot encoding,
boxplots, histograms and countplots. Run "tabula serve" for the browser UI or
"tabula inspect" for one-off reports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tabula/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// config returns the loaded configuration, loading it on first use.
func config() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

func newLogger(c *cfgpkg.Global) *logging.Logger {
	lvl := logging.ParseLevel(c.LogLevel)
	if debug {
		lvl = logging.LevelDebug
	}
	return logging.New(lvl)
}

// loadOptions merges the configured parsing defaults with command flags.
func loadOptions(c *cfgpkg.Global, delimiter, charset, sheet string) (frame.LoadOptions, error) {
	opt := frame.DefaultLoadOptions()
	if c != nil {
		if c.Charset != "" {
			opt.Charset = c.Charset
		}
		if delimiter == "" {
			delimiter = c.Delimiter
		}
	}
	if charset != "" {
		opt.Charset = charset
	}
	if err := frame.CheckCharset(opt.Charset); err != nil {
		return opt, err
	}
	switch strings.ToLower(delimiter) {
	case "":
	case ",", "comma":
		opt.Delimiter = ','
	case ";", "semicolon":
		opt.Delimiter = ';'
	case "\t", "tab":
		opt.Delimiter = '\t'
	case "|", "pipe":
		opt.Delimiter = '|'
	default:
		return opt, fmt.Errorf("unsupported delimiter: %q (use ',' | ';' | 'tab' | '|')", delimiter)
	}
	opt.Sheet = sheet
	return opt, nil
}
