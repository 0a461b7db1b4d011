package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/tabula/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set tabula configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("addr: %s\n", cfg.Addr)
		fmt.Printf("max_upload_mb: %d\n", cfg.MaxUploadMB)
		fmt.Printf("preview_rows: %d\n", cfg.PreviewRows)
		fmt.Printf("cookie_secure: %t\n", cfg.CookieSecure)
		fmt.Printf("session_ttl_min: %d\n", cfg.SessionTTLMin)
		fmt.Printf("sweep_schedule: %s\n", cfg.SweepSchedule)
		fmt.Printf("render_concurrency: %d\n", cfg.RenderConcurrency)
		fmt.Printf("plot_width_in: %.1f\n", cfg.PlotWidthIn)
		fmt.Printf("plot_height_in: %.1f\n", cfg.PlotHeightIn)
		fmt.Printf("hist_bins: %d\n", cfg.HistBins)
		fmt.Printf("charset: %s\n", cfg.Charset)
		if cfg.Delimiter != "" {
			fmt.Printf("delimiter: %q\n", cfg.Delimiter)
		}
		fmt.Printf("log_level: %s\n", cfg.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := config()
		if err != nil {
			return err
		}
		atoi := func() (int, error) {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("invalid int for %s: %v", key, val)
			}
			return i, nil
		}
		atof := func() (float64, error) {
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid float for %s: %v", key, val)
			}
			return f, nil
		}
		next := *c
		switch key {
		case "addr":
			next.Addr = val
		case "max_upload_mb":
			if next.MaxUploadMB, err = atoi(); err != nil {
				return err
			}
		case "preview_rows":
			if next.PreviewRows, err = atoi(); err != nil {
				return err
			}
		case "cookie_secure":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for cookie_secure: %v", val)
			}
			next.CookieSecure = b
		case "session_ttl_min":
			if next.SessionTTLMin, err = atoi(); err != nil {
				return err
			}
		case "sweep_schedule":
			next.SweepSchedule = val
		case "render_concurrency":
			if next.RenderConcurrency, err = atoi(); err != nil {
				return err
			}
		case "plot_width_in":
			if next.PlotWidthIn, err = atof(); err != nil {
				return err
			}
		case "plot_height_in":
			if next.PlotHeightIn, err = atof(); err != nil {
				return err
			}
		case "hist_bins":
			if next.HistBins, err = atoi(); err != nil {
				return err
			}
		case "charset":
			if _, err := loadOptions(nil, "", val, ""); err != nil {
				return err
			}
			next.Charset = val
		case "delimiter":
			if _, err := loadOptions(nil, val, "", ""); err != nil {
				return err
			}
			next.Delimiter = val
		case "log_level":
			switch val {
			case "error", "warn", "info", "debug", "ERROR", "WARN", "INFO", "DEBUG":
				next.LogLevel = val
			default:
				return fmt.Errorf("invalid log_level: %s (use error|warn|info|debug)", val)
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		cfg = &next
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
