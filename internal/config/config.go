package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/tabula/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// HTTP server
	Addr         string `mapstructure:"addr" yaml:"addr"`
	MaxUploadMB  int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	PreviewRows  int    `mapstructure:"preview_rows" yaml:"preview_rows"`
	CookieSecure bool   `mapstructure:"cookie_secure" yaml:"cookie_secure"`

	// Sessions
	SessionTTLMin int    `mapstructure:"session_ttl_min" yaml:"session_ttl_min"`
	SweepSchedule string `mapstructure:"sweep_schedule" yaml:"sweep_schedule"`

	// Plot rendering
	RenderConcurrency int     `mapstructure:"render_concurrency" yaml:"render_concurrency"`
	PlotWidthIn       float64 `mapstructure:"plot_width_in" yaml:"plot_width_in"`
	PlotHeightIn      float64 `mapstructure:"plot_height_in" yaml:"plot_height_in"`
	HistBins          int     `mapstructure:"hist_bins" yaml:"hist_bins"`

	// Loading
	Charset   string `mapstructure:"charset" yaml:"charset"`
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// SessionTTL returns the idle timeout as a duration.
func (g *Global) SessionTTL() time.Duration {
	return time.Duration(g.SessionTTLMin) * time.Minute
}

// DefaultPath returns ~/.tabula/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tabula", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabula/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > .env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// .env is optional; existing environment variables win.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TABULA")
	v.AutomaticEnv()

	v.SetDefault("addr", "127.0.0.1:8501")
	v.SetDefault("max_upload_mb", 50)
	v.SetDefault("preview_rows", 20)
	v.SetDefault("cookie_secure", false)
	v.SetDefault("session_ttl_min", 60)
	v.SetDefault("sweep_schedule", "@every 1m")
	v.SetDefault("render_concurrency", 4)
	v.SetDefault("plot_width_in", 6.0)
	v.SetDefault("plot_height_in", 4.0)
	v.SetDefault("hist_bins", 0)
	v.SetDefault("charset", "utf-8")
	v.SetDefault("delimiter", "")
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".tabula"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values the server cannot run with.
func (g *Global) Validate() error {
	if g.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", g.MaxUploadMB)
	}
	if g.SessionTTLMin <= 0 {
		return fmt.Errorf("session_ttl_min must be positive, got %d", g.SessionTTLMin)
	}
	if g.RenderConcurrency <= 0 {
		return fmt.Errorf("render_concurrency must be positive, got %d", g.RenderConcurrency)
	}
	if g.PlotWidthIn <= 0 || g.PlotHeightIn <= 0 {
		return fmt.Errorf("plot size must be positive, got %.1fx%.1f in", g.PlotWidthIn, g.PlotHeightIn)
	}
	if g.HistBins < 0 {
		return fmt.Errorf("hist_bins must be >= 0, got %d", g.HistBins)
	}
	return nil
}
