package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pevans/newsharvest/textnorm"
	"gopkg.in/yaml.v3"
)

// Browser modes.
const (
	ModeRod    = "rod"
	ModeStatic = "static"
)

// Category describes one section of the site to harvest. Zero Target and
// MaxScrolls inherit the file-level values.
type Category struct {
	Key        string `yaml:"key"`
	Path       string `yaml:"path"`
	Target     int    `yaml:"target,omitempty"`
	MaxScrolls int    `yaml:"max_scrolls,omitempty"`
}

// OutputConfig names the files the harvest is written to.
type OutputConfig struct {
	CSV    string `yaml:"csv"`
	SQLite string `yaml:"sqlite"`
}

// BrowserConfig selects and configures the rendering agent.
type BrowserConfig struct {
	Mode       string `yaml:"mode"`
	ControlURL string `yaml:"control_url"`
	Headless   bool   `yaml:"headless"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Config is the full harvest configuration. It is read once at startup and
// not modified during a run.
type Config struct {
	BaseURL            string        `yaml:"base_url"`
	Categories         []Category    `yaml:"categories"`
	TargetPerCategory  int           `yaml:"target_per_category"`
	MaxScrolls         int           `yaml:"max_scrolls_per_category"`
	ScrollPause        time.Duration `yaml:"scroll_pause"`
	ConfirmPause       time.Duration `yaml:"confirm_pause"`
	StallBackoffPixels int           `yaml:"stall_backoff_px"`
	PageLoadTimeout    time.Duration `yaml:"page_load_timeout"`
	WaitTimeout        time.Duration `yaml:"wait_timeout"`
	ImageScanLimit     int           `yaml:"image_scan_limit"`
	MinParagraphLength int           `yaml:"min_paragraph_length"`
	Blocklist          []string      `yaml:"blocklist"`
	Output             OutputConfig  `yaml:"output"`
	Browser            BrowserConfig `yaml:"browser"`
	Log                LogConfig     `yaml:"log"`
}

// Default returns the configuration of the reference run.
func Default() *Config {
	return &Config{
		BaseURL: "https://akharinkhabar.ir",
		Categories: []Category{
			{Key: "sport", Path: "/sport"},
			{Key: "politics", Path: "/politics"},
			{Key: "money", Path: "/money"},
			{Key: "world", Path: "/world"},
			{Key: "social", Path: "/social"},
		},
		TargetPerCategory:  200,
		MaxScrolls:         1000,
		ScrollPause:        1 * time.Second,
		ConfirmPause:       500 * time.Millisecond,
		StallBackoffPixels: 1200,
		PageLoadTimeout:    20 * time.Second,
		WaitTimeout:        15 * time.Second,
		ImageScanLimit:     10,
		MinParagraphLength: textnorm.DefaultMinLength,
		Blocklist:          append([]string(nil), textnorm.DefaultBlocklist...),
		Output: OutputConfig{
			CSV: "akharinkhabar_news.csv",
		},
		Browser: BrowserConfig{
			Mode:     ModeRod,
			Headless: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	var errs []error

	if c.BaseURL == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if len(c.Categories) == 0 {
		errs = append(errs, errors.New("at least one category is required"))
	}

	seen := map[string]bool{}
	for i, cat := range c.Categories {
		if cat.Key == "" {
			errs = append(errs, fmt.Errorf("categories[%d]: key is required", i))
		} else if seen[cat.Key] {
			errs = append(errs, fmt.Errorf("categories[%d]: duplicate key %q", i, cat.Key))
		}
		seen[cat.Key] = true

		if !strings.HasPrefix(cat.Path, "/") {
			errs = append(errs, fmt.Errorf("categories[%d]: path must start with /", i))
		}
		if cat.Target < 0 || cat.MaxScrolls < 0 {
			errs = append(errs, fmt.Errorf("categories[%d]: target and max_scrolls must not be negative", i))
		}
	}

	if c.TargetPerCategory <= 0 {
		errs = append(errs, errors.New("target_per_category must be positive"))
	}
	if c.MaxScrolls <= 0 {
		errs = append(errs, errors.New("max_scrolls_per_category must be positive"))
	}
	if c.PageLoadTimeout <= 0 || c.WaitTimeout <= 0 {
		errs = append(errs, errors.New("page_load_timeout and wait_timeout must be positive"))
	}
	if c.ScrollPause < 0 || c.ConfirmPause < 0 {
		errs = append(errs, errors.New("pauses must not be negative"))
	}
	if c.ImageScanLimit <= 0 {
		errs = append(errs, errors.New("image_scan_limit must be positive"))
	}
	if c.Output.CSV == "" {
		errs = append(errs, errors.New("output.csv is required"))
	}
	if c.Browser.Mode != ModeRod && c.Browser.Mode != ModeStatic {
		errs = append(errs, fmt.Errorf("browser.mode must be %q or %q", ModeRod, ModeStatic))
	}

	return errors.Join(errs...)
}

// Resolved returns the category with Target and MaxScrolls filled from the
// file-level values where unset.
func (c *Config) Resolved(cat Category) Category {
	if cat.Target == 0 {
		cat.Target = c.TargetPerCategory
	}
	if cat.MaxScrolls == 0 {
		cat.MaxScrolls = c.MaxScrolls
	}
	return cat
}

// Category looks up a configured category by key.
func (c *Config) Category(key string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.Key == key {
			return c.Resolved(cat), true
		}
	}
	return Category{}, false
}

// URL returns the absolute listing page address of cat.
func (c *Config) URL(cat Category) string {
	return strings.TrimRight(c.BaseURL, "/") + cat.Path
}
