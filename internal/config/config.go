package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"weekgrid/internal/viewport"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint or a local file path.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// SourceID returns ID, falling back to Name and then URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	default:
		return c.URL
	}
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// GridConfig is the viewport section. Dates are YYYY-MM-DD.
type GridConfig struct {
	VisibleDays int `yaml:"visible_days" json:"visible_days"`

	MinHour int `yaml:"min_hour" json:"min_hour"`
	MaxHour int `yaml:"max_hour" json:"max_hour"`

	HourHeight    float64 `yaml:"hour_height" json:"hour_height"`
	MinHourHeight float64 `yaml:"min_hour_height" json:"min_hour_height"`
	MaxHourHeight float64 `yaml:"max_hour_height" json:"max_hour_height"`

	TimeColumnWidth float64 `yaml:"time_column_width" json:"time_column_width"`
	HeaderHeight    float64 `yaml:"header_height" json:"header_height"`

	MinDate string `yaml:"min_date,omitempty" json:"min_date,omitempty"`
	MaxDate string `yaml:"max_date,omitempty" json:"max_date,omitempty"`

	ShowFirstDayOfWeekFirst bool `yaml:"show_first_day_of_week_first" json:"show_first_day_of_week_first"`
	ShowCurrentTimeFirst    bool `yaml:"show_current_time_first" json:"show_current_time_first"`
	ShowCompleteDay         bool `yaml:"show_complete_day" json:"show_complete_day"`

	// Width and Height are the initial pixel size of the viewport.
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone dates are computed in (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") for
	// refetching every calendar.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// CacheDir holds the on-disk ICS cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Grid GridConfig `yaml:"grid" json:"grid"`
}

func defaultGrid() GridConfig {
	vc := viewport.DefaultConfig()
	return GridConfig{
		VisibleDays:             7,
		MinHour:                 vc.MinHour,
		MaxHour:                 vc.MaxHour,
		HourHeight:              vc.HourHeight,
		MinHourHeight:           vc.MinHourHeight,
		MaxHourHeight:           vc.MaxHourHeight,
		TimeColumnWidth:         vc.TimeColumnWidth,
		HeaderHeight:            vc.HeaderHeight,
		ShowFirstDayOfWeekFirst: true,
		ShowCurrentTimeFirst:    true,
		Width:                   1024,
		Height:                  768,
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "UTC",
		WeekStart:   "monday",
		RefreshCron: "*/15 * * * *",
		CacheDir:    "./var/ics-cache",
		LogLevel:    "info",
		ICS:         []ICSConfig{},
		BasicAuth:   nil,
		Grid:        defaultGrid(),
	}
}

// Normalize fills in missing/zero values so that partially-filled configs
// still behave correctly. Values that are present but invalid are left for
// Validate to report.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	c.WeekStart = strings.ToLower(strings.TrimSpace(c.WeekStart))
	if c.WeekStart == "" {
		c.WeekStart = d.WeekStart
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}

	g := &c.Grid
	if g.VisibleDays == 0 {
		g.VisibleDays = d.Grid.VisibleDays
	}
	if g.MinHour == 0 && g.MaxHour == 0 {
		g.MinHour, g.MaxHour = d.Grid.MinHour, d.Grid.MaxHour
	}
	if g.HourHeight == 0 {
		g.HourHeight = d.Grid.HourHeight
	}
	if g.MinHourHeight == 0 {
		g.MinHourHeight = d.Grid.MinHourHeight
	}
	if g.MaxHourHeight == 0 {
		g.MaxHourHeight = d.Grid.MaxHourHeight
	}
	if g.TimeColumnWidth == 0 {
		g.TimeColumnWidth = d.Grid.TimeColumnWidth
	}
	if g.HeaderHeight == 0 {
		g.HeaderHeight = d.Grid.HeaderHeight
	}
	if g.Width == 0 {
		g.Width = d.Grid.Width
	}
	if g.Height == 0 {
		g.Height = d.Grid.Height
	}
}

// Validate reports the first fatal problem in c. It expects a normalized
// config.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	if _, err := weekday(c.WeekStart); err != nil {
		return err
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("config: refresh %q: %w", c.RefreshCron, err)
	}
	for i, src := range c.ICS {
		if src.URL == "" {
			return fmt.Errorf("config: ics[%d]: url is empty", i)
		}
	}
	if c.Grid.Width < 0 || c.Grid.Height < 0 {
		return errors.New("config: grid width and height must not be negative")
	}
	_, err := c.Viewport()
	return err
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Viewport converts the grid section into a validated viewport.Config.
func (c *Config) Viewport() (viewport.Config, error) {
	loc := c.Location()
	first, err := weekday(c.WeekStart)
	if err != nil {
		return viewport.Config{}, err
	}
	minDate, err := parseDate(c.Grid.MinDate, loc)
	if err != nil {
		return viewport.Config{}, fmt.Errorf("config: grid.min_date: %w", err)
	}
	maxDate, err := parseDate(c.Grid.MaxDate, loc)
	if err != nil {
		return viewport.Config{}, fmt.Errorf("config: grid.max_date: %w", err)
	}

	vc := viewport.Config{
		NumberOfVisibleDays:     c.Grid.VisibleDays,
		MinHour:                 c.Grid.MinHour,
		MaxHour:                 c.Grid.MaxHour,
		HourHeight:              c.Grid.HourHeight,
		MinHourHeight:           c.Grid.MinHourHeight,
		MaxHourHeight:           c.Grid.MaxHourHeight,
		TimeColumnWidth:         c.Grid.TimeColumnWidth,
		HeaderHeight:            c.Grid.HeaderHeight,
		MinDate:                 minDate,
		MaxDate:                 maxDate,
		ShowFirstDayOfWeekFirst: c.Grid.ShowFirstDayOfWeekFirst,
		FirstDayOfWeek:          first,
		ShowCurrentTimeFirst:    c.Grid.ShowCurrentTimeFirst,
		ShowCompleteDay:         c.Grid.ShowCompleteDay,
		Location:                loc,
	}
	if err := vc.Validate(); err != nil {
		return viewport.Config{}, fmt.Errorf("config: grid: %w", err)
	}
	return vc, nil
}

func weekday(s string) (time.Weekday, error) {
	switch s {
	case "monday":
		return time.Monday, nil
	case "sunday":
		return time.Sunday, nil
	default:
		return 0, fmt.Errorf("config: week_start %q: want monday or sunday", s)
	}
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(time.DateOnly, s, loc)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//
// Load does not validate; callers run Validate before use.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg atomically (temp file + rename) with 0600 permissions,
// creating the parent directory with 0700 if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".weekgrid-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
