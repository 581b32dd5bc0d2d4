package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekgrid/internal/calmath"
	"weekgrid/internal/viewport"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	require.NoError(t, cfg.Validate())
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timezone: Europe/Berlin
week_start: Sunday
ics:
  - id: team
    url: https://example.com/team.ics
grid:
  visible_days: 3
  min_hour: 8
  max_hour: 20
  min_date: 2024-01-01
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sunday", cfg.WeekStart)
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
	assert.Equal(t, 60.0, cfg.Grid.HourHeight)
	assert.Equal(t, "team", cfg.ICS[0].SourceID())

	vc, err := cfg.Viewport()
	require.NoError(t, err)
	assert.Equal(t, 3, vc.NumberOfVisibleDays)
	assert.Equal(t, 8, vc.MinHour)
	assert.Equal(t, 20, vc.MaxHour)
	assert.Equal(t, time.Sunday, vc.FirstDayOfWeek)
	assert.Equal(t, "Europe/Berlin", vc.Location.String())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, vc.Location), vc.MinDate)
	assert.True(t, vc.MaxDate.IsZero())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid: [\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.ICS = append(cfg.ICS, ICSConfig{Name: "home", URL: "/tmp/home.ics"})
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, "home", loaded.ICS[0].SourceID())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, nil},
		{"week start", func(c *Config) { c.WeekStart = "friday" }, nil},
		{"cron", func(c *Config) { c.RefreshCron = "every minute" }, nil},
		{"empty ics url", func(c *Config) { c.ICS = []ICSConfig{{ID: "x"}} }, nil},
		{"visible days", func(c *Config) { c.Grid.VisibleDays = -1 }, viewport.ErrInvalidVisibleDays},
		{"hour heights", func(c *Config) { c.Grid.MinHourHeight = 500 }, viewport.ErrInvalidHourHeights},
		{"hour window", func(c *Config) { c.Grid.MinHour, c.Grid.MaxHour = 20, 8 }, viewport.ErrInvalidHourWindow},
		{"date format", func(c *Config) { c.Grid.MinDate = "01/02/2024" }, nil},
		{"too many days", func(c *Config) {
			c.Grid.MinDate, c.Grid.MaxDate = "2024-01-01", "2024-01-03"
		}, calmath.ErrTooManyVisibleDays},
		{"negative size", func(c *Config) { c.Grid.Width = -1 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
		})
	}
}
