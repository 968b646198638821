// Package config provides configuration management for pulse.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/xvierd/pulse-cli/internal/domain"
)

// EnvConfigPath overrides the location of the config file.
const EnvConfigPath = "PULSE_CONFIG"

const defaultDataDir = "~/.pulse"

// Config holds all configuration for the pulse application.
type Config struct {
	Timer         TimerConfig        `mapstructure:"timer"`
	Spotify       SpotifyConfig      `mapstructure:"spotify"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Telemetry     TelemetryConfig    `mapstructure:"telemetry"`
	Theme         ThemeConfig        `mapstructure:"theme"`
}

// TimerConfig holds the interval lengths in whole minutes.
type TimerConfig struct {
	FocusMinutes int `mapstructure:"focus_minutes"`
	BreakMinutes int `mapstructure:"break_minutes"`
}

// SpotifyConfig holds the playback integration settings.
type SpotifyConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	ClientID     string   `mapstructure:"client_id"`
	RedirectURL  string   `mapstructure:"redirect_url"`
	FadeOut      Duration `mapstructure:"fade_out"`
	FadeIn       Duration `mapstructure:"fade_in"`
	PollInterval Duration `mapstructure:"poll_interval"`
	DeviceID     string   `mapstructure:"device_id"`
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Sound   bool `mapstructure:"sound"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// TelemetryConfig holds crash reporting settings.
type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// ThemeConfig holds theme customization settings (colors and icons).
type ThemeConfig struct {
	ColorFocus         string `mapstructure:"color_focus"`
	ColorBreak         string `mapstructure:"color_break"`
	ColorPaused        string `mapstructure:"color_paused"`
	ColorTitle         string `mapstructure:"color_title"`
	ColorTask          string `mapstructure:"color_task"`
	ColorHelp          string `mapstructure:"color_help"`
	FocusGradientStart string `mapstructure:"focus_gradient_start"`
	FocusGradientEnd   string `mapstructure:"focus_gradient_end"`
	BreakGradientStart string `mapstructure:"break_gradient_start"`
	BreakGradientEnd   string `mapstructure:"break_gradient_end"`
	IconApp            string `mapstructure:"icon_app"`
	IconMusic          string `mapstructure:"icon_music"`
	IconPaused         string `mapstructure:"icon_paused"`
}

// DefaultThemeConfig returns the default theme configuration.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		ColorFocus:         "#E8505B",
		ColorBreak:         "#4ECDC4",
		ColorPaused:        "#6B7280",
		ColorTitle:         "#6B7280",
		ColorTask:          "#A0AEC0",
		ColorHelp:          "#95A5A6",
		FocusGradientStart: "#E8505B",
		FocusGradientEnd:   "#F9A26C",
		BreakGradientStart: "#4ECDC4",
		BreakGradientEnd:   "#2ECC71",
		IconApp:            "🍅",
		IconMusic:          "♪",
		IconPaused:         "⏸",
	}
}

// Duration is a wrapper around time.Duration for TOML parsing.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the string representation of the duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timer: TimerConfig{
			FocusMinutes: domain.DefaultFocusMinutes,
			BreakMinutes: domain.DefaultBreakMinutes,
		},
		Spotify: SpotifyConfig{
			Enabled:      true,
			RedirectURL:  "http://127.0.0.1:8888/callback",
			FadeOut:      Duration(2 * time.Second),
			FadeIn:       Duration(time.Second),
			PollInterval: Duration(5 * time.Second),
		},
		Notifications: NotificationConfig{
			Enabled: true,
			Sound:   true,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Theme: DefaultThemeConfig(),
	}
}

// Durations converts the timer settings to engine durations.
func (c *Config) Durations() (domain.Durations, error) {
	return domain.DurationsFromMinutes(c.Timer.FocusMinutes, c.Timer.BreakMinutes)
}

// SetDurations validates and stores new interval lengths. Invalid values
// leave the previous settings untouched.
func (c *Config) SetDurations(focusMinutes, breakMinutes int) error {
	if _, err := domain.DurationsFromMinutes(focusMinutes, breakMinutes); err != nil {
		return err
	}
	c.Timer.FocusMinutes = focusMinutes
	c.Timer.BreakMinutes = breakMinutes
	return nil
}

// ApplyPreset sets the durations of a named preset.
func (c *Config) ApplyPreset(name string) (domain.Preset, error) {
	p, err := domain.FindPreset(name)
	if err != nil {
		return domain.Preset{}, err
	}
	return p, c.SetDurations(p.FocusMinutes, p.BreakMinutes)
}

// Load loads the configuration from the config file.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from configPath, creating the file with
// defaults when it does not exist.
func LoadFrom(configPath string) (*Config, error) {
	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveTo(configPath, DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if _, err := cfg.Durations(); err != nil {
		defaults := DefaultConfig()
		cfg.Timer = defaults.Timer
	}

	dataDir, err := expandHome(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Storage.DataDir = dataDir

	return &cfg, nil
}

// Save saves the configuration to the config file.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveTo(configPath, cfg)
}

// SaveTo writes cfg to configPath.
func SaveTo(configPath string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	v.Set("timer.focus_minutes", cfg.Timer.FocusMinutes)
	v.Set("timer.break_minutes", cfg.Timer.BreakMinutes)
	v.Set("spotify.enabled", cfg.Spotify.Enabled)
	v.Set("spotify.client_id", cfg.Spotify.ClientID)
	v.Set("spotify.redirect_url", cfg.Spotify.RedirectURL)
	v.Set("spotify.fade_out", cfg.Spotify.FadeOut.String())
	v.Set("spotify.fade_in", cfg.Spotify.FadeIn.String())
	v.Set("spotify.poll_interval", cfg.Spotify.PollInterval.String())
	v.Set("spotify.device_id", cfg.Spotify.DeviceID)
	v.Set("notifications.enabled", cfg.Notifications.Enabled)
	v.Set("notifications.sound", cfg.Notifications.Sound)
	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("telemetry.enabled", cfg.Telemetry.Enabled)
	v.Set("telemetry.dsn", cfg.Telemetry.DSN)
	v.Set("theme.color_focus", cfg.Theme.ColorFocus)
	v.Set("theme.color_break", cfg.Theme.ColorBreak)
	v.Set("theme.color_paused", cfg.Theme.ColorPaused)
	v.Set("theme.color_title", cfg.Theme.ColorTitle)
	v.Set("theme.color_task", cfg.Theme.ColorTask)
	v.Set("theme.color_help", cfg.Theme.ColorHelp)
	v.Set("theme.focus_gradient_start", cfg.Theme.FocusGradientStart)
	v.Set("theme.focus_gradient_end", cfg.Theme.FocusGradientEnd)
	v.Set("theme.break_gradient_start", cfg.Theme.BreakGradientStart)
	v.Set("theme.break_gradient_end", cfg.Theme.BreakGradientEnd)
	v.Set("theme.icon_app", cfg.Theme.IconApp)
	v.Set("theme.icon_music", cfg.Theme.IconMusic)
	v.Set("theme.icon_paused", cfg.Theme.IconPaused)

	return v.WriteConfigAs(configPath)
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".pulse", "config.toml"), nil
}

// GetDBPath returns the path to the database file.
func GetDBPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "pulse.db")
}

// GetLogPath returns the path to the log file.
func GetLogPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "pulse.log")
}

func expandHome(dir string) (string, error) {
	if dir == "" {
		dir = defaultDataDir
	}
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(dir, "~")), nil
}

// setDefaults sets default values for viper.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("timer.focus_minutes", d.Timer.FocusMinutes)
	v.SetDefault("timer.break_minutes", d.Timer.BreakMinutes)
	v.SetDefault("spotify.enabled", d.Spotify.Enabled)
	v.SetDefault("spotify.client_id", "")
	v.SetDefault("spotify.redirect_url", d.Spotify.RedirectURL)
	v.SetDefault("spotify.fade_out", d.Spotify.FadeOut.String())
	v.SetDefault("spotify.fade_in", d.Spotify.FadeIn.String())
	v.SetDefault("spotify.poll_interval", d.Spotify.PollInterval.String())
	v.SetDefault("spotify.device_id", "")
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.sound", true)
	v.SetDefault("storage.data_dir", defaultDataDir)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.dsn", "")

	// Theme defaults
	v.SetDefault("theme.color_focus", d.Theme.ColorFocus)
	v.SetDefault("theme.color_break", d.Theme.ColorBreak)
	v.SetDefault("theme.color_paused", d.Theme.ColorPaused)
	v.SetDefault("theme.color_title", d.Theme.ColorTitle)
	v.SetDefault("theme.color_task", d.Theme.ColorTask)
	v.SetDefault("theme.color_help", d.Theme.ColorHelp)
	v.SetDefault("theme.focus_gradient_start", d.Theme.FocusGradientStart)
	v.SetDefault("theme.focus_gradient_end", d.Theme.FocusGradientEnd)
	v.SetDefault("theme.break_gradient_start", d.Theme.BreakGradientStart)
	v.SetDefault("theme.break_gradient_end", d.Theme.BreakGradientEnd)
	v.SetDefault("theme.icon_app", d.Theme.IconApp)
	v.SetDefault("theme.icon_music", d.Theme.IconMusic)
	v.SetDefault("theme.icon_paused", d.Theme.IconPaused)
}
