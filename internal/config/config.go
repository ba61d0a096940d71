package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/username/workdays-api/internal/calendar"
	"github.com/username/workdays-api/internal/holiday"
	"github.com/username/workdays-api/pkg/dateutil"
)

// Config represents application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Holidays HolidaysConfig `mapstructure:"holidays"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig represents the HTTP listener configuration
type ServerConfig struct {
	Listen          string `mapstructure:"listen"`
	ReadTimeout     string `mapstructure:"read_timeout"`
	WriteTimeout    string `mapstructure:"write_timeout"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
}

// CalendarConfig represents the local time zone and working hours
type CalendarConfig struct {
	UTCOffsetHours int    `mapstructure:"utc_offset_hours"`
	ZoneName       string `mapstructure:"zone_name"`
	WorkStart      string `mapstructure:"work_start"`  // HH:MM
	LunchStart     string `mapstructure:"lunch_start"` // HH:MM
	LunchEnd       string `mapstructure:"lunch_end"`   // HH:MM
	WorkEnd        string `mapstructure:"work_end"`    // HH:MM
	MaxIterations  int    `mapstructure:"max_iterations"`
}

// HolidaysConfig represents the remote holiday source
type HolidaysConfig struct {
	URL          string `mapstructure:"url"`
	Timeout      string `mapstructure:"timeout"`
	CacheTTL     string `mapstructure:"cache_ttl"`
	RetryBackoff string `mapstructure:"retry_backoff"` // Pause after a failed refresh, "0s" retries on every lookup
	FallbackFile string `mapstructure:"fallback_file"` // Optional YAML list replacing the built-in fallback
	RefreshCron  string `mapstructure:"refresh_cron"`  // Cache warm-up schedule, empty disables
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

const envPrefix = "WORKDAYS"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":3000")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "5s")

	v.SetDefault("calendar.utc_offset_hours", calendar.DefaultUTCOffsetHours)
	v.SetDefault("calendar.zone_name", calendar.DefaultZoneName)
	v.SetDefault("calendar.work_start", calendar.DefaultWorkingHours.Start.String())
	v.SetDefault("calendar.lunch_start", calendar.DefaultWorkingHours.LunchStart.String())
	v.SetDefault("calendar.lunch_end", calendar.DefaultWorkingHours.LunchEnd.String())
	v.SetDefault("calendar.work_end", calendar.DefaultWorkingHours.End.String())
	v.SetDefault("calendar.max_iterations", calendar.DefaultMaxIterations)

	v.SetDefault("holidays.url", holiday.DefaultURL)
	v.SetDefault("holidays.timeout", holiday.DefaultTimeout.String())
	v.SetDefault("holidays.cache_ttl", holiday.DefaultCacheTTL.String())
	v.SetDefault("holidays.retry_backoff", holiday.DefaultRetryBackoff.String())
	v.SetDefault("holidays.fallback_file", "")
	v.SetDefault("holidays.refresh_cron", "@every 1h")

	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
}

// Load loads configuration from file, environment and defaults.
// Without an explicit path a missing config file is fine.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.workdays-api")
		v.AddConfigPath("/etc/workdays-api")
	}

	// Read environment variables, e.g. WORKDAYS_SERVER_LISTEN
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate Server config
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}

	// Validate Holidays config
	if c.Holidays.URL == "" {
		return fmt.Errorf("holidays.url is required")
	}
	if d, err := time.ParseDuration(c.Holidays.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("holidays.timeout must be a positive duration, got '%s'", c.Holidays.Timeout)
	}
	if d, err := time.ParseDuration(c.Holidays.CacheTTL); err != nil || d <= 0 {
		return fmt.Errorf("holidays.cache_ttl must be a positive duration, got '%s'", c.Holidays.CacheTTL)
	}
	if c.Holidays.RetryBackoff != "" {
		if d, err := time.ParseDuration(c.Holidays.RetryBackoff); err != nil || d < 0 {
			return fmt.Errorf("holidays.retry_backoff must be a non-negative duration, got '%s'", c.Holidays.RetryBackoff)
		}
	}

	// Validate Calendar config
	if c.Calendar.UTCOffsetHours < -14 || c.Calendar.UTCOffsetHours > 14 {
		return fmt.Errorf("calendar.utc_offset_hours must be between -14 and 14")
	}
	if c.Calendar.MaxIterations <= 0 {
		return fmt.Errorf("calendar.max_iterations must be positive")
	}
	if _, err := c.Calendar.WorkingHours(); err != nil {
		return err
	}

	return nil
}

// WorkingHours parses the four HH:MM settings and checks their order
func (c *CalendarConfig) WorkingHours() (calendar.WorkingHours, error) {
	var wh calendar.WorkingHours
	fields := []struct {
		key   string
		value string
		dst   *calendar.TimeOfDay
	}{
		{"calendar.work_start", c.WorkStart, &wh.Start},
		{"calendar.lunch_start", c.LunchStart, &wh.LunchStart},
		{"calendar.lunch_end", c.LunchEnd, &wh.LunchEnd},
		{"calendar.work_end", c.WorkEnd, &wh.End},
	}

	for _, f := range fields {
		tod, err := calendar.ParseTimeOfDay(f.value)
		if err != nil {
			return calendar.WorkingHours{}, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = tod
	}

	if err := wh.Validate(); err != nil {
		return calendar.WorkingHours{}, err
	}
	return wh, nil
}

// Location returns the fixed-offset local zone
func (c *CalendarConfig) Location() *time.Location {
	name := c.ZoneName
	if name == "" {
		name = calendar.DefaultZoneName
	}
	return dateutil.FixedZone(name, c.UTCOffsetHours)
}

// GetTimeout returns the holiday fetch timeout
func (c *HolidaysConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, holiday.DefaultTimeout)
}

// GetCacheTTL returns cache TTL duration
func (c *HolidaysConfig) GetCacheTTL() time.Duration {
	return parseDurationOr(c.CacheTTL, holiday.DefaultCacheTTL)
}

// GetRetryBackoff returns the pause after a failed refresh. Zero is kept as is.
func (c *HolidaysConfig) GetRetryBackoff() time.Duration {
	if c.RetryBackoff == "" {
		return holiday.DefaultRetryBackoff
	}
	d, err := time.ParseDuration(c.RetryBackoff)
	if err != nil || d < 0 {
		return holiday.DefaultRetryBackoff
	}
	return d
}

// GetReadTimeout returns the HTTP read timeout
func (c *ServerConfig) GetReadTimeout() time.Duration {
	return parseDurationOr(c.ReadTimeout, 10*time.Second)
}

// GetWriteTimeout returns the HTTP write timeout
func (c *ServerConfig) GetWriteTimeout() time.Duration {
	return parseDurationOr(c.WriteTimeout, 30*time.Second)
}

// GetShutdownTimeout returns how long in-flight requests get on shutdown
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	return parseDurationOr(c.ShutdownTimeout, 5*time.Second)
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	duration, err := time.ParseDuration(s)
	if err != nil || duration <= 0 {
		return def
	}
	return duration
}
