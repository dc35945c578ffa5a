// Package config loads pmtrack settings from defaults, an optional YAML
// file and PMTRACK_* environment variables through viper.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pmtrack/internal/reports"
)

// EnvPrefix prefixes every environment override, e.g. PMTRACK_SERVER_ADDR
// for server.addr.
const EnvPrefix = "PMTRACK"

// Config is the complete runtime configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	UI       UIConfig       `mapstructure:"ui"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is text or json.
	Format string `mapstructure:"format"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path          string `mapstructure:"path"`
	BusyTimeoutMS int    `mapstructure:"busy_timeout_ms"`
}

// ServerConfig drives the HTTP listener and the frontend directory.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	StaticDir       string        `mapstructure:"static_dir"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ReportsConfig bounds report queries.
type ReportsConfig struct {
	MaxWindowDays int `mapstructure:"max_window_days"`
}

// UIConfig points at optional style overrides.
type UIConfig struct {
	// TokensFile overrides the built in style tokens when set.
	TokensFile string `mapstructure:"tokens_file"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Log:      LogConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Path: "data/pmtrack.db", BusyTimeoutMS: 5000},
		Server: ServerConfig{
			Addr:            ":8080",
			StaticDir:       "web/dist",
			ShutdownTimeout: 5 * time.Second,
		},
		Reports: ReportsConfig{MaxWindowDays: reports.DefaultMaxWindowDays},
	}
}

// SetDefaults registers every default on v so env variables and config
// files can override them key by key.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.busy_timeout_ms", d.Database.BusyTimeoutMS)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.static_dir", d.Server.StaticDir)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("reports.max_window_days", d.Reports.MaxWindowDays)

	v.SetDefault("ui.tokens_file", d.UI.TokensFile)
}

// Init prepares v: defaults, environment binding and, when present, the
// config file. An explicit file that cannot be read is an error; a missing
// default file is not.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pmtrack")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/pmtrack")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid setting.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels lists the accepted log.level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats lists the accepted log.format values.
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// Validate reports every invalid setting.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{"log.level", c.Log.Level, "must be one of " + strings.Join(ValidLogLevels(), ", ")})
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Log.Format)) {
		errs = append(errs, ValidationError{"log.format", c.Log.Format, "must be one of " + strings.Join(ValidLogFormats(), ", ")})
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, ValidationError{"database.path", c.Database.Path, "must not be empty"})
	}
	if c.Database.BusyTimeoutMS <= 0 {
		errs = append(errs, ValidationError{"database.busy_timeout_ms", c.Database.BusyTimeoutMS, "must be positive"})
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, ValidationError{"server.addr", c.Server.Addr, "must not be empty"})
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, ValidationError{"server.shutdown_timeout", c.Server.ShutdownTimeout, "must be positive"})
	}
	if c.Reports.MaxWindowDays <= 0 {
		errs = append(errs, ValidationError{"reports.max_window_days", c.Reports.MaxWindowDays, "must be positive"})
	}
	return errs
}
