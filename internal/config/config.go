package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// CurrentVersion is the only config schema version this build reads.
const CurrentVersion = 1

// Config represents the complete fredwork configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Site     SiteConfig     `json:"site" mapstructure:"site"`
	Template TemplateConfig `json:"template" mapstructure:"template"`
	Static   StaticConfig   `json:"static" mapstructure:"static"`
	Journal  JournalConfig  `json:"journal" mapstructure:"journal"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// ServerConfig contains listener settings. Zero read/write timeouts disable
// deadlines. ShutdownTimeoutMs bounds how long shutdown waits for open
// connections before closing them.
type ServerConfig struct {
	Host              string `json:"host" mapstructure:"host"`
	Port              int    `json:"port" mapstructure:"port"`
	ReadTimeoutMs     int    `json:"readTimeoutMs" mapstructure:"readTimeoutMs"`
	WriteTimeoutMs    int    `json:"writeTimeoutMs" mapstructure:"writeTimeoutMs"`
	ShutdownTimeoutMs int    `json:"shutdownTimeoutMs" mapstructure:"shutdownTimeoutMs"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SiteConfig points at the site manifest
type SiteConfig struct {
	Manifest string `json:"manifest" mapstructure:"manifest"`
}

// TemplateConfig contains template tag settings
type TemplateConfig struct {
	Open       string `json:"open" mapstructure:"open"`
	Close      string `json:"close" mapstructure:"close"`
	RawStrings bool   `json:"rawStrings" mapstructure:"rawStrings"`
}

// StaticConfig contains static file settings
type StaticConfig struct {
	Confine bool `json:"confine" mapstructure:"confine"`
}

// JournalConfig contains request journal settings
type JournalConfig struct {
	Enabled       bool   `json:"enabled" mapstructure:"enabled"`
	Path          string `json:"path" mapstructure:"path"`
	RetentionDays int    `json:"retentionDays" mapstructure:"retentionDays"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"`
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file" mapstructure:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              7878,
			ShutdownTimeoutMs: 10000,
		},
		Site: SiteConfig{
			Manifest: "site.toml",
		},
		Template: TemplateConfig{
			Open:  "<@=",
			Close: ">",
		},
		Static: StaticConfig{
			Confine: true,
		},
		Journal: JournalConfig{
			Enabled:       false,
			Path:          ".fredwork/journal.db",
			RetentionDays: 30,
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "info",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration. path may name a config file directly or a
// directory searched for fredwork.{json,yaml,toml}; an empty path searches
// the working directory. A missing file in a searched directory yields the
// defaults. FREDWORK_* environment variables (FREDWORK_SERVER_PORT,
// FREDWORK_LOGGING_LEVEL, ...) override file values.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("FREDWORK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if isConfigFile(path) {
		v.SetConfigFile(path)
	} else {
		if path == "" {
			path = "."
		}
		v.SetConfigName("fredwork")
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

func isConfigFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".toml":
		return true
	}
	return false
}

// setDefaults registers every key so that AutomaticEnv can override keys
// absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.readTimeoutMs", d.Server.ReadTimeoutMs)
	v.SetDefault("server.writeTimeoutMs", d.Server.WriteTimeoutMs)
	v.SetDefault("server.shutdownTimeoutMs", d.Server.ShutdownTimeoutMs)

	v.SetDefault("site.manifest", d.Site.Manifest)

	v.SetDefault("template.open", d.Template.Open)
	v.SetDefault("template.close", d.Template.Close)
	v.SetDefault("template.rawStrings", d.Template.RawStrings)

	v.SetDefault("static.confine", d.Static.Confine)

	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.path", d.Journal.Path)
	v.SetDefault("journal.retentionDays", d.Journal.RetentionDays)

	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: "must be between 0 and 65535"}
	}
	if c.Server.ReadTimeoutMs < 0 {
		return &ConfigError{Field: "server.readTimeoutMs", Message: "must not be negative"}
	}
	if c.Server.WriteTimeoutMs < 0 {
		return &ConfigError{Field: "server.writeTimeoutMs", Message: "must not be negative"}
	}
	if c.Server.ShutdownTimeoutMs < 0 {
		return &ConfigError{Field: "server.shutdownTimeoutMs", Message: "must not be negative"}
	}
	if c.Template.Open == "" {
		return &ConfigError{Field: "template.open", Message: "must not be empty"}
	}
	if c.Template.Close == "" {
		return &ConfigError{Field: "template.close", Message: "must not be empty"}
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return &ConfigError{Field: "journal.path", Message: "required when the journal is enabled"}
	}
	if c.Journal.RetentionDays < 0 {
		return &ConfigError{Field: "journal.retentionDays", Message: "must not be negative"}
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be human or json"}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{Field: "logging.level", Message: "must be debug, info, warn or error"}
	}
	if c.Logging.MaxBackups < 0 {
		return &ConfigError{Field: "logging.maxBackups", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
