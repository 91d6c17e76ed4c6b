package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Server.Addr() != "127.0.0.1:7878" {
		t.Errorf("Server.Addr() = %q, want 127.0.0.1:7878", cfg.Server.Addr())
	}
	if cfg.Server.ReadTimeoutMs != 0 || cfg.Server.WriteTimeoutMs != 0 {
		t.Error("timeouts should be disabled by default")
	}
	if cfg.Server.ShutdownTimeoutMs != 10000 {
		t.Errorf("Server.ShutdownTimeoutMs = %d, want 10000", cfg.Server.ShutdownTimeoutMs)
	}
	if cfg.Template.Open != "<@=" || cfg.Template.Close != ">" {
		t.Errorf("Template delimiters = %q %q", cfg.Template.Open, cfg.Template.Close)
	}
	if !cfg.Static.Confine {
		t.Error("Static.Confine should default to true")
	}
	if cfg.Journal.Enabled {
		t.Error("Journal should be disabled by default")
	}
	if cfg.Logging.Format != "human" || cfg.Logging.Level != "info" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad version", func(c *Config) { c.Version = 9 }, "version"},
		{"negative port", func(c *Config) { c.Server.Port = -1 }, "server.port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative read timeout", func(c *Config) { c.Server.ReadTimeoutMs = -5 }, "server.readTimeoutMs"},
		{"negative write timeout", func(c *Config) { c.Server.WriteTimeoutMs = -5 }, "server.writeTimeoutMs"},
		{"negative shutdown timeout", func(c *Config) { c.Server.ShutdownTimeoutMs = -5 }, "server.shutdownTimeoutMs"},
		{"empty open", func(c *Config) { c.Template.Open = "" }, "template.open"},
		{"empty close", func(c *Config) { c.Template.Close = "" }, "template.close"},
		{"journal without path", func(c *Config) { c.Journal.Enabled = true; c.Journal.Path = "" }, "journal.path"},
		{"negative retention", func(c *Config) { c.Journal.RetentionDays = -1 }, "journal.retentionDays"},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"unknown level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"negative backups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.maxBackups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			cfgErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "server.port", Message: "bad"}
	if got := err.Error(); got != "config error in field 'server.port': bad" {
		t.Errorf("Error() = %q", got)
	}
}

func TestLoadConfig_Default(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	def := DefaultConfig()
	if cfg.Server != def.Server || cfg.Logging != def.Logging || cfg.Template != def.Template {
		t.Errorf("missing file should yield defaults, got %+v", cfg)
	}
}

func TestLoadConfig_Formats(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"fredwork.json", `{"server": {"port": 9000}, "logging": {"level": "debug"}}`},
		{"fredwork.yaml", "server:\n  port: 9000\nlogging:\n  level: debug\n"},
		{"fredwork.toml", "[server]\nport = 9000\n[logging]\nlevel = \"debug\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			cfg, err := LoadConfig(dir)
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if cfg.Server.Port != 9000 {
				t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
			}
			if cfg.Logging.Level != "debug" {
				t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
			}
			if cfg.Server.Host != "127.0.0.1" {
				t.Errorf("unset keys should keep defaults, Host = %q", cfg.Server.Host)
			}
			if !cfg.Static.Confine {
				t.Error("unset keys should keep defaults, Confine = false")
			}
		})
	}
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	content := "template:\n  open: \"{pap=\"\n  close: \"}\"\nstatic:\n  confine: false\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Template.Open != "{pap=" || cfg.Template.Close != "}" {
		t.Errorf("Template = %+v", cfg.Template)
	}
	if cfg.Static.Confine {
		t.Error("Static.Confine should be false")
	}
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected error for a named config file that does not exist")
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "fredwork.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(dir)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "failed to read config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "fredwork.json"), []byte(`{"server": {"port": 9000}}`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FREDWORK_SERVER_PORT", "9100")
	t.Setenv("FREDWORK_JOURNAL_ENABLED", "true")
	t.Setenv("FREDWORK_LOGGING_FORMAT", "json")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want env value 9100", cfg.Server.Port)
	}
	if !cfg.Journal.Enabled {
		t.Error("Journal.Enabled should come from env")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
}
