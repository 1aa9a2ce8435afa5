package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Import   ImportConfig   `mapstructure:"import"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path       string `mapstructure:"path"`
	Migrations string `mapstructure:"migrations"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig selects level and output format ("console" or "json").
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ImportConfig holds defaults applied to entities created during imports.
type ImportConfig struct {
	DefaultCurrency    string   `mapstructure:"default_currency"`
	DefaultAccountType string   `mapstructure:"default_account_type"`
	DateLayouts        []string `mapstructure:"date_layouts"`
	MaxReportErrors    int      `mapstructure:"max_report_errors"`
}

// CatalogConfig points at an optional TOML category catalog.
// An empty path means the built-in catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "cuentas", "cuentas.db"))
	v.SetDefault("database.migrations", "internal/database/migrations")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("import.default_currency", "COP")
	v.SetDefault("import.default_account_type", "cash")
	v.SetDefault("import.date_layouts", []string{"2006-01-02", "2/1/2006", "2006/01/02", "2006-01-02T15:04:05Z07:00"})
	v.SetDefault("import.max_report_errors", 3)
	v.SetDefault("catalog.path", "")
}

// Load reads configuration from file and env. Env var overrides use prefix CUENTAS_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("CUENTAS_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "cuentas"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("CUENTAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicit CUENTAS_CONFIG that cannot be read is an error; a missing default file is not
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Import.MaxReportErrors <= 0 {
		c.Import.MaxReportErrors = 3
	}
	c.Import.DefaultCurrency = strings.ToUpper(strings.TrimSpace(c.Import.DefaultCurrency))
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := os.Getenv("CUENTAS_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "cuentas", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.migrations", cfg.Database.Migrations)
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("server.allowed_origins", cfg.Server.AllowedOrigins)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("import.default_currency", cfg.Import.DefaultCurrency)
	v.Set("import.default_account_type", cfg.Import.DefaultAccountType)
	v.Set("import.date_layouts", cfg.Import.DateLayouts)
	v.Set("import.max_report_errors", cfg.Import.MaxReportErrors)
	v.Set("catalog.path", cfg.Catalog.Path)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
