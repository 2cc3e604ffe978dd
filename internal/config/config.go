// Package config loads console settings from an optional YAML file, a .env
// file and ACADEMY_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"academy/internal/adapters/storage"
	"academy/internal/application/display"
	"academy/internal/application/listview"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// ConfigFileVar names the variable holding the optional YAML config path.
const ConfigFileVar = "ACADEMY_CONFIG"

// Config holds every console setting.
type Config struct {
	Env             string        `yaml:"env" env:"ACADEMY_ENV" validate:"oneof=development production test"`
	Addr            string        `yaml:"addr" env:"ACADEMY_ADDR" validate:"required"`
	APIBaseURL      string        `yaml:"api_base_url" env:"ACADEMY_API_BASE_URL" validate:"required,http_url"`
	DBPath          string        `yaml:"db_path" env:"ACADEMY_DB_PATH" validate:"required"`
	CredentialName  string        `yaml:"credential_name" env:"ACADEMY_CREDENTIAL_NAME" validate:"required"`
	CredentialKey   string        `yaml:"credential_key" env:"ACADEMY_CREDENTIAL_KEY" validate:"required_if=Env production,omitempty,hexadecimal,len=64"`
	CSRFKey         string        `yaml:"csrf_key" env:"ACADEMY_CSRF_KEY" validate:"required_if=Env production,omitempty,hexadecimal,len=64"`
	DateLayout      string        `yaml:"date_layout" env:"ACADEMY_DATE_LAYOUT" validate:"required"`
	TimeZone        string        `yaml:"time_zone" env:"ACADEMY_TIME_ZONE" validate:"required,timezone"`
	PageTTL         time.Duration `yaml:"page_ttl" env:"ACADEMY_PAGE_TTL" validate:"gt=0"`
	MaxPages        int           `yaml:"max_pages" env:"ACADEMY_MAX_PAGES" validate:"gt=0"`
	HTTPTimeout     time.Duration `yaml:"http_timeout" env:"ACADEMY_HTTP_TIMEOUT" validate:"gte=0"`
	ShowFetchErrors bool          `yaml:"show_fetch_errors" env:"ACADEMY_SHOW_FETCH_ERRORS"`
	LogLevel        string        `yaml:"log_level" env:"ACADEMY_LOG_LEVEL" validate:"oneof=debug info warn error"`
	SlowQueryMs     int           `yaml:"slow_query_ms" env:"ACADEMY_SLOW_QUERY_MS" validate:"gte=0"`
	SessionTTL      time.Duration `yaml:"session_ttl" env:"ACADEMY_SESSION_TTL" validate:"gt=0"`
}

// Defaults returns the development configuration.
func Defaults() Config {
	return Config{
		Env:            EnvDevelopment,
		Addr:           ":8080",
		APIBaseURL:     "http://localhost:5000",
		DBPath:         "academy.db",
		CredentialName: "AdminToken",
		DateLayout:     display.DefaultDateLayout,
		TimeZone:       "UTC",
		PageTTL:        listview.DefaultPageTTL,
		MaxPages:       listview.DefaultMaxPages,
		LogLevel:       "info",
		SlowQueryMs:    storage.DefaultSlowQueryMs,
		SessionTTL:     12 * time.Hour,
	}
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
		slog.Debug("dotenv_loaded", "path", p)
	}
	return nil
}

// Load builds the configuration: defaults, then the YAML file named by
// ACADEMY_CONFIG (if any), then environment variables. The result is validated.
// PRE: lookup is non-nil (usually os.LookupEnv)
// POST: returned Config passes Validate
func Load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()
	if path, ok := lookup(ConfigFileVar); ok && path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("ACADEMY_ENV", &c.Env)
	str("ACADEMY_ADDR", &c.Addr)
	str("ACADEMY_API_BASE_URL", &c.APIBaseURL)
	str("ACADEMY_DB_PATH", &c.DBPath)
	str("ACADEMY_CREDENTIAL_NAME", &c.CredentialName)
	str("ACADEMY_CREDENTIAL_KEY", &c.CredentialKey)
	str("ACADEMY_CSRF_KEY", &c.CSRFKey)
	str("ACADEMY_DATE_LAYOUT", &c.DateLayout)
	str("ACADEMY_TIME_ZONE", &c.TimeZone)
	dur("ACADEMY_PAGE_TTL", &c.PageTTL)
	num("ACADEMY_MAX_PAGES", &c.MaxPages)
	dur("ACADEMY_HTTP_TIMEOUT", &c.HTTPTimeout)
	flag("ACADEMY_SHOW_FETCH_ERRORS", &c.ShowFetchErrors)
	str("ACADEMY_LOG_LEVEL", &c.LogLevel)
	num("ACADEMY_SLOW_QUERY_MS", &c.SlowQueryMs)
	dur("ACADEMY_SESSION_TTL", &c.SessionTTL)

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Validate checks every field and reports failures by environment variable name.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s fails %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s fails %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("config: invalid settings: %s", strings.Join(msgs, "; "))
}

// IsProduction reports whether the console runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Location returns the time zone used to render dates.
// POST: falls back to UTC when TimeZone cannot be loaded
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Formatter returns the date formatter for rendering records.
func (c Config) Formatter() display.Formatter {
	return display.NewFormatter(c.DateLayout, c.Location())
}

// SlogLevel maps LogLevel onto slog.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
