package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string        `mapstructure:"PORT" validate:"required,numeric"`
	Env         string        `mapstructure:"ENV" validate:"oneof=development staging production"`
	LogLevel    string        `mapstructure:"LOG_LEVEL" validate:"oneof=trace debug info warn error"`
	DatabaseURL string        `mapstructure:"DATABASE_URL" validate:"omitempty,url"`
	DBMaxConns  int32         `mapstructure:"DB_MAX_CONNS" validate:"min=1"`
	DBMinConns  int32         `mapstructure:"DB_MIN_CONNS" validate:"min=0,ltefield=DBMaxConns"`
	DBSchema    string        `mapstructure:"DB_SCHEMA" validate:"required,alphanum"`
	FHIRBaseURL string        `mapstructure:"FHIR_BASE_URL" validate:"omitempty,url"`
	AccessToken string        `mapstructure:"FHIR_ACCESS_TOKEN"`
	PageSize    int           `mapstructure:"PAGE_SIZE" validate:"min=1,max=500"`
	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT" validate:"gt=0"`
	Timezone    string        `mapstructure:"TIMEZONE" validate:"required"`
	BodyLimit   string        `mapstructure:"BODY_LIMIT" validate:"required"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("PAGE_SIZE", 50)
	v.SetDefault("HTTP_TIMEOUT", 30*time.Second)
	v.SetDefault("TIMEZONE", "Europe/Berlin")
	v.SetDefault("BODY_LIMIT", "4M")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("DB_SCHEMA")
	v.BindEnv("FHIR_BASE_URL")
	v.BindEnv("FHIR_ACCESS_TOKEN")
	v.BindEnv("PAGE_SIZE")
	v.BindEnv("HTTP_TIMEOUT")
	v.BindEnv("TIMEZONE")
	v.BindEnv("BODY_LIMIT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// UseDatabase reports whether watermarks are persisted in PostgreSQL.
func (c *Config) UseDatabase() bool {
	return c.DatabaseURL != ""
}

// Location returns the zone dates without an offset are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the struct constraints and that TIMEZONE names a known
// zone.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
