package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	SessionSigningKey string        `mapstructure:"SESSION_SIGNING_KEY"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`
	ClassifierURL     string        `mapstructure:"CLASSIFIER_URL"`
	PlanAPIURL        string        `mapstructure:"PLAN_API_URL"`
	PlanAPIKey        string        `mapstructure:"PLAN_API_KEY"`
	PlanTimeout       time.Duration `mapstructure:"PLAN_TIMEOUT"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit         string        `mapstructure:"BODY_LIMIT"`
	RateLimitRPS      float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int           `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("PLAN_API_URL", "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent")
	v.SetDefault("PLAN_TIMEOUT", "30s")
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("SESSION_SIGNING_KEY")
	v.BindEnv("SESSION_TTL")
	v.BindEnv("CLASSIFIER_URL")
	v.BindEnv("PLAN_API_URL")
	v.BindEnv("PLAN_API_KEY")
	v.BindEnv("PLAN_TIMEOUT")
	v.BindEnv("REQUEST_TIMEOUT")
	v.BindEnv("BODY_LIMIT")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.SessionSigningKey == "" {
		log.Println("WARNING: SESSION_SIGNING_KEY not set; using an insecure development key.")
		log.Println("WARNING: Set SESSION_SIGNING_KEY before running in production.")
		cfg.SessionSigningKey = "dev-insecure-signing-key"
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// the session signing key and the external service endpoints must be set:
// without them logins cannot be issued and assessments cannot be produced.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.SessionSigningKey == "" || c.SessionSigningKey == "dev-insecure-signing-key" {
			return fmt.Errorf("SESSION_SIGNING_KEY is required outside development")
		}
		if c.ClassifierURL == "" {
			return fmt.Errorf("CLASSIFIER_URL is required outside development")
		}
		if c.PlanAPIKey == "" {
			return fmt.Errorf("PLAN_API_KEY is required outside development")
		}
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.PlanTimeout <= 0 {
		return fmt.Errorf("PLAN_TIMEOUT must be positive, got %s", c.PlanTimeout)
	}
	if c.RequestTimeout <= c.PlanTimeout {
		return fmt.Errorf("REQUEST_TIMEOUT (%s) must exceed PLAN_TIMEOUT (%s)", c.RequestTimeout, c.PlanTimeout)
	}
	return nil
}
