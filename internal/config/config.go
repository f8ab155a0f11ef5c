package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/tradesdesk/workspace-api/internal/constants"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// ErrInsecureSecret is returned when production is configured with the development signing secret.
var ErrInsecureSecret = errors.New("JWT_SECRET must be set to a non-default value in production")

type Config struct {
	Env      string
	Port     string
	GinMode  string
	LogLevel string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	JWTSecret             string
	PlatformAdminUsername string
	TokenTTL              time.Duration
	ResetTokenTTL         time.Duration

	AuthRateLimit float64
	AuthRateBurst int
}

// Load reads configuration from the environment, an optional .env file and an
// optional workspace-api.yml. Environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("workspace-api")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/workspace-api")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Env:      strings.ToLower(v.GetString("app.env")),
		Port:     v.GetString("http.port"),
		GinMode:  v.GetString("gin.mode"),
		LogLevel: v.GetString("log.level"),

		DBDriver:   strings.ToLower(v.GetString("db.driver")),
		DBHost:     v.GetString("db.host"),
		DBPort:     v.GetString("db.port"),
		DBUser:     v.GetString("db.user"),
		DBPassword: v.GetString("db.password"),
		DBName:     v.GetString("db.name"),
		DBSSLMode:  v.GetString("db.sslmode"),
		SQLitePath: v.GetString("sqlite.path"),

		JWTSecret:             v.GetString("jwt.secret"),
		PlatformAdminUsername: strings.TrimSpace(v.GetString("platform.admin.username")),
		TokenTTL:              v.GetDuration("token.ttl"),
		ResetTokenTTL:         v.GetDuration("reset.token.ttl"),

		AuthRateLimit: v.GetFloat64("auth.rate.limit"),
		AuthRateBurst: v.GetInt("auth.rate.burst"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", EnvDevelopment)
	v.SetDefault("http.port", "8080")
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("log.level", "info")

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "workspace")
	v.SetDefault("db.password", "workspace")
	v.SetDefault("db.name", "workspace")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("sqlite.path", "workspace.db")

	v.SetDefault("jwt.secret", constants.InsecureDevSecret)
	v.SetDefault("platform.admin.username", "")
	v.SetDefault("token.ttl", constants.DefaultTokenTTL)
	v.SetDefault("reset.token.ttl", constants.DefaultResetTokenTTL)

	v.SetDefault("auth.rate.limit", 5.0)
	v.SetDefault("auth.rate.burst", 10)
}

// Validate checks for settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.ResetTokenTTL <= 0 {
		return fmt.Errorf("RESET_TOKEN_TTL must be positive, got %s", c.ResetTokenTTL)
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == constants.InsecureDevSecret) {
		return ErrInsecureSecret
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	return nil
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// UsesInsecureSecret reports whether the development signing secret is in use.
func (c *Config) UsesInsecureSecret() bool {
	return c.JWTSecret == constants.InsecureDevSecret
}
