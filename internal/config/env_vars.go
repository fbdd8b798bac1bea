package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envVars holds the raw values loaded from the environment / .env file.
type envVars struct {
	Port              string `mapstructure:"PORT"`
	AppName           string `mapstructure:"APP_NAME"`
	BaseURL           string `mapstructure:"BASE_URL"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	SessionTTL        string `mapstructure:"SESSION_TTL"`
	SessionSliding    bool   `mapstructure:"SESSION_SLIDING"`
	HintTTL           string `mapstructure:"SESSION_HINT_TTL"`
	BcryptCost        int    `mapstructure:"BCRYPT_COST"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	RedisPassword     string `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int    `mapstructure:"REDIS_DB"`
	JanitorInterval   string `mapstructure:"JANITOR_INTERVAL"`
	SeedAdminEmail    string `mapstructure:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `mapstructure:"SEED_ADMIN_PASSWORD"`
	SeedAdminName     string `mapstructure:"SEED_ADMIN_NAME"`
}

var _ Config = (*envVars)(nil)

// Load reads .env (if present), then builds and validates configuration from
// the environment via Viper. Env vars override .env. There are deliberately
// no defaults for JWT_SECRET or DATABASE_URL: the server refuses to start
// without them rather than falling back to a weak literal.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_NAME", "ODR Session Server")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("ENV", "DEV")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("SESSION_TTL", "8h")
	v.SetDefault("SESSION_SLIDING", false)
	v.SetDefault("SESSION_HINT_TTL", "5m")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JANITOR_INTERVAL", "10m")
	v.SetDefault("SEED_ADMIN_EMAIL", "")
	v.SetDefault("SEED_ADMIN_PASSWORD", "")
	v.SetDefault("SEED_ADMIN_NAME", "Administrador")

	var cfg envVars
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("config: JWT_SECRET must be set")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("config: DATABASE_URL must be set")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

func (e *envVars) GetPort() string {
	port := e.Port
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e *envVars) GetAppName() string { return e.AppName }
func (e *envVars) GetBaseURL() string { return e.BaseURL }
func (e *envVars) GetEnv() string     { return e.Env }

func (e *envVars) IsProduction() bool {
	return strings.EqualFold(e.Env, "production") || strings.EqualFold(e.Env, "prod")
}

func (e *envVars) GetJWTSecret() []byte { return []byte(e.JWTSecret) }

func (e *envVars) GetSessionTTL() time.Duration {
	return durationOrDefault(e.SessionTTL, 8*time.Hour)
}

func (e *envVars) SlidingSessions() bool { return e.SessionSliding }

func (e *envVars) GetHintTTL() time.Duration {
	return durationOrDefault(e.HintTTL, 5*time.Minute)
}

func (e *envVars) GetBcryptCost() int { return e.BcryptCost }

func (e *envVars) GetSeedAdminEmail() string    { return e.SeedAdminEmail }
func (e *envVars) GetSeedAdminPassword() string { return e.SeedAdminPassword }
func (e *envVars) GetSeedAdminName() string     { return e.SeedAdminName }

func (e *envVars) GetDatabaseURL() string   { return e.DatabaseURL }
func (e *envVars) GetRedisAddr() string     { return e.RedisAddr }
func (e *envVars) GetRedisPassword() string { return e.RedisPassword }
func (e *envVars) GetRedisDB() int          { return e.RedisDB }

func (e *envVars) GetJanitorInterval() time.Duration {
	return durationOrDefault(e.JanitorInterval, 10*time.Minute)
}

func durationOrDefault(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
