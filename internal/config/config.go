package config

import "time"

// Config aggregates all configuration surfaces consumed by the server.
type Config interface {
	EnvConfig
	AuthConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
	IsProduction() bool
}

type AuthConfig interface {
	GetJWTSecret() []byte
	GetSessionTTL() time.Duration
	SlidingSessions() bool
	GetHintTTL() time.Duration
	GetBcryptCost() int
	GetSeedAdminEmail() string
	GetSeedAdminPassword() string
	GetSeedAdminName() string
}

type StoreConfig interface {
	GetDatabaseURL() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetJanitorInterval() time.Duration
}
