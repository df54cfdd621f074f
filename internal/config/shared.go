package config

import "time"

// --- Shared Configs ---

type ServerConfig struct {
	Port     string // HTTP port
	Name     string // service name
	LogLevel string // debug, info, warn, error
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host string
	Port string
}

type JWTConfig struct {
	Secret   string
	Duration time.Duration
}
