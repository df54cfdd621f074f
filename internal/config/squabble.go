package config

import "time"

// GameRules holds the read-only system parameters of the escrow engine.
type GameRules struct {
	MaxStake      int64 // stake ceiling per game
	MaxPlayers    int   // participant capacity per game
	MinPlayers    int   // minimum participants to start
	AutoAssignIDs bool  // assign sequential game ids instead of caller-chosen ones
	OpenCreation  bool  // any authenticated caller may create games; false = admins only
}

// SquabbleConfig holds all configuration for the escrow service
type SquabbleConfig struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Admins   []int64 // administrator account ids
	RepoType string  // memory or redis
	Rules    GameRules
}

// LoadSquabbleConfig loads configuration for the escrow service
func LoadSquabbleConfig() *SquabbleConfig {
	return &SquabbleConfig{
		Server: ServerConfig{
			Port:     getEnv("SQUABBLE_PORT", "8080"),
			Name:     "squabble-engine",
			LogLevel: getEnv("SQUABBLE_LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "squabble_user"),
			Password: getEnv("DB_PASSWORD", "squabble_pass"),
			Name:     getEnv("DB_NAME", "squabble_db"),
		},
		Redis: RedisConfig{
			Host: getEnv("REDIS_HOST", "localhost"),
			Port: getEnv("REDIS_PORT", "6379"),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", "dev-secret-change-me"),
			Duration: time.Duration(getEnvInt("JWT_DURATION_HOURS", 24)) * time.Hour,
		},
		Admins:   getEnvInt64List("SQUABBLE_ADMINS"),
		RepoType: getEnv("SQUABBLE_REPO_TYPE", "memory"),
		Rules: GameRules{
			MaxStake:      getEnvInt64("SQUABBLE_MAX_STAKE", 1_000_000),
			MaxPlayers:    getEnvInt("SQUABBLE_MAX_PLAYERS", 6),
			MinPlayers:    getEnvInt("SQUABBLE_MIN_PLAYERS", 2),
			AutoAssignIDs: getEnvBool("SQUABBLE_AUTO_IDS", false),
			OpenCreation:  getEnvBool("SQUABBLE_OPEN_CREATION", true),
		},
	}
}
