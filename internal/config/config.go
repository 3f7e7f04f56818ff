// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"xr-wallet/pkg/db" // Import db package for its Config struct

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// RedisConfig configures the event publisher. An empty Addr disables publishing.
type RedisConfig struct {
	Addr     string
	Password string
	Channel  string
}

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort         string
	StorageDriver      string
	DB                 db.Config
	JWTSecret          string
	Redis              RedisConfig
	CORSAllowedOrigins []string
	BalanceMaxRetries  int
	LogLevel           string
}

var defaults = map[string]interface{}{
	"SERVER_PORT":          "8080",
	"STORAGE_DRIVER":       StorageDriverPostgres,
	"DB_HOST":              "localhost",
	"DB_PORT":              5432,
	"DB_USER":              "user",
	"DB_PASSWORD":          "password",
	"DB_NAME":              "walletdb",
	"DB_SSLMODE":           "disable",
	"REDIS_CHANNEL":        "wallet_events",
	"CORS_ALLOWED_ORIGINS": "*",
	"BALANCE_MAX_RETRIES":  5,
	"LOG_LEVEL":            "info",
}

// LoadConfig loads configuration from the environment, after reading an
// optional .env file from the working directory.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		ServerPort:    v.GetString("SERVER_PORT"),
		StorageDriver: strings.ToLower(v.GetString("STORAGE_DRIVER")),
		DB: db.Config{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTSecret: v.GetString("JWT_SECRET"),
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			Channel:  v.GetString("REDIS_CHANNEL"),
		},
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		BalanceMaxRetries:  v.GetInt("BALANCE_MAX_RETRIES"),
		LogLevel:           v.GetString("LOG_LEVEL"),
	}

	switch cfg.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q: want %s or %s", cfg.StorageDriver, StorageDriverPostgres, StorageDriverMemory)
	}
	if cfg.DB.Port <= 0 {
		return nil, fmt.Errorf("invalid DB_PORT: %q", v.GetString("DB_PORT"))
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.BalanceMaxRetries < 1 {
		return nil, fmt.Errorf("invalid BALANCE_MAX_RETRIES: %d", cfg.BalanceMaxRetries)
	}

	return cfg, nil
}

// splitList parses a comma separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
