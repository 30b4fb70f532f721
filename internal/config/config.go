package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Supported values for DatabaseConfig.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DatabaseConfig holds storage backend and connection pool settings.
type DatabaseConfig struct {
	Driver             string `yaml:"driver"`
	Host               string `yaml:"host"`
	Port               string `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Name               string `yaml:"name"`
	SSLMode            string `yaml:"sslmode"`
	SQLitePath         string `yaml:"sqlite_path"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the centralized configuration struct for the application.
type AppConfig struct {
	AppHost  string         `yaml:"app_host"`
	Port     string         `yaml:"port"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
}

func defaults() *AppConfig {
	return &AppConfig{
		AppHost: "localhost:8080",
		Port:    "8080",
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Driver:             DriverPostgres,
			Port:               "5432",
			SSLMode:            "disable",
			SQLitePath:         "personapi.db",
			MaxOpenConns:       10,
			MaxIdleConns:       5,
			ConnMaxLifetimeSec: 300,
		},
	}
}

// Load builds the configuration in three layers: built-in defaults, then the YAML file
// named by CONFIG_FILE (if set), then environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.AppHost = getEnv("APP_HOST", cfg.AppHost)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	db := &cfg.Database
	db.Driver = getEnv("DB_DRIVER", db.Driver)
	db.Host = getEnv("DB_HOST", db.Host)
	db.Port = getEnv("DB_PORT", db.Port)
	db.User = getEnv("DB_USER", db.User)
	db.Password = getEnv("DB_PASSWORD", db.Password)
	db.Name = getEnv("DB_NAME", db.Name)
	db.SSLMode = getEnv("DB_SSLMODE", db.SSLMode)
	db.SQLitePath = getEnv("SQLITE_PATH", db.SQLitePath)
	db.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", db.MaxOpenConns)
	db.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", db.MaxIdleConns)
	db.ConnMaxLifetimeSec = getEnvInt("DB_CONN_MAX_LIFETIME_SEC", db.ConnMaxLifetimeSec)

	switch db.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", db.Driver)
	}

	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
