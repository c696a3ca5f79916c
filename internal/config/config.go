package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"campus/companion/internal/timer"
)

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

type Config struct {
	Port          string
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	MigrationsDir string
	StorageDriver string
	LogLevel      string
	TickInterval  time.Duration
	ConfigFile    string
	Timer         timer.Config
}

// fileConfig is the optional YAML file named by CONFIG_FILE.
type fileConfig struct {
	Timer timer.Config `yaml:"timer"`
}

// Load reads the environment and, when present, the YAML timer defaults.
// Invalid timer defaults are an error; a missing file is not.
func Load() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "./data/campus.db"),
		JWTSecret:     getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:      time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageSQLite)),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		TickInterval:  time.Duration(getEnvInt("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		ConfigFile:    getEnv("CONFIG_FILE", "./campus.yaml"),
		Timer:         timer.DefaultConfig(),
	}

	if cfg.StorageDriver != StorageSQLite && cfg.StorageDriver != StorageMemory {
		return cfg, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	timerCfg, err := LoadTimerFile(cfg.ConfigFile, cfg.Timer)
	if err != nil {
		return cfg, err
	}
	cfg.Timer = timerCfg
	return cfg, nil
}

// LoadTimerFile overlays the timer section of a YAML file on fallback.
// Fields left out of the file keep their fallback value.
func LoadTimerFile(path string, fallback timer.Config) (timer.Config, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("read config: %w", err)
	}

	file := fileConfig{Timer: fallback}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fallback, fmt.Errorf("parse config: %w", err)
	}
	if err := file.Timer.Validate(); err != nil {
		return fallback, fmt.Errorf("config %s: %w", path, err)
	}
	return file.Timer, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
