package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	LogLevel    string
	Data        DataConfig
	Generate    GenerateConfig
	Dashboard   DashboardConfig
}

type DataConfig struct {
	Dir              string
	RawEventsFile    string
	UserFeaturesFile string
	UserScoresFile   string
	TopUsersFile     string
}

type GenerateConfig struct {
	NumUsers int
	Seed     int64
	DaysBack int
}

type DashboardConfig struct {
	Port     string
	CacheTTL time.Duration
	TopN     int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	dataDir := getEnv("DATA_DIR", "data")
	cfg.Data = DataConfig{
		Dir:              dataDir,
		RawEventsFile:    getEnv("RAW_EVENTS_FILE", filepath.Join(dataDir, "raw_events.csv")),
		UserFeaturesFile: getEnv("USER_FEATURES_FILE", filepath.Join(dataDir, "user_features.csv")),
		UserScoresFile:   getEnv("USER_SCORES_FILE", filepath.Join(dataDir, "user_scores.csv")),
		TopUsersFile:     getEnv("TOP_USERS_FILE", filepath.Join(dataDir, "top_users.csv")),
	}

	cfg.Generate = GenerateConfig{
		NumUsers: getEnvAsInt("GENERATE_NUM_USERS", 100),
		Seed:     getEnvAsInt64("GENERATE_SEED", 42),
		DaysBack: getEnvAsInt("GENERATE_DAYS_BACK", 30),
	}

	cfg.Dashboard = DashboardConfig{
		Port:     getEnv("DASHBOARD_PORT", "8000"),
		CacheTTL: getEnvAsDuration("DASHBOARD_CACHE_TTL", 30*time.Second),
		TopN:     getEnvAsInt("DASHBOARD_TOP_N", 20),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
