package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort            = "3000"
	defaultDatabaseURL     = "csvrelay.db"
	defaultMongoDatabase   = "csvrelay"
	defaultBatchSize       = "1000"
	defaultWSSendQueue     = "256"
	defaultWSPongWait      = "60s"
	defaultMaxUploadMemory = "33554432" // 32 MB
)

type RuntimeConfig struct {
	AppEnv          string
	Port            string
	DatabaseURL     string
	MongoDatabase   string
	BatchSize       int
	WSSendQueue     int
	WSPongWait      time.Duration
	MaxUploadMemory int64
}

// UsesMongo reports whether the record store should be MongoDB.
func (c *RuntimeConfig) UsesMongo() bool {
	return strings.HasPrefix(c.DatabaseURL, "mongodb://") || strings.HasPrefix(c.DatabaseURL, "mongodb+srv://")
}

func (c *RuntimeConfig) Addr() string {
	return ":" + c.Port
}

func LoadRuntimeConfig() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))

	// MONGO_URL is accepted for deployments that already export it.
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		dbURL = strings.TrimSpace(os.Getenv("MONGO_URL"))
	}
	if dbURL == "" {
		dbURL = defaultDatabaseURL
	}
	cfg.DatabaseURL = dbURL
	cfg.MongoDatabase = strings.TrimSpace(getEnv("MONGO_DB", defaultMongoDatabase))

	var err error
	cfg.BatchSize, err = parseIntEnv("CSV_BATCH_SIZE", defaultBatchSize)
	if err != nil {
		return nil, err
	}

	cfg.WSSendQueue, err = parseIntEnv("WS_SEND_QUEUE", defaultWSSendQueue)
	if err != nil {
		return nil, err
	}

	cfg.WSPongWait, err = parseDurationEnv("WS_PONG_WAIT", defaultWSPongWait)
	if err != nil {
		return nil, err
	}

	maxMem, err := parseIntEnv("MAX_UPLOAD_MEMORY", defaultMaxUploadMemory)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadMemory = int64(maxMem)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("runtime config: env=%s port=%s mongo=%t batch_size=%d ws_send_queue=%d", cfg.AppEnv, cfg.Port, cfg.UsesMongo(), cfg.BatchSize, cfg.WSSendQueue)

	return cfg, nil
}

func validateConfig(cfg *RuntimeConfig) error {
	if cfg.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", cfg.Port)
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("CSV_BATCH_SIZE must be > 0")
	}
	if cfg.WSSendQueue <= 0 {
		return fmt.Errorf("WS_SEND_QUEUE must be > 0")
	}
	if cfg.WSPongWait <= 0 {
		return fmt.Errorf("WS_PONG_WAIT must be > 0")
	}
	if cfg.MaxUploadMemory <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MEMORY must be > 0")
	}
	if cfg.UsesMongo() && cfg.MongoDatabase == "" {
		return fmt.Errorf("MONGO_DB must not be empty")
	}

	if isProdLike(cfg.AppEnv) && isEmptyOrDefault(cfg.DatabaseURL, defaultDatabaseURL) {
		return fmt.Errorf("in prod/release DATABASE_URL must be set and not default")
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
