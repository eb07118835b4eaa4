package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

type Config struct {
	HTTPPort        string
	Env             string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	SessionCookie   string

	StorageBackend    string
	StorageQuotaBytes int
	RedisAddr         string
	RedisPassword     string
	MongoURI          string
	MongoDBName       string

	KafkaBrokers []string
	KafkaTopic   string

	CartStorageKey string
	LegacyCartKey  string

	ToastTimeout   time.Duration
	ToastExitGrace time.Duration
}

// Development reports whether the process runs outside production.
func (c *Config) Development() bool {
	return c.Env != "production"
}

// Load reads the configuration from the environment. Outside production a
// .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if os.Getenv("ENV") != "production" {
		// a missing .env is fine, the process environment still applies
		_ = godotenv.Load()
	}

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		SessionCookie:  getEnv("SESSION_COOKIE", "akkaui_session"),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:    getEnv("MONGO_DB_NAME", "storefront"),
		KafkaBrokers:   splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "cart-updated"),
		CartStorageKey: getEnv("CART_STORAGE_KEY", "akkaui_cart_v1"),
		LegacyCartKey:  getEnv("LEGACY_CART_KEY", "akka_cart"),
	}

	var err error
	if cfg.StorageQuotaBytes, err = getInt("STORAGE_QUOTA_BYTES", 5<<20); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ToastTimeout, err = getDuration("TOAST_TIMEOUT", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.ToastExitGrace, err = getDuration("TOAST_EXIT_GRACE", 300*time.Millisecond); err != nil {
		return nil, err
	}

	switch cfg.StorageBackend {
	case BackendMemory, BackendRedis, BackendMongo:
	default:
		return nil, fmt.Errorf("config: unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
