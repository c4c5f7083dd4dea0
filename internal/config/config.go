package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	localAPIURL      = "http://localhost:8080"
	productionAPIURL = "https://api.grocery-scan.example.com"
)

// Config is everything the client reads from the environment.
type Config struct {
	// APIURL is the backend base URL.
	APIURL string
	// DataDir holds the local key-value cache.
	DataDir string
	// RequestTimeout bounds each HTTP attempt.
	RequestTimeout time.Duration
	// RetryAttempts and RetryBaseDelay shape the retry policy.
	RetryAttempts  int
	RetryBaseDelay time.Duration
	// ScanInterval and ScanCooldown tune the acquisition loop.
	ScanInterval time.Duration
	ScanCooldown time.Duration
	// KafkaBrokers enables the scan audit sink when non-empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads the environment, after loading a .env file when one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[Config] Failed to load .env: %v", err)
	}

	cfg := Config{
		APIURL:         resolveAPIURL(),
		DataDir:        getEnv("GROCERY_DATA_DIR", defaultDataDir()),
		RequestTimeout: getDuration("GROCERY_REQUEST_TIMEOUT", 10*time.Second),
		RetryAttempts:  getInt("GROCERY_RETRY_ATTEMPTS", 3),
		RetryBaseDelay: getDuration("GROCERY_RETRY_DELAY", time.Second),
		ScanInterval:   getDuration("GROCERY_SCAN_INTERVAL", 100*time.Millisecond),
		ScanCooldown:   getDuration("GROCERY_SCAN_COOLDOWN", 3*time.Second),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "grocery-scan-events"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

// resolveAPIURL picks the backend host: explicit override first, then the
// production host when the app runs in production mode, else local.
func resolveAPIURL() string {
	if url := os.Getenv("GROCERY_API_URL"); url != "" {
		return url
	}
	if os.Getenv("APP_ENV") == "production" {
		return productionAPIURL
	}
	return localAPIURL
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".grocery-scan"
	}
	return filepath.Join(home, ".grocery-scan")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("[Config] Invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("[Config] Invalid %s=%q, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
