// Package config provides centralized default values for the orphaned media service
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	GinMode            string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	CORSAllowedOrigins string

	// Database
	DBDriver                 string
	DBDSN                    string
	TursoAuthToken           string
	TablePrefix              string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	DBConnMaxIdleMinutes     int
	SlowQueryThreshold       time.Duration

	// Engine
	EngineCacheTTL   time.Duration
	ScanPageSize     int
	ScanWorkers      int
	BatchDefaultSize int
	BatchMaxSize     int
	DefaultPerPage   int
	MaxPerPage       int
	MediaRoot        string
	ThumbnailSize    int

	// Cache housekeeping
	CacheCleanupInterval time.Duration
	CacheCleanupVerbose  bool

	// Gateway authentication
	JWTSecret      string
	AdminPassword  string
	EditorPassword string
	SessionTTL     time.Duration
	NonceTTL       time.Duration

	// Logging
	LogLevel string
	LogJSON  bool
	LogDir   string

	// Optional YAML overlay
	ConfigFile string
)

func init() {
	Load()
}

// Load reads every setting from the environment, after the .env file. It runs
// once from init; tests call it again after changing the environment.
func Load() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	GinMode = getEnvString("GIN_MODE", "release")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	CORSAllowedOrigins = getEnvString("CORS_ALLOWED_ORIGINS", "")

	// Database
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DBDSN = getEnvString("DB_DSN", "file:wordpress.db?_foreign_keys=on")
	TursoAuthToken = getEnvString("TURSO_AUTH_TOKEN", "")
	TablePrefix = getEnvString("DB_TABLE_PREFIX", "wp_")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	DBConnMaxIdleMinutes = getEnvInt("DB_CONN_MAX_IDLE_MINUTES", 3)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 500*time.Millisecond)

	// Engine
	EngineCacheTTL = getEnvDuration("ENGINE_CACHE_TTL", 5*time.Minute)
	ScanPageSize = getEnvInt("SCAN_PAGE_SIZE", 100)
	ScanWorkers = getEnvInt("SCAN_WORKERS", 4)
	BatchDefaultSize = getEnvInt("BATCH_DEFAULT_SIZE", 10)
	BatchMaxSize = getEnvInt("BATCH_MAX_SIZE", 100)
	DefaultPerPage = getEnvInt("DEFAULT_PER_PAGE", 50)
	MaxPerPage = getEnvInt("MAX_PER_PAGE", 500)
	MediaRoot = getEnvString("MEDIA_ROOT", "uploads")
	ThumbnailSize = getEnvInt("THUMBNAIL_SIZE", 80)

	// Cache housekeeping
	CacheCleanupInterval = getEnvDuration("CACHE_CLEANUP_INTERVAL", time.Minute)
	CacheCleanupVerbose = getEnvBool("CACHE_CLEANUP_VERBOSE", false)

	// Gateway authentication
	JWTSecret = getEnvString("JWT_SECRET", "")
	AdminPassword = getEnvString("ADMIN_PASSWORD", "")
	EditorPassword = getEnvString("EDITOR_PASSWORD", "")
	SessionTTL = getEnvDuration("SESSION_TTL", 24*time.Hour)
	NonceTTL = getEnvDuration("NONCE_TTL", 12*time.Hour)

	// Logging
	LogLevel = getEnvString("LOG_LEVEL", "INFO")
	LogJSON = getEnvBool("LOG_JSON", true)
	LogDir = getEnvString("LOG_DIR", "")

	ConfigFile = getEnvString("CONFIG_FILE", "orphaned-media.yaml")
}
