package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultSourceURL     = "https://www.kaiandkaro.com/vehicles?model__make__vehicle_type=Automobile"
	DefaultOutputPath    = "./public/vehicles.json"
	DefaultMaxCandidates = 800
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	SourceURL     string
	OutputPath    string
	PagesToScrape int
	Snapshot      bool
	SnapshotDir   string
	Append        bool

	PageTimeout   time.Duration
	SettleDelay   time.Duration
	MaxCandidates int
	Browser       string
	ChromeBin     string
	RawCSVPath    string

	CSVInputPath string

	PostgresMirror   bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	MaxRetries       int

	LogLevel string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		SourceURL:     getEnv("SOURCE_URL", DefaultSourceURL),
		OutputPath:    getEnv("OUTPUT", DefaultOutputPath),
		PagesToScrape: getEnvInt("PAGES", 3),
		Snapshot:      getEnvBool("SNAPSHOT"),
		SnapshotDir:   getEnv("SNAPSHOT_DIR", "./tmp"),
		Append:        getEnvBool("APPEND"),

		PageTimeout:   time.Duration(getEnvInt("PAGE_TIMEOUT_SEC", 120)) * time.Second,
		SettleDelay:   time.Duration(getEnvInt("SETTLE_MS", 1500)) * time.Millisecond,
		MaxCandidates: getEnvInt("MAX_CANDIDATES", DefaultMaxCandidates),
		Browser:       strings.ToLower(getEnv("BROWSER", "chromedp")),
		ChromeBin:     getEnv("CHROME_BIN", ""),
		RawCSVPath:    getEnv("RAW_CSV_PATH", ""),

		CSVInputPath: getEnv("INPUT", ""),

		PostgresMirror:   getEnvBool("POSTGRES_MIRROR"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "catalog_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

// getEnvBool treats "0", "false", "no" and "off" as unset; any other
// non-empty value turns the flag on.
func getEnvBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}
