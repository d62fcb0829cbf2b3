package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Transport names
const (
	TransportWebApp = "webapp"
	TransportSheets = "sheets"
)

type Config struct {
	Port string
	Env  string

	Transport       string
	WebAppURL       string
	SpreadsheetID   string
	CredentialsPath string
	HTTPTimeout     time.Duration

	// Snapshot storage: SQLite when SQLitePath is set, else Postgres from
	// DATABASE_URL or DB_* variables, else snapshots are disabled.
	SQLitePath     string
	DatabaseURL    string
	SnapshotsOnDB  bool
	AutoInitialize bool

	NATSURL     string
	NATSSubject string

	OrderReloadPolicy string
	ChromePath        string
	BaseURL           string
	FeedSize          int
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by main) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = strings.TrimPrefix(getEnv("PORT", "8080"), ":")
	cfg.Env = getEnv("ENV", "development")

	cfg.Transport = strings.ToLower(getEnv("TRANSPORT", TransportWebApp))
	cfg.WebAppURL = getEnv("SHEETS_WEBAPP_URL", "")
	cfg.SpreadsheetID = getEnv("SHEETS_SPREADSHEET_ID", "")
	cfg.CredentialsPath = getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")
	cfg.HTTPTimeout = ParseDuration("HTTP_TIMEOUT", 30*time.Second)

	cfg.SQLitePath = getEnv("SNAPSHOT_SQLITE_PATH", "")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.SnapshotsOnDB = cfg.DatabaseURL != "" || getEnv("DB_HOST", "") != ""
	cfg.AutoInitialize = ParseBool("AUTO_INITIALIZE", true)

	cfg.NATSURL = getEnv("NATS_URL", "")
	cfg.NATSSubject = getEnv("NATS_SUBJECT", "orderdesk.events")

	cfg.OrderReloadPolicy = getEnv("ORDER_RELOAD_POLICY", "replace")
	cfg.ChromePath = getEnv("CHROME_PATH", "")
	cfg.BaseURL = getEnv("BASE_URL", "http://localhost:"+cfg.Port)
	cfg.FeedSize = ParseInt("NOTIFICATION_FEED_SIZE", 50)
	return cfg
}

// Production reports whether ENV is production
func (c Config) Production() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}

// ParseInt reads an env var as int with default.
func ParseInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid integer for %s: %s", key, v)
			return def
		}
		return n
	}
	return def
}

// ParseDuration reads an env var as a duration ("30s") or whole seconds ("30").
func ParseDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	log.Printf("invalid duration for %s: %s", key, v)
	return def
}
