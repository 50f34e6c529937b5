package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"inspire-orcid/pkg/logger"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

const (
	orcidProductionURL = "https://api.orcid.org/v3.0"
	orcidSandboxURL    = "https://api.sandbox.orcid.org/v3.0"
)

type Config struct {
	HTTPPort string
	Env      string
	APIToken string
	// CORSAllowedOrigins is CORS_ALLOWED_ORIGINS split on commas.
	CORSAllowedOrigins []string
	// Storage is "postgres" or "memory"; memory keeps the cache, lock and
	// records in process and needs no database.
	Storage string
	DB      DBConfig
	Orcid   OrcidConfig
	Push    PushConfig
	Lock    LockConfig
}

type DBConfig struct {
	AutoMigrate     bool
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type OrcidConfig struct {
	Sandbox          bool
	BaseURL          string
	ClientID         string
	ClientSecret     string
	Timeout          time.Duration
	RecordURLPattern string
}

type PushConfig struct {
	WhitelistRegex string
	MaxRetries     int
	RetryBackoff   time.Duration
	Workers        int
	QueueSize      int
}

type LockConfig struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

// Load reads .env, then the optional YAML file named by CONFIG_FILE, then the
// process environment. Environment values win over file values.
func Load(log logger.Logger) (Config, error) {
	if err := loadDotEnv(log); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	file, err := loadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, fmt.Errorf("load config file: %w", err)
	}
	if len(file) > 0 {
		log.Info("config: loaded file", "path", os.Getenv("CONFIG_FILE"), "keys", len(file))
	}

	cfg := build(source{file: file})
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// pushDisabled is the allow-list that matches no ORCID iD.
const pushDisabled = "^$"

// Validate rejects settings that would push with an incomplete identity:
// without ORCID_CLIENT_ID, reconciliation cannot tell our works from other
// sources' works.
func (c Config) Validate() error {
	if c.Push.WhitelistRegex != pushDisabled && strings.TrimSpace(c.Orcid.ClientID) == "" {
		return fmt.Errorf("ORCID_CLIENT_ID is required when FEATURE_FLAG_ORCID_PUSH_WHITELIST_REGEX is %q", c.Push.WhitelistRegex)
	}
	return nil
}

func build(src source) Config {
	sandbox := src.getBool("ORCID_SANDBOX", true)
	baseURL := orcidProductionURL
	if sandbox {
		baseURL = orcidSandboxURL
	}

	return Config{
		HTTPPort:           src.get("HTTP_PORT", "8080"),
		Env:                src.get("ENV", "development"),
		APIToken:           src.get("API_TOKEN", ""),
		CORSAllowedOrigins: splitList(src.get("CORS_ALLOWED_ORIGINS", "")),
		Storage:            strings.ToLower(src.get("STORAGE_BACKEND", StoragePostgres)),
		DB: DBConfig{
			AutoMigrate:     src.getBool("DB_AUTO_MIGRATE", false),
			DSN:             src.get("DB_DSN", ""),
			Host:            src.get("DB_HOST", "localhost"),
			Port:            src.get("DB_PORT", "5432"),
			User:            src.get("DB_USER", "postgres"),
			Password:        src.get("DB_PASSWORD", "postgres"),
			Name:            src.get("DB_NAME", "inspire_orcid"),
			SSLMode:         src.get("DB_SSLMODE", "disable"),
			TimeZone:        src.get("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    src.getInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    src.getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: src.getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Orcid: OrcidConfig{
			Sandbox:          sandbox,
			BaseURL:          strings.TrimRight(src.get("ORCID_API_URL", baseURL), "/"),
			ClientID:         src.get("ORCID_CLIENT_ID", ""),
			ClientSecret:     src.get("ORCID_CLIENT_SECRET", ""),
			Timeout:          src.getDuration("ORCID_TIMEOUT", 30*time.Second),
			RecordURLPattern: src.get("LEGACY_RECORD_URL_PATTERN", "http://inspirehep.net/record/{recid}"),
		},
		Push: PushConfig{
			WhitelistRegex: src.get("FEATURE_FLAG_ORCID_PUSH_WHITELIST_REGEX", pushDisabled),
			MaxRetries:     src.getInt("PUSH_MAX_RETRIES", 5),
			RetryBackoff:   src.getDuration("PUSH_RETRY_BACKOFF", 2*time.Second),
			Workers:        src.getInt("PUSH_WORKERS", 4),
			QueueSize:      src.getInt("PUSH_QUEUE_SIZE", 100),
		},
		Lock: LockConfig{
			Timeout:      src.getDuration("LOCK_TIMEOUT", 30*time.Second),
			PollInterval: src.getDuration("LOCK_POLL_INTERVAL", 100*time.Millisecond),
		},
	}
}

type source struct {
	file map[string]string
}

func (s source) get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := s.file[key]; ok && value != "" {
		return value
	}
	return fallback
}

func (s source) getInt(key string, fallback int) int {
	value := s.get(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (s source) getDuration(key string, fallback time.Duration) time.Duration {
	value := s.get(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (s source) getBool(key string, fallback bool) bool {
	value := s.get(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}

// RecordURL renders the public URL of a record; the putcode getter parses the
// recid back out of it.
func (c OrcidConfig) RecordURL(recid string) string {
	return strings.ReplaceAll(c.RecordURLPattern, "{recid}", recid)
}

func splitList(value string) []string {
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
