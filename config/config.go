// Package config reads the server configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment keys.
const (
	EnvAdminPassword  = "ADMIN_PASSWORD"
	EnvAppEnv         = "APP_ENV"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvStorageBackend = "STORAGE_BACKEND"
	EnvDataDir        = "DATA_DIR"
	EnvMockData       = "MOCK_DATA"
	EnvSupabaseURL    = "SUPABASE_URL"
	EnvSupabaseKey    = "SUPABASE_SERVICE_ROLE_KEY"
	EnvStorageBucket  = "STORAGE_BUCKET"
	EnvUploadDir      = "UPLOAD_DIR"
	EnvMaxUploadMB    = "MAX_UPLOAD_MB"
	EnvSiteURL        = "SITE_URL"
	EnvPort           = "PORT"
	EnvCacheTTL       = "CACHE_TTL"
	EnvLogLevel       = "LOG_LEVEL"
	EnvAlertWebhook   = "ALERT_WEBHOOK_URL"
	EnvAlertAuth      = "ALERT_WEBHOOK_AUTH"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendBBolt    = "bbolt"
	BackendPostgres = "postgres"
)

var (
	// ErrMissingAdminPassword is returned by Validate when ADMIN_PASSWORD is unset.
	ErrMissingAdminPassword = errors.New("ADMIN_PASSWORD is not set")
	// ErrInvalid wraps every other configuration problem.
	ErrInvalid = errors.New("invalid configuration")
)

// Config is the resolved server configuration.
type Config struct {
	AdminPassword          string
	Env                    string
	DatabaseURL            string
	StorageBackend         string
	DataDir                string
	MockData               bool
	SupabaseURL            string
	SupabaseServiceRoleKey string
	StorageBucket          string
	UploadDir              string
	MaxUploadMB            int
	SiteURL                string
	Port                   int
	CacheTTL               time.Duration
	LogLevel               slog.Level
	AlertWebhookURL        string
	AlertWebhookAuth       string // "Header: Value"
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Env:           "production",
		DataDir:       "data",
		StorageBucket: "romantic",
		UploadDir:     "public/uploads",
		MaxUploadMB:   10,
		SiteURL:       "http://localhost:3000",
		Port:          3000,
		CacheTTL:      60 * time.Second,
		LogLevel:      slog.LevelInfo,
	}
}

// Load reads the given .env files (".env" when none are named) and then the
// process environment, which takes precedence. Missing files are ignored.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	fromFiles := map[string]string{}
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("reading %s: %w", f, err)
		}
		for k, v := range vals {
			if _, seen := fromFiles[k]; !seen {
				fromFiles[k] = v
			}
		}
	}
	return FromLookup(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fromFiles[key]
		return v, ok
	})
}

// FromLookup builds a Config from lookup, starting from Defaults.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	c := Defaults()
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	// The password is taken verbatim.
	if v, ok := lookup(EnvAdminPassword); ok {
		c.AdminPassword = v
	}
	if v, ok := get(EnvAppEnv); ok {
		c.Env = strings.ToLower(v)
	}
	if v, ok := get(EnvDatabaseURL); ok {
		c.DatabaseURL = v
	}
	if v, ok := get(EnvStorageBackend); ok {
		c.StorageBackend = strings.ToLower(v)
	}
	if v, ok := get(EnvDataDir); ok {
		c.DataDir = v
	}
	if v, ok := get(EnvMockData); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, EnvMockData, v)
		}
		c.MockData = b
	}
	if v, ok := get(EnvSupabaseURL); ok {
		c.SupabaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := get(EnvSupabaseKey); ok {
		c.SupabaseServiceRoleKey = v
	}
	if v, ok := get(EnvStorageBucket); ok {
		c.StorageBucket = v
	}
	if v, ok := get(EnvUploadDir); ok {
		c.UploadDir = v
	}
	if v, ok := get(EnvMaxUploadMB); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, EnvMaxUploadMB, v)
		}
		c.MaxUploadMB = max(1, n)
	}
	if v, ok := get(EnvSiteURL); ok {
		c.SiteURL = v
	}
	if v, ok := get(EnvPort); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 65535 {
			return Config{}, fmt.Errorf("%w: %s=%q is not a valid port", ErrInvalid, EnvPort, v)
		}
		c.Port = n
	}
	if v, ok := get(EnvCacheTTL); ok {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalid, EnvCacheTTL, v)
		}
		c.CacheTTL = d
	}
	if v, ok := get(EnvLogLevel); ok {
		if err := c.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q", ErrInvalid, EnvLogLevel, v)
		}
	}
	if v, ok := get(EnvAlertWebhook); ok {
		c.AlertWebhookURL = v
	}
	if v, ok := get(EnvAlertAuth); ok {
		c.AlertWebhookAuth = v
	}
	return c, nil
}

// Validate reports configuration that would stop the server from starting.
func (c Config) Validate() error {
	if c.AdminPassword == "" {
		return ErrMissingAdminPassword
	}
	switch c.Backend() {
	case BackendMemory, BackendBBolt:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: postgres backend needs %s", ErrInvalid, EnvDatabaseURL)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalid, c.StorageBackend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalid, c.Port)
	}
	return nil
}

// Mock reports whether the site runs on seeded in-memory data with disk
// uploads: MOCK_DATA=true, or no database and no explicit backend.
func (c Config) Mock() bool {
	if c.MockData {
		return true
	}
	return c.DatabaseURL == "" && c.StorageBackend == ""
}

// Backend resolves the storage backend to use.
func (c Config) Backend() string {
	switch {
	case c.StorageBackend != "":
		return c.StorageBackend
	case c.Mock():
		return BackendMemory
	default:
		return BackendPostgres
	}
}

// RemoteUploads reports whether images go to the Supabase bucket rather than
// the local upload directory.
func (c Config) RemoteUploads() bool {
	return !c.Mock() && c.SupabaseURL != "" && c.SupabaseServiceRoleKey != ""
}

// Secure reports whether auth cookies carry the Secure attribute. Only
// development, local and test environments run without it.
func (c Config) Secure() bool {
	switch c.Env {
	case "development", "dev", "local", "test":
		return false
	}
	return true
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
