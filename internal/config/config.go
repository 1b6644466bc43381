// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Identity, role and profile sources.
const (
	SourceBackend   = "backend"
	SourceDirectory = "directory"
	SourceFirebase  = "firebase"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode            string        `mapstructure:"GIN_MODE"`
	ServerHost         string        `mapstructure:"SERVER_HOST"`
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	ServerTimeout      time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`
	CORSAllowedOrigins []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Backend collaborator
	BackendBaseURL  string        `mapstructure:"BACKEND_BASE_URL"`
	BackendAPIToken string        `mapstructure:"BACKEND_API_TOKEN"`
	BackendTimeout  time.Duration `mapstructure:"BACKEND_TIMEOUT_SECONDS"`

	// Where identities, roles and profiles come from
	IdentitySource string `mapstructure:"IDENTITY_SOURCE"`
	RoleSource     string `mapstructure:"ROLE_SOURCE"`
	ProfileSource  string `mapstructure:"PROFILE_SOURCE"`

	// Client sessions
	SessionSecret        string        `mapstructure:"SESSION_SECRET"`
	SessionTTL           time.Duration `mapstructure:"SESSION_TTL_MINUTES"`
	SessionCookieSecure  bool          `mapstructure:"SESSION_COOKIE_SECURE"`
	SessionSweepSchedule string        `mapstructure:"SESSION_SWEEP_SCHEDULE"`
	NotificationCapacity int           `mapstructure:"NOTIFICATION_CAPACITY"`
	GuardPendingWait     time.Duration `mapstructure:"GUARD_PENDING_WAIT_MS"`

	// Database Configuration (user directory)
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	// Firebase Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`

	// Elasticsearch Configuration (audit trail, optional)
	ElasticsearchURL string `mapstructure:"ELASTICSEARCH_URL"`
	AuditIndexName   string `mapstructure:"AUDIT_INDEX_NAME"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Durations are configured as plain numbers in their unit.
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.BackendTimeout = time.Duration(v.GetInt("BACKEND_TIMEOUT_SECONDS")) * time.Second
	cfg.SessionTTL = time.Duration(v.GetInt("SESSION_TTL_MINUTES")) * time.Minute
	cfg.GuardPendingWait = time.Duration(v.GetInt("GUARD_PENDING_WAIT_MS")) * time.Millisecond
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("BACKEND_BASE_URL", "http://localhost:5000")
	v.SetDefault("BACKEND_API_TOKEN", "")
	v.SetDefault("BACKEND_TIMEOUT_SECONDS", 10)

	v.SetDefault("IDENTITY_SOURCE", SourceBackend)
	v.SetDefault("ROLE_SOURCE", SourceBackend)
	v.SetDefault("PROFILE_SOURCE", SourceBackend)

	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL_MINUTES", 60)
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("SESSION_SWEEP_SCHEDULE", "@every 1m")
	v.SetDefault("NOTIFICATION_CAPACITY", 20)
	v.SetDefault("GUARD_PENDING_WAIT_MS", 1500)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "garment_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 50)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)

	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")

	v.SetDefault("ELASTICSEARCH_URL", "")
	v.SetDefault("AUDIT_INDEX_NAME", "access-audit")
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	for key, src := range map[string]string{
		"IDENTITY_SOURCE": c.IdentitySource,
		"ROLE_SOURCE":     c.RoleSource,
		"PROFILE_SOURCE":  c.ProfileSource,
	} {
		switch src {
		case SourceBackend, SourceDirectory:
		case SourceFirebase:
			if key != "IDENTITY_SOURCE" {
				return fmt.Errorf("%s=%s is not supported; firebase only provides identities", key, src)
			}
		default:
			return fmt.Errorf("%s has unknown value %q", key, src)
		}
	}

	if c.IdentitySource == SourceFirebase {
		if strings.TrimSpace(c.FirebaseServiceAccountKeyPath) == "" {
			return fmt.Errorf("FIREBASE_SERVICE_ACCOUNT_KEY_PATH is required when IDENTITY_SOURCE=firebase")
		}
		if _, err := os.Stat(c.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
			return fmt.Errorf("firebase service account key file (%s) not found", c.FirebaseServiceAccountKeyPath)
		}
	}

	if c.GinMode == "release" && strings.TrimSpace(c.SessionSecret) == "" {
		return fmt.Errorf("SESSION_SECRET must be set in release mode")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive")
	}
	return nil
}

// UsesDirectory reports whether any source reads the local user directory.
func (c *Config) UsesDirectory() bool {
	return c.IdentitySource == SourceDirectory || c.RoleSource == SourceDirectory || c.ProfileSource == SourceDirectory
}

// DSN builds the postgres DSN for GORM.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
