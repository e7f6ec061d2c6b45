package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderGoogle  = "google"
	ProviderCasdoor = "casdoor"
)

// Config is built once at process start and handed to every component that needs it.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// Origins the admin front end is served from. Credentialed CORS is limited to these.
	CORSAllowedOrigins []string

	Database DatabaseConfig
	RedisURL string
	Kafka    KafkaConfig

	Auth    AuthConfig
	Google  GoogleConfig
	Casdoor CasdoorConfig
}

type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type KafkaConfig struct {
	Brokers []string
	// TopicPrefix is prepended to every event type when publishing.
	TopicPrefix string
}

type AuthConfig struct {
	Provider          string
	AllowedDomain     string
	SessionSecret     string
	SessionMaxAge     time.Duration
	SessionCookieName string
	SecureCookies     bool
	CookieDomain      string
	LoginURL          string
	AfterLoginURL     string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
	RedirectURL  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=institute port=5432 sslmode=disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC_PREFIX", "institute.")

	v.SetDefault("AUTH_PROVIDER", ProviderGoogle)
	v.SetDefault("AUTH_ALLOWED_DOMAIN", "boffin.lk")
	v.SetDefault("AUTH_SESSION_MAX_AGE", 30*24*time.Hour)
	v.SetDefault("AUTH_SESSION_COOKIE", "session_token")
	v.SetDefault("AUTH_SECURE_COOKIES", false)
	v.SetDefault("AUTH_LOGIN_URL", "/admin/login")
	v.SetDefault("AUTH_AFTER_LOGIN_URL", "/admin")
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: could not load .env: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    parseLogLevel(v.GetString("LOG_LEVEL")),

		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		Database: DatabaseConfig{
			DSN:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		RedisURL: v.GetString("REDIS_URL"),
		Kafka: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			TopicPrefix: v.GetString("KAFKA_TOPIC_PREFIX"),
		},
		Auth: AuthConfig{
			Provider:          strings.ToLower(v.GetString("AUTH_PROVIDER")),
			AllowedDomain:     strings.ToLower(strings.TrimPrefix(v.GetString("AUTH_ALLOWED_DOMAIN"), "@")),
			SessionSecret:     v.GetString("AUTH_SESSION_SECRET"),
			SessionMaxAge:     v.GetDuration("AUTH_SESSION_MAX_AGE"),
			SessionCookieName: v.GetString("AUTH_SESSION_COOKIE"),
			SecureCookies:     v.GetBool("AUTH_SECURE_COOKIES"),
			CookieDomain:      v.GetString("AUTH_COOKIE_DOMAIN"),
			LoginURL:          v.GetString("AUTH_LOGIN_URL"),
			AfterLoginURL:     v.GetString("AUTH_AFTER_LOGIN_URL"),
		},
		Google: GoogleConfig{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		},
		Casdoor: CasdoorConfig{
			Endpoint:     v.GetString("CASDOOR_ENDPOINT"),
			ClientID:     v.GetString("CASDOOR_CLIENT_ID"),
			ClientSecret: v.GetString("CASDOOR_CLIENT_SECRET"),
			Cert:         v.GetString("CASDOOR_CERT"),
			Organization: v.GetString("CASDOOR_ORGANIZATION"),
			Application:  v.GetString("CASDOOR_APPLICATION"),
			RedirectURL:  v.GetString("CASDOOR_REDIRECT_URL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	var problems []string

	if c.Database.DSN == "" {
		problems = append(problems, "DATABASE_URL is required")
	}
	if c.Auth.AllowedDomain == "" {
		problems = append(problems, "AUTH_ALLOWED_DOMAIN is required")
	}
	if len(c.Auth.SessionSecret) < 32 {
		problems = append(problems, "AUTH_SESSION_SECRET must be at least 32 characters")
	}
	if c.Auth.SessionMaxAge <= 0 {
		problems = append(problems, "AUTH_SESSION_MAX_AGE must be positive")
	}

	switch c.Auth.Provider {
	case ProviderGoogle:
		if c.Google.ClientID == "" || c.Google.ClientSecret == "" || c.Google.RedirectURL == "" {
			problems = append(problems, "GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL are required")
		}
	case ProviderCasdoor:
		if c.Casdoor.Endpoint == "" || c.Casdoor.ClientID == "" || c.Casdoor.RedirectURL == "" {
			problems = append(problems, "CASDOOR_ENDPOINT, CASDOOR_CLIENT_ID and CASDOOR_REDIRECT_URL are required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown AUTH_PROVIDER %q", c.Auth.Provider))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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
