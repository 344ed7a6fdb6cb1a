package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/keychainmdip/dex-market/internal/domain"
	"github.com/keychainmdip/dex-market/internal/pricing"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
	CORSOrigin   string `mapstructure:"cors_origin"`

	// PublicURL is the externally reachable base URL of this server. Wallets
	// post challenge responses to PublicURL + "/api/v1/login".
	PublicURL string `mapstructure:"public_url"`
}

// LoginCallback returns the URL wallets post challenge responses to
func (c *ServerConfig) LoginCallback() string {
	return strings.TrimSuffix(c.PublicURL, "/") + "/api/v1/login"
}

// DatabaseConfig holds database configuration. Leave Host empty to run the
// marketplace on the in-memory store (demo/standalone mode).
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// KeymasterConfig holds the identity/asset SDK endpoints. Leave GatekeeperURL
// empty to run the in-process local keymaster (demo/standalone mode).
type KeymasterConfig struct {
	GatekeeperURL string        `mapstructure:"gatekeeper_url"`
	WalletURL     string        `mapstructure:"wallet_url"`
	OwnerDID      domain.DID    `mapstructure:"owner_did"`
	Timeout       time.Duration `mapstructure:"timeout"`
	VerifyRetries int           `mapstructure:"verify_retries"`
}

// AuthConfig holds session and challenge configuration
type AuthConfig struct {
	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	ChallengeTTL  time.Duration `mapstructure:"challenge_ttl"`
	MaxChallenges int           `mapstructure:"max_challenges"`
}

// RatesConfig holds the marketplace fee rates
type RatesConfig struct {
	StorageRate     float64 `mapstructure:"storage_rate"` // credits per byte
	EditionRate     int64   `mapstructure:"edition_rate"` // credits per edition
	StartingCredits int64   `mapstructure:"starting_credits"`
}

// Policy converts the configured rates into a pricing policy
func (c RatesConfig) Policy() pricing.Policy {
	return pricing.Policy{StorageRate: c.StorageRate, EditionRate: c.EditionRate}
}

// NATSConfig holds the notification broker configuration. Leave URL empty to
// disable outbound notifications.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	Subject        string        `mapstructure:"subject"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// APIConfig holds configuration for the marketplace API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig    `mapstructure:"server"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Keymaster  KeymasterConfig `mapstructure:"keymaster"`
	Auth       AuthConfig      `mapstructure:"auth"`
	Rates      RatesConfig     `mapstructure:"rates"`
	NATS       NATSConfig      `mapstructure:"nats"`
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.cors_origin", "http://localhost:3009")
	v.SetDefault("server.public_url", "http://localhost:3000")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("keymaster.timeout", "30s")
	v.SetDefault("keymaster.verify_retries", 10)
	v.SetDefault("auth.session_ttl", "24h")
	v.SetDefault("auth.challenge_ttl", "10m")
	v.SetDefault("auth.max_challenges", 1024)
	v.SetDefault("rates.storage_rate", pricing.DefaultStorageRate)
	v.SetDefault("rates.edition_rate", pricing.DefaultEditionRate)
	v.SetDefault("rates.starting_credits", 1000)
	v.SetDefault("nats.subject", "dex.notifications")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", "dex-market")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use environment variables
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the invariants the server cannot start without
func (c *APIConfig) Validate() error {
	if c.Keymaster.OwnerDID.Empty() {
		return errors.New("keymaster.owner_did is required")
	}
	if !c.Keymaster.OwnerDID.Valid() {
		return fmt.Errorf("keymaster.owner_did %q is not a DID", c.Keymaster.OwnerDID)
	}
	if c.Auth.SessionSecret == "" {
		return errors.New("auth.session_secret is required")
	}
	if c.Rates.StorageRate < 0 || c.Rates.EditionRate < 0 {
		return errors.New("rates must not be negative")
	}
	return nil
}

func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("DEX_MARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables.
// This is required for viper to map env vars to config struct fields when no
// config file exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.cors_origin",
		"server.public_url",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Keymaster
		"keymaster.gatekeeper_url",
		"keymaster.wallet_url",
		"keymaster.owner_did",
		"keymaster.timeout",
		"keymaster.verify_retries",
		// Auth
		"auth.session_secret",
		"auth.session_ttl",
		"auth.challenge_ttl",
		"auth.max_challenges",
		// Rates
		"rates.storage_rate",
		"rates.edition_rate",
		"rates.starting_credits",
		// NATS
		"nats.url",
		"nats.subject",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}
