package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// Config represents the application configuration
type Config struct {
	ServiceName string
	Server      ServerConfig
	DB          DBConfig
	JWT         JWTConfig
	Auth        AuthConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Content     ContentConfig
	Ledger      LedgerConfig
	Signing     SigningConfig
	Kafka       KafkaConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DBConfig holds database configuration
type DBConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	SigningKey     string
	ExpirationTime time.Duration
}

// AuthConfig controls whether write routes require a bearer token
type AuthConfig struct {
	Required   bool
	BcryptCost int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics-related configuration
type MetricsConfig struct {
	Prefix string
}

// ContentConfig holds the content store (IPFS) configuration.
// An empty IPFSURL means every write goes straight to the local store.
// An empty LocalDir keeps the local store in memory only.
type ContentConfig struct {
	IPFSURL  string
	Timeout  time.Duration
	LocalDir string
}

// LedgerConfig holds the notarization ledger configuration.
// An empty URL means every attestation is recorded on the local ledger.
// An empty LocalDir keeps the local ledger in memory only.
type LedgerConfig struct {
	URL      string
	APIKey   string
	Timeout  time.Duration
	LocalDir string
}

// SigningConfig holds the verification token signing key (hex secp256k1).
// An empty key selects unsigned tokens.
type SigningConfig struct {
	PrivateKey string
}

// KafkaConfig holds the custody event feed configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load loads the application configuration from environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "verichain"),
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8001"),
			Env:  getEnv("APP_ENV", "development"),
		},
		DB: DBConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "verichain_db"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		JWT: JWTConfig{
			SigningKey:     getEnv("JWT_SIGNING_KEY", "change-this-secret"),
			ExpirationTime: getEnvAsDuration("JWT_EXPIRATION", 60*time.Minute),
		},
		Auth: AuthConfig{
			Required:   getEnvAsBool("AUTH_REQUIRED", false),
			BcryptCost: getEnvAsInt("BCRYPT_COST", 10),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "verichain"),
		},
		Content: ContentConfig{
			IPFSURL:  getEnv("IPFS_API_URL", ""),
			Timeout:  getEnvAsDuration("IPFS_TIMEOUT", 10*time.Second),
			LocalDir: getEnv("CONTENT_LOCAL_DIR", "data/content"),
		},
		Ledger: LedgerConfig{
			URL:      getEnv("LEDGER_URL", ""),
			APIKey:   getEnv("LEDGER_API_KEY", ""),
			Timeout:  getEnvAsDuration("LEDGER_TIMEOUT", 30*time.Second),
			LocalDir: getEnv("LEDGER_LOCAL_DIR", "data/ledger"),
		},
		Signing: SigningConfig{
			PrivateKey: strings.TrimPrefix(getEnv("PRIVATE_KEY", ""), "0x"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TRACKING_TOPIC", "tracking-events"),
		},
	}

	if cfg.DB.Driver != "postgres" && cfg.DB.Driver != "memory" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}

	return cfg, nil
}

// LogFields returns the configuration as zap fields, secrets omitted
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("server_port", c.Server.Port),
		zap.String("db_driver", c.DB.Driver),
		zap.String("db_host", c.DB.Host),
		zap.String("db_name", c.DB.DBName),
		zap.Bool("ipfs_configured", c.Content.IPFSURL != ""),
		zap.Bool("ledger_configured", c.Ledger.URL != ""),
		zap.Bool("signing_configured", c.Signing.PrivateKey != ""),
		zap.Strings("kafka_brokers", c.Kafka.Brokers),
		zap.Bool("auth_required", c.Auth.Required),
	}
}

// Helper functions to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper function to get environment variables as gorm log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	switch getEnv(key, "") {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
