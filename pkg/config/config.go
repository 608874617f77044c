package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Video    VideoConfig
	OpenAI   OpenAIConfig
	Workflow WorkflowConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// StorageConfig holds object storage configuration for transcript archives
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
	Enabled         bool
}

// VideoConfig holds the call provider configuration.
// WebhookAPIKey/WebhookSecret authenticate inbound lifecycle events;
// URL/APIKey/APISecret authenticate outbound provisioning calls.
type VideoConfig struct {
	URL           string
	APIKey        string
	APISecret     string
	WebhookAPIKey string
	WebhookSecret string
	AgentName     string
	UseMock       bool
}

// OpenAIConfig holds summarizer configuration
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// WorkflowConfig holds the durable pipeline engine configuration
type WorkflowConfig struct {
	WorkerCount  int
	PollInterval time.Duration
	MaxRetries   int
	FetchTimeout time.Duration
	// Summary shape parameters forwarded to the summarizer
	ForceLanguage string
	MaxSections   int
	SummaryLength string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  []string{getEnv("ALLOWED_ORIGINS", "http://localhost:3000")},
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "meetingloop"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "meeting-transcripts"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
			Enabled:         getEnvAsBool("STORAGE_ENABLED", false),
		},
		Video: VideoConfig{
			URL:           getEnv("VIDEO_URL", "http://localhost:7880"),
			APIKey:        getEnv("VIDEO_API_KEY", ""),
			APISecret:     getEnv("VIDEO_API_SECRET", ""),
			WebhookAPIKey: getEnv("VIDEO_WEBHOOK_API_KEY", ""),
			WebhookSecret: getEnv("VIDEO_WEBHOOK_SECRET", ""),
			AgentName:     getEnv("VIDEO_AGENT_NAME", "meeting-agent"),
			UseMock:       getEnvAsBool("VIDEO_USE_MOCK", false),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o"),
		},
		Workflow: WorkflowConfig{
			WorkerCount:   getEnvAsInt("WORKFLOW_WORKERS", 2),
			PollInterval:  getEnvAsDuration("WORKFLOW_POLL_INTERVAL", "5s"),
			MaxRetries:    getEnvAsInt("WORKFLOW_MAX_RETRIES", 3),
			FetchTimeout:  getEnvAsDuration("WORKFLOW_FETCH_TIMEOUT", "30s"),
			ForceLanguage: getEnv("SUMMARY_FORCE_LANGUAGE", ""),
			MaxSections:   getEnvAsInt("SUMMARY_MAX_SECTIONS", 6),
			SummaryLength: getEnv("SUMMARY_LENGTH", "medium"),
		},
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Video.WebhookSecret == "" {
		return fmt.Errorf("VIDEO_WEBHOOK_SECRET is required")
	}
	if c.Video.WebhookAPIKey == "" {
		return fmt.Errorf("VIDEO_WEBHOOK_API_KEY is required")
	}
	if c.OpenAI.APIKey == "" && c.Server.Environment == "production" {
		return fmt.Errorf("OPENAI_API_KEY is required in production")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
