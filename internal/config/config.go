package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	AWS       AWSConfig       `yaml:"aws"`
	JWT       JWTConfig       `yaml:"jwt"`
	Admin     AdminConfig     `yaml:"admin"`
	Log       LogConfig       `yaml:"log"`
	Sweeper   SweeperConfig   `yaml:"sweeper"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

// AWSConfig holds S3 configuration for image uploads
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
	PublicURL string `yaml:"public_url"`
}

// JWTConfig holds admin session token configuration
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// AdminConfig holds the moderator account
type AdminConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	CronKey      string `yaml:"cron_key"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// SweeperConfig controls the expired story purge loop
type SweeperConfig struct {
	Interval time.Duration `yaml:"interval"`
	Disabled bool          `yaml:"disabled"`
}

// RateLimitConfig limits submissions per fingerprint. Analytics events get
// their own, looser bucket.
type RateLimitConfig struct {
	RPS            float64 `yaml:"rps"`
	Burst          int     `yaml:"burst"`
	AnalyticsRPS   float64 `yaml:"analytics_rps"`
	AnalyticsBurst int     `yaml:"analytics_burst"`
}

// CORSConfig holds allowed origins
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads configuration from a YAML file, then applies environment
// overrides and defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.Admin.Username == "" || c.Admin.PasswordHash == "" {
		return fmt.Errorf("admin.username and admin.password_hash are required")
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rate_limit.rps must not be negative")
	}
	if c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit.burst must not be negative")
	}
	if c.RateLimit.AnalyticsRPS < 0 || c.RateLimit.AnalyticsBurst < 0 {
		return fmt.Errorf("rate_limit.analytics_rps and rate_limit.analytics_burst must not be negative")
	}
	if c.Sweeper.Interval < 0 {
		return fmt.Errorf("sweeper.interval must not be negative")
	}
	if c.JWT.TTL < 0 {
		return fmt.Errorf("jwt.ttl must not be negative")
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.JWT.Secret, "JWT_SECRET")
	setString(&c.Admin.Username, "ADMIN_USERNAME")
	setString(&c.Admin.PasswordHash, "ADMIN_PASSWORD_HASH")
	setString(&c.Admin.CronKey, "CRON_KEY")
	setString(&c.AWS.AccessKey, "AWS_ACCESS_KEY")
	setString(&c.AWS.SecretKey, "AWS_SECRET_KEY")
	setString(&c.Log.Level, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Sweeper.Interval == 0 {
		c.Sweeper.Interval = time.Hour
	}
	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 0.5
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 5
	}
	if c.RateLimit.AnalyticsRPS == 0 {
		c.RateLimit.AnalyticsRPS = 5
	}
	if c.RateLimit.AnalyticsBurst == 0 {
		c.RateLimit.AnalyticsBurst = 20
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
