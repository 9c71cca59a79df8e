package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
	_ "time/tzdata" // day boundaries must resolve in minimal images

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	App      AppConfig      `yaml:"app"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	Migrate  bool   `yaml:"migrate"`
}

// AWSConfig holds S3 configuration for meal photos
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`   // S3-compatible storage
	PublicURL string `yaml:"public_url"` // base URL photos are served from
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// AppConfig holds tracker behaviour settings
type AppConfig struct {
	// Timezone sets the calendar day used for today's meals
	Timezone       string        `yaml:"timezone"`
	AnalysisDelay  time.Duration `yaml:"analysis_delay"`
	SessionIdleTTL time.Duration `yaml:"session_idle_ttl"`
}

// Load reads configuration from a YAML file. Values from a .env file and the
// environment override secrets from the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and env overrides
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaults() Config {
	return Config{
		Server:   ServerConfig{Port: 8080, Host: "0.0.0.0"},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, SSLMode: "disable", Migrate: true},
		AWS:      AWSConfig{Region: "us-east-1"},
		JWT:      JWTConfig{Expiry: 365 * 24 * time.Hour},
		Log:      LogConfig{Level: "info"},
		App: AppConfig{
			Timezone:       "UTC",
			AnalysisDelay:  2 * time.Second,
			SessionIdleTTL: 30 * time.Minute,
		},
	}
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"DATABASE_PASSWORD":     &cfg.Database.Password,
		"JWT_SECRET":            &cfg.JWT.Secret,
		"AWS_ACCESS_KEY_ID":     &cfg.AWS.AccessKey,
		"AWS_SECRET_ACCESS_KEY": &cfg.AWS.SecretKey,
		"LOG_LEVEL":             &cfg.Log.Level,
		"APP_TIMEZONE":          &cfg.App.Timezone,
	}
	for key, field := range overrides {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			*field = val
		}
	}
}

// Validate checks settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if _, err := c.App.Location(); err != nil {
		return err
	}
	if c.App.AnalysisDelay < 0 {
		return fmt.Errorf("app.analysis_delay must not be negative")
	}
	return nil
}

// Location returns the timezone for day boundaries
func (a AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid app.timezone %q: %w", a.Timezone, err)
	}
	return loc, nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
