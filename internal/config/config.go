package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SPOTBOOK_"

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	Host            string        `yaml:"host"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration. URL wins over the discrete fields.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	SSLMode         string `yaml:"sslmode"`
	ConnectAttempts int    `yaml:"connect_attempts"`
}

// RedisConfig holds the spot detail cache configuration; an empty Addr disables the cache
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// AWSConfig holds S3 configuration for image uploads
type AWSConfig struct {
	Region        string        `yaml:"region"`
	S3Bucket      string        `yaml:"s3_bucket"`
	AccessKey     string        `yaml:"access_key"`
	SecretKey     string        `yaml:"secret_key"`
	Endpoint      string        `yaml:"endpoint"`
	PublicURL     string        `yaml:"public_url"`
	PresignExpiry time.Duration `yaml:"presign_expiry"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads .env, then the YAML file, then SPOTBOOK_* environment
// overrides, fills defaults and validates the result. Neither file is required.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"SERVER_HOST":       &c.Server.Host,
		"DATABASE_URL":      &c.Database.URL,
		"DATABASE_HOST":     &c.Database.Host,
		"DATABASE_USER":     &c.Database.User,
		"DATABASE_PASSWORD": &c.Database.Password,
		"DATABASE_NAME":     &c.Database.DBName,
		"DATABASE_SSLMODE":  &c.Database.SSLMode,
		"REDIS_ADDR":        &c.Redis.Addr,
		"REDIS_PASSWORD":    &c.Redis.Password,
		"AWS_REGION":        &c.AWS.Region,
		"AWS_S3_BUCKET":     &c.AWS.S3Bucket,
		"AWS_ACCESS_KEY":    &c.AWS.AccessKey,
		"AWS_SECRET_KEY":    &c.AWS.SecretKey,
		"AWS_ENDPOINT":      &c.AWS.Endpoint,
		"AWS_PUBLIC_URL":    &c.AWS.PublicURL,
		"JWT_SECRET":        &c.JWT.Secret,
		"LOG_LEVEL":         &c.Log.Level,
		"LOG_FORMAT":        &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SERVER_PORT":      &c.Server.Port,
		"DATABASE_PORT":    &c.Database.Port,
		"DATABASE_CONNECT": &c.Database.ConnectAttempts,
		"REDIS_DB":         &c.Redis.DB,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"SERVER_SHUTDOWN_TIMEOUT": &c.Server.ShutdownTimeout,
		"REDIS_TTL":               &c.Redis.TTL,
		"AWS_PRESIGN_EXPIRY":      &c.AWS.PresignExpiry,
		"JWT_EXPIRY":              &c.JWT.Expiry,
	}
	for key, dst := range durations {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.ConnectAttempts == 0 {
		c.Database.ConnectAttempts = 5
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 5 * time.Minute
	}
	if c.AWS.Region == "" {
		c.AWS.Region = "us-east-1"
	}
	if c.AWS.PresignExpiry == 0 {
		c.AWS.PresignExpiry = 15 * time.Minute
	}
	if c.JWT.Expiry == 0 {
		c.JWT.Expiry = 7 * 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// Addr returns the listen address of the HTTP server
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ConnString returns the PostgreSQL connection URL
func (c *DatabaseConfig) ConnString() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}
