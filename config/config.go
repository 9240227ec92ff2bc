// Package config loads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds runtime settings for the places server.
type Config struct {
	Port string

	StoreDriver   string
	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisDB       int
	RedisPassword string

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	GoogleAPIKey    string
	GeocodeURL      string
	GeocodeCacheTTL time.Duration

	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Endpoint  string
	S3PublicURL string

	MaxUploadSize int64

	AllowedOrigins  []string
	LogMode         string
	RateLimitRPS    float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Port = "8080"
	c.StoreDriver = StoreMongo
	c.MongoURI = "mongodb://localhost:27017/?replicaSet=rs0"
	c.MongoDatabase = "places_db"
	c.TokenTTL = time.Hour
	c.BcryptCost = 12
	c.GeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"
	c.GeocodeCacheTTL = 24 * time.Hour
	c.S3Region = "us-east-1"
	c.MaxUploadSize = 500000
	c.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	c.LogMode = "dev"
	c.RateLimitRPS = 5
	c.RateLimitBurst = 10
	c.ShutdownTimeout = 10 * time.Second
}

// Load applies defaults, then a .env file if present, then the process
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := cfg.parseEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) parseEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.StoreDriver, "STORE_DRIVER")
	setString(&c.MongoURI, "MONGODB_URI")
	setString(&c.MongoDatabase, "MONGODB_DATABASE")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.GoogleAPIKey, "GOOGLE_API_KEY")
	setString(&c.GeocodeURL, "GEOCODE_URL")
	setString(&c.S3Region, "AWS_REGION")
	setString(&c.S3AccessKey, "AWS_API_KEY")
	setString(&c.S3SecretKey, "AWS_API_SECRET_KEY")
	setString(&c.S3Bucket, "AWS_BUCKET")
	setString(&c.S3Endpoint, "AWS_ENDPOINT")
	setString(&c.S3PublicURL, "AWS_PUBLIC_URL")
	setString(&c.LogMode, "LOG_MODE")

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.AllowedOrigins = origins
	}

	if err := setInt(&c.RedisDB, "REDIS_DB"); err != nil {
		return err
	}
	if err := setInt(&c.BcryptCost, "BCRYPT_COST"); err != nil {
		return err
	}
	if err := setInt(&c.RateLimitBurst, "RATE_LIMIT_BURST"); err != nil {
		return err
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS value %q: %w", v, err)
		}
		c.RateLimitRPS = f
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_BYTES value %q: %w", v, err)
		}
		c.MaxUploadSize = n
	}
	if err := setDuration(&c.TokenTTL, "TOKEN_TTL"); err != nil {
		return err
	}
	if err := setDuration(&c.GeocodeCacheTTL, "GEOCODE_CACHE_TTL"); err != nil {
		return err
	}
	return setDuration(&c.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI environment variable is not set")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.S3Bucket == "" {
		return fmt.Errorf("AWS_BUCKET environment variable is not set")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
