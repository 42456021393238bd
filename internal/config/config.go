// Package config loads server settings from defaults, an optional YAML
// file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Port string `envconfig:"PORT" yaml:"port"`

	MongoUser string `envconfig:"MONGO_USER" yaml:"mongo_user"`
	MongoPass string `envconfig:"MONGO_PASS" yaml:"mongo_pass"`
	MongoHost string `envconfig:"MONGO_HOST" yaml:"mongo_host"`
	MongoURI  string `envconfig:"MONGO_URI" yaml:"mongo_uri"`
	Database  string `envconfig:"MONGO_DB" yaml:"database"`

	SecretKey string        `envconfig:"SECRET_KEY" yaml:"secret_key"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" yaml:"token_ttl"`

	Store             string `envconfig:"STORE" yaml:"store"`
	ServiceProjection bool   `envconfig:"SERVICE_PROJECTION" yaml:"service_projection"`
	Hardened          bool   `envconfig:"HARDENED" yaml:"hardened"`

	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" yaml:"cors_origins"`
	LogLevel        string        `envconfig:"LOG_LEVEL" yaml:"log_level"`
	BodyLimit       int64         `envconfig:"BODY_LIMIT" yaml:"body_limit"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout"`
}

func Default() Config {
	return Config{
		Port:              "5001",
		MongoHost:         "cluster0.bukpahx.mongodb.net",
		Database:          "carDoctor",
		TokenTTL:          time.Hour,
		Store:             StoreMongo,
		ServiceProjection: true,
		CORSOrigins:       []string{"*"},
		LogLevel:          "info",
		BodyLimit:         100 << 10,
		ShutdownTimeout:   10 * time.Second,
	}
}

// Load builds the config. A .env file in the working directory is optional;
// variables already present in the environment are not overridden by it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate only checks structure. Missing credentials and secrets are left
// to fail where they are used.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(c.Port)
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("%w: PORT must be a valid TCP port (got %q)", ErrInvalid, c.Port)
	}
	switch c.Store {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("%w: unknown STORE %q", ErrInvalid, c.Store)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: TOKEN_TTL must be positive", ErrInvalid)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.BodyLimit <= 0 {
		return fmt.Errorf("%w: BODY_LIMIT must be positive", ErrInvalid)
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: LOG_LEVEL %q", ErrInvalid, c.LogLevel)
	}
	return lvl, nil
}

// MongoConnectionURI returns MongoURI when set, otherwise an SRV string
// assembled from the user, password and host.
func (c *Config) MongoConnectionURI() string {
	if c.MongoURI != "" {
		return c.MongoURI
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(c.MongoUser, c.MongoPass),
		Host:     c.MongoHost,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}
