package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Storage   StorageConfig   `yaml:"storage"`
	IZA       IZAConfig       `yaml:"iza"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Demo      DemoConfig      `yaml:"demo"`
	Users     []User          `yaml:"users"`
}

type ServerConfig struct {
	Port        int `yaml:"port"`
	UploadMaxMB int `yaml:"upload_max_mb"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Durable tier drivers
const (
	DriverNone   = "none"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

type StoreConfig struct {
	// MaxManifestations caps the in-memory tier, 0 = unlimited. Ignored with driver none.
	MaxManifestations int         `yaml:"max_manifestations"`
	Driver            string      `yaml:"driver"`
	SQLitePath        string      `yaml:"sqlite_path"`
	Redis             RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// StorageConfig configures the optional MinIO bucket for uploaded media.
type StorageConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	Region     string `yaml:"region"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

type IZAConfig struct {
	APIURL      string        `yaml:"api_url"`
	Timeout     time.Duration `yaml:"timeout"`
	ProcessedBy string        `yaml:"processed_by"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type DemoConfig struct {
	// FabricateUnknownProtocols answers lookups of unknown 13-digit protocols with a
	// synthetic record. Demo only.
	FabricateUnknownProtocols bool `yaml:"fabricate_unknown_protocols"`
}

// User is a staff account allowed to operate on manifestations.
type User struct {
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Department string `yaml:"department"`
}

// Load reads the YAML file at path, applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PARTICIPA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("PARTICIPA_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("PARTICIPA_SQLITE_PATH"); v != "" {
		c.Store.SQLitePath = v
	}
	if v := os.Getenv("PARTICIPA_REDIS_ADDR"); v != "" {
		c.Store.Redis.Addr = v
	}
	if v := os.Getenv("PARTICIPA_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3001
	}
	if c.Server.UploadMaxMB == 0 {
		c.Server.UploadMaxMB = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverSQLite
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "participa_df.db"
	}
	if c.Store.Redis.Addr == "" {
		c.Store.Redis.Addr = "localhost:6379"
	}
	if c.Store.Redis.KeyPrefix == "" {
		c.Store.Redis.KeyPrefix = "participa_df:manifestacoes:"
	}
	if c.Storage.ExpireDays == 0 {
		c.Storage.ExpireDays = 7
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "participa-df"
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "us-east-1"
	}
	if c.IZA.Timeout == 0 {
		c.IZA.Timeout = 10 * time.Second
	}
	if c.IZA.ProcessedBy == "" {
		c.IZA.ProcessedBy = "IZA v2.0 - Inteligência Artificial da Ouvidoria-Geral do DF"
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 100
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverNone, DriverSQLite, DriverRedis:
	default:
		return fmt.Errorf("store.driver %q: want none, sqlite or redis", c.Store.Driver)
	}
	if c.Storage.Enabled && c.Storage.Endpoint == "" {
		return fmt.Errorf("storage.endpoint is required when storage is enabled")
	}
	if len(c.Users) > 0 && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when staff users are configured")
	}
	return nil
}

// UploadMaxBytes is the multipart size cap for a single request.
func (c *Config) UploadMaxBytes() int64 {
	return int64(c.Server.UploadMaxMB) * 1024 * 1024
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
